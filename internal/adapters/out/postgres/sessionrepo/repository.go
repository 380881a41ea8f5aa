// Package sessionrepo archives closed tracking sessions for analytics.
package sessionrepo

import (
	"context"
	"time"

	"orderflow/internal/core/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionDTO is one row of tracking_session_archive.
type SessionDTO struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ObserverID uuid.UUID `gorm:"type:uuid;not null;index"`
	Source     string    `gorm:"type:varchar(16);not null"`
	StartedAt  time.Time `gorm:"not null"`
	EndedAt    time.Time `gorm:"not null"`
	DurationMs int64     `gorm:"not null"`
	EndReason  string    `gorm:"type:varchar(32);not null"`
}

func (SessionDTO) TableName() string {
	return "tracking_session_archive"
}

// GormSessionArchive implements ports.SessionArchive.
type GormSessionArchive struct {
	db *gorm.DB
}

func NewGormSessionArchive(db *gorm.DB) *GormSessionArchive {
	return &GormSessionArchive{db: db}
}

func (a *GormSessionArchive) Archive(ctx context.Context, record ports.SessionRecord) error {
	dto := SessionDTO{
		OrderID:    record.OrderID.Bytes(),
		ObserverID: record.ObserverID.Bytes(),
		Source:     record.Source,
		StartedAt:  record.StartedAt,
		EndedAt:    record.EndedAt,
		DurationMs: record.Duration.Milliseconds(),
		EndReason:  record.EndReason,
	}
	return a.db.WithContext(ctx).Create(&dto).Error
}
