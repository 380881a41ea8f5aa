// Package branchrepo reads branch coordinates for the pickup geofence.
package branchrepo

import (
	"context"
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BranchDTO is one row of the branches table. Branches are managed by
// another service; only the coordinates are read here.
type BranchDTO struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"type:varchar(255);not null"`
	Lat  *float64
	Lon  *float64
}

func (BranchDTO) TableName() string {
	return "branches"
}

// GormBranchRepository implements ports.BranchDirectory.
type GormBranchRepository struct {
	db *gorm.DB
}

func NewGormBranchRepository(db *gorm.DB) *GormBranchRepository {
	return &GormBranchRepository{db: db}
}

// Add stores a branch; loc may be nil.
func (r *GormBranchRepository) Add(ctx context.Context, id kernel.UUID, name string, loc *kernel.Location) error {
	if err := id.Validate(); err != nil {
		return err
	}

	dto := BranchDTO{ID: id.Bytes(), Name: name}
	if loc != nil {
		lat, lon := loc.Lat(), loc.Lon()
		dto.Lat, dto.Lon = &lat, &lon
	}
	return r.db.WithContext(ctx).Create(&dto).Error
}

// Location returns nil without error when the branch has no coordinates.
func (r *GormBranchRepository) Location(ctx context.Context, branchID kernel.UUID) (*kernel.Location, error) {
	if err := branchID.Validate(); err != nil {
		return nil, err
	}

	var dto BranchDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", branchID.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("branch", branchID.String())
		}
		return nil, err
	}

	if dto.Lat == nil || dto.Lon == nil {
		return nil, nil
	}
	loc, err := kernel.NewLocation(*dto.Lat, *dto.Lon)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}
