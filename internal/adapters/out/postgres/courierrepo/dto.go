// Package courierrepo stores courier profiles and their reported presence.
package courierrepo

import (
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/ports"

	"github.com/google/uuid"
)

// CourierDTO is one row of the couriers table.
type CourierDTO struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name              string     `gorm:"type:varchar(255);not null"`
	BranchID          *uuid.UUID `gorm:"type:uuid;index"`
	Lat               *float64
	Lon               *float64
	IsOnline          bool `gorm:"not null;default:false"`
	IsAvailable       bool `gorm:"not null;default:true"`
	LocationUpdatedAt *time.Time
	UpdatedAt         time.Time
}

func (CourierDTO) TableName() string {
	return "couriers"
}

func fromProfile(p ports.CourierProfile) CourierDTO {
	dto := CourierDTO{
		ID:          p.ID.Bytes(),
		Name:        p.Name,
		IsOnline:    p.IsOnline,
		IsAvailable: p.IsAvailable,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.BranchID != nil {
		raw := p.BranchID.Bytes()
		dto.BranchID = &raw
	}
	if p.Location != nil {
		lat, lon := p.Location.Lat(), p.Location.Lon()
		dto.Lat, dto.Lon = &lat, &lon
		at := p.UpdatedAt
		dto.LocationUpdatedAt = &at
	}
	return dto
}

func toProfile(dto CourierDTO) (ports.CourierProfile, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return ports.CourierProfile{}, err
	}

	p := ports.CourierProfile{
		ID:          id,
		Name:        dto.Name,
		IsOnline:    dto.IsOnline,
		IsAvailable: dto.IsAvailable,
		UpdatedAt:   dto.UpdatedAt,
	}

	if dto.BranchID != nil {
		branchID, branchErr := kernel.UUIDFromBytes(dto.BranchID[:])
		if branchErr != nil {
			return ports.CourierProfile{}, branchErr
		}
		p.BranchID = &branchID
	}

	if dto.Lat != nil && dto.Lon != nil {
		loc, locErr := kernel.NewLocation(*dto.Lat, *dto.Lon)
		if locErr != nil {
			return ports.CourierProfile{}, locErr
		}
		p.Location = &loc
	}

	return p, nil
}
