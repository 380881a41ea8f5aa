package courierrepo

import (
	"context"
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormCourierRepository implements ports.CourierDirectory using GORM.
// Courier onboarding happens elsewhere; Add exists for seeding.
type GormCourierRepository struct {
	db *gorm.DB
}

func NewGormCourierRepository(db *gorm.DB) *GormCourierRepository {
	return &GormCourierRepository{db: db}
}

// Add stores a courier profile.
func (r *GormCourierRepository) Add(ctx context.Context, profile ports.CourierProfile) error {
	if err := profile.ID.Validate(); err != nil {
		return err
	}
	if profile.Name == "" {
		return errs.NewValueIsRequiredError("name")
	}

	dto := fromProfile(profile)
	return r.db.WithContext(ctx).Create(&dto).Error
}

// Get retrieves a courier profile by ID.
func (r *GormCourierRepository) Get(ctx context.Context, id kernel.UUID) (ports.CourierProfile, error) {
	if err := id.Validate(); err != nil {
		return ports.CourierProfile{}, err
	}

	var dto CourierDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.CourierProfile{}, errs.NewObjectNotFoundError("courier", id.String())
		}
		return ports.CourierProfile{}, err
	}

	return toProfile(dto)
}

// ReportPresence stores the reported location and marks the courier online.
func (r *GormCourierRepository) ReportPresence(
	ctx context.Context,
	presence ports.CourierPresence,
) (ports.CourierProfile, error) {
	if err := presence.CourierID.Validate(); err != nil {
		return ports.CourierProfile{}, err
	}
	if err := presence.Location.Validate(); err != nil {
		return ports.CourierProfile{}, err
	}

	changes := map[string]any{
		"lat":                 presence.Location.Lat(),
		"lon":                 presence.Location.Lon(),
		"is_online":           true,
		"location_updated_at": presence.ReportedAt,
		"updated_at":          presence.ReportedAt,
	}
	if presence.IsAvailable != nil {
		changes["is_available"] = *presence.IsAvailable
	}

	result := r.db.WithContext(ctx).
		Model(&CourierDTO{}).
		Where("id = ?", presence.CourierID.Bytes()).
		Updates(changes)
	if result.Error != nil {
		return ports.CourierProfile{}, result.Error
	}
	if result.RowsAffected == 0 {
		return ports.CourierProfile{}, errs.NewObjectNotFoundError("courier", presence.CourierID.String())
	}

	return r.Get(ctx, presence.CourierID)
}
