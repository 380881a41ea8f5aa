package orderrepo

import (
	"context"
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Add inserts the order row and its initial history.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	db := r.db.WithContext(ctx)
	dto := fromDomain(aggregate)
	if err := db.Create(&dto).Error; err != nil {
		return err
	}
	if err := r.appendHistory(db, aggregate); err != nil {
		return err
	}

	aggregate.MarkPersisted(dto.Version)
	return nil
}

// Update writes the order only if the stored row still has the status and
// version it was read with. Writers that keep the status unchanged (courier
// location, reassignment) are serialized by the version.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	db := r.db.WithContext(ctx)
	dto := fromDomain(aggregate)
	readVersion := dto.Version
	dto.Version++

	result := db.Model(&OrderDTO{}).
		Where("id = ? AND status = ? AND version = ?", dto.ID, string(aggregate.PersistedStatus()), readVersion).
		Select("*").Omit("id", "created_at").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&OrderDTO{}).Where("id = ?", dto.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errs.NewObjectNotFoundError("order", aggregate.ID().String())
		}
		return errs.NewConcurrentUpdateError(aggregate.ID(), aggregate.PersistedStatus())
	}

	if err := r.appendHistory(db, aggregate); err != nil {
		return err
	}

	aggregate.MarkPersisted(dto.Version)
	return nil
}

// Get retrieves an order with its full history.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	db := r.db.WithContext(ctx)
	var dto OrderDTO
	if err := db.First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	var history []HistoryEntryDTO
	if err := db.Where("order_id = ?", id.Bytes()).Order("seq").Find(&history).Error; err != nil {
		return nil, err
	}

	return toDomain(dto, history)
}

// GetActiveByCourier retrieves the non-terminal orders assigned to a courier.
func (r *GormOrderRepository) GetActiveByCourier(ctx context.Context, courierID kernel.UUID) ([]*order.Order, error) {
	if err := courierID.Validate(); err != nil {
		return nil, err
	}

	db := r.db.WithContext(ctx)
	var dtos []OrderDTO
	if err := db.Where("courier_id = ? AND status NOT IN ?", courierID.Bytes(), terminalStatuses()).
		Order("created_at").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		var history []HistoryEntryDTO
		if err := db.Where("order_id = ?", dto.ID).Order("seq").Find(&history).Error; err != nil {
			return nil, err
		}

		o, err := toDomain(dto, history)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}

func (r *GormOrderRepository) appendHistory(db *gorm.DB, aggregate *order.Order) error {
	unsaved := aggregate.UnsavedHistory()
	if len(unsaved) == 0 {
		return nil
	}

	base := len(aggregate.History()) - len(unsaved)
	rows := historyFromDomain(aggregate.ID(), base, unsaved)
	return db.Create(&rows).Error
}

func terminalStatuses() []string {
	out := make([]string, 0, 3)
	for _, s := range order.AllStatuses() {
		if s.IsTerminal() {
			out = append(out, string(s))
		}
	}
	return out
}
