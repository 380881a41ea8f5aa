package postgres

import (
	"orderflow/internal/adapters/out/postgres/branchrepo"
	"orderflow/internal/adapters/out/postgres/courierrepo"
	"orderflow/internal/adapters/out/postgres/orderrepo"
	"orderflow/internal/adapters/out/postgres/sessionrepo"

	"gorm.io/gorm"
)

// Migrate creates or updates every table the service owns or reads.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&orderrepo.HistoryEntryDTO{},
		&courierrepo.CourierDTO{},
		&branchrepo.BranchDTO{},
		&sessionrepo.SessionDTO{},
	)
}
