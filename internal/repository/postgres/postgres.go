package postgres

import (
	"database/sql"

	"gearshare-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.RentalRepository
	repository.ItemRepository
	repository.ReportRepository
	repository.ExtensionRepository
	repository.DisputeRepository
	repository.EscrowRepository
	repository.NotificationRepository
	repository.CallbackRepository
	repository.AvailabilityRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		RentalRepository:       NewRentalRepository(db),
		ItemRepository:         NewItemRepository(db),
		ReportRepository:       NewReportRepository(db),
		ExtensionRepository:    NewExtensionRepository(db),
		DisputeRepository:      NewDisputeRepository(db),
		EscrowRepository:       NewEscrowRepository(db),
		NotificationRepository: NewNotificationRepository(db),
		CallbackRepository:     NewCallbackRepository(db),
		AvailabilityRepository: NewAvailabilityRepository(db),
	}
}
