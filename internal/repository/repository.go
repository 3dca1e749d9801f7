package repository

import (
	"context"
	"time"

	"gearshare-backend/internal/domain"
)

type RentalRepository interface {
	Create(ctx context.Context, rt *domain.RentalRequest) error
	GetByID(ctx context.Context, id int64) (*domain.RentalRequest, error)
	Update(ctx context.Context, rt *domain.RentalRequest) error
	ListByRenter(ctx context.Context, renterID int64, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error)
	ListByOwner(ctx context.Context, ownerID int64, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error)
	// ListApprovedBefore returns approved rentals whose last status change
	// is older than cutoff. Used by the payment-deadline sweep.
	ListApprovedBefore(ctx context.Context, cutoff time.Time) ([]domain.RentalRequest, error)
	// ListCompletedBefore returns completed rentals last touched before
	// cutoff. Used by the retention sweep.
	ListCompletedBefore(ctx context.Context, cutoff time.Time) ([]domain.RentalRequest, error)
}

type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	Update(ctx context.Context, item *domain.Item) error
}

type ReportRepository interface {
	Create(ctx context.Context, r *domain.ConditionReport) error
	ListByRental(ctx context.Context, rentalID int64) ([]domain.ConditionReport, error)
	CountByType(ctx context.Context, rentalID int64, typ domain.ReportType) (int32, error)
	Exists(ctx context.Context, rentalID int64, typ domain.ReportType, userID int64) (bool, error)
}

type ExtensionRepository interface {
	Create(ctx context.Context, e *domain.Extension) error
	GetByID(ctx context.Context, id int64) (*domain.Extension, error)
	Update(ctx context.Context, e *domain.Extension) error
	ListByRental(ctx context.Context, rentalID int64) ([]domain.Extension, error)
	// GetOpenByRental returns the extension occupying the rental's single
	// in-flight slot, or domain.ErrNotFound when the slot is free.
	GetOpenByRental(ctx context.Context, rentalID int64) (*domain.Extension, error)
}

type DisputeRepository interface {
	Create(ctx context.Context, d *domain.Dispute) error
	GetByID(ctx context.Context, id int64) (*domain.Dispute, error)
	Update(ctx context.Context, d *domain.Dispute) error
	ListByRental(ctx context.Context, rentalID int64) ([]domain.Dispute, error)
	ListByStatus(ctx context.Context, statuses []domain.DisputeStatus, page, pageSize int32) ([]domain.Dispute, int32, error)
	HasBlocking(ctx context.Context, rentalID int64) (bool, error)
}

type EscrowRepository interface {
	CreateAccount(ctx context.Context, acct *domain.EscrowAccount) error
	GetByRental(ctx context.Context, rentalID int64) (*domain.EscrowAccount, error)
	UpdateStatus(ctx context.Context, acctID int64, status domain.EscrowStatus, releasedAt *time.Time) error
	// AddFunds grows a held account when an extension capture confirms.
	AddFunds(ctx context.Context, acctID int64, amountDeltaCents, feeDeltaCents int64) error
	CreateEntry(ctx context.Context, e *domain.LedgerEntry) error
	ListEntries(ctx context.Context, rentalID int64) ([]domain.LedgerEntry, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	List(ctx context.Context, userID int64, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID int64) error
}

// CallbackRepository deduplicates payment processor callbacks. Record
// returns domain.ErrTxnSeen when the transaction id was seen before.
// Delete frees a transaction id whose apply failed, so the processor's
// retry is not mistaken for a replay.
type CallbackRepository interface {
	Record(ctx context.Context, txnID, kind string, targetID int64, outcome string) error
	Delete(ctx context.Context, txnID string) error
}

// AvailabilityRepository is the date-availability store. Release is
// idempotent; Block fails with domain.ErrDatesUnavailable when the range
// overlaps a block held by another rental.
type AvailabilityRepository interface {
	Block(ctx context.Context, itemID int64, startDate, endDate string, rentalID int64) error
	Release(ctx context.Context, rentalID int64) error
	Extend(ctx context.Context, rentalID int64, newEndDate string) error
}
