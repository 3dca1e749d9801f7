package service

import (
	"context"
	"time"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/payment"
)

// LifecycleService owns the rental request's status. It is the only
// component that mutates rental status; every transition is validated
// against the transition table and runs under the per-rental lock.
type LifecycleService interface {
	CreateRequest(ctx context.Context, renterID, itemID int64, startDate, endDate string, totalAmountCents int64) (*domain.RentalRequest, error)
	Approve(ctx context.Context, ownerID, rentalID int64) (*domain.RentalRequest, error)
	Decline(ctx context.Context, ownerID, rentalID int64, reason string) (*domain.RentalRequest, error)
	Cancel(ctx context.Context, userID, rentalID int64, reason string) (*domain.RentalRequest, error)
	Complete(ctx context.Context, ownerID, rentalID int64) (*domain.RentalRequest, error)
	// HandlePaymentCallback applies the processor's capture confirmation
	// for a rental (approved -> paid). Replays are dropped by transaction
	// id before the rental lock is taken.
	HandlePaymentCallback(ctx context.Context, cb payment.Callback) error
	Get(ctx context.Context, userID, rentalID int64) (*domain.RentalRequest, error)
	ListByRenter(ctx context.Context, renterID int64, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error)
	ListByOwner(ctx context.Context, ownerID int64, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error)
	// CancelExpiredApprovals cancels approved rentals whose payment was
	// not confirmed within the grace period. Called by the deadline sweep.
	CancelExpiredApprovals(ctx context.Context, grace time.Duration) (int, error)
	// ArchiveOldRentals moves completed rentals past the retention window
	// into the archived housekeeping state.
	ArchiveOldRentals(ctx context.Context, retention time.Duration) (int, error)
}

// EscrowService tracks money held, released, refunded per rental. Its
// mutating methods must be called under the rental lock held by the
// lifecycle or dispute service; it takes no locks of its own.
type EscrowService interface {
	Hold(ctx context.Context, rentalID, amountCents, feeCents, depositCents int64, processorTxnID string) (*domain.EscrowAccount, error)
	Release(ctx context.Context, rentalID, ownerID, renterID int64) (*domain.EscrowAccount, error)
	AddExtensionFunds(ctx context.Context, rentalID, costCents int64, processorTxnID string) error
	ApplyDisputeSettlement(ctx context.Context, d *domain.Dispute, rt *domain.RentalRequest) error
	GetByRental(ctx context.Context, rentalID int64) (*domain.EscrowAccount, []domain.LedgerEntry, error)
}

// ReportService is the condition report gate: both pickup reports must
// exist before return reports may be filed, and both return reports
// before payment release is permitted.
type ReportService interface {
	FileReport(ctx context.Context, userID, rentalID int64, typ domain.ReportType, photos []string, damages []domain.Damage, signature string) (*domain.ConditionReport, error)
	// CanReleasePayment reports whether escrow release is permitted and,
	// when it is not, the unmet condition.
	CanReleasePayment(ctx context.Context, rentalID int64) (bool, string, error)
	ListReports(ctx context.Context, userID, rentalID int64) ([]domain.ConditionReport, error)
}

// ExtensionService negotiates end-date extensions: renter proposes
// within the final 24 hours, owner approves or declines, and the end
// date moves only once the processor confirms the additional capture.
type ExtensionService interface {
	Propose(ctx context.Context, renterID, rentalID int64, newEndDate, message string) (*domain.Extension, error)
	Respond(ctx context.Context, ownerID, extensionID int64, approve bool) (*domain.Extension, error)
	HandlePaymentCallback(ctx context.Context, cb payment.Callback) error
	ListByRental(ctx context.Context, userID, rentalID int64) ([]domain.Extension, error)
}

// DisputeService adjudicates disagreements and can override the
// ledger's default split with a partial refund/charge settlement.
type DisputeService interface {
	File(ctx context.Context, userID, rentalID int64, reason domain.DisputeReason, description string, evidence []string) (*domain.Dispute, error)
	SetStatus(ctx context.Context, adminID, disputeID int64, status domain.DisputeStatus) (*domain.Dispute, error)
	Resolve(ctx context.Context, adminID, disputeID int64, decision domain.DisputeDecision, refundToRenterCents, chargeToOwnerCents int64, message string) (*domain.Dispute, error)
	Get(ctx context.Context, disputeID int64) (*domain.Dispute, error)
	ListOpen(ctx context.Context, page, pageSize int32) ([]domain.Dispute, int32, error)
	ListByRental(ctx context.Context, userID, rentalID int64) ([]domain.Dispute, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, userID int64, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID int64) error
}

// Directory resolves a user id to contact details. Identity lives in an
// external system; this is the whole surface this service needs from it.
type Directory interface {
	Lookup(ctx context.Context, userID int64) (name, email string, err error)
}

type EmailService interface {
	SendEventNotification(ctx context.Context, toEmail, toName, subject, body string) error
	SendAdminAlert(ctx context.Context, subject, body string) error
}
