package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"gearshare-backend/internal/domain"
)

type MockRentalRepo struct{ mock.Mock }

func (m *MockRentalRepo) Create(ctx context.Context, rt *domain.RentalRequest) error {
	args := m.Called(ctx, rt)
	return args.Error(0)
}

func (m *MockRentalRepo) GetByID(ctx context.Context, id int64) (*domain.RentalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalRequest), args.Error(1)
}

func (m *MockRentalRepo) Update(ctx context.Context, rt *domain.RentalRequest) error {
	args := m.Called(ctx, rt)
	return args.Error(0)
}

func (m *MockRentalRepo) ListByRenter(ctx context.Context, renterID int64, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error) {
	args := m.Called(ctx, renterID, status, page, pageSize)
	return args.Get(0).([]domain.RentalRequest), args.Get(1).(int32), args.Error(2)
}

func (m *MockRentalRepo) ListByOwner(ctx context.Context, ownerID int64, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error) {
	args := m.Called(ctx, ownerID, status, page, pageSize)
	return args.Get(0).([]domain.RentalRequest), args.Get(1).(int32), args.Error(2)
}

func (m *MockRentalRepo) ListApprovedBefore(ctx context.Context, cutoff time.Time) ([]domain.RentalRequest, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).([]domain.RentalRequest), args.Error(1)
}

func (m *MockRentalRepo) ListCompletedBefore(ctx context.Context, cutoff time.Time) ([]domain.RentalRequest, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).([]domain.RentalRequest), args.Error(1)
}

type MockItemRepo struct{ mock.Mock }

func (m *MockItemRepo) Create(ctx context.Context, item *domain.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepo) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockItemRepo) Update(ctx context.Context, item *domain.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

type MockReportRepo struct{ mock.Mock }

func (m *MockReportRepo) Create(ctx context.Context, r *domain.ConditionReport) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReportRepo) ListByRental(ctx context.Context, rentalID int64) ([]domain.ConditionReport, error) {
	args := m.Called(ctx, rentalID)
	return args.Get(0).([]domain.ConditionReport), args.Error(1)
}

func (m *MockReportRepo) CountByType(ctx context.Context, rentalID int64, typ domain.ReportType) (int32, error) {
	args := m.Called(ctx, rentalID, typ)
	return args.Get(0).(int32), args.Error(1)
}

func (m *MockReportRepo) Exists(ctx context.Context, rentalID int64, typ domain.ReportType, userID int64) (bool, error) {
	args := m.Called(ctx, rentalID, typ, userID)
	return args.Bool(0), args.Error(1)
}

type MockExtensionRepo struct{ mock.Mock }

func (m *MockExtensionRepo) Create(ctx context.Context, e *domain.Extension) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockExtensionRepo) GetByID(ctx context.Context, id int64) (*domain.Extension, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Extension), args.Error(1)
}

func (m *MockExtensionRepo) Update(ctx context.Context, e *domain.Extension) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockExtensionRepo) ListByRental(ctx context.Context, rentalID int64) ([]domain.Extension, error) {
	args := m.Called(ctx, rentalID)
	return args.Get(0).([]domain.Extension), args.Error(1)
}

func (m *MockExtensionRepo) GetOpenByRental(ctx context.Context, rentalID int64) (*domain.Extension, error) {
	args := m.Called(ctx, rentalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Extension), args.Error(1)
}

type MockDisputeRepo struct{ mock.Mock }

func (m *MockDisputeRepo) Create(ctx context.Context, d *domain.Dispute) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDisputeRepo) GetByID(ctx context.Context, id int64) (*domain.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dispute), args.Error(1)
}

func (m *MockDisputeRepo) Update(ctx context.Context, d *domain.Dispute) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDisputeRepo) ListByRental(ctx context.Context, rentalID int64) ([]domain.Dispute, error) {
	args := m.Called(ctx, rentalID)
	return args.Get(0).([]domain.Dispute), args.Error(1)
}

func (m *MockDisputeRepo) ListByStatus(ctx context.Context, statuses []domain.DisputeStatus, page, pageSize int32) ([]domain.Dispute, int32, error) {
	args := m.Called(ctx, statuses, page, pageSize)
	return args.Get(0).([]domain.Dispute), args.Get(1).(int32), args.Error(2)
}

func (m *MockDisputeRepo) HasBlocking(ctx context.Context, rentalID int64) (bool, error) {
	args := m.Called(ctx, rentalID)
	return args.Bool(0), args.Error(1)
}

type MockEscrowRepo struct{ mock.Mock }

func (m *MockEscrowRepo) CreateAccount(ctx context.Context, acct *domain.EscrowAccount) error {
	args := m.Called(ctx, acct)
	return args.Error(0)
}

func (m *MockEscrowRepo) GetByRental(ctx context.Context, rentalID int64) (*domain.EscrowAccount, error) {
	args := m.Called(ctx, rentalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EscrowAccount), args.Error(1)
}

func (m *MockEscrowRepo) UpdateStatus(ctx context.Context, acctID int64, status domain.EscrowStatus, releasedAt *time.Time) error {
	args := m.Called(ctx, acctID, status, releasedAt)
	return args.Error(0)
}

func (m *MockEscrowRepo) AddFunds(ctx context.Context, acctID int64, amountDeltaCents, feeDeltaCents int64) error {
	args := m.Called(ctx, acctID, amountDeltaCents, feeDeltaCents)
	return args.Error(0)
}

func (m *MockEscrowRepo) CreateEntry(ctx context.Context, e *domain.LedgerEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEscrowRepo) ListEntries(ctx context.Context, rentalID int64) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, rentalID)
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

type MockNotificationRepo struct{ mock.Mock }

func (m *MockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepo) List(ctx context.Context, userID int64, page, pageSize int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, page, pageSize)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}

func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id, userID int64) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

type MockCallbackRepo struct{ mock.Mock }

func (m *MockCallbackRepo) Record(ctx context.Context, txnID, kind string, targetID int64, outcome string) error {
	args := m.Called(ctx, txnID, kind, targetID, outcome)
	return args.Error(0)
}

func (m *MockCallbackRepo) Delete(ctx context.Context, txnID string) error {
	args := m.Called(ctx, txnID)
	return args.Error(0)
}

type MockAvailabilityRepo struct{ mock.Mock }

func (m *MockAvailabilityRepo) Block(ctx context.Context, itemID int64, startDate, endDate string, rentalID int64) error {
	args := m.Called(ctx, itemID, startDate, endDate, rentalID)
	return args.Error(0)
}

func (m *MockAvailabilityRepo) Release(ctx context.Context, rentalID int64) error {
	args := m.Called(ctx, rentalID)
	return args.Error(0)
}

func (m *MockAvailabilityRepo) Extend(ctx context.Context, rentalID int64, newEndDate string) error {
	args := m.Called(ctx, rentalID, newEndDate)
	return args.Error(0)
}

type MockEscrowSvc struct{ mock.Mock }

func (m *MockEscrowSvc) Hold(ctx context.Context, rentalID, amountCents, feeCents, depositCents int64, processorTxnID string) (*domain.EscrowAccount, error) {
	args := m.Called(ctx, rentalID, amountCents, feeCents, depositCents, processorTxnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EscrowAccount), args.Error(1)
}

func (m *MockEscrowSvc) Release(ctx context.Context, rentalID, ownerID, renterID int64) (*domain.EscrowAccount, error) {
	args := m.Called(ctx, rentalID, ownerID, renterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EscrowAccount), args.Error(1)
}

func (m *MockEscrowSvc) AddExtensionFunds(ctx context.Context, rentalID, costCents int64, processorTxnID string) error {
	args := m.Called(ctx, rentalID, costCents, processorTxnID)
	return args.Error(0)
}

func (m *MockEscrowSvc) ApplyDisputeSettlement(ctx context.Context, d *domain.Dispute, rt *domain.RentalRequest) error {
	args := m.Called(ctx, d, rt)
	return args.Error(0)
}

func (m *MockEscrowSvc) GetByRental(ctx context.Context, rentalID int64) (*domain.EscrowAccount, []domain.LedgerEntry, error) {
	args := m.Called(ctx, rentalID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.EscrowAccount), args.Get(1).([]domain.LedgerEntry), args.Error(2)
}

type MockReportSvc struct{ mock.Mock }

func (m *MockReportSvc) FileReport(ctx context.Context, userID, rentalID int64, typ domain.ReportType, photos []string, damages []domain.Damage, signature string) (*domain.ConditionReport, error) {
	args := m.Called(ctx, userID, rentalID, typ, photos, damages, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConditionReport), args.Error(1)
}

func (m *MockReportSvc) CanReleasePayment(ctx context.Context, rentalID int64) (bool, string, error) {
	args := m.Called(ctx, rentalID)
	return args.Bool(0), args.String(1), args.Error(2)
}

func (m *MockReportSvc) ListReports(ctx context.Context, userID, rentalID int64) ([]domain.ConditionReport, error) {
	args := m.Called(ctx, userID, rentalID)
	return args.Get(0).([]domain.ConditionReport), args.Error(1)
}

// testDispatcher returns a dispatcher whose notification writes always
// succeed. Email and directory are left unwired.
func testDispatcher() (*Dispatcher, *MockNotificationRepo) {
	noteRepo := new(MockNotificationRepo)
	noteRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	return NewDispatcher(noteRepo, nil, nil), noteRepo
}
