package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/payment"
	"gearshare-backend/internal/syncutil"
)

func newExtensionForTest(
	extensionRepo *MockExtensionRepo,
	rentalRepo *MockRentalRepo,
	availability *MockAvailabilityRepo,
	callbackRepo *MockCallbackRepo,
	escrowSvc *MockEscrowSvc,
	now time.Time,
) *extensionService {
	dispatcher, _ := testDispatcher()
	return &extensionService{
		extensionRepo: extensionRepo,
		rentalRepo:    rentalRepo,
		availability:  availability,
		callbackRepo:  callbackRepo,
		escrowSvc:     escrowSvc,
		locks:         syncutil.NewRentalMutex(),
		dispatcher:    dispatcher,
		now:           func() time.Time { return now },
	}
}

func extensionRental() *domain.RentalRequest {
	return &domain.RentalRequest{
		ID: 100, RenterID: 2, OwnerID: 1, Status: domain.RentalStatusPaid,
		StartDate: "2026-09-01", EndDate: "2026-09-05",
		TotalAmountCents: 8000, DailyRateCents: 2000,
	}
}

// tenHoursBeforeEnd is inside the 24-hour proposal window for an end
// date of 2026-09-05 (midnight UTC).
var tenHoursBeforeEnd = time.Date(2026, 9, 4, 14, 0, 0, 0, time.UTC)

func TestExtensionService_Propose(t *testing.T) {
	ctx := context.Background()

	t.Run("WithinWindowCostsDailyRate", func(t *testing.T) {
		extensionRepo := new(MockExtensionRepo)
		rentalRepo := new(MockRentalRepo)
		svc := newExtensionForTest(extensionRepo, rentalRepo, new(MockAvailabilityRepo), new(MockCallbackRepo), new(MockEscrowSvc), tenHoursBeforeEnd)

		rentalRepo.On("GetByID", ctx, int64(100)).Return(extensionRental(), nil)
		extensionRepo.On("GetOpenByRental", ctx, int64(100)).Return(nil, domain.ErrNotFound)
		extensionRepo.On("Create", ctx, mock.MatchedBy(func(e *domain.Extension) bool {
			return e.Status == domain.ExtensionStatusPending && e.AdditionalCostCents == 6000 && e.NewEndDate == "2026-09-08"
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Extension).ID = 50
		}).Return(nil)

		ext, err := svc.Propose(ctx, 2, 100, "2026-09-08", "need it for the weekend")
		assert.NoError(t, err)
		assert.Equal(t, int64(6000), ext.AdditionalCostCents)
		extensionRepo.AssertExpectations(t)
	})

	t.Run("OutsideWindowRejected", func(t *testing.T) {
		rentalRepo := new(MockRentalRepo)
		twoDaysBefore := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)
		svc := newExtensionForTest(new(MockExtensionRepo), rentalRepo, new(MockAvailabilityRepo), new(MockCallbackRepo), new(MockEscrowSvc), twoDaysBefore)

		rentalRepo.On("GetByID", ctx, int64(100)).Return(extensionRental(), nil)

		_, err := svc.Propose(ctx, 2, 100, "2026-09-08", "")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("AfterEndRejected", func(t *testing.T) {
		rentalRepo := new(MockRentalRepo)
		afterEnd := time.Date(2026, 9, 5, 6, 0, 0, 0, time.UTC)
		svc := newExtensionForTest(new(MockExtensionRepo), rentalRepo, new(MockAvailabilityRepo), new(MockCallbackRepo), new(MockEscrowSvc), afterEnd)

		rentalRepo.On("GetByID", ctx, int64(100)).Return(extensionRental(), nil)

		_, err := svc.Propose(ctx, 2, 100, "2026-09-08", "")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("NewEndNotAfterCurrentRejected", func(t *testing.T) {
		rentalRepo := new(MockRentalRepo)
		svc := newExtensionForTest(new(MockExtensionRepo), rentalRepo, new(MockAvailabilityRepo), new(MockCallbackRepo), new(MockEscrowSvc), tenHoursBeforeEnd)

		rentalRepo.On("GetByID", ctx, int64(100)).Return(extensionRental(), nil)

		_, err := svc.Propose(ctx, 2, 100, "2026-09-04", "")
		assert.ErrorIs(t, err, domain.ErrInvalidExtensionDate)
	})

	t.Run("SecondOpenProposalRejected", func(t *testing.T) {
		extensionRepo := new(MockExtensionRepo)
		rentalRepo := new(MockRentalRepo)
		svc := newExtensionForTest(extensionRepo, rentalRepo, new(MockAvailabilityRepo), new(MockCallbackRepo), new(MockEscrowSvc), tenHoursBeforeEnd)

		rentalRepo.On("GetByID", ctx, int64(100)).Return(extensionRental(), nil)
		extensionRepo.On("GetOpenByRental", ctx, int64(100)).Return(&domain.Extension{ID: 40, Status: domain.ExtensionStatusPending}, nil)

		_, err := svc.Propose(ctx, 2, 100, "2026-09-08", "")
		assert.ErrorIs(t, err, domain.ErrExtensionAlreadyPending)
	})

	t.Run("OwnerCannotPropose", func(t *testing.T) {
		rentalRepo := new(MockRentalRepo)
		svc := newExtensionForTest(new(MockExtensionRepo), rentalRepo, new(MockAvailabilityRepo), new(MockCallbackRepo), new(MockEscrowSvc), tenHoursBeforeEnd)

		rentalRepo.On("GetByID", ctx, int64(100)).Return(extensionRental(), nil)

		_, err := svc.Propose(ctx, 1, 100, "2026-09-08", "")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestExtensionService_Respond(t *testing.T) {
	ctx := context.Background()

	t.Run("OwnerApproves", func(t *testing.T) {
		extensionRepo := new(MockExtensionRepo)
		rentalRepo := new(MockRentalRepo)
		svc := newExtensionForTest(extensionRepo, rentalRepo, new(MockAvailabilityRepo), new(MockCallbackRepo), new(MockEscrowSvc), tenHoursBeforeEnd)

		extensionRepo.On("GetByID", ctx, int64(50)).Return(&domain.Extension{
			ID: 50, RentalRequestID: 100, RequestedByUserID: 2, Status: domain.ExtensionStatusPending, AdditionalCostCents: 6000,
		}, nil)
		rentalRepo.On("GetByID", ctx, int64(100)).Return(extensionRental(), nil)
		extensionRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.Extension) bool {
			return e.Status == domain.ExtensionStatusApproved && !e.PaymentConfirmed
		})).Return(nil)

		ext, err := svc.Respond(ctx, 1, 50, true)
		assert.NoError(t, err)
		assert.Equal(t, domain.ExtensionStatusApproved, ext.Status)
	})

	t.Run("DeclineFreesSlot", func(t *testing.T) {
		extensionRepo := new(MockExtensionRepo)
		rentalRepo := new(MockRentalRepo)
		svc := newExtensionForTest(extensionRepo, rentalRepo, new(MockAvailabilityRepo), new(MockCallbackRepo), new(MockEscrowSvc), tenHoursBeforeEnd)

		extensionRepo.On("GetByID", ctx, int64(50)).Return(&domain.Extension{
			ID: 50, RentalRequestID: 100, Status: domain.ExtensionStatusPending,
		}, nil)
		rentalRepo.On("GetByID", ctx, int64(100)).Return(extensionRental(), nil)
		extensionRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.Extension) bool {
			return e.Status == domain.ExtensionStatusDeclined
		})).Return(nil)

		ext, err := svc.Respond(ctx, 1, 50, false)
		assert.NoError(t, err)
		assert.Equal(t, domain.ExtensionStatusDeclined, ext.Status)
	})

	t.Run("RenterCannotRespond", func(t *testing.T) {
		extensionRepo := new(MockExtensionRepo)
		rentalRepo := new(MockRentalRepo)
		svc := newExtensionForTest(extensionRepo, rentalRepo, new(MockAvailabilityRepo), new(MockCallbackRepo), new(MockEscrowSvc), tenHoursBeforeEnd)

		extensionRepo.On("GetByID", ctx, int64(50)).Return(&domain.Extension{
			ID: 50, RentalRequestID: 100, Status: domain.ExtensionStatusPending,
		}, nil)
		rentalRepo.On("GetByID", ctx, int64(100)).Return(extensionRental(), nil)

		_, err := svc.Respond(ctx, 2, 50, true)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("AlreadyAnsweredRejected", func(t *testing.T) {
		extensionRepo := new(MockExtensionRepo)
		rentalRepo := new(MockRentalRepo)
		svc := newExtensionForTest(extensionRepo, rentalRepo, new(MockAvailabilityRepo), new(MockCallbackRepo), new(MockEscrowSvc), tenHoursBeforeEnd)

		extensionRepo.On("GetByID", ctx, int64(50)).Return(&domain.Extension{
			ID: 50, RentalRequestID: 100, Status: domain.ExtensionStatusDeclined,
		}, nil)
		rentalRepo.On("GetByID", ctx, int64(100)).Return(extensionRental(), nil)

		_, err := svc.Respond(ctx, 1, 50, true)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestExtensionService_HandlePaymentCallback(t *testing.T) {
	ctx := context.Background()
	cb := payment.Callback{ExtensionID: 50, ProcessorTxnID: "txn_ext", Outcome: payment.OutcomeSucceeded}

	t.Run("ConfirmMovesEndDate", func(t *testing.T) {
		extensionRepo := new(MockExtensionRepo)
		rentalRepo := new(MockRentalRepo)
		availability := new(MockAvailabilityRepo)
		callbackRepo := new(MockCallbackRepo)
		escrowSvc := new(MockEscrowSvc)
		svc := newExtensionForTest(extensionRepo, rentalRepo, availability, callbackRepo, escrowSvc, tenHoursBeforeEnd)

		callbackRepo.On("Record", ctx, "txn_ext", "extension", int64(50), "succeeded").Return(nil)
		extensionRepo.On("GetByID", ctx, int64(50)).Return(&domain.Extension{
			ID: 50, RentalRequestID: 100, Status: domain.ExtensionStatusApproved,
			NewEndDate: "2026-09-08", AdditionalCostCents: 6000,
		}, nil)
		rentalRepo.On("GetByID", ctx, int64(100)).Return(extensionRental(), nil)
		escrowSvc.On("AddExtensionFunds", ctx, int64(100), int64(6000), "txn_ext").Return(nil)
		extensionRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.Extension) bool {
			return e.PaymentConfirmed
		})).Return(nil)
		availability.On("Extend", ctx, int64(100), "2026-09-08").Return(nil)
		rentalRepo.On("Update", ctx, mock.MatchedBy(func(rt *domain.RentalRequest) bool {
			return rt.EndDate == "2026-09-08" && rt.TotalAmountCents == 14000
		})).Return(nil)

		err := svc.HandlePaymentCallback(ctx, cb)
		assert.NoError(t, err)
		availability.AssertExpectations(t)
		escrowSvc.AssertExpectations(t)
	})

	t.Run("ReplayedTxnIsDropped", func(t *testing.T) {
		extensionRepo := new(MockExtensionRepo)
		callbackRepo := new(MockCallbackRepo)
		svc := newExtensionForTest(extensionRepo, new(MockRentalRepo), new(MockAvailabilityRepo), callbackRepo, new(MockEscrowSvc), tenHoursBeforeEnd)

		callbackRepo.On("Record", ctx, "txn_ext", "extension", int64(50), "succeeded").Return(domain.ErrTxnSeen)

		err := svc.HandlePaymentCallback(ctx, cb)
		assert.NoError(t, err)
		extensionRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("TransientFailureLeavesRetryPath", func(t *testing.T) {
		extensionRepo := new(MockExtensionRepo)
		rentalRepo := new(MockRentalRepo)
		availability := new(MockAvailabilityRepo)
		callbackRepo := new(MockCallbackRepo)
		escrowSvc := new(MockEscrowSvc)
		svc := newExtensionForTest(extensionRepo, rentalRepo, availability, callbackRepo, escrowSvc, tenHoursBeforeEnd)

		// First delivery fails at the escrow write; the dedupe row is
		// removed so the redelivery is not dropped as a replay.
		callbackRepo.On("Record", ctx, "txn_ext", "extension", int64(50), "succeeded").Return(nil).Twice()
		extensionRepo.On("GetByID", ctx, int64(50)).Return(&domain.Extension{
			ID: 50, RentalRequestID: 100, Status: domain.ExtensionStatusApproved,
			NewEndDate: "2026-09-08", AdditionalCostCents: 6000,
		}, nil)
		rentalRepo.On("GetByID", ctx, int64(100)).Return(extensionRental(), nil)
		escrowSvc.On("AddExtensionFunds", ctx, int64(100), int64(6000), "txn_ext").Return(assert.AnError).Once()
		callbackRepo.On("Delete", ctx, "txn_ext").Return(nil).Once()

		err := svc.HandlePaymentCallback(ctx, cb)
		assert.Error(t, err)

		escrowSvc.On("AddExtensionFunds", ctx, int64(100), int64(6000), "txn_ext").Return(nil).Once()
		extensionRepo.On("Update", ctx, mock.Anything).Return(nil)
		availability.On("Extend", ctx, int64(100), "2026-09-08").Return(nil)
		rentalRepo.On("Update", ctx, mock.Anything).Return(nil)

		err = svc.HandlePaymentCallback(ctx, cb)
		assert.NoError(t, err)
		callbackRepo.AssertExpectations(t)
		escrowSvc.AssertExpectations(t)
	})

	t.Run("UnapprovedExtensionIsStale", func(t *testing.T) {
		extensionRepo := new(MockExtensionRepo)
		callbackRepo := new(MockCallbackRepo)
		svc := newExtensionForTest(extensionRepo, new(MockRentalRepo), new(MockAvailabilityRepo), callbackRepo, new(MockEscrowSvc), tenHoursBeforeEnd)

		callbackRepo.On("Record", ctx, "txn_ext", "extension", int64(50), "succeeded").Return(nil)
		extensionRepo.On("GetByID", ctx, int64(50)).Return(&domain.Extension{
			ID: 50, RentalRequestID: 100, Status: domain.ExtensionStatusDeclined,
		}, nil)

		err := svc.HandlePaymentCallback(ctx, cb)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}
