package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/syncutil"
)

func newDisputeForTest(disputeRepo *MockDisputeRepo, rentalRepo *MockRentalRepo, escrowSvc *MockEscrowSvc) DisputeService {
	dispatcher, _ := testDispatcher()
	return NewDisputeService(disputeRepo, rentalRepo, escrowSvc, syncutil.NewRentalMutex(), dispatcher)
}

func TestDisputeService_File(t *testing.T) {
	ctx := context.Background()

	t.Run("PartyFilesAgainstCounterparty", func(t *testing.T) {
		disputeRepo := new(MockDisputeRepo)
		rentalRepo := new(MockRentalRepo)
		svc := newDisputeForTest(disputeRepo, rentalRepo, new(MockEscrowSvc))

		rentalRepo.On("GetByID", ctx, int64(100)).Return(&domain.RentalRequest{
			ID: 100, RenterID: 2, OwnerID: 1, Status: domain.RentalStatusPaid,
		}, nil)
		disputeRepo.On("Create", ctx, mock.MatchedBy(func(d *domain.Dispute) bool {
			return d.FiledByUserID == 1 && d.AgainstUserID == 2 && d.Status == domain.DisputeStatusOpen
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Dispute).ID = 7
		}).Return(nil)

		d, err := svc.File(ctx, 1, 100, domain.DisputeReasonItemDamaged, "cracked casing", []string{"evidence-1.jpg"})
		assert.NoError(t, err)
		assert.Equal(t, domain.DisputeStatusOpen, d.Status)
		disputeRepo.AssertExpectations(t)
	})

	t.Run("RequiresPaidOrCompleted", func(t *testing.T) {
		disputeRepo := new(MockDisputeRepo)
		rentalRepo := new(MockRentalRepo)
		svc := newDisputeForTest(disputeRepo, rentalRepo, new(MockEscrowSvc))

		rentalRepo.On("GetByID", ctx, int64(100)).Return(&domain.RentalRequest{
			ID: 100, RenterID: 2, OwnerID: 1, Status: domain.RentalStatusApproved,
		}, nil)

		_, err := svc.File(ctx, 2, 100, domain.DisputeReasonOther, "", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("NonPartyRejected", func(t *testing.T) {
		disputeRepo := new(MockDisputeRepo)
		rentalRepo := new(MockRentalRepo)
		svc := newDisputeForTest(disputeRepo, rentalRepo, new(MockEscrowSvc))

		rentalRepo.On("GetByID", ctx, int64(100)).Return(&domain.RentalRequest{
			ID: 100, RenterID: 2, OwnerID: 1, Status: domain.RentalStatusPaid,
		}, nil)

		_, err := svc.File(ctx, 99, 100, domain.DisputeReasonOther, "", nil)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestDisputeService_SetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("MovesToUnderReview", func(t *testing.T) {
		disputeRepo := new(MockDisputeRepo)
		svc := newDisputeForTest(disputeRepo, new(MockRentalRepo), new(MockEscrowSvc))

		disputeRepo.On("GetByID", ctx, int64(7)).Return(&domain.Dispute{ID: 7, Status: domain.DisputeStatusOpen}, nil)
		disputeRepo.On("Update", ctx, mock.MatchedBy(func(d *domain.Dispute) bool {
			return d.Status == domain.DisputeStatusUnderReview
		})).Return(nil)

		d, err := svc.SetStatus(ctx, 9, 7, domain.DisputeStatusUnderReview)
		assert.NoError(t, err)
		assert.Equal(t, domain.DisputeStatusUnderReview, d.Status)
	})

	t.Run("ResolvedUnreachableDirectly", func(t *testing.T) {
		disputeRepo := new(MockDisputeRepo)
		svc := newDisputeForTest(disputeRepo, new(MockRentalRepo), new(MockEscrowSvc))

		disputeRepo.On("GetByID", ctx, int64(7)).Return(&domain.Dispute{ID: 7, Status: domain.DisputeStatusOpen}, nil)

		_, err := svc.SetStatus(ctx, 9, 7, domain.DisputeStatusResolved)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("ResolvedIsImmutable", func(t *testing.T) {
		disputeRepo := new(MockDisputeRepo)
		svc := newDisputeForTest(disputeRepo, new(MockRentalRepo), new(MockEscrowSvc))

		disputeRepo.On("GetByID", ctx, int64(7)).Return(&domain.Dispute{ID: 7, Status: domain.DisputeStatusResolved}, nil)

		_, err := svc.SetStatus(ctx, 9, 7, domain.DisputeStatusClosed)
		assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
	})
}

func TestDisputeService_Resolve(t *testing.T) {
	ctx := context.Background()
	rental := &domain.RentalRequest{ID: 100, RenterID: 2, OwnerID: 1, Status: domain.RentalStatusPaid}

	t.Run("AppliesSettlementAndTerminates", func(t *testing.T) {
		disputeRepo := new(MockDisputeRepo)
		rentalRepo := new(MockRentalRepo)
		escrowSvc := new(MockEscrowSvc)
		svc := newDisputeForTest(disputeRepo, rentalRepo, escrowSvc)

		disputeRepo.On("GetByID", ctx, int64(7)).Return(&domain.Dispute{
			ID: 7, RentalRequestID: 100, Status: domain.DisputeStatusUnderReview,
		}, nil)
		rentalRepo.On("GetByID", ctx, int64(100)).Return(rental, nil)
		escrowSvc.On("GetByRental", ctx, int64(100)).Return(&domain.EscrowAccount{
			ID: 1, AmountCents: 10000, Status: domain.EscrowStatusHeld,
		}, []domain.LedgerEntry{}, nil)
		escrowSvc.On("ApplyDisputeSettlement", ctx, mock.MatchedBy(func(d *domain.Dispute) bool {
			return d.RefundToRenterCents == 3000 && d.ChargeToOwnerCents == 7000 && d.Decision == domain.DisputeDecisionSplit
		}), rental).Return(nil)
		disputeRepo.On("Update", ctx, mock.MatchedBy(func(d *domain.Dispute) bool {
			return d.Status == domain.DisputeStatusResolved && d.ResolvedByUserID != nil && *d.ResolvedByUserID == 9 && d.ResolvedAt != nil
		})).Return(nil)

		d, err := svc.Resolve(ctx, 9, 7, domain.DisputeDecisionSplit, 3000, 7000, "split per evidence")
		assert.NoError(t, err)
		assert.Equal(t, domain.DisputeStatusResolved, d.Status)
		escrowSvc.AssertExpectations(t)
	})

	t.Run("FavorRenterDefaultsToWholePot", func(t *testing.T) {
		disputeRepo := new(MockDisputeRepo)
		rentalRepo := new(MockRentalRepo)
		escrowSvc := new(MockEscrowSvc)
		svc := newDisputeForTest(disputeRepo, rentalRepo, escrowSvc)

		disputeRepo.On("GetByID", ctx, int64(7)).Return(&domain.Dispute{
			ID: 7, RentalRequestID: 100, Status: domain.DisputeStatusOpen,
		}, nil)
		rentalRepo.On("GetByID", ctx, int64(100)).Return(rental, nil)
		escrowSvc.On("GetByRental", ctx, int64(100)).Return(&domain.EscrowAccount{
			ID: 1, AmountCents: 10000, Status: domain.EscrowStatusHeld,
		}, []domain.LedgerEntry{}, nil)
		escrowSvc.On("ApplyDisputeSettlement", ctx, mock.MatchedBy(func(d *domain.Dispute) bool {
			return d.RefundToRenterCents == 10000 && d.ChargeToOwnerCents == 0
		}), rental).Return(nil)
		disputeRepo.On("Update", ctx, mock.Anything).Return(nil)

		_, err := svc.Resolve(ctx, 9, 7, domain.DisputeDecisionFavorRenter, 0, 0, "item not as described")
		assert.NoError(t, err)
		escrowSvc.AssertExpectations(t)
	})

	t.Run("SecondResolveRejected", func(t *testing.T) {
		disputeRepo := new(MockDisputeRepo)
		svc := newDisputeForTest(disputeRepo, new(MockRentalRepo), new(MockEscrowSvc))

		disputeRepo.On("GetByID", ctx, int64(7)).Return(&domain.Dispute{
			ID: 7, RentalRequestID: 100, Status: domain.DisputeStatusResolved,
		}, nil)

		_, err := svc.Resolve(ctx, 9, 7, domain.DisputeDecisionSplit, 1000, 1000, "")
		assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
	})

	t.Run("SettlementCapPropagates", func(t *testing.T) {
		disputeRepo := new(MockDisputeRepo)
		rentalRepo := new(MockRentalRepo)
		escrowSvc := new(MockEscrowSvc)
		svc := newDisputeForTest(disputeRepo, rentalRepo, escrowSvc)

		disputeRepo.On("GetByID", ctx, int64(7)).Return(&domain.Dispute{
			ID: 7, RentalRequestID: 100, Status: domain.DisputeStatusOpen,
		}, nil)
		rentalRepo.On("GetByID", ctx, int64(100)).Return(rental, nil)
		escrowSvc.On("GetByRental", ctx, int64(100)).Return(&domain.EscrowAccount{
			ID: 1, AmountCents: 10000, Status: domain.EscrowStatusHeld,
		}, []domain.LedgerEntry{}, nil)
		escrowSvc.On("ApplyDisputeSettlement", ctx, mock.Anything, rental).Return(domain.ErrSettlementExceedsEscrow)

		_, err := svc.Resolve(ctx, 9, 7, domain.DisputeDecisionSplit, 8000, 5000, "")
		assert.ErrorIs(t, err, domain.ErrSettlementExceedsEscrow)
		disputeRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}
