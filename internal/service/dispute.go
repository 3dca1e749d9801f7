package service

import (
	"context"
	"fmt"
	"time"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/metrics"
	"gearshare-backend/internal/repository"
	"gearshare-backend/internal/syncutil"
)

type disputeService struct {
	disputeRepo repository.DisputeRepository
	rentalRepo  repository.RentalRepository
	escrowSvc   EscrowService
	locks       *syncutil.RentalMutex
	dispatcher  *Dispatcher
}

func NewDisputeService(
	disputeRepo repository.DisputeRepository,
	rentalRepo repository.RentalRepository,
	escrowSvc EscrowService,
	locks *syncutil.RentalMutex,
	dispatcher *Dispatcher,
) DisputeService {
	return &disputeService{
		disputeRepo: disputeRepo,
		rentalRepo:  rentalRepo,
		escrowSvc:   escrowSvc,
		locks:       locks,
		dispatcher:  dispatcher,
	}
}

func (s *disputeService) File(ctx context.Context, userID, rentalID int64, reason domain.DisputeReason, description string, evidence []string) (*domain.Dispute, error) {
	unlock := s.locks.Lock(rentalID)
	d, counterparty, err := s.fileLocked(ctx, userID, rentalID, reason, description, evidence)
	unlock()
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, []domain.Event{
		newEvent(domain.EventDisputeFiled, counterparty, "Dispute filed",
			fmt.Sprintf("A dispute was filed against you: %s", reason), rentalID),
	})
	s.dispatcher.Alert(ctx, fmt.Sprintf("Dispute %d filed on rental %d", d.ID, rentalID),
		fmt.Sprintf("Reason: %s\n\n%s", reason, description))

	metrics.DisputesTotal.WithLabelValues("filed").Inc()
	return d, nil
}

func (s *disputeService) fileLocked(ctx context.Context, userID, rentalID int64, reason domain.DisputeReason, description string, evidence []string) (*domain.Dispute, int64, error) {
	rt, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, 0, err
	}
	if userID != rt.RenterID && userID != rt.OwnerID {
		return nil, 0, domain.ErrUnauthorized
	}
	if rt.Status != domain.RentalStatusPaid && rt.Status != domain.RentalStatusCompleted {
		return nil, 0, fmt.Errorf("%w: disputes require a paid or completed rental, not %s", domain.ErrInvalidTransition, rt.Status)
	}

	counterparty := rt.OwnerID
	if userID == rt.OwnerID {
		counterparty = rt.RenterID
	}

	d := &domain.Dispute{
		RentalRequestID: rentalID,
		FiledByUserID:   userID,
		AgainstUserID:   counterparty,
		Reason:          reason,
		Description:     description,
		EvidenceRefs:    evidence,
		Status:          domain.DisputeStatusOpen,
	}
	if err := s.disputeRepo.Create(ctx, d); err != nil {
		return nil, 0, err
	}
	return d, counterparty, nil
}

// SetStatus moves a dispute between the administrative states. Resolved
// is reachable only through Resolve, never through here.
func (s *disputeService) SetStatus(ctx context.Context, adminID, disputeID int64, status domain.DisputeStatus) (*domain.Dispute, error) {
	d, err := s.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if d.Status == domain.DisputeStatusResolved {
		return nil, fmt.Errorf("%w: dispute %d", domain.ErrAlreadyResolved, disputeID)
	}
	switch status {
	case domain.DisputeStatusOpen, domain.DisputeStatusUnderReview, domain.DisputeStatusClosed:
	default:
		return nil, fmt.Errorf("%w: cannot set dispute status to %s directly", domain.ErrInvalidTransition, status)
	}

	d.Status = status
	if err := s.disputeRepo.Update(ctx, d); err != nil {
		return nil, err
	}
	if status == domain.DisputeStatusUnderReview {
		metrics.DisputesTotal.WithLabelValues("under_review").Inc()
	}
	return d, nil
}

func (s *disputeService) Resolve(ctx context.Context, adminID, disputeID int64, decision domain.DisputeDecision, refundToRenterCents, chargeToOwnerCents int64, message string) (*domain.Dispute, error) {
	d, err := s.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(d.RentalRequestID)
	d, rt, err := s.resolveLocked(ctx, adminID, disputeID, decision, refundToRenterCents, chargeToOwnerCents, message)
	unlock()
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, []domain.Event{
		newEvent(domain.EventDisputeResolved, rt.RenterID, "Dispute resolved",
			fmt.Sprintf("Dispute resolved %s: %s", decision, message), rt.ID),
		newEvent(domain.EventDisputeResolved, rt.OwnerID, "Dispute resolved",
			fmt.Sprintf("Dispute resolved %s: %s", decision, message), rt.ID),
	})
	metrics.DisputesTotal.WithLabelValues("resolved").Inc()
	return d, nil
}

func (s *disputeService) resolveLocked(ctx context.Context, adminID, disputeID int64, decision domain.DisputeDecision, refundToRenterCents, chargeToOwnerCents int64, message string) (*domain.Dispute, *domain.RentalRequest, error) {
	// Re-read under the lock; a concurrent admin may have resolved it.
	d, err := s.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, nil, err
	}
	if d.Status == domain.DisputeStatusResolved {
		return nil, nil, fmt.Errorf("%w: dispute %d", domain.ErrAlreadyResolved, disputeID)
	}
	if d.Status == domain.DisputeStatusClosed {
		return nil, nil, fmt.Errorf("%w: dispute %d is closed", domain.ErrInvalidTransition, disputeID)
	}
	rt, err := s.rentalRepo.GetByID(ctx, d.RentalRequestID)
	if err != nil {
		return nil, nil, err
	}

	acct, _, err := s.escrowSvc.GetByRental(ctx, rt.ID)
	if err != nil {
		return nil, nil, err
	}

	// Whole-pot defaults when the admin leaves the amounts zero.
	if refundToRenterCents == 0 && chargeToOwnerCents == 0 {
		switch decision {
		case domain.DisputeDecisionFavorRenter:
			refundToRenterCents = acct.AmountCents
		case domain.DisputeDecisionFavorOwner:
			chargeToOwnerCents = acct.AmountCents
		}
	}

	d.Decision = decision
	d.RefundToRenterCents = refundToRenterCents
	d.ChargeToOwnerCents = chargeToOwnerCents
	d.ResolutionMessage = message
	if err := s.escrowSvc.ApplyDisputeSettlement(ctx, d, rt); err != nil {
		return nil, nil, err
	}

	now := time.Now()
	d.Status = domain.DisputeStatusResolved
	d.ResolvedByUserID = &adminID
	d.ResolvedAt = &now
	if err := s.disputeRepo.Update(ctx, d); err != nil {
		return nil, nil, err
	}
	return d, rt, nil
}

func (s *disputeService) Get(ctx context.Context, disputeID int64) (*domain.Dispute, error) {
	return s.disputeRepo.GetByID(ctx, disputeID)
}

func (s *disputeService) ListOpen(ctx context.Context, page, pageSize int32) ([]domain.Dispute, int32, error) {
	return s.disputeRepo.ListByStatus(ctx,
		[]domain.DisputeStatus{domain.DisputeStatusOpen, domain.DisputeStatusUnderReview},
		page, pageSize)
}

func (s *disputeService) ListByRental(ctx context.Context, userID, rentalID int64) ([]domain.Dispute, error) {
	rt, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if userID != rt.RenterID && userID != rt.OwnerID {
		return nil, domain.ErrUnauthorized
	}
	return s.disputeRepo.ListByRental(ctx, rentalID)
}
