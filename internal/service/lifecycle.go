package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/metrics"
	"gearshare-backend/internal/payment"
	"gearshare-backend/internal/repository"
	"gearshare-backend/internal/syncutil"
)

// transitionTable is the exhaustive set of allowed status moves. Anything
// absent here is rejected with ErrInvalidTransition before side effects.
var transitionTable = map[domain.RentalStatus][]domain.RentalStatus{
	domain.RentalStatusInquiry:   {domain.RentalStatusPending},
	domain.RentalStatusPending:   {domain.RentalStatusApproved, domain.RentalStatusDeclined, domain.RentalStatusCancelled},
	domain.RentalStatusApproved:  {domain.RentalStatusPaid, domain.RentalStatusCancelled},
	domain.RentalStatusPaid:      {domain.RentalStatusCompleted},
	domain.RentalStatusCompleted: {domain.RentalStatusArchived},
}

func canTransition(from, to domain.RentalStatus) bool {
	for _, allowed := range transitionTable[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type lifecycleService struct {
	rentalRepo   repository.RentalRepository
	itemRepo     repository.ItemRepository
	availability repository.AvailabilityRepository
	callbackRepo repository.CallbackRepository
	escrowSvc    EscrowService
	reportSvc    ReportService
	locks        *syncutil.RentalMutex
	dispatcher   *Dispatcher
}

func NewLifecycleService(
	rentalRepo repository.RentalRepository,
	itemRepo repository.ItemRepository,
	availability repository.AvailabilityRepository,
	callbackRepo repository.CallbackRepository,
	escrowSvc EscrowService,
	reportSvc ReportService,
	locks *syncutil.RentalMutex,
	dispatcher *Dispatcher,
) LifecycleService {
	return &lifecycleService{
		rentalRepo:   rentalRepo,
		itemRepo:     itemRepo,
		availability: availability,
		callbackRepo: callbackRepo,
		escrowSvc:    escrowSvc,
		reportSvc:    reportSvc,
		locks:        locks,
		dispatcher:   dispatcher,
	}
}

func (s *lifecycleService) CreateRequest(ctx context.Context, renterID, itemID int64, startDate, endDate string, totalAmountCents int64) (*domain.RentalRequest, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, fmt.Errorf("%w: bad start date %q", domain.ErrInvalidTransition, startDate)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: bad end date %q", domain.ErrInvalidTransition, endDate)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date before start date", domain.ErrInvalidTransition)
	}
	if totalAmountCents <= 0 {
		return nil, fmt.Errorf("%w: total amount must be positive", domain.ErrInvalidTransition)
	}

	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID == renterID {
		return nil, fmt.Errorf("%w: cannot rent your own item", domain.ErrInvalidTransition)
	}

	rt := &domain.RentalRequest{
		ItemID:           itemID,
		RenterID:         renterID,
		OwnerID:          item.OwnerID,
		StartDate:        startDate,
		EndDate:          endDate,
		Status:           domain.RentalStatusPending,
		TotalAmountCents: totalAmountCents,
		DepositCents:     item.DepositCents,
		DailyRateCents:   item.DailyRateCents,
	}
	if item.InstantBook {
		rt.Status = domain.RentalStatusApproved
	}
	if err := s.rentalRepo.Create(ctx, rt); err != nil {
		return nil, err
	}

	events := []domain.Event{
		newEvent(domain.EventRentalRequested, item.OwnerID, "New rental request",
			fmt.Sprintf("You received a rental request for %s (%s to %s)", item.Name, startDate, endDate), rt.ID),
	}
	if item.InstantBook {
		// Instant booking skips owner approval: block the dates now and
		// start the payment-deadline clock.
		if err := s.availability.Block(ctx, itemID, startDate, endDate, rt.ID); err != nil {
			// Compensating action: an approved row must not outlive a
			// failed date block.
			rt.Status = domain.RentalStatusCancelled
			rt.CancelReason = "dates unavailable"
			rt.LastStatusChangeAt = time.Now()
			if uErr := s.rentalRepo.Update(ctx, rt); uErr != nil {
				logger.Error("Failed to void instant booking after block failure", "rental_id", rt.ID, "error", uErr)
			}
			return nil, err
		}
		metrics.TransitionsTotal.WithLabelValues(string(domain.RentalStatusApproved)).Inc()
		events = append(events, newEvent(domain.EventRentalApproved, renterID, "Booking confirmed",
			fmt.Sprintf("Your booking of %s is confirmed; payment is due within 24 hours", item.Name), rt.ID))
	} else {
		metrics.TransitionsTotal.WithLabelValues(string(domain.RentalStatusPending)).Inc()
	}

	s.dispatcher.Dispatch(ctx, events)
	return rt, nil
}

func (s *lifecycleService) Approve(ctx context.Context, ownerID, rentalID int64) (*domain.RentalRequest, error) {
	unlock := s.locks.Lock(rentalID)
	rt, err := s.approveLocked(ctx, ownerID, rentalID)
	unlock()
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, []domain.Event{
		newEvent(domain.EventRentalApproved, rt.RenterID, "Rental approved",
			"Your rental request was approved; payment is due within 24 hours", rt.ID),
	})
	return rt, nil
}

func (s *lifecycleService) approveLocked(ctx context.Context, ownerID, rentalID int64) (*domain.RentalRequest, error) {
	rt, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rt.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: only the owner may approve", domain.ErrInvalidTransition)
	}
	if !canTransition(rt.Status, domain.RentalStatusApproved) {
		return nil, fmt.Errorf("%w: cannot approve a %s rental", domain.ErrInvalidTransition, rt.Status)
	}

	if err := s.availability.Block(ctx, rt.ItemID, rt.StartDate, rt.EndDate, rt.ID); err != nil {
		return nil, err
	}

	rt.Status = domain.RentalStatusApproved
	rt.LastStatusChangeAt = time.Now()
	if err := s.rentalRepo.Update(ctx, rt); err != nil {
		// Compensating action: the block and the status write must land
		// together or not at all.
		if relErr := s.availability.Release(ctx, rt.ID); relErr != nil {
			logger.Error("Failed to release date block after update failure", "rental_id", rt.ID, "error", relErr)
		}
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(domain.RentalStatusApproved)).Inc()
	return rt, nil
}

func (s *lifecycleService) Decline(ctx context.Context, ownerID, rentalID int64, reason string) (*domain.RentalRequest, error) {
	unlock := s.locks.Lock(rentalID)
	rt, err := s.declineLocked(ctx, ownerID, rentalID, reason)
	unlock()
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, []domain.Event{
		newEvent(domain.EventRentalDeclined, rt.RenterID, "Rental declined",
			fmt.Sprintf("Your rental request was declined: %s", reason), rt.ID),
	})
	return rt, nil
}

func (s *lifecycleService) declineLocked(ctx context.Context, ownerID, rentalID int64, reason string) (*domain.RentalRequest, error) {
	rt, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rt.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: only the owner may decline", domain.ErrInvalidTransition)
	}
	if !canTransition(rt.Status, domain.RentalStatusDeclined) {
		return nil, fmt.Errorf("%w: cannot decline a %s rental", domain.ErrInvalidTransition, rt.Status)
	}

	// Any tentative block is released; Release is idempotent so a rental
	// that never held one is fine.
	if err := s.availability.Release(ctx, rt.ID); err != nil {
		return nil, err
	}

	rt.Status = domain.RentalStatusDeclined
	rt.DeclineReason = reason
	rt.LastStatusChangeAt = time.Now()
	if err := s.rentalRepo.Update(ctx, rt); err != nil {
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(domain.RentalStatusDeclined)).Inc()
	return rt, nil
}

func (s *lifecycleService) Cancel(ctx context.Context, userID, rentalID int64, reason string) (*domain.RentalRequest, error) {
	unlock := s.locks.Lock(rentalID)
	rt, counterparty, err := s.cancelLocked(ctx, userID, rentalID, reason)
	unlock()
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, []domain.Event{
		newEvent(domain.EventRentalCancelled, counterparty, "Rental cancelled",
			fmt.Sprintf("The rental was cancelled: %s", reason), rt.ID),
	})
	return rt, nil
}

func (s *lifecycleService) cancelLocked(ctx context.Context, userID, rentalID int64, reason string) (*domain.RentalRequest, int64, error) {
	rt, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, 0, err
	}
	if userID != rt.RenterID && userID != rt.OwnerID {
		return nil, 0, fmt.Errorf("%w: only a party to the rental may cancel", domain.ErrInvalidTransition)
	}
	if !canTransition(rt.Status, domain.RentalStatusCancelled) {
		return nil, 0, fmt.Errorf("%w: cannot cancel a %s rental", domain.ErrInvalidTransition, rt.Status)
	}

	if rt.Status == domain.RentalStatusApproved {
		// Any in-flight payment intent is voided processor-side; a late
		// success callback will be rejected as a stale transition.
		logger.Info("Cancelling approved rental; pending payment intent becomes stale", "rental_id", rt.ID)
	}

	if err := s.availability.Release(ctx, rt.ID); err != nil {
		return nil, 0, err
	}

	rt.Status = domain.RentalStatusCancelled
	rt.CancelReason = reason
	rt.LastStatusChangeAt = time.Now()
	if err := s.rentalRepo.Update(ctx, rt); err != nil {
		return nil, 0, err
	}

	counterparty := rt.OwnerID
	if userID == rt.OwnerID {
		counterparty = rt.RenterID
	}
	metrics.TransitionsTotal.WithLabelValues(string(domain.RentalStatusCancelled)).Inc()
	return rt, counterparty, nil
}

// HandlePaymentCallback applies a processor capture for a rental. The
// transaction id is recorded first: a replay returns before the rental
// lock is taken. Failed captures are logged and left for processor-side
// retry.
func (s *lifecycleService) HandlePaymentCallback(ctx context.Context, cb payment.Callback) error {
	if err := cb.Validate(); err != nil {
		return err
	}
	if err := s.callbackRepo.Record(ctx, cb.ProcessorTxnID, cb.Kind(), cb.TargetID(), string(cb.Outcome)); err != nil {
		if errors.Is(err, domain.ErrTxnSeen) {
			metrics.CallbacksTotal.WithLabelValues("replayed").Inc()
			logger.Info("Dropping replayed processor callback", "txn_id", cb.ProcessorTxnID)
			return nil
		}
		return err
	}

	if cb.Outcome == payment.OutcomeFailed {
		metrics.CallbacksTotal.WithLabelValues("failed").Inc()
		logger.Warn("Payment capture failed; awaiting processor retry", "rental_id", cb.RentalID, "txn_id", cb.ProcessorTxnID)
		return nil
	}

	unlock := s.locks.Lock(cb.RentalID)
	rt, err := s.confirmPaymentLocked(ctx, cb)
	unlock()
	if err != nil {
		s.unrecordCallback(ctx, cb.ProcessorTxnID, err)
		return err
	}

	s.dispatcher.Dispatch(ctx, []domain.Event{
		newEvent(domain.EventRentalPaid, rt.OwnerID, "Payment received",
			"The renter's payment is held in escrow; the rental is confirmed", rt.ID),
		newEvent(domain.EventRentalPaid, rt.RenterID, "Payment confirmed",
			"Your payment is held in escrow until both return reports are filed", rt.ID),
	})
	return nil
}

// unrecordCallback frees the dedupe row after a failed apply so the
// processor's retry is not dropped as a replay. Stale captures stay
// recorded; they will never apply and redelivery should stop.
func (s *lifecycleService) unrecordCallback(ctx context.Context, txnID string, applyErr error) {
	if errors.Is(applyErr, domain.ErrInvalidTransition) {
		return
	}
	if err := s.callbackRepo.Delete(ctx, txnID); err != nil {
		logger.Error("Failed to unrecord callback after apply failure", "txn_id", txnID, "error", err)
	}
}

func (s *lifecycleService) confirmPaymentLocked(ctx context.Context, cb payment.Callback) (*domain.RentalRequest, error) {
	rt, err := s.rentalRepo.GetByID(ctx, cb.RentalID)
	if err != nil {
		return nil, err
	}
	if !canTransition(rt.Status, domain.RentalStatusPaid) {
		metrics.CallbacksTotal.WithLabelValues("stale").Inc()
		return nil, fmt.Errorf("%w: payment confirmed for %s rental %d", domain.ErrInvalidTransition, rt.Status, rt.ID)
	}

	fee := domain.PlatformFeeCents(rt.TotalAmountCents)
	if _, err := s.escrowSvc.Hold(ctx, rt.ID, rt.TotalAmountCents, fee, rt.DepositCents, cb.ProcessorTxnID); err != nil {
		return nil, err
	}

	rt.FeeCents = fee
	rt.Status = domain.RentalStatusPaid
	rt.LastStatusChangeAt = time.Now()
	if err := s.rentalRepo.Update(ctx, rt); err != nil {
		return nil, err
	}

	metrics.CallbacksTotal.WithLabelValues("applied").Inc()
	metrics.TransitionsTotal.WithLabelValues(string(domain.RentalStatusPaid)).Inc()
	return rt, nil
}

func (s *lifecycleService) Complete(ctx context.Context, ownerID, rentalID int64) (*domain.RentalRequest, error) {
	unlock := s.locks.Lock(rentalID)
	rt, err := s.completeLocked(ctx, ownerID, rentalID)
	unlock()
	if err != nil {
		return nil, err
	}

	payout := domain.OwnerPayoutCents(rt.TotalAmountCents)
	s.dispatcher.Dispatch(ctx, []domain.Event{
		newEvent(domain.EventRentalCompleted, rt.OwnerID, "Rental completed",
			fmt.Sprintf("Escrow released: %d cents paid out", payout), rt.ID),
		newEvent(domain.EventRentalCompleted, rt.RenterID, "Rental completed",
			"The rental is complete and your deposit has been returned", rt.ID),
	})
	return rt, nil
}

func (s *lifecycleService) completeLocked(ctx context.Context, ownerID, rentalID int64) (*domain.RentalRequest, error) {
	rt, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rt.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: only the owner may complete", domain.ErrInvalidTransition)
	}
	if !canTransition(rt.Status, domain.RentalStatusCompleted) {
		return nil, fmt.Errorf("%w: cannot complete a %s rental", domain.ErrInvalidTransition, rt.Status)
	}

	ok, blockReason, err := s.reportSvc.CanReleasePayment(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.RejectionsTotal.WithLabelValues("release_blocked").Inc()
		return nil, fmt.Errorf("%w: %s", domain.ErrReleaseBlocked, blockReason)
	}

	// The status write goes first: it can be reverted, ledger entries
	// cannot.
	rt.ReturnConfirmed = true
	rt.Status = domain.RentalStatusCompleted
	rt.LastStatusChangeAt = time.Now()
	if err := s.rentalRepo.Update(ctx, rt); err != nil {
		return nil, err
	}

	if _, err := s.escrowSvc.Release(ctx, rt.ID, rt.OwnerID, rt.RenterID); err != nil {
		// Compensating action: the payout and the status write land
		// together or not at all.
		rt.ReturnConfirmed = false
		rt.Status = domain.RentalStatusPaid
		rt.LastStatusChangeAt = time.Now()
		if uErr := s.rentalRepo.Update(ctx, rt); uErr != nil {
			logger.Error("Failed to revert completion after escrow release failure", "rental_id", rt.ID, "error", uErr)
		}
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(domain.RentalStatusCompleted)).Inc()
	return rt, nil
}

func (s *lifecycleService) Get(ctx context.Context, userID, rentalID int64) (*domain.RentalRequest, error) {
	rt, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rt.RenterID != userID && rt.OwnerID != userID {
		return nil, domain.ErrUnauthorized
	}
	return rt, nil
}

func (s *lifecycleService) ListByRenter(ctx context.Context, renterID int64, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error) {
	return s.rentalRepo.ListByRenter(ctx, renterID, status, page, pageSize)
}

func (s *lifecycleService) ListByOwner(ctx context.Context, ownerID int64, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error) {
	return s.rentalRepo.ListByOwner(ctx, ownerID, status, page, pageSize)
}

// CancelExpiredApprovals sweeps approved rentals whose grace period has
// elapsed. Each candidate is re-checked under its own lock, so a payment
// confirmed at the exact moment the sweep fires wins the race cleanly.
func (s *lifecycleService) CancelExpiredApprovals(ctx context.Context, grace time.Duration) (int, error) {
	cutoff := time.Now().Add(-grace)
	candidates, err := s.rentalRepo.ListApprovedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for i := range candidates {
		rt, err := s.cancelExpired(ctx, candidates[i].ID, cutoff)
		if err != nil {
			logger.Error("Failed to cancel expired approval", "rental_id", candidates[i].ID, "error", err)
			continue
		}
		if rt == nil {
			continue
		}
		cancelled++
		s.dispatcher.Dispatch(ctx, []domain.Event{
			newEvent(domain.EventRentalCancelled, rt.RenterID, "Rental cancelled",
				"Payment was not confirmed within 24 hours of approval", rt.ID),
			newEvent(domain.EventRentalCancelled, rt.OwnerID, "Rental cancelled",
				"The renter did not pay within 24 hours; the dates are available again", rt.ID),
		})
	}
	return cancelled, nil
}

func (s *lifecycleService) cancelExpired(ctx context.Context, rentalID int64, cutoff time.Time) (*domain.RentalRequest, error) {
	unlock := s.locks.Lock(rentalID)
	defer unlock()

	rt, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	// Paid (or otherwise moved on) between the sweep query and the lock:
	// leave it alone.
	if rt.Status != domain.RentalStatusApproved || rt.LastStatusChangeAt.After(cutoff) {
		return nil, nil
	}

	if err := s.availability.Release(ctx, rt.ID); err != nil {
		return nil, err
	}
	rt.Status = domain.RentalStatusCancelled
	rt.CancelReason = "payment deadline elapsed"
	rt.LastStatusChangeAt = time.Now()
	if err := s.rentalRepo.Update(ctx, rt); err != nil {
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(domain.RentalStatusCancelled)).Inc()
	return rt, nil
}

func (s *lifecycleService) ArchiveOldRentals(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)
	candidates, err := s.rentalRepo.ListCompletedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	archived := 0
	for i := range candidates {
		if err := s.archive(ctx, candidates[i].ID, cutoff); err != nil {
			logger.Error("Failed to archive rental", "rental_id", candidates[i].ID, "error", err)
			continue
		}
		archived++
	}
	return archived, nil
}

func (s *lifecycleService) archive(ctx context.Context, rentalID int64, cutoff time.Time) error {
	unlock := s.locks.Lock(rentalID)
	defer unlock()

	rt, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return err
	}
	if rt.Status != domain.RentalStatusCompleted || rt.LastStatusChangeAt.After(cutoff) {
		return nil
	}

	rt.Status = domain.RentalStatusArchived
	rt.LastStatusChangeAt = time.Now()
	if err := s.rentalRepo.Update(ctx, rt); err != nil {
		return err
	}
	metrics.TransitionsTotal.WithLabelValues(string(domain.RentalStatusArchived)).Inc()
	return nil
}
