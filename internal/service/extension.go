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

// proposalWindow is the stretch before the rental ends in which the
// renter may propose an extension.
const proposalWindow = 24 * time.Hour

type extensionService struct {
	extensionRepo repository.ExtensionRepository
	rentalRepo    repository.RentalRepository
	availability  repository.AvailabilityRepository
	callbackRepo  repository.CallbackRepository
	escrowSvc     EscrowService
	locks         *syncutil.RentalMutex
	dispatcher    *Dispatcher
	now           func() time.Time
}

func NewExtensionService(
	extensionRepo repository.ExtensionRepository,
	rentalRepo repository.RentalRepository,
	availability repository.AvailabilityRepository,
	callbackRepo repository.CallbackRepository,
	escrowSvc EscrowService,
	locks *syncutil.RentalMutex,
	dispatcher *Dispatcher,
) ExtensionService {
	return &extensionService{
		extensionRepo: extensionRepo,
		rentalRepo:    rentalRepo,
		availability:  availability,
		callbackRepo:  callbackRepo,
		escrowSvc:     escrowSvc,
		locks:         locks,
		dispatcher:    dispatcher,
		now:           time.Now,
	}
}

func (s *extensionService) Propose(ctx context.Context, renterID, rentalID int64, newEndDate, message string) (*domain.Extension, error) {
	unlock := s.locks.Lock(rentalID)
	ext, ownerID, err := s.proposeLocked(ctx, renterID, rentalID, newEndDate, message)
	unlock()
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, []domain.Event{
		newEvent(domain.EventExtensionProposed, ownerID, "Extension requested",
			fmt.Sprintf("The renter asked to extend until %s for %d cents", newEndDate, ext.AdditionalCostCents), rentalID),
	})
	return ext, nil
}

func (s *extensionService) proposeLocked(ctx context.Context, renterID, rentalID int64, newEndDate, message string) (*domain.Extension, int64, error) {
	rt, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, 0, err
	}
	if rt.RenterID != renterID {
		return nil, 0, fmt.Errorf("%w: only the renter may propose an extension", domain.ErrInvalidTransition)
	}
	if rt.Status != domain.RentalStatusPaid {
		return nil, 0, fmt.Errorf("%w: extensions require a paid rental, not %s", domain.ErrInvalidTransition, rt.Status)
	}

	end, err := rt.EndTime()
	if err != nil {
		return nil, 0, err
	}
	hoursUntilEnd := end.Sub(s.now())
	if hoursUntilEnd <= 0 || hoursUntilEnd > proposalWindow {
		return nil, 0, fmt.Errorf("%w: extensions may only be proposed within the final 24 hours of the rental", domain.ErrInvalidTransition)
	}

	proposed, err := time.Parse("2006-01-02", newEndDate)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: bad date %q", domain.ErrInvalidExtensionDate, newEndDate)
	}
	if !proposed.After(end) {
		metrics.RejectionsTotal.WithLabelValues("invalid_extension_date").Inc()
		return nil, 0, fmt.Errorf("%w: %s is not after the current end date %s", domain.ErrInvalidExtensionDate, newEndDate, rt.EndDate)
	}

	if _, err := s.extensionRepo.GetOpenByRental(ctx, rentalID); err == nil {
		metrics.RejectionsTotal.WithLabelValues("extension_already_pending").Inc()
		return nil, 0, fmt.Errorf("%w: resolve the outstanding proposal first", domain.ErrExtensionAlreadyPending)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, 0, err
	}

	extraDays := int64(proposed.Sub(end).Hours() / 24)
	ext := &domain.Extension{
		RentalRequestID:     rentalID,
		RequestedByUserID:   renterID,
		NewEndDate:          newEndDate,
		AdditionalCostCents: extraDays * rt.DailyRateCents,
		Message:             message,
		Status:              domain.ExtensionStatusPending,
	}
	if err := s.extensionRepo.Create(ctx, ext); err != nil {
		return nil, 0, err
	}
	return ext, rt.OwnerID, nil
}

func (s *extensionService) Respond(ctx context.Context, ownerID, extensionID int64, approve bool) (*domain.Extension, error) {
	ext, err := s.extensionRepo.GetByID(ctx, extensionID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(ext.RentalRequestID)
	ext, renterID, err := s.respondLocked(ctx, ownerID, extensionID, approve)
	unlock()
	if err != nil {
		return nil, err
	}

	if approve {
		s.dispatcher.Dispatch(ctx, []domain.Event{
			newEvent(domain.EventExtensionApproved, renterID, "Extension approved",
				fmt.Sprintf("The owner approved your extension; %d cents are due to confirm it", ext.AdditionalCostCents), ext.RentalRequestID),
		})
	} else {
		s.dispatcher.Dispatch(ctx, []domain.Event{
			newEvent(domain.EventExtensionDeclined, renterID, "Extension declined",
				"The owner declined your extension; the original end date stands", ext.RentalRequestID),
		})
	}
	return ext, nil
}

func (s *extensionService) respondLocked(ctx context.Context, ownerID, extensionID int64, approve bool) (*domain.Extension, int64, error) {
	// Re-read under the lock; the proposal may have been answered while
	// we waited.
	ext, err := s.extensionRepo.GetByID(ctx, extensionID)
	if err != nil {
		return nil, 0, err
	}
	rt, err := s.rentalRepo.GetByID(ctx, ext.RentalRequestID)
	if err != nil {
		return nil, 0, err
	}
	if rt.OwnerID != ownerID {
		return nil, 0, fmt.Errorf("%w: only the owner may respond to an extension", domain.ErrInvalidTransition)
	}
	if ext.Status != domain.ExtensionStatusPending {
		return nil, 0, fmt.Errorf("%w: extension is already %s", domain.ErrInvalidTransition, ext.Status)
	}

	if approve {
		ext.Status = domain.ExtensionStatusApproved
	} else {
		ext.Status = domain.ExtensionStatusDeclined
	}
	if err := s.extensionRepo.Update(ctx, ext); err != nil {
		return nil, 0, err
	}
	return ext, rt.RenterID, nil
}

// HandlePaymentCallback confirms the extension capture. Until it
// arrives the original end date stays authoritative for every other
// component.
func (s *extensionService) HandlePaymentCallback(ctx context.Context, cb payment.Callback) error {
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
		logger.Warn("Extension capture failed; awaiting processor retry", "extension_id", cb.ExtensionID, "txn_id", cb.ProcessorTxnID)
		return nil
	}

	ext, err := s.extensionRepo.GetByID(ctx, cb.ExtensionID)
	if err != nil {
		s.unrecordCallback(ctx, cb.ProcessorTxnID, err)
		return err
	}

	unlock := s.locks.Lock(ext.RentalRequestID)
	rt, ext, err := s.confirmLocked(ctx, cb)
	unlock()
	if err != nil {
		s.unrecordCallback(ctx, cb.ProcessorTxnID, err)
		return err
	}

	s.dispatcher.Dispatch(ctx, []domain.Event{
		newEvent(domain.EventExtensionConfirmed, rt.RenterID, "Extension confirmed",
			fmt.Sprintf("The rental now ends on %s", ext.NewEndDate), rt.ID),
		newEvent(domain.EventExtensionConfirmed, rt.OwnerID, "Extension confirmed",
			fmt.Sprintf("The extension payment cleared; the rental now ends on %s", ext.NewEndDate), rt.ID),
	})
	return nil
}

// unrecordCallback frees the dedupe row after a failed apply so the
// processor's retry is not dropped as a replay. Stale captures stay
// recorded; they will never apply and redelivery should stop.
func (s *extensionService) unrecordCallback(ctx context.Context, txnID string, applyErr error) {
	if errors.Is(applyErr, domain.ErrInvalidTransition) {
		return
	}
	if err := s.callbackRepo.Delete(ctx, txnID); err != nil {
		logger.Error("Failed to unrecord callback after apply failure", "txn_id", txnID, "error", err)
	}
}

func (s *extensionService) confirmLocked(ctx context.Context, cb payment.Callback) (*domain.RentalRequest, *domain.Extension, error) {
	ext, err := s.extensionRepo.GetByID(ctx, cb.ExtensionID)
	if err != nil {
		return nil, nil, err
	}
	if ext.Status != domain.ExtensionStatusApproved || ext.PaymentConfirmed {
		metrics.CallbacksTotal.WithLabelValues("stale").Inc()
		return nil, nil, fmt.Errorf("%w: capture confirmed for %s extension %d", domain.ErrInvalidTransition, ext.Status, ext.ID)
	}
	rt, err := s.rentalRepo.GetByID(ctx, ext.RentalRequestID)
	if err != nil {
		return nil, nil, err
	}
	if rt.Status != domain.RentalStatusPaid {
		metrics.CallbacksTotal.WithLabelValues("stale").Inc()
		return nil, nil, fmt.Errorf("%w: extension capture for %s rental %d", domain.ErrInvalidTransition, rt.Status, rt.ID)
	}

	if err := s.escrowSvc.AddExtensionFunds(ctx, rt.ID, ext.AdditionalCostCents, cb.ProcessorTxnID); err != nil {
		return nil, nil, err
	}

	ext.PaymentConfirmed = true
	if err := s.extensionRepo.Update(ctx, ext); err != nil {
		return nil, nil, err
	}

	if err := s.availability.Extend(ctx, rt.ID, ext.NewEndDate); err != nil {
		return nil, nil, err
	}

	rt.EndDate = ext.NewEndDate
	rt.TotalAmountCents += ext.AdditionalCostCents
	rt.FeeCents += domain.PlatformFeeCents(ext.AdditionalCostCents)
	if err := s.rentalRepo.Update(ctx, rt); err != nil {
		return nil, nil, err
	}

	metrics.CallbacksTotal.WithLabelValues("applied").Inc()
	return rt, ext, nil
}

func (s *extensionService) ListByRental(ctx context.Context, userID, rentalID int64) ([]domain.Extension, error) {
	rt, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if userID != rt.RenterID && userID != rt.OwnerID {
		return nil, domain.ErrUnauthorized
	}
	return s.extensionRepo.ListByRental(ctx, rentalID)
}
