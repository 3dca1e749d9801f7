package service

import (
	"context"
	"fmt"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/metrics"
	"gearshare-backend/internal/repository"
	"gearshare-backend/internal/syncutil"
)

// reportService implements the condition report gate. The gate is
// count-based: filing the second report of a type unlocks the next
// phase, whichever party files second.
type reportService struct {
	reportRepo  repository.ReportRepository
	rentalRepo  repository.RentalRepository
	disputeRepo repository.DisputeRepository
	locks       *syncutil.RentalMutex
	dispatcher  *Dispatcher
}

func NewReportService(
	reportRepo repository.ReportRepository,
	rentalRepo repository.RentalRepository,
	disputeRepo repository.DisputeRepository,
	locks *syncutil.RentalMutex,
	dispatcher *Dispatcher,
) ReportService {
	return &reportService{
		reportRepo:  reportRepo,
		rentalRepo:  rentalRepo,
		disputeRepo: disputeRepo,
		locks:       locks,
		dispatcher:  dispatcher,
	}
}

func (s *reportService) FileReport(ctx context.Context, userID, rentalID int64, typ domain.ReportType, photos []string, damages []domain.Damage, signature string) (*domain.ConditionReport, error) {
	if len(photos) == 0 {
		metrics.RejectionsTotal.WithLabelValues("incomplete_report").Inc()
		return nil, fmt.Errorf("%w: at least one photo is required", domain.ErrIncompleteReport)
	}
	if signature == "" {
		metrics.RejectionsTotal.WithLabelValues("incomplete_report").Inc()
		return nil, fmt.Errorf("%w: signature is required", domain.ErrIncompleteReport)
	}

	unlock := s.locks.Lock(rentalID)
	report, events, err := s.fileLocked(ctx, userID, rentalID, typ, photos, damages, signature)
	unlock()
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, events)
	return report, nil
}

func (s *reportService) fileLocked(ctx context.Context, userID, rentalID int64, typ domain.ReportType, photos []string, damages []domain.Damage, signature string) (*domain.ConditionReport, []domain.Event, error) {
	rt, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, nil, err
	}
	if userID != rt.RenterID && userID != rt.OwnerID {
		return nil, nil, domain.ErrUnauthorized
	}
	if rt.Status != domain.RentalStatusPaid {
		return nil, nil, fmt.Errorf("%w: condition reports require a paid rental, not %s", domain.ErrInvalidTransition, rt.Status)
	}

	exists, err := s.reportRepo.Exists(ctx, rentalID, typ, userID)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		metrics.RejectionsTotal.WithLabelValues("duplicate_report").Inc()
		return nil, nil, fmt.Errorf("%w: you already filed a %s report for this rental", domain.ErrDuplicateReport, typ)
	}

	if typ == domain.ReportTypeReturn {
		pickups, err := s.reportRepo.CountByType(ctx, rentalID, domain.ReportTypePickup)
		if err != nil {
			return nil, nil, err
		}
		if pickups < 2 {
			metrics.RejectionsTotal.WithLabelValues("premature_return").Inc()
			return nil, nil, fmt.Errorf("%w: both pickup reports are required before return reports (%d of 2 filed)", domain.ErrPrematureReturn, pickups)
		}
	}

	report := &domain.ConditionReport{
		RentalRequestID:  rentalID,
		Type:             typ,
		ReportedByUserID: userID,
		Photos:           photos,
		Damages:          damages,
		Signature:        signature,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, nil, err
	}

	counterparty := rt.OwnerID
	if userID == rt.OwnerID {
		counterparty = rt.RenterID
	}
	events := []domain.Event{
		newEvent(domain.EventReportFiled, counterparty, "Condition report filed",
			fmt.Sprintf("The other party filed their %s report", typ), rentalID),
	}

	// Filing the second report of a type unlocks the next phase.
	count, err := s.reportRepo.CountByType(ctx, rentalID, typ)
	if err != nil {
		return nil, nil, err
	}
	if count == 2 {
		switch typ {
		case domain.ReportTypePickup:
			events = append(events,
				newEvent(domain.EventReturnUnlocked, rt.RenterID, "Return reporting unlocked",
					"Both pickup reports are filed; return reports may now be submitted", rentalID),
				newEvent(domain.EventReturnUnlocked, rt.OwnerID, "Return reporting unlocked",
					"Both pickup reports are filed; return reports may now be submitted", rentalID))
		case domain.ReportTypeReturn:
			events = append(events,
				newEvent(domain.EventReleaseUnlocked, rt.OwnerID, "Payment release unlocked",
					"Both return reports are filed; you may now complete the rental", rentalID))
		}
	}
	return report, events, nil
}

// CanReleasePayment is a pure predicate: both return reports exist and
// no open or under-review dispute blocks the rental.
func (s *reportService) CanReleasePayment(ctx context.Context, rentalID int64) (bool, string, error) {
	returns, err := s.reportRepo.CountByType(ctx, rentalID, domain.ReportTypeReturn)
	if err != nil {
		return false, "", err
	}
	if returns < 2 {
		return false, fmt.Sprintf("both return reports are required before release (%d of 2 filed)", returns), nil
	}

	blocked, err := s.disputeRepo.HasBlocking(ctx, rentalID)
	if err != nil {
		return false, "", err
	}
	if blocked {
		return false, "an open dispute blocks payment release", nil
	}
	return true, "", nil
}

func (s *reportService) ListReports(ctx context.Context, userID, rentalID int64) ([]domain.ConditionReport, error) {
	rt, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if userID != rt.RenterID && userID != rt.OwnerID {
		return nil, domain.ErrUnauthorized
	}
	return s.reportRepo.ListByRental(ctx, rentalID)
}
