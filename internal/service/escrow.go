package service

import (
	"context"
	"fmt"
	"time"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/metrics"
	"gearshare-backend/internal/repository"
)

type escrowService struct {
	escrowRepo repository.EscrowRepository
}

func NewEscrowService(escrowRepo repository.EscrowRepository) EscrowService {
	return &escrowService{escrowRepo: escrowRepo}
}

func (s *escrowService) Hold(ctx context.Context, rentalID, amountCents, feeCents, depositCents int64, processorTxnID string) (*domain.EscrowAccount, error) {
	acct := &domain.EscrowAccount{
		RentalRequestID: rentalID,
		AmountCents:     amountCents,
		FeeCents:        feeCents,
		DepositCents:    depositCents,
		Status:          domain.EscrowStatusHeld,
		ProcessorTxnID:  processorTxnID,
	}
	if err := s.escrowRepo.CreateAccount(ctx, acct); err != nil {
		return nil, err
	}

	entry := &domain.LedgerEntry{
		RentalRequestID: rentalID,
		UserID:          0,
		AmountCents:     amountCents + feeCents + depositCents,
		Type:            domain.EntryTypeHold,
		Description:     fmt.Sprintf("Captured rental %d + fee + deposit into escrow (txn %s)", amountCents, processorTxnID),
	}
	if err := s.escrowRepo.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}

	metrics.EscrowOpsTotal.WithLabelValues("hold").Inc()
	return acct, nil
}

func (s *escrowService) Release(ctx context.Context, rentalID, ownerID, renterID int64) (*domain.EscrowAccount, error) {
	acct, err := s.escrowRepo.GetByRental(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if acct.Status != domain.EscrowStatusHeld {
		return nil, fmt.Errorf("%w: escrow is %s, not held", domain.ErrReleaseBlocked, acct.Status)
	}

	payout := domain.OwnerPayoutCents(acct.AmountCents)
	fee := acct.AmountCents - payout

	entries := []*domain.LedgerEntry{
		{
			RentalRequestID: rentalID,
			UserID:          ownerID,
			AmountCents:     payout,
			Type:            domain.EntryTypeOwnerPayout,
			Description:     fmt.Sprintf("Owner payout (%d%% of rental amount)", 100-domain.PlatformFeePercent),
		},
		{
			RentalRequestID: rentalID,
			UserID:          0,
			AmountCents:     fee,
			Type:            domain.EntryTypePlatformFee,
			Description:     fmt.Sprintf("Platform fee (%d%% of rental amount)", domain.PlatformFeePercent),
		},
	}
	if acct.DepositCents > 0 {
		entries = append(entries, &domain.LedgerEntry{
			RentalRequestID: rentalID,
			UserID:          renterID,
			AmountCents:     acct.DepositCents,
			Type:            domain.EntryTypeDepositRefund,
			Description:     "Deposit returned to renter",
		})
	}
	for _, e := range entries {
		if err := s.escrowRepo.CreateEntry(ctx, e); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	if err := s.escrowRepo.UpdateStatus(ctx, acct.ID, domain.EscrowStatusReleased, &now); err != nil {
		return nil, err
	}
	acct.Status = domain.EscrowStatusReleased
	acct.ReleasedAt = &now

	metrics.EscrowOpsTotal.WithLabelValues("release").Inc()
	return acct, nil
}

func (s *escrowService) AddExtensionFunds(ctx context.Context, rentalID, costCents int64, processorTxnID string) error {
	acct, err := s.escrowRepo.GetByRental(ctx, rentalID)
	if err != nil {
		return err
	}
	if acct.Status != domain.EscrowStatusHeld {
		return fmt.Errorf("%w: cannot add extension funds to %s escrow", domain.ErrReleaseBlocked, acct.Status)
	}

	feeDelta := domain.PlatformFeeCents(costCents)
	if err := s.escrowRepo.AddFunds(ctx, acct.ID, costCents, feeDelta); err != nil {
		return err
	}
	entry := &domain.LedgerEntry{
		RentalRequestID: rentalID,
		UserID:          0,
		AmountCents:     costCents,
		Type:            domain.EntryTypeExtensionCharge,
		Description:     fmt.Sprintf("Extension charge captured into escrow (txn %s)", processorTxnID),
	}
	if err := s.escrowRepo.CreateEntry(ctx, entry); err != nil {
		return err
	}

	metrics.EscrowOpsTotal.WithLabelValues("extension").Inc()
	return nil
}

// ApplyDisputeSettlement overrides the default 85/15 split with the
// resolved dispute's amounts. If escrow was already released the
// settlement is posted as a compensating adjustment instead of a fresh
// payout: the renter's refund is clawed back from the owner.
func (s *escrowService) ApplyDisputeSettlement(ctx context.Context, d *domain.Dispute, rt *domain.RentalRequest) error {
	acct, err := s.escrowRepo.GetByRental(ctx, rt.ID)
	if err != nil {
		return err
	}
	if d.RefundToRenterCents+d.ChargeToOwnerCents > acct.AmountCents {
		return fmt.Errorf("%w: %d + %d exceeds escrowed %d",
			domain.ErrSettlementExceedsEscrow, d.RefundToRenterCents, d.ChargeToOwnerCents, acct.AmountCents)
	}

	switch acct.Status {
	case domain.EscrowStatusHeld:
		if err := s.settleHeld(ctx, acct, d, rt); err != nil {
			return err
		}
	case domain.EscrowStatusReleased:
		if err := s.settleReleased(ctx, acct, d, rt); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: escrow already %s", domain.ErrAlreadyResolved, acct.Status)
	}

	if err := s.escrowRepo.UpdateStatus(ctx, acct.ID, domain.EscrowStatusSettled, nil); err != nil {
		return err
	}
	metrics.EscrowOpsTotal.WithLabelValues("settle").Inc()
	return nil
}

func (s *escrowService) settleHeld(ctx context.Context, acct *domain.EscrowAccount, d *domain.Dispute, rt *domain.RentalRequest) error {
	entries := []*domain.LedgerEntry{}
	if d.RefundToRenterCents > 0 {
		entries = append(entries, &domain.LedgerEntry{
			RentalRequestID: rt.ID,
			UserID:          rt.RenterID,
			AmountCents:     d.RefundToRenterCents,
			Type:            domain.EntryTypeRenterRefund,
			Description:     fmt.Sprintf("Dispute %d settlement: refund to renter", d.ID),
		})
	}
	if d.ChargeToOwnerCents > 0 {
		entries = append(entries, &domain.LedgerEntry{
			RentalRequestID: rt.ID,
			UserID:          rt.OwnerID,
			AmountCents:     d.ChargeToOwnerCents,
			Type:            domain.EntryTypeOwnerPayout,
			Description:     fmt.Sprintf("Dispute %d settlement: payout to owner", d.ID),
		})
	}
	if acct.DepositCents > 0 {
		entries = append(entries, &domain.LedgerEntry{
			RentalRequestID: rt.ID,
			UserID:          rt.RenterID,
			AmountCents:     acct.DepositCents,
			Type:            domain.EntryTypeDepositRefund,
			Description:     "Deposit returned to renter",
		})
	}
	for _, e := range entries {
		if err := s.escrowRepo.CreateEntry(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (s *escrowService) settleReleased(ctx context.Context, acct *domain.EscrowAccount, d *domain.Dispute, rt *domain.RentalRequest) error {
	if d.RefundToRenterCents == 0 {
		return nil
	}
	entries := []*domain.LedgerEntry{
		{
			RentalRequestID: rt.ID,
			UserID:          rt.RenterID,
			AmountCents:     d.RefundToRenterCents,
			Type:            domain.EntryTypeAdjustment,
			Description:     fmt.Sprintf("Dispute %d compensating adjustment: refund to renter", d.ID),
		},
		{
			RentalRequestID: rt.ID,
			UserID:          rt.OwnerID,
			AmountCents:     -d.RefundToRenterCents,
			Type:            domain.EntryTypeOwnerCharge,
			Description:     fmt.Sprintf("Dispute %d compensating adjustment: clawback from owner", d.ID),
		},
	}
	for _, e := range entries {
		if err := s.escrowRepo.CreateEntry(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (s *escrowService) GetByRental(ctx context.Context, rentalID int64) (*domain.EscrowAccount, []domain.LedgerEntry, error) {
	acct, err := s.escrowRepo.GetByRental(ctx, rentalID)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.escrowRepo.ListEntries(ctx, rentalID)
	if err != nil {
		return nil, nil, err
	}
	return acct, entries, nil
}
