package domain

import "time"

type EscrowStatus string

const (
	EscrowStatusHeld     EscrowStatus = "HELD"
	EscrowStatusReleased EscrowStatus = "RELEASED"
	EscrowStatusSettled  EscrowStatus = "SETTLED"
	EscrowStatusRefunded EscrowStatus = "REFUNDED"
)

// EscrowAccount tracks the funds captured for one rental: the rental
// amount itself, the platform fee (15% of the rental amount, never of
// the deposit), and the refundable deposit. It is the single source of
// truth for the rental's monetary state.
type EscrowAccount struct {
	ID              int64        `json:"id"`
	RentalRequestID int64        `json:"rental_request_id"`
	AmountCents     int64        `json:"amount_cents"`
	FeeCents        int64        `json:"fee_cents"`
	DepositCents    int64        `json:"deposit_cents"`
	Status          EscrowStatus `json:"status"`
	ProcessorTxnID  string       `json:"processor_txn_id"`
	HeldAt          time.Time    `json:"held_at"`
	ReleasedAt      *time.Time   `json:"released_at,omitempty"`
}

type EntryType string

const (
	EntryTypeHold            EntryType = "HOLD"
	EntryTypeOwnerPayout     EntryType = "OWNER_PAYOUT"
	EntryTypePlatformFee     EntryType = "PLATFORM_FEE"
	EntryTypeDepositRefund   EntryType = "DEPOSIT_REFUND"
	EntryTypeRenterRefund    EntryType = "RENTER_REFUND"
	EntryTypeOwnerCharge     EntryType = "OWNER_CHARGE"
	EntryTypeAdjustment      EntryType = "ADJUSTMENT"
	EntryTypeExtensionCharge EntryType = "EXTENSION_CHARGE"
)

// LedgerEntry is one monetary movement against a rental's escrow.
// Positive amounts credit the entry's user, negative amounts debit them.
type LedgerEntry struct {
	ID              int64     `json:"id"`
	RentalRequestID int64     `json:"rental_request_id"`
	UserID          int64     `json:"user_id"`
	AmountCents     int64     `json:"amount_cents"`
	Type            EntryType `json:"type"`
	Description     string    `json:"description"`
	CreatedOn       time.Time `json:"created_on"`
}

// PlatformFeePercent is retained from the rental amount on release.
const PlatformFeePercent = 15

// PlatformFeeCents computes the fee on a rental amount, rounding down.
func PlatformFeeCents(amountCents int64) int64 {
	return amountCents * PlatformFeePercent / 100
}

// OwnerPayoutCents is the owner's share of the rental amount under the
// default split.
func OwnerPayoutCents(amountCents int64) int64 {
	return amountCents - PlatformFeeCents(amountCents)
}
