package domain

import "time"

type RentalStatus string

const (
	RentalStatusInquiry   RentalStatus = "INQUIRY"
	RentalStatusPending   RentalStatus = "PENDING"
	RentalStatusApproved  RentalStatus = "APPROVED"
	RentalStatusPaid      RentalStatus = "PAID"
	RentalStatusCompleted RentalStatus = "COMPLETED"
	RentalStatusDeclined  RentalStatus = "DECLINED"
	RentalStatusCancelled RentalStatus = "CANCELLED"
	RentalStatusArchived  RentalStatus = "ARCHIVED"
)

// IsTerminal reports whether no further lifecycle transition is allowed
// from this status, except COMPLETED -> ARCHIVED housekeeping.
func (s RentalStatus) IsTerminal() bool {
	switch s {
	case RentalStatusDeclined, RentalStatusCancelled, RentalStatusCompleted, RentalStatusArchived:
		return true
	}
	return false
}

type RentalRequest struct {
	ID       int64 `json:"id"`
	ItemID   int64 `json:"item_id"`
	RenterID int64 `json:"renter_id"`
	OwnerID  int64 `json:"owner_id"`
	// StartDate and EndDate are calendar dates in YYYY-MM-DD form.
	StartDate string       `json:"start_date"`
	EndDate   string       `json:"end_date"`
	Status    RentalStatus `json:"status"`
	// Price snapshot fields, captured when the request is created. The
	// total excludes fee and deposit; those are snapshotted at payment.
	TotalAmountCents   int64     `json:"total_amount_cents"`
	DepositCents       int64     `json:"deposit_cents"`
	FeeCents           int64     `json:"fee_cents"`
	DailyRateCents     int64     `json:"daily_rate_cents"`
	ReturnConfirmed    bool      `json:"return_confirmed"`
	DeclineReason      string    `json:"decline_reason,omitempty"`
	CancelReason       string    `json:"cancel_reason,omitempty"`
	LastStatusChangeAt time.Time `json:"last_status_change_at"`
	CreatedOn          time.Time `json:"created_on"`
	UpdatedOn          time.Time `json:"updated_on"`
}

// EndTime returns the instant the rental ends: midnight UTC at the start
// of EndDate. All deadline math (extension window, overdue checks) uses
// this single interpretation.
func (r *RentalRequest) EndTime() (time.Time, error) {
	return time.Parse("2006-01-02", r.EndDate)
}
