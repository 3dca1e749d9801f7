package domain

import "time"

type ExtensionStatus string

const (
	ExtensionStatusPending  ExtensionStatus = "PENDING"
	ExtensionStatusApproved ExtensionStatus = "APPROVED"
	ExtensionStatusDeclined ExtensionStatus = "DECLINED"
)

// Extension is a renter-proposed change to a rental's end date. The
// rental's EndDate moves only after the additional cost is captured by
// the payment processor.
type Extension struct {
	ID                  int64           `json:"id"`
	RentalRequestID     int64           `json:"rental_request_id"`
	RequestedByUserID   int64           `json:"requested_by_user_id"`
	NewEndDate          string          `json:"new_end_date"`
	AdditionalCostCents int64           `json:"additional_cost_cents"`
	Message             string          `json:"message,omitempty"`
	Status              ExtensionStatus `json:"status"`
	PaymentConfirmed    bool            `json:"payment_confirmed"`
	CreatedOn           time.Time       `json:"created_on"`
	UpdatedOn           time.Time       `json:"updated_on"`
}

// Open reports whether this extension still occupies the single
// in-flight slot for its rental. A declined proposal frees the slot
// immediately; an approved one holds it until payment confirms.
func (e *Extension) Open() bool {
	if e.Status == ExtensionStatusDeclined {
		return false
	}
	return !(e.Status == ExtensionStatusApproved && e.PaymentConfirmed)
}
