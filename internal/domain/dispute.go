package domain

import "time"

type DisputeStatus string

const (
	DisputeStatusOpen        DisputeStatus = "OPEN"
	DisputeStatusUnderReview DisputeStatus = "UNDER_REVIEW"
	DisputeStatusResolved    DisputeStatus = "RESOLVED"
	DisputeStatusClosed      DisputeStatus = "CLOSED"
)

// Blocking reports whether this dispute prevents escrow release.
func (s DisputeStatus) Blocking() bool {
	return s == DisputeStatusOpen || s == DisputeStatusUnderReview
}

type DisputeDecision string

const (
	DisputeDecisionFavorRenter DisputeDecision = "FAVOR_RENTER"
	DisputeDecisionFavorOwner  DisputeDecision = "FAVOR_OWNER"
	DisputeDecisionSplit       DisputeDecision = "SPLIT"
)

type DisputeReason string

const (
	DisputeReasonItemDamaged    DisputeReason = "ITEM_DAMAGED"
	DisputeReasonItemNotReturned DisputeReason = "ITEM_NOT_RETURNED"
	DisputeReasonLateReturn     DisputeReason = "LATE_RETURN"
	DisputeReasonNotAsDescribed DisputeReason = "NOT_AS_DESCRIBED"
	DisputeReasonPaymentIssue   DisputeReason = "PAYMENT_ISSUE"
	DisputeReasonOther          DisputeReason = "OTHER"
)

type Dispute struct {
	ID                 int64           `json:"id"`
	RentalRequestID    int64           `json:"rental_request_id"`
	FiledByUserID      int64           `json:"filed_by_user_id"`
	AgainstUserID      int64           `json:"against_user_id"`
	Reason             DisputeReason   `json:"reason"`
	Description        string          `json:"description"`
	EvidenceRefs       []string        `json:"evidence_refs,omitempty"`
	Status             DisputeStatus   `json:"status"`
	Decision           DisputeDecision `json:"decision,omitempty"`
	RefundToRenterCents int64          `json:"refund_to_renter_cents"`
	ChargeToOwnerCents  int64          `json:"charge_to_owner_cents"`
	ResolutionMessage  string          `json:"resolution_message,omitempty"`
	ResolvedByUserID   *int64          `json:"resolved_by_user_id,omitempty"`
	ResolvedAt         *time.Time      `json:"resolved_at,omitempty"`
	CreatedOn          time.Time       `json:"created_on"`
	UpdatedOn          time.Time       `json:"updated_on"`
}
