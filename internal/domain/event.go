package domain

import "time"

type EventType string

const (
	EventRentalRequested    EventType = "RENTAL_REQUESTED"
	EventRentalApproved     EventType = "RENTAL_APPROVED"
	EventRentalDeclined     EventType = "RENTAL_DECLINED"
	EventRentalCancelled    EventType = "RENTAL_CANCELLED"
	EventRentalPaid         EventType = "RENTAL_PAID"
	EventRentalCompleted    EventType = "RENTAL_COMPLETED"
	EventRentalArchived     EventType = "RENTAL_ARCHIVED"
	EventReportFiled        EventType = "REPORT_FILED"
	EventReturnUnlocked     EventType = "RETURN_UNLOCKED"
	EventReleaseUnlocked    EventType = "RELEASE_UNLOCKED"
	EventExtensionProposed  EventType = "EXTENSION_PROPOSED"
	EventExtensionApproved  EventType = "EXTENSION_APPROVED"
	EventExtensionDeclined  EventType = "EXTENSION_DECLINED"
	EventExtensionConfirmed EventType = "EXTENSION_CONFIRMED"
	EventDisputeFiled       EventType = "DISPUTE_FILED"
	EventDisputeStatusSet   EventType = "DISPUTE_STATUS_SET"
	EventDisputeResolved    EventType = "DISPUTE_RESOLVED"
	EventEscrowHeld         EventType = "ESCROW_HELD"
	EventEscrowReleased     EventType = "ESCROW_RELEASED"
	EventEscrowSettled      EventType = "ESCROW_SETTLED"
)

// Event is a domain event emitted after a successful mutation. Events
// are handed to the notification dispatcher once the per-rental lock is
// released; dispatch is best-effort and never rolls back the mutation.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	UserID     int64     `json:"user_id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	RelatedID  int64     `json:"related_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
