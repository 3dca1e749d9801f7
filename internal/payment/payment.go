// Package payment defines the boundary contract with the payment
// processor. Only the asynchronous callback matters here; checkout and
// payout mechanics live entirely on the processor's side.
package payment

import "fmt"

type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// Callback is the processor's asynchronous confirmation of a capture.
// Exactly one of RentalID or ExtensionID is set.
type Callback struct {
	RentalID       int64   `json:"rental_id,omitempty"`
	ExtensionID    int64   `json:"extension_id,omitempty"`
	ProcessorTxnID string  `json:"processor_txn_id"`
	Outcome        Outcome `json:"outcome"`
}

func (c Callback) Validate() error {
	if c.ProcessorTxnID == "" {
		return fmt.Errorf("missing processor transaction id")
	}
	if c.Outcome != OutcomeSucceeded && c.Outcome != OutcomeFailed {
		return fmt.Errorf("unknown outcome %q", c.Outcome)
	}
	if (c.RentalID == 0) == (c.ExtensionID == 0) {
		return fmt.Errorf("exactly one of rental_id or extension_id must be set")
	}
	return nil
}

// Kind labels the callback target for the dedupe record.
func (c Callback) Kind() string {
	if c.ExtensionID != 0 {
		return "extension"
	}
	return "rental"
}

// TargetID returns the id of whichever aggregate the callback confirms.
func (c Callback) TargetID() int64 {
	if c.ExtensionID != 0 {
		return c.ExtensionID
	}
	return c.RentalID
}
