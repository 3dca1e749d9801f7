package payment

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
)

// ErrIgnoredEvent marks Stripe events this system does not consume.
// Handlers acknowledge them with 200 so Stripe stops redelivering.
var ErrIgnoredEvent = fmt.Errorf("ignored stripe event")

// VerifyStripePayload checks the webhook signature and returns the event.
func VerifyStripePayload(payload []byte, sigHeader, secret string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, secret)
}

// FromStripeEvent adapts a verified Stripe event into the generic
// processor callback. The checkout flow stamps either rental_id or
// extension_id into the payment intent's metadata; the intent id is the
// processor transaction id used for replay detection.
func FromStripeEvent(event stripe.Event) (Callback, error) {
	var outcome Outcome
	switch event.Type {
	case "payment_intent.succeeded":
		outcome = OutcomeSucceeded
	case "payment_intent.payment_failed":
		outcome = OutcomeFailed
	default:
		return Callback{}, fmt.Errorf("%w: %s", ErrIgnoredEvent, event.Type)
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return Callback{}, fmt.Errorf("decode payment intent: %w", err)
	}

	cb := Callback{
		ProcessorTxnID: intent.ID,
		Outcome:        outcome,
	}
	if v, ok := intent.Metadata["rental_id"]; ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Callback{}, fmt.Errorf("bad rental_id metadata %q: %w", v, err)
		}
		cb.RentalID = id
	}
	if v, ok := intent.Metadata["extension_id"]; ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Callback{}, fmt.Errorf("bad extension_id metadata %q: %w", v, err)
		}
		cb.ExtensionID = id
	}
	if err := cb.Validate(); err != nil {
		return Callback{}, err
	}
	return cb, nil
}
