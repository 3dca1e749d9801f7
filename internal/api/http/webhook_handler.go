package http

import (
	"errors"
	"io"
	"net/http"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/payment"
	"gearshare-backend/internal/service"
)

// WebhookHandler receives asynchronous payment processor callbacks.
// Replayed and stale callbacks are acknowledged with 200 so the
// processor stops redelivering them.
type WebhookHandler struct {
	lifecycleSvc  service.LifecycleService
	extensionSvc  service.ExtensionService
	webhookSecret string
}

func NewWebhookHandler(lifecycleSvc service.LifecycleService, extensionSvc service.ExtensionService, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		lifecycleSvc:  lifecycleSvc,
		extensionSvc:  extensionSvc,
		webhookSecret: webhookSecret,
	}
}

// HandleStripe verifies the Stripe signature and applies the callback.
func (h *WebhookHandler) HandleStripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unreadable payload"})
		return
	}

	event, err := payment.VerifyStripePayload(payload, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		logger.Warn("Rejected stripe webhook with bad signature", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid signature"})
		return
	}

	cb, err := payment.FromStripeEvent(event)
	if err != nil {
		if errors.Is(err, payment.ErrIgnoredEvent) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	h.apply(w, r, cb)
}

// HandleGeneric accepts the processor-agnostic JSON callback shape.
// Used by sandbox processors and integration tooling.
func (h *WebhookHandler) HandleGeneric(w http.ResponseWriter, r *http.Request) {
	var cb payment.Callback
	if !decodeBody(w, r, &cb) {
		return
	}
	if err := cb.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	h.apply(w, r, cb)
}

func (h *WebhookHandler) apply(w http.ResponseWriter, r *http.Request, cb payment.Callback) {
	var err error
	if cb.Kind() == "extension" {
		err = h.extensionSvc.HandlePaymentCallback(r.Context(), cb)
	} else {
		err = h.lifecycleSvc.HandlePaymentCallback(r.Context(), cb)
	}
	if err != nil {
		// A stale confirmation (rental already cancelled, extension already
		// settled) is final: acknowledge so the processor stops retrying.
		if errors.Is(err, domain.ErrInvalidTransition) {
			logger.Warn("Dropping stale processor callback", "txn_id", cb.ProcessorTxnID, "error", err)
			writeJSON(w, http.StatusOK, map[string]string{"status": "stale"})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}
