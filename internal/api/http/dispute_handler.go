package http

import (
	"net/http"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/service"
)

// DisputeHandler exposes dispute filing to parties and resolution to
// administrators
type DisputeHandler struct {
	disputeSvc service.DisputeService
}

func NewDisputeHandler(disputeSvc service.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputeSvc: disputeSvc}
}

type fileDisputeRequest struct {
	Reason       domain.DisputeReason `json:"reason"`
	Description  string               `json:"description"`
	EvidenceRefs []string             `json:"evidence_refs"`
}

func (h *DisputeHandler) File(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	rentalID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req fileDisputeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	d, err := h.disputeSvc.File(r.Context(), claims.UserID, rentalID, req.Reason, req.Description, req.EvidenceRefs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *DisputeHandler) ListByRental(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	rentalID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	disputes, err := h.disputeSvc.ListByRental(r.Context(), claims.UserID, rentalID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"disputes": disputes})
}

func (h *DisputeHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	disputes, total, err := h.disputeSvc.ListOpen(r.Context(), page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"disputes": disputes,
		"total":    total,
		"page":     page,
	})
}

func (h *DisputeHandler) Get(w http.ResponseWriter, r *http.Request) {
	disputeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	d, err := h.disputeSvc.Get(r.Context(), disputeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type setStatusRequest struct {
	Status domain.DisputeStatus `json:"status"`
}

func (h *DisputeHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	disputeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req setStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	d, err := h.disputeSvc.SetStatus(r.Context(), claims.UserID, disputeID, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type resolveDisputeRequest struct {
	Decision            domain.DisputeDecision `json:"decision"`
	RefundToRenterCents int64                  `json:"refund_to_renter_cents"`
	ChargeToOwnerCents  int64                  `json:"charge_to_owner_cents"`
	Message             string                 `json:"message"`
}

func (h *DisputeHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	disputeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req resolveDisputeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	switch req.Decision {
	case domain.DisputeDecisionFavorRenter, domain.DisputeDecisionFavorOwner, domain.DisputeDecisionSplit:
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "decision must be FAVOR_RENTER, FAVOR_OWNER or SPLIT"})
		return
	}

	d, err := h.disputeSvc.Resolve(r.Context(), claims.UserID, disputeID, req.Decision,
		req.RefundToRenterCents, req.ChargeToOwnerCents, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
