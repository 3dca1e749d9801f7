package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"gearshare-backend/internal/service"
)

// RentalHandler exposes the rental lifecycle over HTTP
type RentalHandler struct {
	lifecycleSvc service.LifecycleService
	escrowSvc    service.EscrowService
}

func NewRentalHandler(lifecycleSvc service.LifecycleService, escrowSvc service.EscrowService) *RentalHandler {
	return &RentalHandler{lifecycleSvc: lifecycleSvc, escrowSvc: escrowSvc}
}

type createRentalRequest struct {
	ItemID           int64  `json:"item_id"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	TotalAmountCents int64  `json:"total_amount_cents"`
}

func (h *RentalHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	var req createRentalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rt, err := h.lifecycleSvc.CreateRequest(r.Context(), claims.UserID, req.ItemID, req.StartDate, req.EndDate, req.TotalAmountCents)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rt)
}

func (h *RentalHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	rt, err := h.lifecycleSvc.Get(r.Context(), claims.UserID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func (h *RentalHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	status := r.URL.Query().Get("status")
	page, pageSize := pagination(r)

	var err error
	var rentals interface{}
	var total int32
	if r.URL.Query().Get("role") == "owner" {
		rentals, total, err = h.lifecycleSvc.ListByOwner(r.Context(), claims.UserID, status, page, pageSize)
	} else {
		rentals, total, err = h.lifecycleSvc.ListByRenter(r.Context(), claims.UserID, status, page, pageSize)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rentals": rentals,
		"total":   total,
		"page":    page,
	})
}

func (h *RentalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	rt, err := h.lifecycleSvc.Approve(r.Context(), claims.UserID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *RentalHandler) Decline(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req reasonRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rt, err := h.lifecycleSvc.Decline(r.Context(), claims.UserID, id, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func (h *RentalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req reasonRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rt, err := h.lifecycleSvc.Cancel(r.Context(), claims.UserID, id, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func (h *RentalHandler) Complete(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	rt, err := h.lifecycleSvc.Complete(r.Context(), claims.UserID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

// Escrow returns the escrow account and ledger for a rental the caller
// is party to.
func (h *RentalHandler) Escrow(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	// Get authorizes: only the renter or owner may see the rental.
	if _, err := h.lifecycleSvc.Get(r.Context(), claims.UserID, id); err != nil {
		writeError(w, err)
		return
	}
	acct, entries, err := h.escrowSvc.GetByRental(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": acct,
		"ledger":  entries,
	})
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

func pagination(r *http.Request) (int32, int32) {
	page := int32(1)
	pageSize := int32(20)
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = int32(v)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && v > 0 && v <= 100 {
		pageSize = int32(v)
	}
	return page, pageSize
}
