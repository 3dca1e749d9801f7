package http

import (
	"net/http"

	"gearshare-backend/internal/service"
)

// ExtensionHandler exposes the extension negotiation
type ExtensionHandler struct {
	extensionSvc service.ExtensionService
}

func NewExtensionHandler(extensionSvc service.ExtensionService) *ExtensionHandler {
	return &ExtensionHandler{extensionSvc: extensionSvc}
}

type proposeExtensionRequest struct {
	NewEndDate string `json:"new_end_date"`
	Message    string `json:"message"`
}

func (h *ExtensionHandler) Propose(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	rentalID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req proposeExtensionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ext, err := h.extensionSvc.Propose(r.Context(), claims.UserID, rentalID, req.NewEndDate, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ext)
}

type respondExtensionRequest struct {
	Approve bool `json:"approve"`
}

func (h *ExtensionHandler) Respond(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	extensionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req respondExtensionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ext, err := h.extensionSvc.Respond(r.Context(), claims.UserID, extensionID, req.Approve)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ext)
}

func (h *ExtensionHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	rentalID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	exts, err := h.extensionSvc.ListByRental(r.Context(), claims.UserID, rentalID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"extensions": exts})
}
