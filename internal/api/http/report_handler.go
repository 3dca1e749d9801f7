package http

import (
	"net/http"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/service"
)

// ReportHandler exposes condition report filing and listing
type ReportHandler struct {
	reportSvc service.ReportService
}

func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

type fileReportRequest struct {
	Type      domain.ReportType `json:"type"`
	Photos    []string          `json:"photos"`
	Damages   []domain.Damage   `json:"damages"`
	Signature string            `json:"signature"`
}

func (h *ReportHandler) File(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	rentalID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req fileReportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Type != domain.ReportTypePickup && req.Type != domain.ReportTypeReturn {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "type must be PICKUP or RETURN"})
		return
	}

	report, err := h.reportSvc.FileReport(r.Context(), claims.UserID, rentalID, req.Type, req.Photos, req.Damages, req.Signature)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	rentalID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	reports, err := h.reportSvc.ListReports(r.Context(), claims.UserID, rentalID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": reports})
}
