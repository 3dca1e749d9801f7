package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gearshare-backend/internal/security"
	"gearshare-backend/internal/service"
)

// RouterDeps bundles everything the router needs
type RouterDeps struct {
	Lifecycle     service.LifecycleService
	Escrow        service.EscrowService
	Reports       service.ReportService
	Extensions    service.ExtensionService
	Disputes      service.DisputeService
	Notifications service.NotificationService
	Tokens        security.TokenManager
	WebhookSecret string
}

// NewRouter builds the full HTTP surface: the authenticated API,
// unauthenticated webhooks, and operational endpoints.
func NewRouter(deps RouterDeps) *mux.Router {
	root := mux.NewRouter()

	// Operational endpoints
	root.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")
	root.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Webhooks authenticate by signature, not bearer token
	webhooks := NewWebhookHandler(deps.Lifecycle, deps.Extensions, deps.WebhookSecret)
	root.HandleFunc("/webhooks/stripe", webhooks.HandleStripe).Methods("POST")
	root.HandleFunc("/webhooks/payment", webhooks.HandleGeneric).Methods("POST")

	api := root.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware(deps.Tokens))

	rentals := NewRentalHandler(deps.Lifecycle, deps.Escrow)
	api.HandleFunc("/rentals", rentals.Create).Methods("POST")
	api.HandleFunc("/rentals", rentals.List).Methods("GET")
	api.HandleFunc("/rentals/{id}", rentals.Get).Methods("GET")
	api.HandleFunc("/rentals/{id}/approve", rentals.Approve).Methods("POST")
	api.HandleFunc("/rentals/{id}/decline", rentals.Decline).Methods("POST")
	api.HandleFunc("/rentals/{id}/cancel", rentals.Cancel).Methods("POST")
	api.HandleFunc("/rentals/{id}/complete", rentals.Complete).Methods("POST")
	api.HandleFunc("/rentals/{id}/escrow", rentals.Escrow).Methods("GET")

	reports := NewReportHandler(deps.Reports)
	api.HandleFunc("/rentals/{id}/reports", reports.File).Methods("POST")
	api.HandleFunc("/rentals/{id}/reports", reports.List).Methods("GET")

	extensions := NewExtensionHandler(deps.Extensions)
	api.HandleFunc("/rentals/{id}/extensions", extensions.Propose).Methods("POST")
	api.HandleFunc("/rentals/{id}/extensions", extensions.List).Methods("GET")
	api.HandleFunc("/extensions/{id}/respond", extensions.Respond).Methods("POST")

	disputes := NewDisputeHandler(deps.Disputes)
	api.HandleFunc("/rentals/{id}/disputes", disputes.File).Methods("POST")
	api.HandleFunc("/rentals/{id}/disputes", disputes.ListByRental).Methods("GET")

	// Administrator surface
	api.HandleFunc("/admin/disputes", adminOnly(disputes.ListOpen)).Methods("GET")
	api.HandleFunc("/admin/disputes/{id}", adminOnly(disputes.Get)).Methods("GET")
	api.HandleFunc("/admin/disputes/{id}/status", adminOnly(disputes.SetStatus)).Methods("POST")
	api.HandleFunc("/admin/disputes/{id}/resolve", adminOnly(disputes.Resolve)).Methods("POST")

	notifications := NewNotificationHandler(deps.Notifications)
	api.HandleFunc("/notifications", notifications.List).Methods("GET")
	api.HandleFunc("/notifications/{id}/read", notifications.MarkAsRead).Methods("POST")

	return root
}
