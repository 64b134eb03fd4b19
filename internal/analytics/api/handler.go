package analytics_api

import (
	"fmt"
	"net/http"

	"ms-reservations/internal/analytics"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/utils"

	"github.com/go-chi/chi/v5"
)

// Handler handles analytics HTTP endpoints
type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, logger *logger.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  logger,
	}
}

// RegisterAdminRoutes registers the reporting routes. r must already be
// restricted to administrators.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/reservations/stats", h.GetReservationStats)
	r.Get("/dashboard", h.GetDashboard)
}

// GetDashboard handles GET /admin/dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.Service.GetDashboard(r.Context())
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("Failed to build dashboard: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "dashboard", dashboard)
}

// GetReservationStats handles GET /admin/reservations/stats
func (h *Handler) GetReservationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.GetReservationStats(r.Context())
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("Failed to compute reservation stats: %v", err))
		utils.WriteError(w, err)
		return
	}
	h.Logger.Debug("ANALYTICS", fmt.Sprintf("Reservation stats: %d reservations", stats.TotalCount))
	utils.WriteSuccess(w, http.StatusOK, "reservation statistics", stats)
}
