package catalog_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"ms-reservations/internal/apperror"
	"ms-reservations/internal/catalog"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
	"ms-reservations/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *catalog.CatalogService
	Logger  *logger.Logger
}

func NewHandler(service *catalog.CatalogService, log *logger.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/destinations/popular", h.PopularDestinations)
	r.Get("/destinations/{id}", h.GetDestination)
}

// RegisterAdminRoutes expects r to be guarded by auth.RequireAdmin.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/destinations", h.ListDestinations)
	r.Post("/destinations", h.CreateDestination)
	r.Put("/destinations/{id}", h.UpdateDestination)
	r.Delete("/destinations/{id}", h.DeleteDestination)
}

// PopularDestinations renders the list in ?lang when given, and returns the
// multilingual records otherwise.
func (h *Handler) PopularDestinations(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	dests, err := h.Service.PopularDestinations(r.Context(), limit)
	if err != nil {
		h.fail(w, "PopularDestinations", err)
		return
	}

	lang := r.URL.Query().Get("lang")
	if lang == "" {
		utils.WriteSuccess(w, http.StatusOK, "popular destinations", dests)
		return
	}
	views := make([]models.DestinationView, len(dests))
	for i := range dests {
		views[i] = dests[i].View(lang)
	}
	utils.WriteSuccess(w, http.StatusOK, "popular destinations", views)
}

func (h *Handler) GetDestination(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	view, err := h.Service.ViewDestination(r.Context(), id, r.URL.Query().Get("lang"))
	if err != nil {
		h.fail(w, "GetDestination", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "destination found", view)
}

// ListDestinations includes inactive and unavailable destinations.
func (h *Handler) ListDestinations(w http.ResponseWriter, r *http.Request) {
	page, err := h.Service.ListDestinations(r.Context(), utils.ParsePage(r, catalog.DefaultAdminLimit))
	if err != nil {
		h.fail(w, "ListDestinations", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "destinations found", page)
}

func (h *Handler) CreateDestination(w http.ResponseWriter, r *http.Request) {
	var req models.DestinationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CreateDestination: failed to decode request body: %v", err))
		utils.WriteError(w, invalidBody(err))
		return
	}

	dest, err := h.Service.CreateDestination(r.Context(), req)
	if err != nil {
		h.fail(w, "CreateDestination", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "destination created", dest)
}

func (h *Handler) UpdateDestination(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.DestinationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("UpdateDestination: failed to decode request body: %v", err))
		utils.WriteError(w, invalidBody(err))
		return
	}

	dest, err := h.Service.UpdateDestination(r.Context(), id, req)
	if err != nil {
		h.fail(w, "UpdateDestination", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "destination updated", dest)
}

func (h *Handler) DeleteDestination(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Service.DeleteDestination(r.Context(), id); err != nil {
		h.fail(w, "DeleteDestination", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "destination deleted", nil)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if apperror.KindOf(err) == apperror.KindInternal {
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	}
	utils.WriteError(w, err)
}

func invalidBody(err error) error {
	return apperror.Validation([]apperror.FieldError{{Field: "body", Message: "invalid JSON: " + err.Error()}})
}
