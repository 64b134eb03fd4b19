package reservation_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ms-reservations/internal/apperror"
	"ms-reservations/internal/auth"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
	"ms-reservations/internal/reservation"
	"ms-reservations/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *reservation.ReservationService
	Logger  *logger.Logger
}

func NewHandler(service *reservation.ReservationService, log *logger.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  log,
	}
}

// RegisterRoutes mounts the customer facing routes. Booking accepts guests;
// everything else needs a token.
func (h *Handler) RegisterRoutes(r chi.Router, authn *auth.Authenticator) {
	r.With(authn.Optional()).Post("/reservations", h.CreateReservation)

	r.Group(func(r chi.Router) {
		r.Use(authn.Required())
		r.Get("/reservations/user/{userId}", h.ListUserReservations)
		r.Get("/reservations/{id}", h.GetReservation)
		r.Put("/reservations/{id}/cancel", h.CancelReservation)
		r.Get("/reservations/{id}/refund", h.GetRefund)
		r.Get("/reservations/{id}/voucher", h.GetVoucher)
	})
}

// RegisterAdminRoutes expects r to be guarded by auth.RequireAdmin.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/reservations", h.ListReservations)
	r.Put("/reservations/{id}/status", h.SetStatus)
}

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req models.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CreateReservation: failed to decode request body: %v", err))
		utils.WriteError(w, invalidBody(err))
		return
	}

	var requester *models.Identity
	if identity, ok := auth.IdentityFrom(r.Context()); ok {
		requester = &identity
	}

	res, err := h.Service.CreateReservation(r.Context(), req, requester)
	if err != nil {
		h.fail(w, "CreateReservation", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "reservation created", reservation.ToResponse(res))
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	identity, _ := auth.IdentityFrom(r.Context())

	res, err := h.Service.GetReservation(r.Context(), id, identity)
	if err != nil {
		h.fail(w, "GetReservation", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "reservation found", reservation.ToResponse(res))
}

func (h *Handler) ListUserReservations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	identity, _ := auth.IdentityFrom(r.Context())

	page, err := h.Service.ListReservationsForUser(r.Context(), userID, identity, utils.ParsePage(r, reservation.DefaultUserPageLimit))
	if err != nil {
		h.fail(w, "ListUserReservations", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "reservations found", page)
}

func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	identity, _ := auth.IdentityFrom(r.Context())

	res, err := h.Service.CancelReservation(r.Context(), id, identity)
	if err != nil {
		h.fail(w, "CancelReservation", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "reservation cancelled", reservation.ToResponse(res))
}

func (h *Handler) GetRefund(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	identity, _ := auth.IdentityFrom(r.Context())

	quote, err := h.Service.RefundQuote(r.Context(), id, identity)
	if err != nil {
		h.fail(w, "GetRefund", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "refund computed", quote)
}

// GetVoucher serves the QR code as PNG, or the printable voucher with ?format=pdf.
func (h *Handler) GetVoucher(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	identity, _ := auth.IdentityFrom(r.Context())

	render, contentType, ext := h.Service.Voucher, "image/png", "png"
	if r.URL.Query().Get("format") == "pdf" {
		render, contentType, ext = h.Service.VoucherPDF, "application/pdf", "pdf"
	}

	body, err := render(r.Context(), id, identity)
	if err != nil {
		h.fail(w, "GetVoucher", err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=voucher-%s.%s", id, ext))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetVoucher: failed to write response: %v", err))
	}
}

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	page, err := h.Service.ListReservations(r.Context(), status, utils.ParsePage(r, reservation.DefaultAdminPageLimit))
	if err != nil {
		h.fail(w, "ListReservations", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "reservations found", page)
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, invalidBody(err))
		return
	}

	res, err := h.Service.SetReservationStatus(r.Context(), id, req.Status)
	if err != nil {
		h.fail(w, "SetStatus", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "reservation status updated", reservation.ToResponse(res))
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if apperror.KindOf(err) == apperror.KindInternal {
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	} else {
		h.Logger.Debug("API", fmt.Sprintf("%s: %v", op, err))
	}
	utils.WriteError(w, err)
}

func invalidBody(err error) error {
	return apperror.Validation([]apperror.FieldError{{Field: "body", Message: "invalid JSON: " + err.Error()}})
}
