package reservation

import (
	"context"
	"fmt"
	"time"

	"ms-reservations/internal/apperror"
	"ms-reservations/internal/config"
	"ms-reservations/internal/kafka"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
	"ms-reservations/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	DefaultUserPageLimit  = 10
	DefaultAdminPageLimit = 20

	publishTimeout = 5 * time.Second
)

type DBLayer interface {
	CreateReservation(ctx context.Context, r *models.Reservation) error
	GetReservationByID(ctx context.Context, id string) (*models.Reservation, error)
	UpdateStatus(ctx context.Context, id string, status models.ReservationStatus, at time.Time) error
	UpdateStatusIf(ctx context.Context, id string, expected, status models.ReservationStatus, at time.Time) (bool, error)
	ListByUser(ctx context.Context, userID string, page utils.Page) ([]models.Reservation, int, error)
	List(ctx context.Context, status models.ReservationStatus, page utils.Page) ([]models.Reservation, int, error)
}

// DestinationReader is the read-only view of the catalog the engine needs.
type DestinationReader interface {
	GetDestination(ctx context.Context, id string) (*models.Destination, error)
}

type RedisLock interface {
	Lock(ctx context.Context, reservationID, owner string) (bool, error)
	Unlock(ctx context.Context, reservationID, owner string) error
}

type KafkaPublisher interface {
	PublishReservationEvent(ctx context.Context, topic string, event kafka.ReservationEvent) error
}

type VoucherGenerator interface {
	Generate(r *models.Reservation) ([]byte, error)
	GeneratePDF(r *models.Reservation) ([]byte, error)
}

// ReservationService owns the reservation lifecycle. Redis and Kafka are
// optional: a nil Redis skips locking and a nil Kafka skips events.
type ReservationService struct {
	DB           DBLayer
	Destinations DestinationReader
	Redis        RedisLock
	Kafka        KafkaPublisher
	Vouchers     VoucherGenerator
	Topics       config.TopicConfig
	Logger       *logger.Logger
	Now          func() time.Time

	validate *validator.Validate
}

func NewReservationService(db DBLayer, destinations DestinationReader, redis RedisLock, kafka KafkaPublisher, vouchers VoucherGenerator, topics config.TopicConfig, log *logger.Logger) *ReservationService {
	return &ReservationService{
		DB:           db,
		Destinations: destinations,
		Redis:        redis,
		Kafka:        kafka,
		Vouchers:     vouchers,
		Topics:       topics,
		Logger:       log,
		Now:          func() time.Time { return time.Now().UTC() },
		validate:     utils.NewValidator(),
	}
}

// ---------------- BOOKING ----------------

// CreateReservation books a trip for requester, or for a guest when requester is nil.
func (s *ReservationService) CreateReservation(ctx context.Context, req models.ReservationRequest, requester *models.Identity) (*models.Reservation, error) {
	now := s.Now()

	if err := s.validateRequest(&req, now); err != nil {
		return nil, err
	}

	dest, err := s.Destinations.GetDestination(ctx, req.DestinationID)
	if err != nil {
		return nil, err
	}
	if !dest.Active {
		return nil, apperror.NotFound("destination not found")
	}
	if !dest.Available {
		return nil, apperror.Unavailable("destination is not available for booking")
	}

	r := &models.Reservation{
		ID:            uuid.NewString(),
		DestinationID: dest.ID,
		StartDate:     req.StartDate.UTC(),
		EndDate:       req.EndDate.UTC(),
		Participants:  req.Participants,
		Status:        models.StatusPending,
		TotalPrice:    TotalPrice(dest.UnitPrice, req.Participants),
		Currency:      dest.Currency,
		Contact: models.ContactInfo{
			FullName:        req.Contact.FullName,
			Email:           req.Contact.Email,
			Phone:           req.Contact.Phone,
			Preferences:     req.Contact.Preferences,
			SpecialRequests: req.Contact.SpecialRequests,
		},
		Payment: models.Payment{
			Method: req.PaymentMethod,
			Status: models.PaymentPending,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if requester != nil && requester.UserID != "" {
		userID := requester.UserID
		r.UserID = &userID
	}

	if err := s.DB.CreateReservation(ctx, r); err != nil {
		s.Logger.Error("RESERVATION", fmt.Sprintf("Failed to create reservation for destination %s: %v", dest.ID, err))
		return nil, err
	}

	s.Logger.LogReservation("CREATE", r.ID, fmt.Sprintf("destination=%s participants=%d total=%.2f %s", dest.ID, r.Participants, r.TotalPrice, r.Currency))
	s.publish(ctx, s.Topics.ReservationCreated, "reservation.created", r, "")
	return r, nil
}

// ---------------- TRANSITIONS ----------------

// SetReservationStatus is the admin override. Authorization is enforced by the
// router; concurrent overrides are last-write-wins.
func (s *ReservationService) SetReservationStatus(ctx context.Context, id, status string) (*models.Reservation, error) {
	target, err := models.ParseReservationStatus(status)
	if err != nil {
		return nil, statusError()
	}
	if err := validID(id); err != nil {
		return nil, err
	}

	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	r, err := s.DB.GetReservationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckTransition(r.Status, target); err != nil {
		return nil, err
	}

	previous := r.Status
	now := s.Now()
	if err := s.DB.UpdateStatus(ctx, id, target, now); err != nil {
		return nil, err
	}
	r.Status = target
	r.UpdatedAt = now

	s.Logger.LogReservation("STATUS", r.ID, fmt.Sprintf("%s -> %s", previous, target))
	s.publish(ctx, s.Topics.ReservationStatusChanged, "reservation.status_changed", r, previous)
	return r, nil
}

// CancelReservation applies the user cancellation rule. The write only lands
// if the status is still the one the eligibility check saw.
func (s *ReservationService) CancelReservation(ctx context.Context, id string, requester models.Identity) (*models.Reservation, error) {
	if err := validID(id); err != nil {
		return nil, err
	}

	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	r, err := s.DB.GetReservationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(r, requester) {
		s.Logger.LogSecurity("CANCEL_FORBIDDEN", fmt.Sprintf("user %s on reservation %s", requester.UserID, id))
		return nil, apperror.Forbidden("you are not allowed to cancel this reservation")
	}

	now := s.Now()
	if !CanBeCancelled(r, now) {
		return nil, apperror.CancellationNotAllowed("this reservation can no longer be cancelled")
	}

	previous := r.Status
	ok, err := s.DB.UpdateStatusIf(ctx, id, previous, models.StatusCancelled, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Conflict("reservation was modified concurrently, retry")
	}
	r.Status = models.StatusCancelled
	r.UpdatedAt = now

	s.Logger.LogReservation("CANCEL", r.ID, fmt.Sprintf("%s -> cancelled by %s", previous, requester.UserID))
	s.publish(ctx, s.Topics.ReservationCancelled, "reservation.cancelled", r, previous)
	return r, nil
}

// ---------------- READS ----------------

func (s *ReservationService) GetReservation(ctx context.Context, id string, requester models.Identity) (*models.Reservation, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	r, err := s.DB.GetReservationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(r, requester) {
		return nil, apperror.Forbidden("you are not allowed to view this reservation")
	}
	return r, nil
}

// RefundQuote reports what a refund would be worth right now.
func (s *ReservationService) RefundQuote(ctx context.Context, id string, requester models.Identity) (*models.RefundQuote, error) {
	r, err := s.GetReservation(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	return &models.RefundQuote{
		ReservationID:      r.ID,
		Status:             r.Status,
		DaysUntilDeparture: DaysUntilDeparture(r.StartDate, now),
		RefundAmount:       ComputeRefund(r, now),
		Currency:           r.Currency,
	}, nil
}

func (s *ReservationService) ListReservationsForUser(ctx context.Context, userID string, requester models.Identity, page utils.Page) (*models.ReservationPage, error) {
	if !requester.IsAdmin() && requester.UserID != userID {
		return nil, apperror.Forbidden("you are not allowed to access these reservations")
	}
	page = page.Normalize(DefaultUserPageLimit)

	reservations, total, err := s.DB.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	return newPage(reservations, total, page), nil
}

// ListReservations is the admin listing; an empty status means all.
func (s *ReservationService) ListReservations(ctx context.Context, status string, page utils.Page) (*models.ReservationPage, error) {
	var filter models.ReservationStatus
	if status != "" {
		parsed, err := models.ParseReservationStatus(status)
		if err != nil {
			return nil, statusError()
		}
		filter = parsed
	}
	page = page.Normalize(DefaultAdminPageLimit)

	reservations, total, err := s.DB.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return newPage(reservations, total, page), nil
}

// Voucher returns the check-in QR code of a confirmed reservation as PNG.
func (s *ReservationService) Voucher(ctx context.Context, id string, requester models.Identity) ([]byte, error) {
	return s.voucher(ctx, id, requester, "PNG", s.Vouchers.Generate)
}

// VoucherPDF returns the printable voucher of a confirmed reservation.
func (s *ReservationService) VoucherPDF(ctx context.Context, id string, requester models.Identity) ([]byte, error) {
	return s.voucher(ctx, id, requester, "PDF", s.Vouchers.GeneratePDF)
}

func (s *ReservationService) voucher(ctx context.Context, id string, requester models.Identity, format string, render func(*models.Reservation) ([]byte, error)) ([]byte, error) {
	r, err := s.GetReservation(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	if r.Status != models.StatusConfirmed {
		return nil, apperror.Conflict("a voucher is only issued for confirmed reservations")
	}
	out, err := render(r)
	if err != nil {
		return nil, apperror.Internal("failed to generate voucher", err)
	}
	s.Logger.LogReservation("VOUCHER", r.ID, format+" voucher issued")
	return out, nil
}

// ---------------- HELPERS ----------------

// ToResponse adds the derived fields the API exposes.
func ToResponse(r *models.Reservation) models.ReservationResponse {
	return models.ReservationResponse{
		Reservation:  *r,
		DurationDays: DurationDays(r.StartDate, r.EndDate),
	}
}

func newPage(reservations []models.Reservation, total int, page utils.Page) *models.ReservationPage {
	out := make([]models.ReservationResponse, len(reservations))
	for i := range reservations {
		out[i] = ToResponse(&reservations[i])
	}
	return &models.ReservationPage{
		Count:        len(out),
		Total:        total,
		Page:         page.Page,
		Pages:        page.Pages(total),
		Reservations: out,
	}
}

// canAccess: admins see everything, users only their own. Guest reservations
// have no owner and are reachable by admins only.
func canAccess(r *models.Reservation, requester models.Identity) bool {
	return requester.IsAdmin() || r.OwnedBy(requester.UserID)
}

// validID rejects ids that cannot exist so they never reach a uuid column.
func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NotFound("reservation not found")
	}
	return nil
}

func (s *ReservationService) lock(ctx context.Context, id string) (func(), error) {
	if s.Redis == nil {
		return func() {}, nil
	}

	owner := uuid.NewString()
	ok, err := s.Redis.Lock(ctx, id, owner)
	if err != nil {
		return nil, apperror.Internal("failed to lock reservation", err)
	}
	if !ok {
		return nil, apperror.Conflict("reservation is being modified, retry")
	}

	return func() {
		if err := s.Redis.Unlock(context.WithoutCancel(ctx), id, owner); err != nil {
			s.Logger.Warn("REDIS", fmt.Sprintf("Failed to release lock on reservation %s: %v", id, err))
		}
	}, nil
}

// publish never fails the operation; the event is lost if the broker is down.
func (s *ReservationService) publish(ctx context.Context, topic, eventType string, r *models.Reservation, previous models.ReservationStatus) {
	if s.Kafka == nil || topic == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := kafka.NewReservationEvent(eventType, r, previous)
	if err := s.Kafka.PublishReservationEvent(ctx, topic, event); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish %s for reservation %s: %v", eventType, r.ID, err))
		return
	}
	s.Logger.LogKafka("PUBLISH", topic, r.ID)
}
