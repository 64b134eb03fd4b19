package models

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusCompleted ReservationStatus = "completed"
)

var ReservationStatuses = []ReservationStatus{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

func (s ReservationStatus) IsValid() bool {
	for _, known := range ReservationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func ParseReservationStatus(s string) (ReservationStatus, error) {
	status := ReservationStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid reservation status: %s", s)
	}
	return status, nil
}

type PaymentMethod string

const (
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCash     PaymentMethod = "cash"
	PaymentCheck    PaymentMethod = "check"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefused  PaymentStatus = "refused"
	PaymentRefunded PaymentStatus = "refunded"
)

// ContactInfo is captured at booking time and never follows later profile edits.
type ContactInfo struct {
	FullName        string `bun:"full_name,notnull" json:"full_name"`
	Email           string `bun:"email,notnull" json:"email"`
	Phone           string `bun:"phone,notnull" json:"phone"`
	Preferences     string `bun:"preferences,nullzero" json:"preferences,omitempty"`
	SpecialRequests string `bun:"special_requests,nullzero" json:"special_requests,omitempty"`
}

type Payment struct {
	Method    PaymentMethod `bun:"method,notnull" json:"method"`
	Status    PaymentStatus `bun:"status,notnull" json:"status"`
	PaidAt    *time.Time    `bun:"paid_at" json:"paid_at,omitempty"`
	Reference string        `bun:"reference,nullzero" json:"reference,omitempty"`
}

type Reservation struct {
	bun.BaseModel `bun:"table:reservations,alias:r"`

	ID            string            `bun:"id,pk" json:"id"`
	UserID        *string           `bun:"user_id" json:"user_id"`
	DestinationID string            `bun:"destination_id,notnull" json:"destination_id"`
	StartDate     time.Time         `bun:"start_date,notnull" json:"start_date"`
	EndDate       time.Time         `bun:"end_date,notnull" json:"end_date"`
	Participants  int               `bun:"participants,notnull" json:"participants"`
	Status        ReservationStatus `bun:"status,notnull" json:"status"`
	TotalPrice    float64           `bun:"total_price,notnull" json:"total_price"`
	Currency      string            `bun:"currency,notnull" json:"currency"`
	Contact       ContactInfo       `bun:"embed:contact_" json:"contact"`
	Payment       Payment           `bun:"embed:payment_" json:"payment"`
	Notes         string            `bun:"notes,nullzero" json:"notes,omitempty"`
	CreatedAt     time.Time         `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt     time.Time         `bun:"updated_at,notnull" json:"updated_at"`
}

// OwnedBy reports whether the reservation belongs to userID. Guest
// reservations belong to nobody.
func (r *Reservation) OwnedBy(userID string) bool {
	return r.UserID != nil && userID != "" && *r.UserID == userID
}

type ContactRequest struct {
	FullName        string `json:"full_name" validate:"required,min=2,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required,min=10,max=20"`
	Preferences     string `json:"preferences" validate:"max=500"`
	SpecialRequests string `json:"special_requests" validate:"max=1000"`
}

type ReservationRequest struct {
	DestinationID string         `json:"destination_id" validate:"required,uuid"`
	StartDate     time.Time      `json:"start_date" validate:"required"`
	EndDate       time.Time      `json:"end_date" validate:"required"`
	Participants  int            `json:"participants" validate:"min=1,max=20"`
	Contact       ContactRequest `json:"contact"`
	PaymentMethod PaymentMethod  `json:"payment_method" validate:"required,oneof=card transfer cash check"`
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// ReservationResponse is the API view of a reservation.
type ReservationResponse struct {
	Reservation
	DurationDays int `json:"duration_days"`
}

type ReservationPage struct {
	Count        int                   `json:"count"`
	Total        int                   `json:"total"`
	Page         int                   `json:"page"`
	Pages        int                   `json:"pages"`
	Reservations []ReservationResponse `json:"reservations"`
}

type RefundQuote struct {
	ReservationID      string            `json:"reservation_id"`
	Status             ReservationStatus `json:"status"`
	DaysUntilDeparture int               `json:"days_until_departure"`
	RefundAmount       float64           `json:"refund_amount"`
	Currency           string            `json:"currency"`
}
