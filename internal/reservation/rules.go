package reservation

import (
	"math"
	"time"

	"ms-reservations/internal/models"
)

const (
	day = 24 * time.Hour

	// confirmed reservations may be cancelled up to this many days before departure
	cancellationWindowDays = 7
	fullRefundWindowDays   = 30

	earlyRefundRate = 0.90
	lateRefundRate  = 0.50
)

// DaysUntilDeparture rounds up partial days: 7 days and 1 hour counts as 8.
func DaysUntilDeparture(start, now time.Time) int {
	return int(math.Ceil(start.Sub(now).Hours() / day.Hours()))
}

// DurationDays is the trip length in whole days, rounded up.
func DurationDays(start, end time.Time) int {
	return int(math.Ceil(math.Abs(end.Sub(start).Hours()) / day.Hours()))
}

// CanBeCancelled is true for any pending reservation, and for a confirmed one
// strictly more than seven days before departure.
func CanBeCancelled(r *models.Reservation, now time.Time) bool {
	return r.Status == models.StatusPending ||
		(r.Status == models.StatusConfirmed && DaysUntilDeparture(r.StartDate, now) > cancellationWindowDays)
}

// ComputeRefund is derived from the clock on every call and never stored.
func ComputeRefund(r *models.Reservation, now time.Time) float64 {
	if r.Status != models.StatusCancelled {
		return 0
	}

	days := DaysUntilDeparture(r.StartDate, now)
	switch {
	case days > fullRefundWindowDays:
		return roundMoney(r.TotalPrice * earlyRefundRate)
	case days > cancellationWindowDays:
		return roundMoney(r.TotalPrice * lateRefundRate)
	default:
		return 0
	}
}

// TotalPrice is per booking: unit price times party size, no per-night factor.
func TotalPrice(unitPrice float64, participants int) float64 {
	return roundMoney(unitPrice * float64(participants))
}

// CheckTransition gates admin status overrides. Every move between known
// statuses is currently allowed.
func CheckTransition(from, to models.ReservationStatus) error {
	if !to.IsValid() {
		return statusError()
	}
	return nil
}

func roundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}
