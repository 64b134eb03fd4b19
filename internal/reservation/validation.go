package reservation

import (
	"strings"
	"time"

	"ms-reservations/internal/apperror"
	"ms-reservations/internal/models"
	"ms-reservations/internal/utils"
)

func normalizeRequest(req *models.ReservationRequest) {
	req.DestinationID = strings.TrimSpace(req.DestinationID)
	req.Contact.FullName = strings.TrimSpace(req.Contact.FullName)
	req.Contact.Email = strings.ToLower(strings.TrimSpace(req.Contact.Email))
	req.Contact.Phone = strings.TrimSpace(req.Contact.Phone)
	req.Contact.Preferences = strings.TrimSpace(req.Contact.Preferences)
	req.Contact.SpecialRequests = strings.TrimSpace(req.Contact.SpecialRequests)
}

// validateRequest collects every structural and date error before anything
// is read or written.
func (s *ReservationService) validateRequest(req *models.ReservationRequest, now time.Time) error {
	normalizeRequest(req)
	fields := utils.ValidateStruct(s.validate, req)

	if !req.StartDate.IsZero() && !req.StartDate.After(now) {
		fields = append(fields, apperror.FieldError{Field: "start_date", Message: "must be in the future"})
	}
	if !req.StartDate.IsZero() && !req.EndDate.IsZero() && !req.EndDate.After(req.StartDate) {
		fields = append(fields, apperror.FieldError{Field: "end_date", Message: "must be after start_date"})
	}

	if len(fields) > 0 {
		return apperror.Validation(fields)
	}
	return nil
}

func statusError() error {
	names := make([]string, len(models.ReservationStatuses))
	for i, status := range models.ReservationStatuses {
		names[i] = string(status)
	}
	return apperror.Validation([]apperror.FieldError{{
		Field:   "status",
		Message: "must be one of: " + strings.Join(names, ", "),
	}})
}
