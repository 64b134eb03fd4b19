package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ms-reservations/internal/apperror"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
	"ms-reservations/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	DefaultPopularLimit = 6
	DefaultAdminLimit   = 20
	maxPopularLimit     = 50
	defaultCurrency     = "EUR"
)

type DBLayer interface {
	GetDestinationByID(ctx context.Context, id string) (*models.Destination, error)
	IncrementPopularity(ctx context.Context, id string) error
	ListPopular(ctx context.Context, limit int) ([]models.Destination, error)
	CreateDestination(ctx context.Context, dest *models.Destination) error
	UpdateDestination(ctx context.Context, dest *models.Destination) error
	ListDestinations(ctx context.Context, page utils.Page) ([]models.Destination, int, error)
	DeleteDestination(ctx context.Context, id string) error
	CountReservations(ctx context.Context, destinationID string) (int, error)
}

type CatalogService struct {
	DB     DBLayer
	Logger *logger.Logger
	Now    func() time.Time

	validate *validator.Validate
}

func NewCatalogService(db DBLayer, log *logger.Logger) *CatalogService {
	return &CatalogService{
		DB:       db,
		Logger:   log,
		Now:      func() time.Time { return time.Now().UTC() },
		validate: utils.NewValidator(),
	}
}

// GetDestination has no side effect; the reservation engine books against it.
func (s *CatalogService) GetDestination(ctx context.Context, id string) (*models.Destination, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.NotFound("destination not found")
	}
	return s.DB.GetDestinationByID(ctx, id)
}

// ViewDestination serves the public detail page and counts the view.
func (s *CatalogService) ViewDestination(ctx context.Context, id, lang string) (*models.DestinationView, error) {
	dest, err := s.GetDestination(ctx, id)
	if err != nil {
		return nil, err
	}
	if !dest.Active {
		return nil, apperror.NotFound("destination not found")
	}

	if err := s.DB.IncrementPopularity(ctx, id); err != nil {
		return nil, err
	}
	dest.Popularity++

	view := dest.View(lang)
	return &view, nil
}

func (s *CatalogService) PopularDestinations(ctx context.Context, limit int) ([]models.Destination, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	if limit > maxPopularLimit {
		limit = maxPopularLimit
	}
	return s.DB.ListPopular(ctx, limit)
}

func (s *CatalogService) CreateDestination(ctx context.Context, req models.DestinationRequest) (*models.Destination, error) {
	normalizeDestination(&req)
	if fields := utils.ValidateStruct(s.validate, req); len(fields) > 0 {
		return nil, apperror.Validation(fields)
	}

	now := s.Now()
	dest := &models.Destination{
		ID:           uuid.NewString(),
		Name:         models.LocalizedText(req.Name),
		Description:  models.LocalizedText(req.Description),
		UnitPrice:    req.UnitPrice,
		Currency:     req.Currency,
		ImageURL:     req.ImageURL,
		Available:    true,
		Active:       true,
		DurationDays: req.DurationDays,
		Category:     req.Category,
		Country:      req.Country,
		City:         req.City,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	applyFlags(dest, req)

	if err := s.DB.CreateDestination(ctx, dest); err != nil {
		return nil, err
	}
	s.Logger.LogDatabase("INSERT", "destinations", fmt.Sprintf("created destination %s (%s)", dest.ID, dest.Name.Fr))
	return dest, nil
}

// UpdateDestination replaces the editable fields of a destination with the
// same validation as CreateDestination. Existing reservations keep the price
// and currency they were booked at.
func (s *CatalogService) UpdateDestination(ctx context.Context, id string, req models.DestinationRequest) (*models.Destination, error) {
	normalizeDestination(&req)
	if fields := utils.ValidateStruct(s.validate, req); len(fields) > 0 {
		return nil, apperror.Validation(fields)
	}

	dest, err := s.GetDestination(ctx, id)
	if err != nil {
		return nil, err
	}

	previousPrice, previousCurrency := dest.UnitPrice, dest.Currency
	dest.Name = models.LocalizedText(req.Name)
	dest.Description = models.LocalizedText(req.Description)
	dest.UnitPrice = req.UnitPrice
	dest.Currency = req.Currency
	dest.ImageURL = req.ImageURL
	dest.DurationDays = req.DurationDays
	dest.Category = req.Category
	dest.Country = req.Country
	dest.City = req.City
	dest.UpdatedAt = s.Now()
	applyFlags(dest, req)

	if err := s.DB.UpdateDestination(ctx, dest); err != nil {
		return nil, err
	}
	s.Logger.LogDatabase("UPDATE", "destinations", fmt.Sprintf("updated destination %s, price %.2f %s -> %.2f %s",
		dest.ID, previousPrice, previousCurrency, dest.UnitPrice, dest.Currency))
	return dest, nil
}

// ListDestinations is the admin view of the whole catalog.
func (s *CatalogService) ListDestinations(ctx context.Context, page utils.Page) (*models.DestinationPage, error) {
	page = page.Normalize(DefaultAdminLimit)
	dests, total, err := s.DB.ListDestinations(ctx, page)
	if err != nil {
		return nil, err
	}
	return &models.DestinationPage{
		Count:        len(dests),
		Total:        total,
		Page:         page.Page,
		Pages:        page.Pages(total),
		Destinations: dests,
	}, nil
}

// DeleteDestination refuses while any reservation, whatever its status, still
// points at the destination. A booking racing the delete is caught by the
// foreign key and reported as the same Conflict.
func (s *CatalogService) DeleteDestination(ctx context.Context, id string) error {
	if _, err := s.GetDestination(ctx, id); err != nil {
		return err
	}

	n, err := s.DB.CountReservations(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperror.Conflict(fmt.Sprintf("destination has %d reservation(s) and cannot be deleted", n))
	}

	if err := s.DB.DeleteDestination(ctx, id); err != nil {
		return err
	}
	s.Logger.LogDatabase("DELETE", "destinations", fmt.Sprintf("deleted destination %s", id))
	return nil
}

func applyFlags(dest *models.Destination, req models.DestinationRequest) {
	if dest.Currency == "" {
		dest.Currency = defaultCurrency
	}
	if req.Available != nil {
		dest.Available = *req.Available
	}
	if req.Active != nil {
		dest.Active = *req.Active
	}
}

func normalizeDestination(req *models.DestinationRequest) {
	for _, text := range []*string{
		&req.Name.Fr, &req.Name.En, &req.Name.Ar,
		&req.Description.Fr, &req.Description.En, &req.Description.Ar,
		&req.ImageURL, &req.Category, &req.Country, &req.City,
	} {
		*text = strings.TrimSpace(*text)
	}
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
}
