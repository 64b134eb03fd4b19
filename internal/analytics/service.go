package analytics

import (
	"context"
	"math"

	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
)

const (
	dashboardTopDestinations = 5
	dashboardRecent          = 5
)

// Service handles analytics operations
type Service struct {
	db     *DB
	Logger *logger.Logger
}

// NewService creates a new analytics service
func NewService(db *DB, log *logger.Logger) *Service {
	return &Service{db: db, Logger: log}
}

// DestinationCounts summarises the catalog
type DestinationCounts struct {
	Total     int `bun:"total" json:"total"`
	Available int `bun:"available" json:"available"`
	Active    int `bun:"active" json:"active"`
}

// UserCounts summarises registered accounts
type UserCounts struct {
	Total  int `bun:"total" json:"total"`
	Active int `bun:"active" json:"active"`
}

// ReservationCounts holds a count for every status, zero included
type ReservationCounts struct {
	Total    int                              `json:"total"`
	ByStatus map[models.ReservationStatus]int `json:"by_status"`
}

// Revenue sums booked prices. Confirmed only counts reservations currently
// in the confirmed status.
type Revenue struct {
	Total     float64 `json:"total"`
	Confirmed float64 `json:"confirmed"`
}

// Dashboard is the admin landing page payload
type Dashboard struct {
	Destinations        DestinationCounts    `json:"destinations"`
	Reservations        ReservationCounts    `json:"reservations"`
	Users               UserCounts           `json:"users"`
	Revenue             Revenue              `json:"revenue"`
	PopularDestinations []models.Destination `json:"popular_destinations"`
	RecentReservations  []models.Reservation `json:"recent_reservations"`
}

// StatusStats contains metrics for a single reservation status
type StatusStats struct {
	Status     models.ReservationStatus `json:"status"`
	Count      int                      `json:"count"`
	TotalPrice float64                  `json:"total_price"`
}

// ReservationStats represents reservation totals broken down by status
type ReservationStats struct {
	ByStatus   []StatusStats `json:"by_status"`
	TotalCount int           `json:"total_count"`
	TotalPrice float64       `json:"total_price"`
}

// GetReservationStats returns one entry per known status, in lifecycle order
func (s *Service) GetReservationStats(ctx context.Context) (*ReservationStats, error) {
	rows, err := s.db.GetReservationTotalsByStatus(ctx)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[models.ReservationStatus]StatusTotalData, len(rows))
	for _, row := range rows {
		byStatus[row.Status] = row
	}

	stats := &ReservationStats{ByStatus: make([]StatusStats, 0, len(models.ReservationStatuses))}
	for _, status := range models.ReservationStatuses {
		row := byStatus[status]
		stats.ByStatus = append(stats.ByStatus, StatusStats{
			Status:     status,
			Count:      row.Count,
			TotalPrice: roundMoney(row.TotalPrice),
		})
		stats.TotalCount += row.Count
		stats.TotalPrice += row.TotalPrice
	}
	stats.TotalPrice = roundMoney(stats.TotalPrice)
	return stats, nil
}

// GetDashboard aggregates the admin overview
func (s *Service) GetDashboard(ctx context.Context) (*Dashboard, error) {
	stats, err := s.GetReservationStats(ctx)
	if err != nil {
		return nil, err
	}

	destinations, err := s.db.GetDestinationCounts(ctx)
	if err != nil {
		return nil, err
	}

	users, err := s.db.GetUserCounts(ctx)
	if err != nil {
		return nil, err
	}

	popular, err := s.db.GetTopDestinations(ctx, dashboardTopDestinations)
	if err != nil {
		return nil, err
	}

	recent, err := s.db.GetRecentReservations(ctx, dashboardRecent)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		Destinations: destinations,
		Reservations: ReservationCounts{
			Total:    stats.TotalCount,
			ByStatus: make(map[models.ReservationStatus]int, len(stats.ByStatus)),
		},
		Users:               users,
		Revenue:             Revenue{Total: stats.TotalPrice},
		PopularDestinations: popular,
		RecentReservations:  recent,
	}
	for _, st := range stats.ByStatus {
		dashboard.Reservations.ByStatus[st.Status] = st.Count
		if st.Status == models.StatusConfirmed {
			dashboard.Revenue.Confirmed = st.TotalPrice
		}
	}
	return dashboard, nil
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
