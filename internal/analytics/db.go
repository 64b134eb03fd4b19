package analytics

import (
	"context"

	"ms-reservations/internal/apperror"
	"ms-reservations/internal/models"

	"github.com/uptrace/bun"
)

// DB handles analytics database operations
type DB struct {
	bun *bun.DB
}

// NewDB creates a new analytics DB handler
func NewDB(db *bun.DB) *DB {
	return &DB{bun: db}
}

// StatusTotalData is one row of reservations grouped by status
type StatusTotalData struct {
	Status     models.ReservationStatus `bun:"status"`
	Count      int                      `bun:"count"`
	TotalPrice float64                  `bun:"total_price"`
}

// GetReservationTotalsByStatus counts reservations and sums their prices per status
func (db *DB) GetReservationTotalsByStatus(ctx context.Context) ([]StatusTotalData, error) {
	var rows []StatusTotalData
	err := db.bun.NewSelect().
		ColumnExpr("r.status AS status").
		ColumnExpr("COUNT(*) AS count").
		ColumnExpr("COALESCE(SUM(r.total_price), 0) AS total_price").
		TableExpr("reservations AS r").
		GroupExpr("r.status").
		OrderExpr("r.status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, apperror.Internal("failed to aggregate reservations", err)
	}
	return rows, nil
}

// GetDestinationCounts returns total, available and active destination counts
func (db *DB) GetDestinationCounts(ctx context.Context) (DestinationCounts, error) {
	var counts DestinationCounts
	err := db.bun.NewSelect().
		ColumnExpr("COUNT(*) AS total").
		ColumnExpr("COALESCE(SUM(CASE WHEN d.available THEN 1 ELSE 0 END), 0) AS available").
		ColumnExpr("COALESCE(SUM(CASE WHEN d.active THEN 1 ELSE 0 END), 0) AS active").
		TableExpr("destinations AS d").
		Scan(ctx, &counts)
	if err != nil {
		return counts, apperror.Internal("failed to count destinations", err)
	}
	return counts, nil
}

// GetUserCounts returns total and active user counts
func (db *DB) GetUserCounts(ctx context.Context) (UserCounts, error) {
	var counts UserCounts
	err := db.bun.NewSelect().
		ColumnExpr("COUNT(*) AS total").
		ColumnExpr("COALESCE(SUM(CASE WHEN u.active THEN 1 ELSE 0 END), 0) AS active").
		TableExpr("users AS u").
		Scan(ctx, &counts)
	if err != nil {
		return counts, apperror.Internal("failed to count users", err)
	}
	return counts, nil
}

// GetTopDestinations returns the most viewed active destinations
func (db *DB) GetTopDestinations(ctx context.Context, limit int) ([]models.Destination, error) {
	dests := make([]models.Destination, 0, limit)
	err := db.bun.NewSelect().
		Model(&dests).
		Where("d.active = ?", true).
		OrderExpr("d.popularity DESC").
		OrderExpr("d.created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list top destinations", err)
	}
	return dests, nil
}

// GetRecentReservations returns the latest bookings, newest first
func (db *DB) GetRecentReservations(ctx context.Context, limit int) ([]models.Reservation, error) {
	reservations := make([]models.Reservation, 0, limit)
	err := db.bun.NewSelect().
		Model(&reservations).
		OrderExpr("r.created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list recent reservations", err)
	}
	return reservations, nil
}
