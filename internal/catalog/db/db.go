package db

import (
	"context"
	"database/sql"
	"errors"

	"ms-reservations/internal/apperror"
	"ms-reservations/internal/models"
	"ms-reservations/internal/utils"

	"github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

const foreignKeyViolation = "23503"

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetDestinationByID(ctx context.Context, id string) (*models.Destination, error) {
	dest := new(models.Destination)
	err := d.Bun.NewSelect().Model(dest).Where("d.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("destination not found")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load destination", err)
	}
	return dest, nil
}

// IncrementPopularity bumps the view counter in place so concurrent views are
// never lost.
func (d *DB) IncrementPopularity(ctx context.Context, id string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Destination)(nil)).
		Set("popularity = popularity + 1").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return apperror.Internal("failed to update destination popularity", err)
	}
	return expectRow(res, "failed to update destination popularity")
}

// ListPopular returns bookable destinations, most viewed first.
func (d *DB) ListPopular(ctx context.Context, limit int) ([]models.Destination, error) {
	var dests []models.Destination
	err := d.Bun.NewSelect().
		Model(&dests).
		Where("d.active = ?", true).
		Where("d.available = ?", true).
		OrderExpr("d.popularity DESC").
		OrderExpr("d.created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list destinations", err)
	}
	return dests, nil
}

func (d *DB) CreateDestination(ctx context.Context, dest *models.Destination) error {
	if _, err := d.Bun.NewInsert().Model(dest).Exec(ctx); err != nil {
		return apperror.Internal("failed to save destination", err)
	}
	return nil
}

// UpdateDestination rewrites the editable fields. Popularity and created_at are
// left to the database so concurrent views are kept.
func (d *DB) UpdateDestination(ctx context.Context, dest *models.Destination) error {
	res, err := d.Bun.NewUpdate().
		Model(dest).
		ExcludeColumn("id", "popularity", "created_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return apperror.Internal("failed to update destination", err)
	}
	return expectRow(res, "failed to update destination")
}

// ListDestinations is the admin listing: inactive and unavailable
// destinations included, newest first.
func (d *DB) ListDestinations(ctx context.Context, page utils.Page) ([]models.Destination, int, error) {
	var dests []models.Destination
	total, err := d.Bun.NewSelect().
		Model(&dests).
		OrderExpr("d.created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, apperror.Internal("failed to list destinations", err)
	}
	return dests, total, nil
}

func (d *DB) DeleteDestination(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Destination)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if isForeignKeyViolation(err) {
		return apperror.Conflict("destination has reservations and cannot be deleted")
	}
	if err != nil {
		return apperror.Internal("failed to delete destination", err)
	}
	return expectRow(res, "failed to delete destination")
}

// CountReservations counts reservations of any status that reference the destination.
func (d *DB) CountReservations(ctx context.Context, destinationID string) (int, error) {
	n, err := d.Bun.NewSelect().
		Model((*models.Reservation)(nil)).
		Where("r.destination_id = ?", destinationID).
		Count(ctx)
	if err != nil {
		return 0, apperror.Internal("failed to count reservations", err)
	}
	return n, nil
}

func expectRow(res sql.Result, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.Internal(msg, err)
	}
	if n == 0 {
		return apperror.NotFound("destination not found")
	}
	return nil
}

// isForeignKeyViolation recognizes the RESTRICT on reservations.destination_id
// from either Postgres driver.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == foreignKeyViolation
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == foreignKeyViolation
	}
	return false
}
