package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ms-reservations/internal/apperror"
	"ms-reservations/internal/models"
	"ms-reservations/internal/utils"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateReservation(ctx context.Context, r *models.Reservation) error {
	if _, err := d.Bun.NewInsert().Model(r).Exec(ctx); err != nil {
		return apperror.Internal("failed to save reservation", err)
	}
	return nil
}

func (d *DB) GetReservationByID(ctx context.Context, id string) (*models.Reservation, error) {
	r := new(models.Reservation)
	err := d.Bun.NewSelect().Model(r).Where("r.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("reservation not found")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load reservation", err)
	}
	return r, nil
}

// UpdateStatus overwrites the status unconditionally. Concurrent writers race
// with last-write-wins.
func (d *DB) UpdateStatus(ctx context.Context, id string, status models.ReservationStatus, at time.Time) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Reservation)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return apperror.Internal("failed to update reservation status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.Internal("failed to update reservation status", err)
	}
	if n == 0 {
		return apperror.NotFound("reservation not found")
	}
	return nil
}

// UpdateStatusIf moves the reservation to status only while it is still in
// expected. It reports false when another writer got there first.
func (d *DB) UpdateStatusIf(ctx context.Context, id string, expected, status models.ReservationStatus, at time.Time) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Reservation)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Where("status = ?", expected).
		Exec(ctx)
	if err != nil {
		return false, apperror.Internal("failed to update reservation status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperror.Internal("failed to update reservation status", err)
	}
	return n == 1, nil
}

// ListByUser returns one page of a user's reservations, newest first, and the
// total number of reservations the user has.
func (d *DB) ListByUser(ctx context.Context, userID string, page utils.Page) ([]models.Reservation, int, error) {
	var reservations []models.Reservation
	total, err := d.Bun.NewSelect().
		Model(&reservations).
		Where("r.user_id = ?", userID).
		OrderExpr("r.created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, apperror.Internal("failed to list reservations", err)
	}
	return reservations, total, nil
}

// List returns one page of all reservations, optionally restricted to status.
func (d *DB) List(ctx context.Context, status models.ReservationStatus, page utils.Page) ([]models.Reservation, int, error) {
	var reservations []models.Reservation
	q := d.Bun.NewSelect().Model(&reservations)
	if status != "" {
		q = q.Where("r.status = ?", status)
	}
	total, err := q.
		OrderExpr("r.created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, apperror.Internal("failed to list reservations", err)
	}
	return reservations, total, nil
}
