package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ms-reservations/internal/apperror"
	"ms-reservations/internal/models"

	"github.com/uptrace/bun"
)

type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type UserDB struct {
	Bun *bun.DB
}

func (d *UserDB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user := new(models.User)
	err := d.Bun.NewSelect().Model(user).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load user", err)
	}
	return user, nil
}

func (d *UserDB) CreateUser(ctx context.Context, user *models.User) error {
	if _, err := d.Bun.NewInsert().Model(user).Exec(ctx); err != nil {
		return fmt.Errorf("insert user %s: %w", user.Email, err)
	}
	return nil
}
