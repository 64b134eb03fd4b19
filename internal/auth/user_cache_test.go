package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"ms-reservations/internal/apperror"
	"ms-reservations/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

func setupUserDB(t *testing.T) *UserDB {
	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	_, err = bunDB.NewCreateTable().Model((*models.User)(nil)).Exec(context.Background())
	require.NoError(t, err)
	return &UserDB{Bun: bunDB}
}

func TestUserDB(t *testing.T) {
	ctx := context.Background()
	users := setupUserDB(t)
	id := uuid.NewString()

	require.NoError(t, users.CreateUser(ctx, &models.User{
		ID: id, Name: "Amina", Email: "amina@example.com", Role: models.RoleCustomer, Active: true, CreatedAt: time.Now(),
	}))

	user, err := users.GetUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "amina@example.com", user.Email)
	assert.True(t, user.Active)

	_, err = users.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRedisUserCache(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := new(MockUserStore)
	store.On("GetUserByID", "u1").Return(&models.User{ID: "u1", Role: models.RoleAdmin, Active: true}, nil).Once()

	cache := NewRedisUserCache(client, store, time.Minute)

	first, err := cache.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	second, err := cache.GetUserByID(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, first.Role, second.Role)
	assert.True(t, mr.Exists("auth_user:u1"))
	store.AssertNumberOfCalls(t, "GetUserByID", 1)

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("auth_user:u1"))
}

func TestRedisUserCacheDoesNotCacheMisses(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := new(MockUserStore)
	store.On("GetUserByID", "ghost").Return(nil, apperror.NotFound("user not found"))

	cache := NewRedisUserCache(client, store, time.Minute)
	_, err = cache.GetUserByID(ctx, "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.False(t, mr.Exists("auth_user:ghost"))
}
