package reservation_api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ms-reservations/internal/apperror"
	"ms-reservations/internal/auth"
	"ms-reservations/internal/catalog"
	"ms-reservations/internal/catalog/catalog_api"
	catalogdb "ms-reservations/internal/catalog/db"
	"ms-reservations/internal/config"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
	"ms-reservations/internal/reservation"
	reservationdb "ms-reservations/internal/reservation/db"
	"ms-reservations/internal/reservation/redis"
	"ms-reservations/internal/reservation/reservation_api"
	"ms-reservations/internal/reservation/voucher"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

const secret = "handler-test-secret"

var day = 24 * time.Hour

type staticUsers map[string]*models.User

func (s staticUsers) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, apperror.NotFound("user not found")
}

type envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    json.RawMessage       `json:"data"`
	Error   string                `json:"error"`
	Details []apperror.FieldError `json:"details"`
}

type testServer struct {
	server      *httptest.Server
	destination *models.Destination
	tokens      map[string]string
}

func setup(t *testing.T) *testServer {
	ctx := context.Background()

	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })
	for _, model := range []interface{}{(*models.Destination)(nil), (*models.Reservation)(nil)} {
		_, err := bunDB.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})

	log, err := logger.New(t.TempDir(), "test", nil)
	require.NoError(t, err)
	t.Cleanup(log.Close)

	catalogService := catalog.NewCatalogService(&catalogdb.DB{Bun: bunDB}, log)
	dest, err := catalogService.CreateDestination(ctx, models.DestinationRequest{
		Name:         models.LocalizedName{Fr: "Marrakech", En: "Marrakesh", Ar: "مراكش"},
		Description:  models.LocalizedDescription{Fr: "La ville ocre du Maroc", En: "The red city of Morocco", Ar: "المدينة الحمراء في المغرب"},
		UnitPrice:    100,
		Currency:     "EUR",
		DurationDays: 5,
	})
	require.NoError(t, err)

	service := reservation.NewReservationService(
		&reservationdb.DB{Bun: bunDB},
		catalogService,
		redis.NewRedis(rdb, 10*time.Second),
		nil,
		voucher.NewGenerator("voucher-secret"),
		config.TopicConfig{},
		log,
	)

	users := staticUsers{
		"user-1":  {ID: "user-1", Role: models.RoleCustomer, Active: true},
		"user-2":  {ID: "user-2", Role: models.RoleCustomer, Active: true},
		"admin-1": {ID: "admin-1", Role: models.RoleAdmin, Active: true},
	}
	authn := auth.NewAuthenticator(secret, users, log)

	h := reservation_api.NewHandler(service, log)
	catalogHandler := catalog_api.NewHandler(catalogService, log)
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		h.RegisterRoutes(r, authn)
		r.Route("/admin", func(r chi.Router) {
			r.Use(authn.Required(), auth.RequireAdmin)
			h.RegisterAdminRoutes(r)
			catalogHandler.RegisterAdminRoutes(r)
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	tokens := map[string]string{}
	for id := range users {
		token, err := auth.SignToken([]byte(secret), id, "", time.Hour)
		require.NoError(t, err)
		tokens[id] = token
	}

	return &testServer{server: srv, destination: dest, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path, user string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[user])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp, env
}

func (s *testServer) bookingBody(startIn, endIn time.Duration, participants int) map[string]interface{} {
	now := time.Now().UTC()
	return map[string]interface{}{
		"destination_id": s.destination.ID,
		"start_date":     now.Add(startIn).Format(time.RFC3339),
		"end_date":       now.Add(endIn).Format(time.RFC3339),
		"participants":   participants,
		"contact": map[string]interface{}{
			"full_name": "Yasmine Benali",
			"email":     "yasmine@example.com",
			"phone":     "+212600000000",
		},
		"payment_method": "card",
	}
}

func (s *testServer) book(t *testing.T, user string) models.ReservationResponse {
	t.Helper()
	resp, env := s.do(t, http.MethodPost, "/api/reservations", user, s.bookingBody(40*day, 45*day, 3))
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)

	var res models.ReservationResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res
}

func TestBookAndCancelScenario(t *testing.T) {
	s := setup(t)

	res := s.book(t, "user-1")
	assert.Equal(t, models.StatusPending, res.Status)
	assert.Equal(t, 300.0, res.TotalPrice)
	assert.Equal(t, "EUR", res.Currency)
	assert.Equal(t, 5, res.DurationDays)
	require.NotNil(t, res.UserID)
	assert.Equal(t, "user-1", *res.UserID)

	resp, env := s.do(t, http.MethodPut, fmt.Sprintf("/api/reservations/%s/cancel", res.ID), "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	var cancelled models.ReservationResponse
	require.NoError(t, json.Unmarshal(env.Data, &cancelled))
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	resp, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/reservations/%s/refund", res.ID), "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var quote models.RefundQuote
	require.NoError(t, json.Unmarshal(env.Data, &quote))
	assert.Equal(t, 270.0, quote.RefundAmount)

	// a second cancellation is no longer eligible
	resp, env = s.do(t, http.MethodPut, fmt.Sprintf("/api/reservations/%s/cancel", res.ID), "user-1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, string(apperror.KindCancellationNotAllowed), env.Error)
}

func TestGuestBooking(t *testing.T) {
	s := setup(t)

	res := s.book(t, "")
	assert.Nil(t, res.UserID)

	resp, _ := s.do(t, http.MethodPut, fmt.Sprintf("/api/reservations/%s/cancel", res.ID), "user-1", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPut, fmt.Sprintf("/api/reservations/%s/cancel", res.ID), "admin-1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateReservationValidation(t *testing.T) {
	s := setup(t)

	resp, env := s.do(t, http.MethodPost, "/api/reservations", "user-1", s.bookingBody(5*day, 3*day, 3))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, string(apperror.KindValidation), env.Error)
	require.Len(t, env.Details, 1)
	assert.Equal(t, "end_date", env.Details[0].Field)

	resp, env = s.do(t, http.MethodPost, "/api/reservations", "user-1", s.bookingBody(-day, 3*day, 0))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Len(t, env.Details, 2)

	resp, _ = s.do(t, http.MethodPost, "/api/reservations", "user-1", "not an object")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// nothing was stored
	resp, env = s.do(t, http.MethodGet, "/api/reservations/user/user-1", "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page models.ReservationPage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 0, page.Total)
}

func TestGetReservationAccess(t *testing.T) {
	s := setup(t)
	res := s.book(t, "user-1")
	path := "/api/reservations/" + res.ID

	resp, _ := s.do(t, http.MethodGet, path, "user-1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, path, "admin-1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, path, "user-2", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/reservations/not-a-uuid", "user-1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListUserReservations(t *testing.T) {
	s := setup(t)
	for i := 0; i < 3; i++ {
		s.book(t, "user-1")
	}
	s.book(t, "user-2")

	resp, env := s.do(t, http.MethodGet, "/api/reservations/user/user-1?limit=2", "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page models.ReservationPage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Count)
	assert.Equal(t, 2, page.Pages)

	resp, _ = s.do(t, http.MethodGet, "/api/reservations/user/user-1", "user-2", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminStatusAndVoucher(t *testing.T) {
	s := setup(t)
	res := s.book(t, "user-1")
	statusPath := fmt.Sprintf("/api/admin/reservations/%s/status", res.ID)
	voucherPath := fmt.Sprintf("/api/reservations/%s/voucher", res.ID)

	resp, env := s.do(t, http.MethodGet, voucherPath, "user-1", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, string(apperror.KindConflict), env.Error)

	resp, _ = s.do(t, http.MethodPut, statusPath, "user-1", map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env = s.do(t, http.MethodPut, statusPath, "admin-1", map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "status", env.Details[0].Field)

	resp, env = s.do(t, http.MethodPut, statusPath, "admin-1", map[string]string{"status": "confirmed"})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)

	resp, _ = s.do(t, http.MethodGet, voucherPath, "user-1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp, _ = s.do(t, http.MethodGet, voucherPath+"?format=pdf", "user-1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	resp, env = s.do(t, http.MethodGet, "/api/admin/reservations?status=confirmed", "admin-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page models.ReservationPage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, res.ID, page.Reservations[0].ID)
}

func TestDestinationRepricingKeepsBookedPrice(t *testing.T) {
	s := setup(t)
	res := s.book(t, "user-1")
	require.Equal(t, 300.0, res.TotalPrice)

	update := map[string]interface{}{
		"name":          map[string]string{"fr": "Marrakech", "en": "Marrakesh", "ar": "مراكش"},
		"description":   map[string]string{"fr": "La ville ocre du Maroc", "en": "The red city of Morocco", "ar": "المدينة الحمراء في المغرب"},
		"price":         2500,
		"currency":      "MAD",
		"duration_days": 5,
	}
	resp, env := s.do(t, http.MethodPut, "/api/admin/destinations/"+s.destination.ID, "admin-1", update)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	var dest models.Destination
	require.NoError(t, json.Unmarshal(env.Data, &dest))
	assert.Equal(t, 2500.0, dest.UnitPrice)
	assert.Equal(t, "MAD", dest.Currency)

	resp, env = s.do(t, http.MethodGet, "/api/reservations/"+res.ID, "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stored models.ReservationResponse
	require.NoError(t, json.Unmarshal(env.Data, &stored))
	assert.Equal(t, 300.0, stored.TotalPrice)
	assert.Equal(t, "EUR", stored.Currency)

	// new bookings pick up the new price
	fresh := s.book(t, "user-2")
	assert.Equal(t, 7500.0, fresh.TotalPrice)
	assert.Equal(t, "MAD", fresh.Currency)

	resp, env = s.do(t, http.MethodGet, "/api/admin/destinations", "admin-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page models.DestinationPage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Total)

	resp, _ = s.do(t, http.MethodPut, "/api/admin/destinations/"+s.destination.ID, "user-1", update)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
