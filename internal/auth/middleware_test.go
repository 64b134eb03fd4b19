package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ms-reservations/internal/apperror"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newTestAuthenticator(t *testing.T, users UserStore) *Authenticator {
	log, err := logger.New(t.TempDir(), "test", nil)
	require.NoError(t, err)
	t.Cleanup(log.Close)
	return NewAuthenticator(string(testSecret), users, log)
}

func signed(t *testing.T, userID string) string {
	token, err := SignToken(testSecret, userID, "", time.Hour)
	require.NoError(t, err)
	return token
}

// echoIdentity reports what the middleware attached to the context.
func echoIdentity(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	json.NewEncoder(w).Encode(map[string]interface{}{
		"authenticated": ok,
		"user_id":       identity.UserID,
		"role":          identity.Role,
	})
}

func serve(h http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequiredMiddleware(t *testing.T) {
	users := new(MockUserStore)
	users.On("GetUserByID", "u1").Return(&models.User{ID: "u1", Role: models.RoleCustomer, Active: true}, nil)
	users.On("GetUserByID", "u2").Return(&models.User{ID: "u2", Role: models.RoleCustomer, Active: false}, nil)
	users.On("GetUserByID", "ghost").Return(nil, apperror.NotFound("user not found"))

	a := newTestAuthenticator(t, users)
	h := a.Required()(http.HandlerFunc(echoIdentity))

	t.Run("valid token", func(t *testing.T) {
		rec := serve(h, "Bearer "+signed(t, "u1"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"user_id":"u1"`)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := serve(h, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		rec := serve(h, "Token abc")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad signature", func(t *testing.T) {
		token, err := SignToken([]byte("other"), "u1", "", time.Hour)
		require.NoError(t, err)
		rec := serve(h, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("inactive user", func(t *testing.T) {
		rec := serve(h, "Bearer "+signed(t, "u2"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "account disabled")
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := serve(h, "Bearer "+signed(t, "ghost"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRoleComesFromUserRecord(t *testing.T) {
	users := new(MockUserStore)
	users.On("GetUserByID", "u1").Return(&models.User{ID: "u1", Role: models.RoleCustomer, Active: true}, nil)

	a := newTestAuthenticator(t, users)
	h := a.Required()(RequireAdmin(http.HandlerFunc(echoIdentity)))

	token, err := SignToken(testSecret, "u1", "admin", time.Hour)
	require.NoError(t, err)

	rec := serve(h, "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	users := new(MockUserStore)
	users.On("GetUserByID", "admin-1").Return(&models.User{ID: "admin-1", Role: models.RoleAdmin, Active: true}, nil)

	a := newTestAuthenticator(t, users)
	h := a.Required()(RequireAdmin(http.HandlerFunc(echoIdentity)))

	rec := serve(h, "Bearer "+signed(t, "admin-1"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"admin"`)

	rec = serve(RequireAdmin(http.HandlerFunc(echoIdentity)), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalMiddleware(t *testing.T) {
	users := new(MockUserStore)
	users.On("GetUserByID", "u1").Return(&models.User{ID: "u1", Role: models.RoleCustomer, Active: true}, nil)

	a := newTestAuthenticator(t, users)
	h := a.Optional()(http.HandlerFunc(echoIdentity))

	rec := serve(h, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":false`)

	rec = serve(h, "Bearer not-a-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":false`)

	rec = serve(h, "Bearer "+signed(t, "u1"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":true`)
}

func TestParseTokenRejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{ID: "u1"})
	raw, err := token.SignedString(testSecret)
	require.NoError(t, err)

	_, err = ParseToken(testSecret, raw)
	assert.Error(t, err)
}

func TestParseTokenSubjectFallback(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u9"},
	})
	raw, err := token.SignedString(testSecret)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, raw)
	require.NoError(t, err)
	assert.Equal(t, "u9", claims.UserID())
}
