package auth

import (
	"context"
	"fmt"
	"net/http"

	"ms-reservations/internal/apperror"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"
	"ms-reservations/internal/utils"
)

type contextKey string

const identityKey contextKey = "identity"

type Authenticator struct {
	Secret []byte
	Users  UserStore
	Logger *logger.Logger
}

func NewAuthenticator(secret string, users UserStore, log *logger.Logger) *Authenticator {
	return &Authenticator{Secret: []byte(secret), Users: users, Logger: log}
}

// authenticate resolves the bearer token to an active user. The role always
// comes from the user record, never from the token.
func (a *Authenticator) authenticate(r *http.Request) (models.Identity, error) {
	raw, err := ExtractTokenFromRequest(r)
	if err != nil {
		return models.Identity{}, apperror.Unauthorized("access denied, token required")
	}

	claims, err := ParseToken(a.Secret, raw)
	if err != nil {
		a.Logger.LogSecurity("INVALID_TOKEN", err.Error())
		return models.Identity{}, apperror.Unauthorized("invalid token")
	}

	user, err := a.Users.GetUserByID(r.Context(), claims.UserID())
	if err != nil {
		if apperror.KindOf(err) == apperror.KindNotFound {
			a.Logger.LogSecurity("UNKNOWN_USER", claims.UserID())
			return models.Identity{}, apperror.Unauthorized("invalid token, user not found")
		}
		return models.Identity{}, err
	}
	if !user.Active {
		a.Logger.LogSecurity("INACTIVE_USER", user.ID)
		return models.Identity{}, apperror.Unauthorized("account disabled")
	}

	return models.Identity{UserID: user.ID, Role: user.Role}, nil
}

// Required rejects requests without a valid token.
func (a *Authenticator) Required() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := a.authenticate(r)
			if err != nil {
				utils.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// Optional attaches the identity when a valid token is present and lets the
// request through as a guest otherwise.
func (a *Authenticator) Optional() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			identity, err := a.authenticate(r)
			if err != nil {
				a.Logger.Debug("AUTH", fmt.Sprintf("Continuing as guest: %v", err))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireAdmin must run after Required.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFrom(r.Context())
		if !ok {
			utils.WriteError(w, apperror.Unauthorized("access denied, token required"))
			return
		}
		if !identity.IsAdmin() {
			utils.WriteError(w, apperror.Forbidden("administrator rights required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFrom returns the caller attached by the middleware, if any.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(models.Identity)
	return identity, ok
}
