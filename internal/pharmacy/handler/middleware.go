package handler

import (
	"net/http"
	"strings"

	"github.com/pharmastock/pharmastock-backend/internal/auth/jwt"
	"github.com/pharmastock/pharmastock-backend/pkg/actor"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
	"github.com/pharmastock/pharmastock-backend/pkg/httputil"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
	"github.com/pharmastock/pharmastock-backend/pkg/permissions"
)

// Authenticator validates bearer tokens and enforces permissions
type Authenticator struct {
	jwt    *jwt.Manager
	logger *logger.Logger
}

// NewAuthenticator creates a new authenticator
func NewAuthenticator(jwtManager *jwt.Manager, log *logger.Logger) *Authenticator {
	return &Authenticator{
		jwt:    jwtManager,
		logger: log,
	}
}

// Authenticate validates the access token and puts the caller in the context
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.Error(w, errors.Unauthorized("missing authorization header"))
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			httputil.Error(w, errors.Unauthorized("invalid authorization header format"))
			return
		}

		claims, err := a.jwt.ValidateAccessToken(token)
		if err != nil {
			a.logger.Debug().Err(err).Msg("token validation failed")
			httputil.Error(w, err)
			return
		}

		ctx := httputil.WithActor(r.Context(), &actor.Actor{
			ID:          claims.UserID,
			Username:    claims.Username,
			Role:        claims.Role,
			Permissions: claims.Permissions,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission rejects callers whose token lacks perm
func (a *Authenticator) RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := actor.FromContext(r.Context())
			if caller == nil {
				httputil.Error(w, errors.Unauthorized("authentication required"))
				return
			}
			if !permissions.HasPermission(caller.Permissions, perm) {
				a.logger.Warn().
					Str("user_id", caller.ID).
					Str("permission", perm).
					Msg("permission denied")
				httputil.Error(w, errors.Forbidden("missing permission "+perm))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
