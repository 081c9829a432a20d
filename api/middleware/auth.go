package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sweetdelights/bakery-backend/api/responses"
	"github.com/sweetdelights/bakery-backend/api/validators"
	pkgAuth "github.com/sweetdelights/bakery-backend/pkg/auth"
	"github.com/sweetdelights/bakery-backend/pkg/config"
	pkgerrors "github.com/sweetdelights/bakery-backend/pkg/errors"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// Auth validates a bearer token and seeds the request context with the claims.
// Requests without credentials are rejected.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(cfg, logg, true)
}

// OptionalAuth seeds the context when a bearer token is present and lets
// anonymous requests through. A token that is present but invalid is still rejected.
func OptionalAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(cfg, logg, false)
}

func authenticate(cfg config.JWTConfig, logg *logger.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				if required {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			token, err := validators.BearerToken(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token subject"))
				return
			}

			role := RoleCustomer
			if claims.HasRole(cfg.AdminRole) {
				role = RoleAdmin
			}

			ctx := context.WithValue(r.Context(), ctxUserID, userID.String())
			ctx = context.WithValue(ctx, ctxRole, role)

			if logg != nil {
				ctx = logg.WithUserID(ctx, userID.String())
				ctx = logg.WithField(ctx, "actor_role", role)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
