package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

// GuestSessionHeader carries the anonymous cart session between browser and API.
const GuestSessionHeader = "X-Cart-Session"

// GuestSession reads the cart session header, issuing a fresh id when it is
// missing or malformed, and echoes it on the response so the client can keep it.
func GuestSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := strings.TrimSpace(r.Header.Get(GuestSessionHeader))
			if _, err := uuid.Parse(sessionID); err != nil {
				sessionID = uuid.NewString()
			}
			w.Header().Set(GuestSessionHeader, sessionID)

			ctx := WithGuestSession(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithGuestSession(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
