package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ledgerbank/backend/internal/auth"
	"github.com/ledgerbank/backend/internal/logger"
)

// TokenValidator resolves a bearer token into a session.
type TokenValidator interface {
	ValidateBearer(ctx context.Context, token string) (auth.Session, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// resulting session and principal in the request context.
func Authenticate(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Get token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			session, err := v.ValidateBearer(r.Context(), token)
			if err != nil {
				log := logger.FromContext(r.Context())
				if errors.Is(err, auth.ErrSessionStore) {
					log.Error().Err(err).Msg("session store unavailable")
					writeError(w, http.StatusServiceUnavailable, "Authentication temporarily unavailable")
					return
				}
				log.Debug().Err(err).Msg("token rejected")
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := auth.WithSession(r.Context(), session)
			ctx = logger.WithContext(ctx, logger.FromContext(ctx).With().
				Int64("user_id", session.Principal.Ident().UserID).
				Str("role", string(session.Principal.Role())).
				Logger())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireStaff only admits employees and admins.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !auth.IsStaff(p) {
			writeError(w, http.StatusForbidden, "Insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
