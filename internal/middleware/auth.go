package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/notekeep/notekeep/internal/auth"
	"github.com/notekeep/notekeep/internal/metrics"
	"github.com/notekeep/notekeep/internal/model"
	"github.com/notekeep/notekeep/internal/repository"
)

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger     *slog.Logger
	Tokens     *auth.TokenManager
	Repository *repository.Repository
	Metrics    metrics.Recorder
}

// Auth returns a middleware that authenticates API requests.
// It extracts the bearer token from the Authorization header, verifies
// it, confirms the account still exists, and injects the auth context
// into the request. Expired tokens are reported distinctly so clients
// know to refresh.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncTokenRejected("missing")
				writeAuthError(w, false)
				return
			}

			userID, err := cfg.Tokens.Verify(token)
			if err != nil {
				expired := errors.Is(err, auth.ErrTokenExpired)
				reason := "invalid_token"
				if expired {
					reason = "expired_token"
					recorder.IncTokenRejected("expired")
				} else {
					recorder.IncTokenRejected("invalid")
				}
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w, expired)
				return
			}

			// The token outlives nothing: a deleted account makes every
			// token issued for it invalid.
			user, err := cfg.Repository.GetUserByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					cfg.Logger.Warn("authentication failed",
						slog.String("reason", "unknown_user"),
						slog.String("ip", r.RemoteAddr),
						slog.String("endpoint", r.Method+" "+r.URL.Path),
						slog.String("request_id", GetRequestID(r.Context())),
					)
					recorder.IncTokenRejected("invalid")
					writeAuthError(w, false)
					return
				}
				cfg.Logger.Error("database error during auth",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w, false)
				return
			}

			authCtx := &model.AuthContext{
				UserID: user.ID,
				Email:  user.Email,
			}

			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken extracts the bearer token from the Authorization
// header. Returns an empty string when the header is absent or not a
// bearer scheme.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// writeAuthError writes a 401 Unauthorized response. Expiry gets its
// own code so clients can trigger a refresh; everything else shares a
// single message to prevent probing.
func writeAuthError(w http.ResponseWriter, expired bool) {
	if expired {
		writeJSONError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Access token has expired")
		return
	}
	writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing access token")
}
