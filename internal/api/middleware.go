package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/trogers1052/trade-journal/internal/auth"
	"github.com/trogers1052/trade-journal/internal/id"
	"github.com/trogers1052/trade-journal/internal/models"
	"go.uber.org/zap"
)

type contextKey string

const (
	userKey      contextKey = "user"
	requestIDKey contextKey = "request_id"
)

// RequestIDHeader carries the per-request id back to the client
const RequestIDHeader = "X-Request-ID"

// Authenticator resolves an Authorization header to a user
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*models.User, error)
}

// UserFromContext returns the user attached by Auth
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

// RequestIDFromContext returns the id attached by Logging
func RequestIDFromContext(ctx context.Context) string {
	rid, _ := ctx.Value(requestIDKey).(string)
	return rid
}

// Auth rejects requests without a valid bearer token with a 401 JSON body
func Auth(authenticator Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authenticator.Authenticate(r.Context(), r.Header.Get("Authorization"))
			switch {
			case err == nil:
			case errors.Is(err, auth.ErrMissingAuth):
				respondError(w, http.StatusUnauthorized, "Missing/invalid Authorization header")
				return
			case errors.Is(err, auth.ErrInvalidToken):
				logger.Debug("Rejected token", zap.String("path", r.URL.Path), zap.Error(err))
				respondError(w, http.StatusUnauthorized, "Invalid token")
				return
			case errors.Is(err, auth.ErrUserNotFound):
				respondError(w, http.StatusUnauthorized, "User not found")
				return
			default:
				logger.Error("Authentication failed",
					zap.String("request_id", RequestIDFromContext(r.Context())),
					zap.Error(err))
				respondError(w, http.StatusInternalServerError, internalErrorMessage)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}

	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
	rw.wroteHeader = true
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Logging tags each request with a ULID and logs method, path, status and duration
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rid := id.New()
			w.Header().Set(RequestIDHeader, rid)
			ctx := context.WithValue(r.Context(), requestIDKey, rid)

			wrapped := wrapResponseWriter(w)
			next.ServeHTTP(wrapped, r.WithContext(ctx))

			status := wrapped.status
			if status == 0 {
				status = http.StatusOK
			}

			logger.Info("HTTP request",
				zap.String("request_id", rid),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Recover turns a handler panic into a 500. If the handler already started
// the response, the partial body is left as is and nothing is appended.
func Recover(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := wrapResponseWriter(w)
			defer func() {
				if p := recover(); p != nil {
					logger.Error("Handler panicked",
						zap.String("request_id", RequestIDFromContext(r.Context())),
						zap.Bool("response_started", wrapped.wroteHeader),
						zap.Any("panic", p),
						zap.Stack("stack"))
					if !wrapped.wroteHeader {
						respondError(wrapped, http.StatusInternalServerError, internalErrorMessage)
					}
				}
			}()
			next.ServeHTTP(wrapped, r)
		})
	}
}
