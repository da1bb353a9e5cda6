package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"club-api/internal/domain"
	"club-api/pkg/errors"
	"club-api/pkg/logger"
	"github.com/google/uuid"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// UserIDContextKey is the key for the authenticated user ID in context
	UserIDContextKey ContextKey = "user_id"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"
)

// TokenValidator verifies bearer tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*domain.AuthClaims, error)
}

// WithUserID returns a copy of ctx carrying the authenticated user ID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDContextKey, userID)
}

// UserIDFromContext returns the authenticated user ID, if any
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDContextKey).(string)
	return id, ok && id != ""
}

// RequestIDFromContext returns the request ID set by RequestID
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// Auth creates an authentication middleware
func Auth(tokens TokenValidator, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLog := logger.FromContext(r.Context(), log)

			// Extract token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeErrorResponse(w, errors.NewAuthenticationError("Authorization header is required"), reqLog)
				return
			}

			// Check if header starts with "Bearer "
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeErrorResponse(w, errors.NewAuthenticationError("Invalid authorization header format"), reqLog)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if token == "" {
				writeErrorResponse(w, errors.NewAuthenticationError("Token is required"), reqLog)
				return
			}

			claims, err := tokens.ValidateToken(r.Context(), token)
			if err != nil {
				reqLog.WithError(err).Debug("Token validation failed")
				writeErrorResponse(w, errors.NewAuthenticationError("Invalid or expired token"), reqLog)
				return
			}

			ctx := WithUserID(r.Context(), claims.Sub)
			ctx = logger.NewContext(ctx, reqLog.WithField("user_id", claims.Sub))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestID creates a middleware that adds a unique request ID to each request
// and stores a logger tagged with it in the request context
func RequestID(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" || len(requestID) > 64 {
				requestID = uuid.NewString()
			}

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			ctx = logger.NewContext(ctx, log.WithField("request_id", requestID))

			w.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeErrorResponse writes an error response to the client
func writeErrorResponse(w http.ResponseWriter, appErr *errors.AppError, log *logger.Logger) {
	log.WithField("error_type", appErr.Type).Debug("Request rejected")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	if err := json.NewEncoder(w).Encode(appErr.Response()); err != nil {
		log.WithError(err).Error("Failed to write error response")
	}
}
