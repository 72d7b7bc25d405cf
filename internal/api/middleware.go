package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebridge/healthcare-portal/internal/docstore"
	"github.com/carebridge/healthcare-portal/internal/identity"
	redisclient "github.com/carebridge/healthcare-portal/internal/redis"
	"github.com/carebridge/healthcare-portal/internal/session"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	sessionKey   contextKey = "session"
)

// RequestIDMiddleware adds a unique request ID to each request context
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggingMiddleware emits one structured log line per request.
func LoggingMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			logger.Info().
				Str("request_id", GetRequestID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapped.statusCode).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Authenticator resolves a bearer token into a session context for each
// request. Roles are cached so token verification does not cost a store
// round-trip every time; logout invalidates the cached role.
type Authenticator struct {
	provider  identity.Provider
	store     docstore.Store
	roleCache redisclient.RoleCache
	log       zerolog.Logger
}

func NewAuthenticator(provider identity.Provider, store docstore.Store, roleCache redisclient.RoleCache, log zerolog.Logger) *Authenticator {
	return &Authenticator{
		provider:  provider,
		store:     store,
		roleCache: roleCache,
		log:       log.With().Str("component", "auth").Logger(),
	}
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
			return
		}

		uid, err := a.provider.VerifyToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid or expired token")
			return
		}

		role, err := a.resolveRole(r.Context(), uid)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "could not resolve role")
			return
		}
		if role == "" {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "account has no portal record")
			return
		}

		sess := session.Context{UserID: uid, Role: role}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

func (a *Authenticator) resolveRole(ctx context.Context, uid string) (session.Role, error) {
	if cached, ok, err := a.roleCache.Get(ctx, uid); err == nil && ok {
		return session.Role(cached), nil
	} else if err != nil {
		a.log.Warn().Err(err).Msg("role cache read failed")
	}

	role, err := session.ResolveRole(ctx, a.store, uid)
	if err != nil {
		return "", err
	}

	if role != "" {
		if err := a.roleCache.Set(ctx, uid, string(role)); err != nil {
			a.log.Warn().Err(err).Msg("role cache write failed")
		}
	}
	return role, nil
}

// SessionFrom returns the session context the auth middleware attached.
func SessionFrom(r *http.Request) (session.Context, bool) {
	sess, ok := r.Context().Value(sessionKey).(session.Context)
	return sess, ok
}
