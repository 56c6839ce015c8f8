package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/time/rate"
)

// ContextKey type for context keys to avoid collisions
type ContextKey string

const (
	// ClientIDKey is the context key for the authenticated client ID
	ClientIDKey ContextKey = "client_id"
	// IsAdminKey is the context key for admin status
	IsAdminKey ContextKey = "is_admin"
	// ClaimsKey is the context key for JWT claims
	ClaimsKey ContextKey = "jwt_claims"
)

const (
	// devClientID is the client id assumed when authentication is disabled
	devClientID = "dev-client"

	// limiterIdleTTL is how long a client's limiter is kept after its last request
	limiterIdleTTL = 10 * time.Minute
)

// Middleware provides HTTP middleware functions
type Middleware struct {
	jwtAuth   *JWTAuth
	noAuth    bool // development mode: bypass authentication
	logger    *slog.Logger
	limit     rate.Limit
	burst     int
	limiters  *xsync.MapOf[string, *clientLimiter] // client id or remote host -> limiter
	idleTTL   time.Duration
	lastSweep atomic.Int64 // unix nanos
	now       func() time.Time
}

// clientLimiter is a limiter with the time it was last used
type clientLimiter struct {
	*rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// NewMiddleware creates a new middleware instance.
// A non-positive limit disables rate limiting. logger may be nil.
func NewMiddleware(jwtAuth *JWTAuth, noAuth bool, limit float64, burst int, logger *slog.Logger) *Middleware {
	m := &Middleware{
		jwtAuth:  jwtAuth,
		noAuth:   noAuth,
		logger:   logger,
		limit:    rate.Limit(limit),
		burst:    burst,
		limiters: xsync.NewMapOf[string, *clientLimiter](),
		idleTTL:  limiterIdleTTL,
		now:      time.Now,
	}
	// an evicted limiter must be indistinguishable from a refilled one
	if limit > 0 {
		if refill := time.Duration(float64(burst) / limit * float64(time.Second)); refill > m.idleTTL {
			m.idleTTL = refill
		}
	}
	m.lastSweep.Store(m.now().UnixNano())
	return m
}

// AuthRequired middleware requires valid JWT authentication
func (m *Middleware) AuthRequired(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.noAuth {
			next(w, r.WithContext(withClaims(r.Context(), &JWTClaims{ClientID: devClientID})))
			return
		}

		token := extractToken(r)
		if token == "" {
			writeError(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtAuth.ValidateToken(token)
		if err != nil {
			writeError(w, err.Error(), http.StatusUnauthorized)
			return
		}

		next(w, r.WithContext(withClaims(r.Context(), claims)))
	}
}

// AdminRequired middleware requires admin privileges.
// Admin endpoints are never bypassed, even in no-auth mode.
func (m *Middleware) AdminRequired(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeError(w, "Authorization header required for admin access", http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtAuth.ValidateToken(token)
		if err != nil {
			writeError(w, err.Error(), http.StatusUnauthorized)
			return
		}
		if !claims.IsAdmin {
			writeError(w, "Admin privileges required", http.StatusForbidden)
			return
		}

		next(w, r.WithContext(withClaims(r.Context(), claims)))
	}
}

// RateLimit throttles requests per authenticated client, or per remote host before authentication
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limit <= 0 {
			next(w, r)
			return
		}

		now := m.now()
		m.evictIdleLimiters(now)

		key := GetClientID(r)
		if key == "" {
			key = remoteHost(r)
		}
		limiter, _ := m.limiters.LoadOrCompute(key, func() *clientLimiter {
			return &clientLimiter{Limiter: rate.NewLimiter(m.limit, m.burst)}
		})
		limiter.lastSeen.Store(now.UnixNano())
		if !limiter.AllowN(now, 1) {
			w.Header().Set("Retry-After", "1")
			writeError(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next(w, r)
	}
}

// evictIdleLimiters drops limiters unused for idleTTL. At most one sweep runs per idleTTL.
func (m *Middleware) evictIdleLimiters(now time.Time) {
	last := m.lastSweep.Load()
	if now.UnixNano()-last < int64(m.idleTTL) || !m.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}

	cutoff := now.Add(-m.idleTTL).UnixNano()
	m.limiters.Range(func(key string, limiter *clientLimiter) bool {
		if limiter.lastSeen.Load() < cutoff {
			m.limiters.Delete(key)
		}
		return true
	})
}

// ContentType middleware sets the content type to JSON
func (m *Middleware) ContentType(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next(w, r)
	}
}

// Logging middleware logs every request with its status and duration
func (m *Middleware) Logging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.logger == nil {
			next(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		m.logger.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote", r.RemoteAddr))
	}
}

// Recovery middleware recovers from panics and returns 500 error
func (m *Middleware) Recovery(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if m.logger != nil {
					m.logger.Error("panic in handler",
						slog.Any("panic", err),
						slog.String("path", r.URL.Path))
				}
				writeError(w, "Internal server error", http.StatusInternalServerError)
			}
		}()

		next(w, r)
	}
}

// statusRecorder captures the response status for logging.
// It keeps Hijack working so websocket upgrades pass through.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// Helper functions

func withClaims(ctx context.Context, claims *JWTClaims) context.Context {
	ctx = context.WithValue(ctx, ClientIDKey, claims.ClientID)
	ctx = context.WithValue(ctx, IsAdminKey, claims.IsAdmin)
	return context.WithValue(ctx, ClaimsKey, claims)
}

// extractToken reads the JWT from the Authorization header, or from the
// token query parameter for browser websocket clients that cannot set headers.
func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeError writes an error response as JSON
func writeError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}, statusCode)
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// GetClientID extracts the client ID from the request context
func GetClientID(r *http.Request) string {
	if clientID, ok := r.Context().Value(ClientIDKey).(string); ok {
		return clientID
	}
	return ""
}

// IsAdmin checks if the current request is from an admin user
func IsAdmin(r *http.Request) bool {
	if isAdmin, ok := r.Context().Value(IsAdminKey).(bool); ok {
		return isAdmin
	}
	return false
}

// GetClaims extracts the JWT claims from the request context
func GetClaims(r *http.Request) *JWTClaims {
	if claims, ok := r.Context().Value(ClaimsKey).(*JWTClaims); ok {
		return claims
	}
	return nil
}
