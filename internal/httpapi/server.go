// Package httpapi exposes the runtime over a JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"

	messagerouterpkg "github.com/zicheng-pan/joynr/pkg/messagerouter"
)

var (
	// ErrNilRouter is returned when the server is built without a message router
	ErrNilRouter = errors.New("message router cannot be nil")
	// ErrNilRegistry is returned when the server is built without a subscription registry
	ErrNilRegistry = errors.New("subscription registry cannot be nil")
)

// WindowHub serves browser websocket connections and lists the connected windows
type WindowHub interface {
	http.Handler
	WindowDirectory
}

// Config holds server configuration
type Config struct {
	// Addr is the listen address, e.g. ":8080"
	Addr string

	// SecretKey signs the JWT tokens
	SecretKey string

	// RuntimeID is reported by the health endpoint and used as token issuer
	RuntimeID string

	// NoAuth disables authentication for non-admin endpoints
	NoAuth bool

	// CORSOrigins lists allowed origins; empty allows all
	CORSOrigins []string

	// RateLimit is the sustained number of requests per second per client; zero disables limiting
	RateLimit float64

	// RateBurst is the number of requests a client may burst above RateLimit
	RateBurst int

	Logger *slog.Logger
}

// Server represents the HTTP API server
type Server struct {
	jwtAuth    *JWTAuth
	handlers   *Handlers
	middleware *Middleware
	hub        WindowHub
	server     *http.Server
	logger     *slog.Logger
}

// NewServer creates a new HTTP API server. hub may be nil, in which case /ws is not served.
func NewServer(config Config, router messagerouterpkg.MessageRouter, registry SubscriptionRegistry, hub WindowHub) (*Server, error) {
	if router == nil {
		return nil, ErrNilRouter
	}
	if registry == nil {
		return nil, ErrNilRegistry
	}

	secretKey := config.SecretKey
	if secretKey == "" {
		secretKey = "joynr-dev-secret-change-in-production"
	}

	jwtAuth := NewJWTAuth(secretKey, config.RuntimeID)
	var windows WindowDirectory
	if hub != nil {
		windows = hub
	}

	s := &Server{
		jwtAuth:    jwtAuth,
		handlers:   NewHandlers(router, registry, windows, jwtAuth, config.RuntimeID, config.Logger),
		middleware: NewMiddleware(jwtAuth, config.NoAuth, config.RateLimit, config.RateBurst, config.Logger),
		hub:        hub,
		logger:     config.Logger,
	}

	s.server = &http.Server{
		Addr:              config.Addr,
		Handler:           s.corsHandler(config.CORSOrigins).Handler(s.setupRoutes()),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return s, nil
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// JWTAuth returns the token issuer used by the server
func (s *Server) JWTAuth() *JWTAuth {
	return s.jwtAuth
}

// Start starts the HTTP server. It returns nil after Stop.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

// Serve accepts connections on lis. It returns nil after Stop.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.server.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) corsHandler(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	})
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()
	m := s.middleware

	// Apply global middleware
	withMiddleware := func(handler http.HandlerFunc) http.Handler {
		return m.Recovery(m.Logging(m.ContentType(handler)))
	}
	authed := func(handler http.HandlerFunc) http.Handler {
		return withMiddleware(m.AuthRequired(m.RateLimit(handler)))
	}

	// Authentication endpoints (no auth required)
	mux.Handle("/api/v1/auth/login", withMiddleware(m.RateLimit(s.onlyPost(s.handlers.Login))))

	// Message endpoints
	mux.Handle("/api/v1/messages", authed(s.onlyPost(s.handlers.SendMessage)))

	// Routing table endpoints
	mux.Handle("/api/v1/routes", authed(s.handleRoutes))
	mux.Handle("/api/v1/routes/{participantId}", withMiddleware(m.AdminRequired(s.onlyDelete(s.handlers.RemoveRoute))))

	// Multicast subscription endpoints
	mux.Handle("/api/v1/subscriptions/multicast", authed(s.handleMulticastSubscriptions))
	mux.Handle("/api/v1/subscriptions/multicast/{subscriptionId}", authed(s.onlyDelete(s.handlers.UnsubscribeMulticast)))

	// Health endpoint (no auth required)
	mux.Handle("/api/v1/health", withMiddleware(s.handlers.Health))

	// Browser windows
	if s.hub != nil {
		mux.Handle("/ws", m.Recovery(m.Logging(m.AuthRequired(s.hub.ServeHTTP))))
	}

	// Root endpoint with API info
	mux.Handle("/", withMiddleware(s.handleRoot))

	return mux
}

// Route handlers that dispatch based on HTTP method

// handleRoutes routes routing table requests based on HTTP method.
// Adding routes requires admin rights.
func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handlers.ListRoutes(w, r)
	case http.MethodPost:
		if !IsAdmin(r) {
			writeError(w, "Admin privileges required", http.StatusForbidden)
			return
		}
		s.handlers.AddRoute(w, r)
	default:
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleMulticastSubscriptions routes subscription requests based on HTTP method
func (s *Server) handleMulticastSubscriptions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handlers.ListMulticastSubscriptions(w, r)
	case http.MethodPost:
		s.handlers.SubscribeMulticast(w, r)
	default:
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) onlyPost(next http.HandlerFunc) http.HandlerFunc {
	return onlyMethod(http.MethodPost, next)
}

func (s *Server) onlyDelete(next http.HandlerFunc) http.HandlerFunc {
	return onlyMethod(http.MethodDelete, next)
}

func onlyMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

// handleRoot provides API information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, "Not found", http.StatusNotFound)
		return
	}

	info := map[string]any{
		"service":     "joynr cluster controller HTTP API",
		"version":     "1.0.0",
		"description": "Routes joynr messages between browser windows, remote runtimes and local participants",
		"endpoints": map[string]any{
			"auth": map[string]string{
				"login": "POST /api/v1/auth/login",
			},
			"messages": map[string]string{
				"send": "POST /api/v1/messages",
			},
			"routes": map[string]string{
				"list":   "GET /api/v1/routes",
				"add":    "POST /api/v1/routes (admin)",
				"remove": "DELETE /api/v1/routes/{participantId} (admin)",
			},
			"subscriptions": map[string]string{
				"list":        "GET /api/v1/subscriptions/multicast",
				"subscribe":   "POST /api/v1/subscriptions/multicast",
				"unsubscribe": "DELETE /api/v1/subscriptions/multicast/{subscriptionId}",
			},
			"windows": "GET /ws?windowId={windowId}&token={token}",
			"health":  "GET /api/v1/health",
		},
		"authentication": "Bearer JWT token required for most endpoints",
	}

	writeJSON(w, info, http.StatusOK)
}
