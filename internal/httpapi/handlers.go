package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"time"

	"github.com/zicheng-pan/joynr/internal/messagequeue"
	"github.com/zicheng-pan/joynr/internal/messagerouter"
	"github.com/zicheng-pan/joynr/internal/multicast"
	messagerouterpkg "github.com/zicheng-pan/joynr/pkg/messagerouter"
	"github.com/zicheng-pan/joynr/pkg/messaging"
	"github.com/zicheng-pan/joynr/pkg/subscription"
)

const (
	// maxBodyBytes caps request bodies
	maxBodyBytes = 1 << 20

	// MaxTTLMs is the longest message TTL a time.Duration can express
	MaxTTLMs = math.MaxInt64 / int64(time.Millisecond)
)

// SubscriptionRegistry stores multicast subscriptions
type SubscriptionRegistry interface {
	Register(ctx context.Context, receiverParticipantID string, req *subscription.MulticastSubscriptionRequest) error
	Unregister(ctx context.Context, subscriptionID string) error
	Subscriptions() []multicast.Subscription
}

// WindowDirectory lists connected browser windows
type WindowDirectory interface {
	Windows() []string
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	router    messagerouterpkg.MessageRouter
	registry  SubscriptionRegistry
	windows   WindowDirectory
	jwtAuth   *JWTAuth
	runtimeID string
	logger    *slog.Logger
}

// NewHandlers creates a new handlers instance. windows and logger may be nil.
func NewHandlers(router messagerouterpkg.MessageRouter, registry SubscriptionRegistry, windows WindowDirectory,
	jwtAuth *JWTAuth, runtimeID string, logger *slog.Logger) *Handlers {
	return &Handlers{
		router:    router,
		registry:  registry,
		windows:   windows,
		jwtAuth:   jwtAuth,
		runtimeID: runtimeID,
		logger:    logger,
	}
}

// Auth endpoints

// Login handles POST /api/v1/auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req AuthRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := validateAuthRequest(&req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// clientId-only login; "admin" receives admin rights
	isAdmin := req.ClientID == "admin"

	token, expiresAt, err := h.jwtAuth.GenerateToken(req.ClientID, isAdmin)
	if err != nil {
		writeError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, AuthResponse{
		Token:     token,
		ClientID:  req.ClientID,
		ExpiresAt: expiresAt,
	}, http.StatusOK)
}

// Message endpoints

// SendMessage handles POST /api/v1/messages
func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := validateSendMessageRequest(&req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sender := req.Sender
	if sender == "" {
		sender = GetClientID(r)
	}

	msg := messaging.NewMessage(req.Type, sender, req.Recipient, req.Payload)
	for k, v := range req.Headers {
		msg.Headers[k] = v
	}
	if req.TTLMs > 0 {
		msg.ExpiryDate = time.Now().Add(time.Duration(req.TTLMs) * time.Millisecond)
	}

	if err := h.router.Route(r.Context(), msg); err != nil {
		h.warn("failed to route message", slog.String("messageId", msg.ID), slog.Any("error", err))
		writeError(w, err.Error(), statusFor(err, http.StatusBadGateway))
		return
	}

	writeJSON(w, SendMessageResponse{
		MessageID: msg.ID,
		Recipient: msg.Recipient,
		Accepted:  time.Now(),
	}, http.StatusAccepted)
}

// Route endpoints

// ListRoutes handles GET /api/v1/routes
func (h *Handlers) ListRoutes(w http.ResponseWriter, r *http.Request) {
	entries, err := h.router.GetRoutingTable().Entries(r.Context())
	if err != nil {
		writeError(w, err.Error(), statusFor(err, http.StatusInternalServerError))
		return
	}

	resp := RoutesListResponse{Routes: make([]RouteResponse, 0, len(entries))}
	for _, entry := range entries {
		resp.Routes = append(resp.Routes, RouteResponse{
			ParticipantID: entry.ParticipantID,
			Address:       messaging.SpecOf(entry.Address),
			Description:   entry.Address.String(),
		})
	}
	writeJSON(w, resp, http.StatusOK)
}

// AddRoute handles POST /api/v1/routes
func (h *Handlers) AddRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.ParticipantID == "" {
		writeError(w, "participantId is required", http.StatusBadRequest)
		return
	}
	address, err := req.Address.Address()
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.router.AddNextHop(r.Context(), req.ParticipantID, address); err != nil {
		writeError(w, err.Error(), statusFor(err, http.StatusBadGateway))
		return
	}

	// the table keeps the first address registered for a participant
	stored, _, err := h.router.GetRoutingTable().Get(r.Context(), req.ParticipantID)
	if err != nil || stored == nil {
		stored = address
	}

	writeJSON(w, RouteResponse{
		ParticipantID: req.ParticipantID,
		Address:       messaging.SpecOf(stored),
		Description:   stored.String(),
	}, http.StatusCreated)
}

// RemoveRoute handles DELETE /api/v1/routes/{participantId}
func (h *Handlers) RemoveRoute(w http.ResponseWriter, r *http.Request) {
	participantID := r.PathValue("participantId")
	if participantID == "" {
		writeError(w, "participantId is required", http.StatusBadRequest)
		return
	}

	if err := h.router.RemoveNextHop(r.Context(), participantID); err != nil {
		writeError(w, err.Error(), statusFor(err, http.StatusInternalServerError))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Multicast subscription endpoints

// SubscribeMulticast handles POST /api/v1/subscriptions/multicast
func (h *Handlers) SubscribeMulticast(w http.ResponseWriter, r *http.Request) {
	var req MulticastSubscribeRequest
	if !h.decode(w, r, &req) {
		return
	}

	receiver := req.ReceiverParticipantID
	if receiver == "" {
		receiver = GetClientID(r)
	}

	subReq, err := subscription.MulticastSubscriptionRequestFromRecord(req.Request)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.registry.Register(r.Context(), receiver, subReq); err != nil {
		writeError(w, err.Error(), statusFor(err, http.StatusInternalServerError))
		return
	}

	h.debug("multicast subscription created", slog.Any("request", subReq),
		slog.String("clientId", GetClientID(r)))

	writeJSON(w, MulticastSubscriptionResponse{
		SubscriptionID:        subReq.SubscriptionID(),
		MulticastID:           subReq.MulticastID(),
		SubscribedToName:      subReq.SubscribedToName(),
		ReceiverParticipantID: receiver,
		RegisteredAt:          time.Now(),
		Request:               subReq.ToRecord(),
	}, http.StatusCreated)
}

// ListMulticastSubscriptions handles GET /api/v1/subscriptions/multicast
func (h *Handlers) ListMulticastSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs := h.registry.Subscriptions()

	resp := MulticastSubscriptionsListResponse{
		Subscriptions: make([]MulticastSubscriptionResponse, 0, len(subs)),
	}
	for _, sub := range subs {
		resp.Subscriptions = append(resp.Subscriptions, MulticastSubscriptionResponse{
			SubscriptionID:        sub.Request.SubscriptionID(),
			MulticastID:           sub.Request.MulticastID(),
			SubscribedToName:      sub.Request.SubscribedToName(),
			ReceiverParticipantID: sub.ReceiverParticipantID,
			RegisteredAt:          sub.RegisteredAt,
			Request:               sub.Request.ToRecord(),
		})
	}
	writeJSON(w, resp, http.StatusOK)
}

// UnsubscribeMulticast handles DELETE /api/v1/subscriptions/multicast/{subscriptionId}
func (h *Handlers) UnsubscribeMulticast(w http.ResponseWriter, r *http.Request) {
	subscriptionID := r.PathValue("subscriptionId")
	if subscriptionID == "" {
		writeError(w, "subscriptionId is required", http.StatusBadRequest)
		return
	}

	if err := h.registry.Unregister(r.Context(), subscriptionID); err != nil {
		writeError(w, err.Error(), statusFor(err, http.StatusInternalServerError))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health endpoint

// Health handles GET /api/v1/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	health, err := h.router.GetHealth(r.Context())
	if err != nil {
		writeError(w, "Failed to get health status", http.StatusInternalServerError)
		return
	}

	resp := HealthResponse{
		HealthStatus: health,
		RuntimeID:    h.runtimeID,
	}
	if h.windows != nil {
		resp.ConnectedWindows = len(h.windows.Windows())
	}

	statusCode := http.StatusOK
	if !health.Healthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, resp, statusCode)
}

// Helper methods

// decode checks the content type and decodes the JSON body into v.
// It writes the error response and returns false on failure.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		writeError(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return false
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handlers) debug(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}

func (h *Handlers) warn(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Warn(msg, args...)
	}
}

// validateAuthRequest validates authentication request fields
func validateAuthRequest(req *AuthRequest) error {
	if req.ClientID == "" {
		return fmt.Errorf("clientId is required")
	}
	if len(req.ClientID) < 2 {
		return fmt.Errorf("clientId must be at least 2 characters")
	}
	return nil
}

// validateSendMessageRequest validates message fields before routing
func validateSendMessageRequest(req *SendMessageRequest) error {
	if req.Type == "" {
		return fmt.Errorf("type is required")
	}
	if req.Recipient == "" {
		return fmt.Errorf("recipient is required")
	}
	if req.TTLMs < 0 {
		return fmt.Errorf("ttlMs cannot be negative")
	}
	if req.TTLMs > MaxTTLMs {
		return fmt.Errorf("ttlMs cannot exceed %d", MaxTTLMs)
	}
	return nil
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, subscription.ErrInvalidArgument),
		errors.Is(err, messaging.ErrInvalidAddress),
		errors.Is(err, messagequeue.ErrEmptyRecipient),
		errors.Is(err, messagerouter.ErrEmptyParticipantID),
		errors.Is(err, messagerouter.ErrEmptyMulticastID),
		errors.Is(err, multicast.ErrEmptyReceiver),
		errors.Is(err, multicast.ErrSubscriptionExpired),
		errors.Is(err, messagerouterpkg.ErrMessageExpired):
		return http.StatusBadRequest
	case errors.Is(err, multicast.ErrUnknownSubscription):
		return http.StatusNotFound
	case errors.Is(err, messagequeue.ErrQueueFull),
		errors.Is(err, messagerouter.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return fallback
	}
}
