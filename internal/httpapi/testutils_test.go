package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/zicheng-pan/joynr/internal/messagerouter"
	"github.com/zicheng-pan/joynr/internal/messaging/inprocess"
	"github.com/zicheng-pan/joynr/internal/messaging/websocket"
	"github.com/zicheng-pan/joynr/internal/multicast"
)

// TestServerSetup holds common test dependencies
type TestServerSetup struct {
	Router     *messagerouter.Router
	Registry   *multicast.Registry
	Dispatcher *inprocess.Dispatcher
	Hub        *websocket.WindowHub
	Server     *Server
	Auth       *JWTAuth
}

// NewTestServerSetup creates a router with in-process and browser transports behind an HTTP server
func NewTestServerSetup(t *testing.T, mutate ...func(*Config)) *TestServerSetup {
	t.Helper()

	dispatcher := inprocess.NewDispatcher()
	hub := websocket.NewWindowHub(nil, nil)

	router, err := messagerouter.New(nil, dispatcher, hub.StubFactory())
	if err != nil {
		t.Fatalf("Failed to create router: %v", err)
	}
	hub.SetReceiver(router)
	registry := multicast.NewRegistry(router, nil)

	config := Config{
		SecretKey: "test-secret-key",
		RuntimeID: "test-runtime",
	}
	for _, m := range mutate {
		m(&config)
	}

	server, err := NewServer(config, router, registry, hub)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	setup := &TestServerSetup{
		Router:     router,
		Registry:   registry,
		Dispatcher: dispatcher,
		Hub:        hub,
		Server:     server,
		Auth:       server.JWTAuth(),
	}
	t.Cleanup(setup.Close)
	return setup
}

// Close cleans up test resources
func (setup *TestServerSetup) Close() {
	setup.Hub.Close()
	setup.Router.Close()
}

// GenerateTestToken creates a JWT token for testing
func (setup *TestServerSetup) GenerateTestToken(t *testing.T, clientID string, isAdmin bool) string {
	t.Helper()

	token, _, err := setup.Auth.GenerateToken(clientID, isAdmin)
	if err != nil {
		t.Fatalf("Failed to generate test token: %v", err)
	}
	return token
}

// Do sends a request through the full handler chain. body is JSON-encoded unless nil.
func (setup *TestServerSetup) Do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	setup.Server.Handler().ServeHTTP(rec, req)
	return rec
}

// decodeBody decodes a JSON response body
func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}
