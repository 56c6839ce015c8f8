package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zicheng-pan/joynr/pkg/httpclient"
	"github.com/zicheng-pan/joynr/pkg/messagerouter"
	"github.com/zicheng-pan/joynr/pkg/messaging"
	"github.com/zicheng-pan/joynr/pkg/subscriptionqos"
)

func TestRootCommandStructure(t *testing.T) {
	root := newRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"auth", "send", "routes", "subscribe", "subscriptions", "window", "health"} {
		assert.Contains(t, names, want)
	}

	routes, _, err := root.Find([]string{"routes", "add"})
	require.NoError(t, err)
	assert.Equal(t, "add", routes.Name())

	multicast, _, err := root.Find([]string{"subscribe", "multicast"})
	require.NoError(t, err)
	assert.Equal(t, "multicast", multicast.Name())
}

func TestBuildSendRequest(t *testing.T) {
	req, err := buildSendRequest("oneWay", "", "provider", `{"n":1}`, 2*time.Second, map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, messaging.TypeOneWay, req.Type)
	assert.Equal(t, int64(2000), req.TTLMs)
	assert.JSONEq(t, `{"n":1}`, string(req.Payload))
	assert.Equal(t, "v", req.Headers["k"])

	_, err = buildSendRequest("request", "", "provider", `{not json`, 0, nil)
	assert.ErrorContains(t, err, "invalid JSON payload")

	_, err = buildSendRequest("request", "", "provider", "", -time.Second, nil)
	assert.Error(t, err)
}

func TestBuildRoute(t *testing.T) {
	route, err := buildRoute("local", messaging.AddressSpec{Kind: messaging.KindInProcess})
	require.NoError(t, err)
	assert.Equal(t, "local", route.Address.ParticipantID, "in-process addresses default to the participant")

	_, err = buildRoute("remote", messaging.AddressSpec{Kind: messaging.KindChannel, Endpoint: "cc:4242"})
	assert.ErrorIs(t, err, messaging.ErrInvalidAddress)

	_, err = buildRoute("x", messaging.AddressSpec{Kind: "carrier-pigeon"})
	assert.ErrorIs(t, err, messaging.ErrInvalidAddress)
}

func TestBuildMulticastRequest(t *testing.T) {
	req, err := buildMulticastRequest(multicastOptions{
		multicastID:      "provider/weather",
		subscribedToName: "weather",
		validity:         time.Hour,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, req.Request["subscriptionId"], "a subscription id is generated")

	qos, ok := req.Request["qos"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, subscriptionqos.MulticastSubscriptionQosType, qos[subscriptionqos.TypeNameKey])
	assert.Greater(t, qos["expiryDateMs"].(int64), time.Now().UnixMilli())

	noQos, err := buildMulticastRequest(multicastOptions{multicastID: "m", subscribedToName: "n", subscriptionID: "s"})
	require.NoError(t, err)
	assert.NotContains(t, noQos.Request, "qos")

	_, err = buildMulticastRequest(multicastOptions{multicastID: "m"})
	assert.Error(t, err)
}

// runCLI executes joynrctl against server and returns its output
func runCLI(t *testing.T, server *httptest.Server, args ...string) (string, error) {
	t.Helper()

	client = nil
	root := newRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append([]string{"--server", server.URL}, args...))
	err := root.Execute()
	return buf.String(), err
}

// sentMessages records the messages a fake runtime accepted
type sentMessages struct {
	mu   sync.Mutex
	reqs []httpclient.SendMessageRequest
}

func (s *sentMessages) add(req httpclient.SendMessageRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
}

func (s *sentMessages) all() []httpclient.SendMessageRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]httpclient.SendMessageRequest(nil), s.reqs...)
}

func newFakeRuntime(t *testing.T) (*httptest.Server, *sentMessages) {
	t.Helper()

	sent := &sentMessages{}
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, httpclient.AuthResponse{Token: "test-token-123", ClientID: "test-client"})
	})
	mux.HandleFunc("GET /api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, httpclient.HealthResponse{
			HealthStatus: messagerouter.HealthStatus{Healthy: true, Routes: 3, Message: "router is accepting messages"},
			RuntimeID:    "runtime-1",
		})
	})
	mux.HandleFunc("POST /api/v1/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token-123" {
			writeJSON(w, http.StatusUnauthorized, httpclient.ErrorResponse{Message: "Authorization header required", Code: 401})
			return
		}
		var req httpclient.SendMessageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		sent.add(req)
		writeJSON(w, http.StatusAccepted, httpclient.SendMessageResponse{MessageID: "msg-1", Recipient: req.Recipient})
	})
	mux.HandleFunc("GET /api/v1/routes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, httpclient.RoutesListResponse{Routes: []httpclient.Route{
			{ParticipantID: "weather-provider", Description: "browser:dashboard"},
		}})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, sent
}

func TestCommands(t *testing.T) {
	server, sent := newFakeRuntime(t)

	t.Run("health", func(t *testing.T) {
		output, err := runCLI(t, server, "health")
		require.NoError(t, err)
		assert.Contains(t, output, "Runtime is healthy")
		assert.Contains(t, output, "Routes: 3")
	})

	t.Run("auth", func(t *testing.T) {
		output, err := runCLI(t, server, "--client-id", "test-client", "auth")
		require.NoError(t, err)
		assert.Contains(t, output, "test-token-123")
	})

	t.Run("send logs in with the client id", func(t *testing.T) {
		output, err := runCLI(t, server, "--client-id", "test-client", "send", "--to", "provider", "--payload", `{"q":1}`)
		require.NoError(t, err)
		assert.Contains(t, output, "msg-1")
		require.Len(t, sent.all(), 1)
		assert.Equal(t, "provider", sent.all()[0].Recipient)
	})

	t.Run("send with token", func(t *testing.T) {
		_, err := runCLI(t, server, "--token", "test-token-123", "send", "--to", "other", "--type", "oneWay")
		require.NoError(t, err)
		require.Len(t, sent.all(), 2)
		assert.Equal(t, messaging.TypeOneWay, sent.all()[1].Type)
	})

	t.Run("send requires a recipient", func(t *testing.T) {
		_, err := runCLI(t, server, "--client-id", "test-client", "send")
		assert.Error(t, err)
	})

	t.Run("routes list", func(t *testing.T) {
		output, err := runCLI(t, server, "--client-id", "test-client", "routes", "list")
		require.NoError(t, err)
		assert.Contains(t, output, "weather-provider")
		assert.Contains(t, output, "browser:dashboard")
	})

	t.Run("missing client id", func(t *testing.T) {
		_, err := runCLI(t, server, "routes", "list")
		assert.ErrorContains(t, err, "client-id is required")
	})
}
