package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zicheng-pan/joynr/internal/config"
	"github.com/zicheng-pan/joynr/internal/logging"
	"github.com/zicheng-pan/joynr/pkg/httpclient"
	"github.com/zicheng-pan/joynr/pkg/messaging"
)

func testConfig(runtimeID string) *config.Config {
	return &config.Config{
		RuntimeID:       runtimeID,
		HTTPListen:      "127.0.0.1:0",
		ChannelListen:   "127.0.0.1:0",
		LogLevel:        "debug",
		LogFormat:       "text",
		JWTSecret:       "test-secret",
		QueueLimit:      100,
		PruneInterval:   time.Second,
		TransmitTimeout: 2 * time.Second,
		RateLimit:       1000,
		RateBurst:       1000,
	}
}

func startRuntime(t *testing.T, cfg *config.Config) *runtime {
	t.Helper()

	rt, err := newRuntime(cfg, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, rt.start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, rt.shutdown(ctx))
	})
	return rt
}

func apiClient(t *testing.T, rt *runtime, clientID string) *httpclient.Client {
	t.Helper()

	c, err := httpclient.NewClient(httpclient.Config{
		ServerURL: "http://" + rt.httpLis.Addr().String(),
		ClientID:  clientID,
		Timeout:   5 * time.Second,
	})
	require.NoError(t, err)
	require.NoError(t, c.Authenticate(context.Background()))
	return c
}

// collector is a local participant recording what it receives
type collector struct {
	mu   sync.Mutex
	msgs []*messaging.Message
}

func (c *collector) Receive(_ context.Context, msg *messaging.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func TestRuntime_BrowserWindowRoundTrip(t *testing.T) {
	rt := startRuntime(t, testConfig("runtime-1"))
	ctx := context.Background()

	admin := apiClient(t, rt, "admin")
	window := "dashboard"
	_, err := admin.AddRoute(ctx, httpclient.Route{
		ParticipantID: "weather-consumer",
		Address:       messaging.AddressSpec{Kind: messaging.KindBrowser, WindowID: &window},
	})
	require.NoError(t, err)

	browser := apiClient(t, rt, "browser-app")
	conn, err := browser.ConnectWindow(ctx, window)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return len(rt.hub.Windows()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, err = admin.SendMessage(ctx, httpclient.SendMessageRequest{
		Type:      messaging.TypeReply,
		Sender:    "weather-provider",
		Recipient: "weather-consumer",
		Payload:   json.RawMessage(`{"temperature":21.5}`),
	})
	require.NoError(t, err)

	select {
	case msg := <-conn.Messages():
		require.NotNil(t, msg.WindowID)
		assert.Equal(t, window, *msg.WindowID)
		assert.Equal(t, "weather-consumer", msg.Message.Recipient)
		assert.JSONEq(t, `{"temperature":21.5}`, string(msg.Message.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("window did not receive the message")
	}

	// messages posted by the window are routed by the runtime
	provider := &collector{}
	require.NoError(t, rt.dispatcher.Register("weather-provider", provider))
	_, err = admin.AddRoute(ctx, httpclient.Route{
		ParticipantID: "weather-provider",
		Address:       messaging.AddressSpec{Kind: messaging.KindInProcess, ParticipantID: "weather-provider"},
	})
	require.NoError(t, err)

	require.NoError(t, conn.Send(messaging.NewMessage(messaging.TypeRequest, "weather-consumer", "weather-provider", []byte(`{}`))))
	require.Eventually(t, func() bool { return provider.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestRuntime_ChannelBetweenRuntimes(t *testing.T) {
	local := startRuntime(t, testConfig("runtime-1"))
	remote := startRuntime(t, testConfig("runtime-2"))
	ctx := context.Background()

	provider := &collector{}
	require.NoError(t, remote.dispatcher.Register("traffic-provider", provider))
	require.NoError(t, remote.router.AddNextHop(ctx, "traffic-provider",
		messaging.InProcessAddress{ParticipantID: "traffic-provider"}))

	require.NoError(t, local.router.AddNextHop(ctx, "traffic-provider", messaging.ChannelAddress{
		Endpoint:  remote.channelLis.Addr().String(),
		ChannelID: "runtime-2",
	}))

	consumer := apiClient(t, local, "traffic-consumer")
	_, err := consumer.SendMessage(ctx, httpclient.SendMessageRequest{
		Type:      messaging.TypeRequest,
		Recipient: "traffic-provider",
		Payload:   json.RawMessage(`"jams?"`),
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return provider.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestRuntime_ProvisioningFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
routes:
  - participantId: weather-provider
    address:
      kind: inprocess
      participantId: weather-provider
`), 0o600))

	cfg := testConfig("runtime-1")
	cfg.ProvisioningFile = path
	rt := startRuntime(t, cfg)

	ok, err := rt.router.GetRoutingTable().ContainsKey(context.Background(), "weather-provider")
	require.NoError(t, err)
	assert.True(t, ok)

	health, err := apiClient(t, rt, "observer").GetHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, health.Routes)
	assert.Equal(t, "runtime-1", health.RuntimeID)
}

func TestRuntime_BadProvisioningFile(t *testing.T) {
	cfg := testConfig("runtime-1")
	cfg.ProvisioningFile = filepath.Join(t.TempDir(), "missing.yaml")

	rt, err := newRuntime(cfg, logging.Discard())
	require.NoError(t, err)
	err = rt.start(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, rt.shutdown(ctx))
}
