package httpclient

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zicheng-pan/joynr/pkg/messaging"
)

func TestConnectWindow(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan *messaging.Message, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token-consumer", r.URL.Query().Get("token"))
		windowID := r.URL.Query().Get("windowId")
		assert.Equal(t, "dashboard", windowID)

		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		out := WebMessage{
			WindowID: &windowID,
			Message:  messaging.NewMessage(messaging.TypePublication, "provider", "dashboard", []byte("21.5")),
		}
		require.NoError(t, conn.WriteJSON(out))

		var in messaging.Message
		if err := conn.ReadJSON(&in); err == nil {
			received <- &in
		}
		// wait for the client to close
		_, _, _ = conn.ReadMessage()
	})
	client := newTestClient(t, mux)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	window, err := client.ConnectWindow(ctx, "dashboard")
	require.NoError(t, err)
	defer window.Close()

	select {
	case msg := <-window.Messages():
		require.NotNil(t, msg.WindowID)
		assert.Equal(t, "dashboard", *msg.WindowID)
		assert.Equal(t, "21.5", string(msg.Message.Payload))
	case <-ctx.Done():
		t.Fatal("timed out waiting for a routed message")
	}

	reply := messaging.NewMessage(messaging.TypeRequest, "dashboard", "provider", []byte("get"))
	require.NoError(t, window.Send(reply))

	select {
	case msg := <-received:
		assert.Equal(t, reply.ID, msg.ID)
		assert.Equal(t, "provider", msg.Recipient)
	case <-ctx.Done():
		t.Fatal("timed out waiting for the server to receive")
	}

	require.NoError(t, window.Close())
	assert.NoError(t, window.Close(), "closing twice is harmless")
}
