package live_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolguard/sg-cctv/internal/data"
	"github.com/schoolguard/sg-cctv/internal/live"
)

func dialHub(t *testing.T, hub *live.Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Registration happens in the server goroutine after the handshake.
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, 1, hub.ClientCount())
	return conn
}

func TestHub_BroadcastsAlerts(t *testing.T) {
	hub := live.NewHub()
	conn := dialHub(t, hub)

	hub.Publish(&data.Alert{ID: 7, AlertType: data.AlertTypeCritical, Message: "Bullying detected"})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var evt struct {
		Type string     `json:"type"`
		Data data.Alert `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &evt))
	assert.Equal(t, "alert", evt.Type)
	assert.Equal(t, int64(7), evt.Data.ID)
	assert.Equal(t, "Bullying detected", evt.Data.Message)
}

func TestHub_DropsClosedClients(t *testing.T) {
	hub := live.NewHub()
	conn := dialHub(t, hub)
	conn.Close()

	// Two publishes: the first write fails and evicts, the second proves
	// the hub no longer tracks the connection.
	hub.Publish(&data.Alert{ID: 1, AlertType: data.AlertTypeWarning, Message: "x"})
	hub.Publish(&data.Alert{ID: 2, AlertType: data.AlertTypeWarning, Message: "y"})

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 0, hub.ClientCount())
}
