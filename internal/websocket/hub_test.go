package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgcli/internal/config"
	"esgcli/internal/pipeline"
)

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		PingPeriod:      50 * time.Millisecond,
		PongWait:        time.Second,
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func dialHub(t *testing.T, hub *Hub) *gorilla.Conn {
	t.Helper()
	server := httptest.NewServer(ServeWS(hub, testWSConfig(), nil))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastReachesClient(t *testing.T) {
	hub := startHub(t)
	conn := dialHub(t, hub)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	hub.BroadcastProgress("run-1", pipeline.ProgressUpdate{
		Stage:    pipeline.StageFetch,
		Progress: 5,
		Message:  "fetching EN.GHG.CO2.PC.CE.AR5",
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(frame, &msg))
	assert.Equal(t, TypeProgress, msg.Type)
	assert.Equal(t, pipeline.StageFetch, msg.Stage)
	assert.Equal(t, 5.0, msg.Progress)
	assert.Equal(t, "run-1", msg.RunID)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestHub_BroadcastLog(t *testing.T) {
	hub := startHub(t)
	conn := dialHub(t, hub)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	hub.BroadcastLog("run-2", LevelWarning, "country fetch failed, skipping")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(frame, &msg))
	assert.Equal(t, TypeLog, msg.Type)
	assert.Equal(t, LevelWarning, msg.Level)
	assert.Contains(t, msg.Text, "skipping")
}

func TestHub_ClientCountTracksDisconnect(t *testing.T) {
	hub := startHub(t)
	conn := dialHub(t, hub)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		time.Second, 10*time.Millisecond)
}

func TestHub_DetachAfterShutdownDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	conn := dialHub(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	cancel()
	<-stopped

	// The read pump unregisters when the connection drops; with the loop
	// gone that hand-off must still return instead of leaking the goroutine.
	conn.Close()
	detached := make(chan struct{})
	go func() {
		(&Client{hub: hub, send: make(chan []byte)}).detach()
		close(detached)
	}()

	select {
	case <-detached:
	case <-time.After(time.Second):
		t.Fatal("unregister blocked after hub shutdown")
	}
}

func TestHub_BroadcastWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewHub(nil) // not running
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.BroadcastLog("run", LevelInfo, "noise")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked with no hub loop running")
	}
}
