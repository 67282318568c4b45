package realtime

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewHub(log)
}

func dialTestClient(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/ws", hub.Serve)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Serve registers the client just after the upgrade; wait for it.
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.clients) == 1
	}, time.Second, 10*time.Millisecond)

	return conn
}

func TestBroadcastDeliversToClient(t *testing.T) {
	hub := newTestHub()
	conn := dialTestClient(t, hub)

	hub.Broadcast(map[string]string{"type": "event_created"})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var payload map[string]string
	require.NoError(t, conn.ReadJSON(&payload))
	require.Equal(t, "event_created", payload["type"])
}

// Writes to one connection must serialize: overlapping broadcasts, as from
// simultaneous event creates, would otherwise interleave on the socket and
// wedge inside WriteJSON.
func TestBroadcastConcurrentSenders(t *testing.T) {
	hub := newTestHub()
	conn := dialTestClient(t, hub)

	const senders = 64

	received := make(chan struct{}, senders)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			received <- struct{}{}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Broadcast(map[string]string{"type": "event_created"})
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("concurrent broadcasts did not complete")
	}

	for i := 0; i < senders; i++ {
		select {
		case <-received:
		case <-time.After(5 * time.Second):
			t.Fatalf("client received only %d of %d messages", i, senders)
		}
	}
}
