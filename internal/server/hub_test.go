package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pefman/tactics-duel/internal/models"
)

func dialPair(t *testing.T) (server, client *websocket.Conn) {
	t.Helper()
	conns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- ws
	}))
	t.Cleanup(srv.Close)
	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	select {
	case server = <-conns:
	case <-time.After(5 * time.Second):
		t.Fatal("no server side connection")
	}
	return server, client
}

func TestBroadcastKeepsOrder(t *testing.T) {
	ws, client := dialPair(t)
	c := newConnection(ws, "b1")
	go c.writeLoop()
	t.Cleanup(c.Close)
	h := NewHub()
	h.Join(c)

	for _, typ := range []string{"one", "two", "three"} {
		h.Broadcast("b1", models.WsMsg{Type: typ})
	}
	h.Broadcast("other", models.WsMsg{Type: "elsewhere"})

	var got []string
	for i := 0; i < 3; i++ {
		require.NoError(t, client.SetReadDeadline(time.Now().Add(5*time.Second)))
		var m models.WsMsg
		require.NoError(t, client.ReadJSON(&m))
		got = append(got, m.Type)
	}
	assert.Equal(t, []string{"one", "two", "three"}, got)

	h.Leave(c)
	assert.Zero(t, h.Watchers("b1"))
}

func TestSlowConnectionIsDropped(t *testing.T) {
	ws, _ := dialPair(t)
	// no write loop: nothing drains the queue
	c := newConnection(ws, "b1")
	h := NewHub()
	h.Join(c)
	closed := func() bool {
		select {
		case <-c.closeCh:
			return true
		default:
			return false
		}
	}

	for i := 0; i < sendQueueSize; i++ {
		h.Broadcast("b1", models.WsMsg{Type: "tick"})
	}
	assert.False(t, closed())

	done := make(chan struct{})
	go func() {
		h.Broadcast("b1", models.WsMsg{Type: "tick"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full queue")
	}
	assert.True(t, closed())
	assert.False(t, c.send(models.WsMsg{Type: "late"}))
}
