package realtime

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedCounter struct {
	n   int
	err error
}

func (f fixedCounter) Count(context.Context) (int, error) { return f.n, f.err }

func TestPublishCountKeepsLatest(t *testing.T) {
	h := NewHub(nil)
	h.PublishCount(1)
	h.PublishCount(2)
	h.PublishCount(3)
	assert.Equal(t, 3, <-h.updates)
}

func TestRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := NewHub(zaptest.NewLogger(t))
	c := &Client{ID: "c1", hub: h, send: make(chan CountMessage, 4)}
	h.Register(c, 7)
	assert.Equal(t, CountMessage{Event: EventRegistrationCount, Count: 7}, <-c.send)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	h.PublishCount(8)
	select {
	case msg := <-c.send:
		assert.Equal(t, 8, msg.Count)
	case <-time.After(2 * time.Second):
		t.Fatal("no broadcast")
	}
	assert.Equal(t, 8, h.Last())

	cancel()
	<-done
	_, open := <-c.send
	assert.False(t, open)
	assert.Zero(t, h.Clients())
}

func TestServeWsStreamsCount(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go h.Run(ctx)

	r := gin.New()
	r.GET("/ws/stats", ServeWs(h, fixedCounter{n: 41}, zaptest.NewLogger(t)))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/stats"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg CountMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, CountMessage{Event: "registration_count", Count: 41}, msg)

	h.PublishCount(42)
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, 42, msg.Count)
}

func TestServeWsFallsBackToLastCount(t *testing.T) {
	h := NewHub(nil)
	h.last = 12

	r := gin.New()
	r.GET("/ws/stats", ServeWs(h, fixedCounter{err: errors.New("store down")}, nil))
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/stats", nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg CountMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, 12, msg.Count)
}
