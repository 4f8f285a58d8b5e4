package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"sheetchat/internal"
	"sheetchat/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	ch       chan models.Snapshot
	mu       sync.Mutex
	canceled bool
}

func (f *fakeSource) Subscribe() (<-chan models.Snapshot, func()) {
	return f.ch, func() {
		f.mu.Lock()
		f.canceled = true
		f.mu.Unlock()
	}
}

func (f *fakeSource) wasCanceled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canceled
}

type sseEvent struct {
	name string
	data string
}

func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.name != "" || ev.data != "" {
				return ev
			}
		case strings.HasPrefix(line, "event:"):
			ev.name = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:"):
			ev.data = strings.TrimPrefix(line, "data:")
		}
	}
}

func newStreamServer(hub *SSEHub, src StateSource) *httptest.Server {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/events", func(c *gin.Context) {
		hub.Stream(c, "s1", src)
	})
	return httptest.NewServer(router)
}

func TestStreamSendsSnapshots(t *testing.T) {
	src := &fakeSource{ch: make(chan models.Snapshot, 4)}
	hub := NewSSEHub(internal.NewNopLogger(), time.Hour)
	srv := newStreamServer(hub, src)
	defer srv.Close()

	src.ch <- models.Snapshot{Version: 1, Mode: models.ModeBar}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream"), resp.Header.Get("Content-Type"))
	reader := bufio.NewReader(resp.Body)

	ev := readEvent(t, reader)
	assert.Equal(t, EventState, ev.name)
	var snap models.Snapshot
	require.NoError(t, json.Unmarshal([]byte(ev.data), &snap))
	assert.Equal(t, uint64(1), snap.Version)

	assert.Eventually(t, func() bool { return hub.GetClientCount("s1") == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"s1"}, hub.GetActiveSessions())

	src.ch <- models.Snapshot{Version: 2, Processing: true}
	ev = readEvent(t, reader)
	require.NoError(t, json.Unmarshal([]byte(ev.data), &snap))
	assert.Equal(t, uint64(2), snap.Version)
	assert.True(t, snap.Processing)

	close(src.ch)
	assert.Eventually(t, func() bool { return hub.GetClientCount("s1") == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, src.wasCanceled())
}

func TestStreamPings(t *testing.T) {
	src := &fakeSource{ch: make(chan models.Snapshot)}
	hub := NewSSEHub(internal.NewNopLogger(), 10*time.Millisecond)
	srv := newStreamServer(hub, src)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	ev := readEvent(t, bufio.NewReader(resp.Body))
	assert.Equal(t, EventPing, ev.name)

	var ping PingEvent
	require.NoError(t, json.Unmarshal([]byte(ev.data), &ping))
	assert.Equal(t, "alive", ping.Status)

	cancel()
	assert.Eventually(t, func() bool { return hub.GetClientCount("s1") == 0 }, time.Second, 5*time.Millisecond)
}
