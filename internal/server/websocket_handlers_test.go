package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"conduit/internal/models"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen serves ts on a loopback port and returns its address.
func (ts *testServer) listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = ts.app.Listener(ln) }()
	t.Cleanup(func() { _ = ts.app.Shutdown() })
	return ln.Addr().String()
}

func readEvent(t *testing.T, conn *gws.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var event map[string]any
	require.NoError(t, json.Unmarshal(data, &event), string(data))
	return event
}

func TestWebsocket_DeliversActivity(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	cfg := testConfig()
	cfg.RealtimeEnabled = true
	ts := newTestServer(t, cfg, rdb)
	require.NotNil(t, ts.hub)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = ts.hub.StartWiring(ctx, ts.notifier) }()
	require.Eventually(t, func() bool { return mr.PubSubNumPat() > 0 }, 5*time.Second, 10*time.Millisecond)

	jake := ts.register(t, "jake")
	jane := ts.register(t, "jane")
	addr := ts.listen(t)

	conn, resp, err := gws.DefaultDialer.Dial("ws://"+addr+"/api/ws?token="+jake, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	hello := readEvent(t, conn)
	assert.Equal(t, "connected", hello["type"])
	require.Eventually(t, func() bool { return ts.hub.Connections(1) == 1 }, 2*time.Second, 10*time.Millisecond)

	status, _ := ts.do(t, http.MethodPost, "/api/profiles/jake/follow", jane, nil)
	require.Equal(t, http.StatusOK, status)

	event := readEvent(t, conn)
	assert.Equal(t, models.EventProfileFollowed, event["type"])
	assert.Equal(t, "jane", event["actor"])

	slug := ts.publish(t, jake, "Dragons")
	status, _ = ts.do(t, http.MethodPost, "/api/articles/"+slug+"/favorite", jane, nil)
	require.Equal(t, http.StatusOK, status)

	event = readEvent(t, conn)
	assert.Equal(t, models.EventArticleFavorited, event["type"])
	assert.Equal(t, slug, event["article"])
}

func TestWebsocket_Rejections(t *testing.T) {
	t.Run("no token", func(t *testing.T) {
		_, rdb := newMiniredisClient(t)
		cfg := testConfig()
		cfg.RealtimeEnabled = true
		ts := newTestServer(t, cfg, rdb)
		addr := ts.listen(t)

		_, resp, err := gws.DefaultDialer.Dial("ws://"+addr+"/api/ws", nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("realtime disabled", func(t *testing.T) {
		ts := newTestServer(t, testConfig(), nil)
		token := ts.register(t, "jake")

		status, body := ts.do(t, http.MethodGet, "/api/ws", token, nil)
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Equal(t, "REALTIME_DISABLED", body["code"])
	})

	t.Run("plain http is not upgraded", func(t *testing.T) {
		_, rdb := newMiniredisClient(t)
		cfg := testConfig()
		cfg.RealtimeEnabled = true
		ts := newTestServer(t, cfg, rdb)
		token := ts.register(t, "jake")

		status, _ := ts.do(t, http.MethodGet, "/api/ws", token, nil)
		assert.Equal(t, http.StatusUpgradeRequired, status)
	})
}
