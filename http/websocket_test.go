package http

import (
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishurl/ml"
)

func TestPredictWebSocket(t *testing.T) {
	env := newTestEnv(t, true, false)
	server := httptest.NewServer(env.handler)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws/predict"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	for _, tc := range []struct {
		url  string
		want ml.Label
	}{
		{"https://www.google.com", ml.Legitimate},
		{"http://192.168.1.1/login.php", ml.Phishing},
	} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tc.url)))
		var reply wsReply
		require.NoError(t, conn.ReadJSON(&reply))
		require.NotNil(t, reply.Prediction, reply.Error)
		assert.Equal(t, tc.url, reply.Prediction.URL)
		assert.Equal(t, tc.want, reply.Prediction.Label)
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("   ")))
	var reply wsReply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Nil(t, reply.Prediction)
	assert.Equal(t, "url is required", reply.Error)
}

func TestPredictWebSocketWithoutModel(t *testing.T) {
	env := newTestEnv(t, false, false)
	server := httptest.NewServer(env.handler)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/api/ws/predict", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("https://example.com")))
	var reply wsReply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Contains(t, reply.Error, "phishurl train")
}

func TestPredictWebSocketIdleClientStaysConnected(t *testing.T) {
	env := newTestEnv(t, true, false)
	env.api.wsPongWait = 300 * time.Millisecond
	server := httptest.NewServer(env.handler)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/api/ws/predict", nil)
	require.NoError(t, err)
	defer conn.Close()

	var pings atomic.Int32
	conn.SetPingHandler(func(data string) error {
		pings.Add(1)
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	// The client only writes from this goroutine; the reader answers pings.
	replies := make(chan wsReply)
	readErr := make(chan error, 1)
	go func() {
		for {
			var reply wsReply
			if err := conn.ReadJSON(&reply); err != nil {
				readErr <- err
				return
			}
			replies <- reply
		}
	}()

	time.Sleep(time.Second)
	assert.GreaterOrEqual(t, pings.Load(), int32(2))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("https://www.google.com")))
	select {
	case reply := <-replies:
		require.NotNil(t, reply.Prediction, reply.Error)
		assert.Equal(t, ml.Legitimate, reply.Prediction.Label)
	case err := <-readErr:
		t.Fatalf("connection dropped while idle: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply after idle period")
	}
}
