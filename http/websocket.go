package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"phishurl/ml"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsMaxMessage = 8192
)

type wsReply struct {
	Prediction *ml.Prediction `json:"prediction,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// handlePredictWS classifies each text message as a URL and replies with one
// JSON object per message, in order. The read loop owns the connection's
// reads; wsWritePump owns every write, pings included.
func (a *API) handlePredictWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     a.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	pongWait := a.wsPongWait
	if pongWait <= 0 {
		pongWait = wsPongWait
	}
	conn.SetReadLimit(wsMaxMessage)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	requestID := GetRequestID(r.Context())
	replies := make(chan wsReply, 16)
	done := make(chan struct{})
	go a.wsWritePump(conn, replies, pongWait*9/10, requestID, done)
	defer func() {
		close(replies)
		<-done
	}()

	a.logger.Debug("websocket client connected", zap.String("request_id", requestID))
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				a.logger.Warn("websocket read failed", zap.String("request_id", requestID), zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
		if msgType != websocket.TextMessage {
			continue
		}

		select {
		case replies <- a.wsPredict(r, strings.TrimSpace(string(data))):
		case <-done:
			return
		}
	}
}

// wsWritePump sends queued replies and a ping every pingPeriod. It closes the
// connection when it stops so a blocked read returns too.
func (a *API) wsWritePump(conn *websocket.Conn, replies <-chan wsReply, pingPeriod time.Duration, requestID string, done chan<- struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
		close(done)
	}()

	for {
		select {
		case reply, ok := <-replies:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(reply); err != nil {
				a.logger.Warn("websocket write failed", zap.String("request_id", requestID), zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (a *API) wsPredict(r *http.Request, url string) wsReply {
	if url == "" {
		return wsReply{Error: "url is required"}
	}
	prediction, err := a.models.Predict(url)
	if err != nil {
		if errors.Is(err, ml.ErrNotTrained) {
			return wsReply{Error: trainFirstMessage}
		}
		return wsReply{Error: err.Error()}
	}
	a.record(r.Context(), prediction)
	return wsReply{Prediction: &prediction}
}

// checkOrigin defers to the configured CORS origins. Requests without an
// Origin header come from non-browser clients and are allowed.
func (a *API) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return originAllowed(a.allowedOrigins, origin)
}
