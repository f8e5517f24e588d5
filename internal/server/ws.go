package server

import (
	"net/http"
	"time"

	"github.com/chrisdamba/dishrank/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	maxFrameSize   = 64 << 20
	wsReadBuffer   = 4096
	wsWriteBuffer  = 4096
	sessionIDField = "session"
)

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  wsReadBuffer,
		WriteBufferSize: wsWriteBuffer,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(s.cfg.AllowOrigins) == 0 {
				return true
			}
			for _, o := range s.cfg.AllowOrigins {
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		},
	}
}

// serveWS serves one websocket session. Text frames carry JSON and binary
// frames CBOR; each response uses the frame type of its request. The session
// gets its own worker, so init on one connection never affects another.
func (s *Server) serveWS(c *gin.Context) {
	up := s.upgrader()
	conn, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameSize)

	sessionID := uuid.New().String()
	logger := s.logger.With(zap.String(sessionIDField, sessionID))
	worker, err := s.newWorker(s.dataset.Load(), logger)
	if err != nil {
		logger.Error("failed to create session worker", zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "engine unavailable"),
			time.Now().Add(writeWait))
		return
	}
	logger.Info("websocket session opened")
	defer logger.Info("websocket session closed")

	ctx := c.Request.Context()
	text := protocol.JSONCodec{}
	for {
		frameType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		var codec protocol.Codec = text
		if frameType == websocket.BinaryMessage {
			codec = s.cbor
		}
		out, err := worker.HandleBytes(ctx, codec, data)
		if err != nil {
			logger.Error("failed to encode response", zap.Error(err))
			return
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(frameType, out); err != nil {
			logger.Warn("websocket write failed", zap.Error(err))
			return
		}
	}
}
