package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"cinewrap/internal/enrich"
	"cinewrap/internal/logging"
	"cinewrap/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	requestWait    = 30 * time.Second
	maxMessageSize = 4 << 20
)

// handleEnrich streams enrichment snapshots over a WebSocket. The client's
// first frame is an EnrichRequest; a later {"type":"cancel"} frame or a
// disconnect stops the run at the next batch boundary.
func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		return
	}
	metrics.TrackWebSocket(true)
	defer metrics.TrackWebSocket(false)
	defer conn.Close()

	logger := logging.WithContext(r.Context(), s.logger)
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(requestWait))

	var req EnrichRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.writeFrame(conn, EnrichMessage{Type: MessageError, Error: "first message must be {\"films\": [...]}"})
		closeConn(conn, websocket.CloseUnsupportedData, "invalid request")
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go watchClient(conn, cancel)

	logger.Info("enrichment stream opened",
		logging.String(logging.FieldEventType, "enrichment_stream_opened"),
		logging.Int("films", len(req.Films)),
	)

	final := s.deps.Merger.Run(ctx, req.Films, s.deps.Lookup, func(snap enrich.Snapshot) {
		if err := s.writeFrame(conn, EnrichMessage{Type: MessageSnapshot, Snapshot: &snap}); err != nil {
			cancel()
		}
	}, nil)

	if ctx.Err() != nil {
		logger.Info("enrichment stream cancelled",
			logging.String(logging.FieldEventType, "enrichment_stream_cancelled"),
			logging.Int("processed", final.Processed),
			logging.Int("total", final.Total),
		)
		closeConn(conn, websocket.CloseNormalClosure, "cancelled")
		return
	}
	_ = s.writeFrame(conn, EnrichMessage{Type: MessageDone, Snapshot: &final})
	closeConn(conn, websocket.CloseNormalClosure, "done")
}

// watchClient reads until the client cancels or goes away.
func watchClient(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		var msg EnrichMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type == MessageCancel {
			return
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, msg EnrichMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := conn.WriteJSON(msg); err != nil {
		if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			s.logger.Debug("websocket write failed", logging.Error(err))
		}
		return err
	}
	return nil
}

func closeConn(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(writeWait)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
}
