package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"voice-relay-service/internal/ingest"
)

// Runner is the piece of the pipeline the upload edge needs: consume the
// finished session and produce the conversation's text and audio output.
type Runner interface {
	OnStop(ctx context.Context, conversationID string) error
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  32 * 1024,
	WriteBufferSize: 32 * 1024,
	// The relay sits behind the platform gateway, which owns origin policy.
	CheckOrigin: func(*http.Request) bool { return true },
}

// UploadHandler terminates the upload channel: a start frame opens an
// ingestion session, binary frames append to it, and a stop frame hands the
// session to the pipeline. The session is aborted on every other exit path
// so a dropped connection never leaks a buffer file.
type UploadHandler struct {
	sessions *ingest.Manager
	pipeline Runner
	log      zerolog.Logger
}

// NewUploadHandler creates the upload endpoint handler.
func NewUploadHandler(sessions *ingest.Manager, pipeline Runner, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		sessions: sessions,
		pipeline: pipeline,
		log:      log.With().Str("component", "ws.upload").Logger(),
	}
}

func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("upgrade failed")
		return
	}
	defer conn.Close()

	start, err := h.awaitStart(conn)
	if err != nil {
		h.log.Debug().Err(err).Msg("upload rejected before start")
		h.closeWith(conn, websocket.ClosePolicyViolation, err.Error())
		return
	}

	log := h.log.With().Str("conversationId", start.ConversationID).Logger()
	if err := h.sessions.Begin(start.ConversationID, start.Accent, start.Model); err != nil {
		log.Warn().Err(err).Msg("session rejected")
		h.closeWith(conn, websocket.ClosePolicyViolation, err.Error())
		return
	}
	// No-op once OnStop has consumed the session; cleans up every other
	// exit: read errors, protocol violations, client disconnects.
	defer h.sessions.Abort(start.ConversationID)

	log.Info().Msg("upload session opened")
	h.readLoop(r.Context(), conn, start.ConversationID, log)
}

// awaitStart reads the first frame, which must be a text start frame.
func (h *UploadHandler) awaitStart(conn *websocket.Conn) (StartFrame, error) {
	messageType, data, err := conn.ReadMessage()
	if err != nil {
		return StartFrame{}, err
	}
	if messageType != websocket.TextMessage {
		return StartFrame{}, errors.New("ws: expected start frame before audio")
	}

	frame, err := DecodeClientFrame(data)
	if err != nil {
		return StartFrame{}, err
	}
	start, ok := frame.(StartFrame)
	if !ok {
		return StartFrame{}, errors.New("ws: expected start frame")
	}
	if start.ConversationID == "" {
		return StartFrame{}, errors.New("ws: start frame missing conversationId")
	}
	return start, nil
}

func (h *UploadHandler) readLoop(ctx context.Context, conn *websocket.Conn, conversationID string, log zerolog.Logger) {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("upload connection dropped")
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			if err := h.sessions.Append(conversationID, data); err != nil {
				log.Error().Err(err).Msg("append failed")
				h.closeWith(conn, websocket.CloseInternalServerErr, "append failed")
				return
			}

		case websocket.TextMessage:
			frame, err := DecodeClientFrame(data)
			if err != nil {
				log.Debug().Err(err).Msg("bad control frame")
				h.closeWith(conn, websocket.ClosePolicyViolation, err.Error())
				return
			}
			if _, ok := frame.(StopFrame); !ok {
				h.closeWith(conn, websocket.ClosePolicyViolation, "ws: unexpected control frame")
				return
			}

			if err := h.pipeline.OnStop(ctx, conversationID); err != nil {
				log.Error().Err(err).Msg("pipeline run failed")
			}
			h.closeWith(conn, websocket.CloseNormalClosure, "")
			return
		}
	}
}

func (h *UploadHandler) closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
