package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"voice-relay-service/internal/relay"
)

// TextHandler terminates the transcript subscriber channel. A subscribe
// frame joins the conversation's text topic; the connection then only
// receives relayed frames until either side closes it.
type TextHandler struct {
	registry *relay.Registry
	log      zerolog.Logger
}

// NewTextHandler creates the transcript subscriber endpoint handler.
func NewTextHandler(registry *relay.Registry, log zerolog.Logger) *TextHandler {
	return &TextHandler{
		registry: registry,
		log:      log.With().Str("component", "ws.text").Logger(),
	}
}

func (h *TextHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serveSubscriber(w, r, h.registry, relay.TopicText, h.log, func(frame ClientFrame) (string, error) {
		sub, ok := frame.(SubscribeFrame)
		if !ok {
			return "", errors.New("ws: expected subscribe frame")
		}
		return sub.ConversationID, nil
	})
}

// AudioHandler terminates the synthesized-audio subscriber channel. A start
// frame joins the conversation's audio topic; the connection then receives
// the relayed start/chunks/stop envelope for each reply.
type AudioHandler struct {
	registry *relay.Registry
	log      zerolog.Logger
}

// NewAudioHandler creates the audio subscriber endpoint handler.
func NewAudioHandler(registry *relay.Registry, log zerolog.Logger) *AudioHandler {
	return &AudioHandler{
		registry: registry,
		log:      log.With().Str("component", "ws.audio").Logger(),
	}
}

func (h *AudioHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serveSubscriber(w, r, h.registry, relay.TopicAudio, h.log, func(frame ClientFrame) (string, error) {
		start, ok := frame.(StartFrame)
		if !ok {
			return "", errors.New("ws: expected start frame")
		}
		return start.ConversationID, nil
	})
}

// serveSubscriber runs the common subscriber lifecycle: upgrade, read the
// join frame, register on the topic, acknowledge with ready, then hold the
// read side open until the client goes away. Registration is removed before
// the connection closes, so no publish can hit a dead socket for long.
func serveSubscriber(
	w http.ResponseWriter,
	r *http.Request,
	registry *relay.Registry,
	topic relay.Topic,
	log zerolog.Logger,
	join func(ClientFrame) (string, error),
) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("upgrade failed")
		return
	}
	defer conn.Close()

	conversationID, err := awaitJoin(conn, join)
	if err != nil {
		log.Debug().Err(err).Msg("subscriber rejected")
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error())
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		return
	}

	sub := newSubscriberConn(conn, defaultWriteTimeout)
	registry.Subscribe(topic, conversationID, sub)
	defer registry.Unsubscribe(topic, conversationID, sub)

	if err := sub.sendJSON(newReadyFrame(conversationID)); err != nil {
		log.Debug().Err(err).Msg("ready send failed")
		return
	}

	log.Info().Str("conversationId", conversationID).Msg("subscriber joined")

	// Drain the read side. Clients send nothing after joining; the loop
	// exists to notice the close and to answer pings.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Debug().Str("conversationId", conversationID).Msg("subscriber left")
			return
		}
	}
}

func awaitJoin(conn *websocket.Conn, join func(ClientFrame) (string, error)) (string, error) {
	messageType, data, err := conn.ReadMessage()
	if err != nil {
		return "", err
	}
	if messageType != websocket.TextMessage {
		return "", errors.New("ws: expected a text join frame")
	}

	frame, err := DecodeClientFrame(data)
	if err != nil {
		return "", err
	}
	conversationID, err := join(frame)
	if err != nil {
		return "", err
	}
	if conversationID == "" {
		return "", errors.New("ws: join frame missing conversationId")
	}
	return conversationID, nil
}
