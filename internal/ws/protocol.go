// Package ws exposes the websocket endpoints: the upload channel feeding
// ingestion and the text/audio subscriber channels fed by the relay.
package ws

import (
	"encoding/json"
	"fmt"
)

// ClientFrame is a decoded client-to-server control frame. Frames are
// parsed once at the connection boundary into typed values; handlers never
// dispatch on raw JSON.
type ClientFrame interface {
	isClientFrame()
}

// StartFrame begins an ingestion session on the upload channel, or joins
// the audio topic on the audio subscriber channel.
type StartFrame struct {
	ConversationID string
	Accent         string
	Model          string
}

// StopFrame finalizes the upload and triggers the pipeline.
type StopFrame struct{}

// SubscribeFrame joins the text topic.
type SubscribeFrame struct {
	ConversationID string
}

func (StartFrame) isClientFrame()     {}
func (StopFrame) isClientFrame()      {}
func (SubscribeFrame) isClientFrame() {}

type rawFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
	Accent         string `json:"accent"`
	Model          string `json:"model"`
}

// DecodeClientFrame parses one JSON text frame.
func DecodeClientFrame(data []byte) (ClientFrame, error) {
	var raw rawFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ws: invalid frame: %w", err)
	}

	switch raw.Type {
	case "start":
		return StartFrame{
			ConversationID: raw.ConversationID,
			Accent:         raw.Accent,
			Model:          raw.Model,
		}, nil
	case "stop":
		return StopFrame{}, nil
	case "subscribe":
		return SubscribeFrame{ConversationID: raw.ConversationID}, nil
	default:
		return nil, fmt.Errorf("ws: unknown frame type %q", raw.Type)
	}
}

// readyFrame acknowledges a subscription.
type readyFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
}

func newReadyFrame(conversationID string) readyFrame {
	return readyFrame{Type: "ready", ConversationID: conversationID}
}
