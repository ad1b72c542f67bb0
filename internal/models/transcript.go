// Package models defines the data structures for transcript events.
package models

// TranscriptFinal is the event emitted when a conversation's upload has
// been transcribed, for downstream persistence by the CRUD service.
type TranscriptFinal struct {
	EventType      string `json:"eventType"`
	ConversationID string `json:"conversationId"`
	Text           string `json:"text"`
	Accent         string `json:"accent"`
	Model          string `json:"model"`
	Degraded       bool   `json:"degraded"`
	Timestamp      int64  `json:"timestamp"`
}
