package events

import (
	"context"
	"testing"

	"voice-relay-service/internal/models"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"nil brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writer != nil {
				t.Error("expected nil writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	p := New(&Config{
		Enabled:   false,
		Brokers:   []string{"localhost:9092"},
		Topic:     "conversation.transcript.final",
		Principal: "test-principal",
	})

	if p.principal != "test-principal" {
		t.Errorf("expected principal 'test-principal', got %s", p.principal)
	}
	if p.topic != "conversation.transcript.final" {
		t.Errorf("expected topic 'conversation.transcript.final', got %s", p.topic)
	}
}

func TestPublishFinal_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	ev := models.TranscriptFinal{
		EventType:      "conversation.transcript.final",
		ConversationID: "c1",
		Text:           "hello",
	}
	if err := p.PublishFinal(context.Background(), "c1", ev); err != nil {
		t.Fatalf("disabled publish should be a logged no-op, got %v", err)
	}
}

func TestClose_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})
	if err := p.Close(); err != nil {
		t.Fatalf("Close on disabled publisher: %v", err)
	}
}
