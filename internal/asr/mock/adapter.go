// Package mock provides a canned transcription adapter for development and
// tests, usable without any cloud credentials.
package mock

import (
	"context"
	"sync"
)

// DefaultTranscripts are cycled through by successive calls.
var DefaultTranscripts = []string{
	"I want to cancel my subscription",
	"Yes please go ahead",
	"Can you help me with my account",
	"I've been waiting for over an hour",
	"Thank you very much",
}

// Adapter implements asr.Transcriber with canned responses.
type Adapter struct {
	mu          sync.Mutex
	transcripts []string
	next        int
}

// New creates a mock adapter cycling through the default transcripts.
func New() *Adapter {
	return &Adapter{transcripts: DefaultTranscripts}
}

// NewWithTranscripts creates a mock adapter with a fixed script.
func NewWithTranscripts(transcripts []string) *Adapter {
	return &Adapter{transcripts: transcripts}
}

// Transcribe ignores the audio and returns the next canned transcript.
func (a *Adapter) Transcribe(ctx context.Context, wavPath string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.transcripts) == 0 {
		return "", nil
	}
	text := a.transcripts[a.next%len(a.transcripts)]
	a.next++
	return text, nil
}
