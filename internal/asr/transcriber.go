// Package asr defines the boundary to remote speech-to-text providers.
package asr

import (
	"context"
	"errors"
	"fmt"
)

// ErrMissingCredential is returned when the provider needs an API key and
// none is configured.
var ErrMissingCredential = errors.New("asr: api key not set")

// TranscriptionError reports a failed remote transcription call.
type TranscriptionError struct {
	Provider string
	Detail   string
	Err      error
}

func (e *TranscriptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("asr %s: %s: %v", e.Provider, e.Detail, e.Err)
	}
	return fmt.Sprintf("asr %s: %s", e.Provider, e.Detail)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// Transcriber turns a normalized WAV file into text.
type Transcriber interface {
	// Transcribe uploads the audio at wavPath and returns the transcript.
	Transcribe(ctx context.Context, wavPath string) (string, error)
}
