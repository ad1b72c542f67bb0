// Package tts defines the boundary to remote text-to-speech providers.
package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingCredential is returned on the error channel before any chunk
// when the provider needs an API key and none is configured.
var ErrMissingCredential = errors.New("tts: api key not set")

// SynthesisError reports a failed remote synthesis call.
type SynthesisError struct {
	Detail string
	Err    error
}

func (e *SynthesisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tts: %s: %v", e.Detail, e.Err)
	}
	return "tts: " + e.Detail
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// Synthesizer produces a lazy, finite, non-restartable stream of encoded
// audio chunks for the given text. The chunk channel is closed when the
// stream ends; at most one error is sent on the error channel. Empty or
// whitespace-only text yields zero chunks and no remote call.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, accent string) (<-chan []byte, <-chan error)
}

// VoiceMap resolves an accent to a provider voice identifier.
type VoiceMap struct {
	American  string
	Australia string
	British   string
	Chinese   string
	India     string
}

// Pick selects a voice by case-insensitive substring match on the accent,
// defaulting to the American voice.
func (v VoiceMap) Pick(accent string) string {
	a := strings.ToLower(accent)
	switch {
	case strings.Contains(a, "australia"):
		return v.Australia
	case strings.Contains(a, "british"):
		return v.British
	case strings.Contains(a, "chinese"):
		return v.Chinese
	case strings.Contains(a, "india"):
		return v.India
	default:
		return v.American
	}
}

// Accents lists the accent names the service accepts, in presentation order.
func Accents() []string {
	return []string{
		"American English",
		"Australia English",
		"British English",
		"Chinese English",
		"India English",
	}
}
