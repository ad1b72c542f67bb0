// Package mock provides a scripted synthesis adapter for development and
// tests.
package mock

import (
	"context"
	"strings"
)

// Adapter implements tts.Synthesizer by replaying a fixed chunk script.
type Adapter struct {
	script [][]byte
	err    error
}

// New creates a mock synthesizer that emits the given chunks.
func New(chunks ...[]byte) *Adapter {
	return &Adapter{script: chunks}
}

// NewFailing creates a mock synthesizer that emits its chunks and then the
// given error, for exercising degraded pipeline paths.
func NewFailing(err error, chunks ...[]byte) *Adapter {
	return &Adapter{script: chunks, err: err}
}

// Synthesize replays the script. Blank text yields zero chunks, matching
// the real adapters.
func (a *Adapter) Synthesize(ctx context.Context, text, accent string) (<-chan []byte, <-chan error) {
	chunks := make(chan []byte)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		if strings.TrimSpace(text) == "" {
			return
		}
		for _, c := range a.script {
			select {
			case chunks <- c:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if a.err != nil {
			errs <- a.err
		}
	}()

	return chunks, errs
}
