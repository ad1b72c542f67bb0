// Package elevenlabs provides a streaming ElevenLabs-compatible synthesis
// adapter.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voice-relay-service/internal/observability/metrics"
	"voice-relay-service/internal/tts"
)

// Tier selects the synthesis quality tier. Free and paid currently share
// one implementation; the split keeps the orchestrator stable when they
// diverge.
type Tier string

const (
	TierFree Tier = "free"
	TierPaid Tier = "paid"
)

// Config holds the endpoint settings for the synthesis API.
type Config struct {
	APIBase string // e.g. https://api.elevenlabs.io/v1
	APIKey  string
	Voices  tts.VoiceMap
}

// Adapter implements tts.Synthesizer against the ElevenLabs streaming
// endpoint.
type Adapter struct {
	cfg     Config
	tier    Tier
	client  *http.Client
	metrics *metrics.Metrics
}

// NewFree creates the free-tier adapter.
func NewFree(cfg Config, client *http.Client, m *metrics.Metrics) *Adapter {
	return newAdapter(cfg, TierFree, client, m)
}

// NewPaid creates the paid-tier adapter.
func NewPaid(cfg Config, client *http.Client, m *metrics.Metrics) *Adapter {
	return newAdapter(cfg, TierPaid, client, m)
}

func newAdapter(cfg Config, tier Tier, client *http.Client, m *metrics.Metrics) *Adapter {
	if client == nil {
		client = &http.Client{}
	}
	return &Adapter{cfg: cfg, tier: tier, client: client, metrics: m}
}

type synthRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize streams encoded MPEG audio for text, voiced per accent.
// The returned channels follow the tts.Synthesizer contract: chunks closed
// on completion, at most one error, zero chunks for blank text.
func (a *Adapter) Synthesize(ctx context.Context, text, accent string) (<-chan []byte, <-chan error) {
	chunks := make(chan []byte)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		if strings.TrimSpace(text) == "" {
			return
		}
		if a.cfg.APIKey == "" {
			errs <- tts.ErrMissingCredential
			return
		}

		voiceID := a.cfg.Voices.Pick(accent)
		url := fmt.Sprintf("%s/text-to-speech/%s/stream?optimize_streaming_latency=2",
			strings.TrimRight(a.cfg.APIBase, "/"), voiceID)

		payload, err := json.Marshal(synthRequest{
			Text:    text,
			ModelID: "eleven_monolingual_v1",
			VoiceSettings: voiceSettings{
				Stability:       0.4,
				SimilarityBoost: 0.7,
			},
		})
		if err != nil {
			errs <- &tts.SynthesisError{Detail: "encode request", Err: err}
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			errs <- &tts.SynthesisError{Detail: "build request", Err: err}
			return
		}
		req.Header.Set("xi-api-key", a.cfg.APIKey)
		req.Header.Set("Accept", "audio/mpeg")
		req.Header.Set("Content-Type", "application/json")

		start := time.Now()
		resp, err := a.client.Do(req)
		if err != nil {
			errs <- &tts.SynthesisError{Detail: "request failed", Err: err}
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			errs <- &tts.SynthesisError{
				Detail: fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))),
			}
			return
		}

		buf := make([]byte, 32*1024)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case chunks <- chunk:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				errs <- &tts.SynthesisError{Detail: "read stream", Err: err}
				return
			}
		}
		a.metrics.RecordTTSLatency(time.Since(start).Seconds())
	}()

	return chunks, errs
}
