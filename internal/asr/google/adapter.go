// Package google provides a Google Cloud Speech-to-Text adapter.
package google

import (
	"context"
	"os"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"voice-relay-service/internal/asr"
	"voice-relay-service/internal/observability/metrics"
)

// Config holds recognition settings.
type Config struct {
	LanguageCode string
	SampleRateHz int
}

// Adapter implements asr.Transcriber using Google Cloud Speech-to-Text.
// Requires GOOGLE_APPLICATION_CREDENTIALS to be set.
type Adapter struct {
	client  *speech.Client
	cfg     Config
	metrics *metrics.Metrics
}

// New creates a Google STT adapter.
func New(ctx context.Context, cfg Config, m *metrics.Metrics) (*Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, &asr.TranscriptionError{Provider: "google", Detail: "create client", Err: err}
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	if cfg.SampleRateHz == 0 {
		cfg.SampleRateHz = 16000
	}
	return &Adapter{client: c, cfg: cfg, metrics: m}, nil
}

// Transcribe runs a one-shot recognition over the normalized WAV upload.
func (a *Adapter) Transcribe(ctx context.Context, wavPath string) (string, error) {
	audio, err := os.ReadFile(wavPath)
	if err != nil {
		return "", &asr.TranscriptionError{Provider: "google", Detail: "read audio", Err: err}
	}

	start := time.Now()
	resp, err := a.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: int32(a.cfg.SampleRateHz),
			LanguageCode:    a.cfg.LanguageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", &asr.TranscriptionError{Provider: "google", Detail: "recognize", Err: err}
	}
	a.metrics.RecordASRLatency("google", time.Since(start).Seconds())

	parts := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		parts = append(parts, r.Alternatives[0].Transcript)
	}
	return strings.TrimSpace(strings.Join(parts, " ")), nil
}

// Close releases the underlying client.
func (a *Adapter) Close() error {
	return a.client.Close()
}
