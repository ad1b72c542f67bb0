// Package whisper provides a Whisper-compatible HTTP transcription adapter.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"time"

	"voice-relay-service/internal/asr"
	"voice-relay-service/internal/observability/metrics"
)

// Config holds the endpoint settings for the transcription API.
type Config struct {
	URL    string // e.g. https://api.openai.com/v1/audio/transcriptions
	Model  string // e.g. whisper-1
	APIKey string
}

// Adapter implements asr.Transcriber against a Whisper-style multipart
// endpoint with bearer-token auth.
type Adapter struct {
	cfg     Config
	client  *http.Client
	metrics *metrics.Metrics
}

// New creates a whisper adapter. A nil client uses a default with no
// overall timeout; callers bound requests through the context.
func New(cfg Config, client *http.Client, m *metrics.Metrics) *Adapter {
	if client == nil {
		client = &http.Client{}
	}
	return &Adapter{cfg: cfg, client: client, metrics: m}
}

// Transcribe POSTs the WAV file as multipart/form-data and returns the
// trimmed `text` field of the JSON response.
func (a *Adapter) Transcribe(ctx context.Context, wavPath string) (string, error) {
	if a.cfg.APIKey == "" {
		return "", asr.ErrMissingCredential
	}

	f, err := os.Open(wavPath)
	if err != nil {
		return "", &asr.TranscriptionError{Provider: "whisper", Detail: "open audio", Err: err}
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("model", a.cfg.Model); err != nil {
		return "", &asr.TranscriptionError{Provider: "whisper", Detail: "build form", Err: err}
	}
	if err := mw.WriteField("response_format", "verbose_json"); err != nil {
		return "", &asr.TranscriptionError{Provider: "whisper", Detail: "build form", Err: err}
	}
	part, err := createAudioPart(mw)
	if err != nil {
		return "", &asr.TranscriptionError{Provider: "whisper", Detail: "build form", Err: err}
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", &asr.TranscriptionError{Provider: "whisper", Detail: "copy audio", Err: err}
	}
	if err := mw.Close(); err != nil {
		return "", &asr.TranscriptionError{Provider: "whisper", Detail: "finish form", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.URL, &body)
	if err != nil {
		return "", &asr.TranscriptionError{Provider: "whisper", Detail: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return "", &asr.TranscriptionError{Provider: "whisper", Detail: "request failed", Err: err}
	}
	defer resp.Body.Close()
	a.metrics.RecordASRLatency("whisper", time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &asr.TranscriptionError{
			Provider: "whisper",
			Detail:   fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))),
		}
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &asr.TranscriptionError{Provider: "whisper", Detail: "decode response", Err: err}
	}
	return strings.TrimSpace(out.Text), nil
}

// createAudioPart writes the file part with an explicit audio/wav content
// type; multipart.CreateFormFile would hardcode application/octet-stream.
func createAudioPart(mw *multipart.Writer) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="audio.wav"`)
	h.Set("Content-Type", "audio/wav")
	return mw.CreatePart(h)
}
