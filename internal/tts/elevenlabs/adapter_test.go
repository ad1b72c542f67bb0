package elevenlabs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"voice-relay-service/internal/observability/metrics"
	"voice-relay-service/internal/tts"
)

var testVoices = tts.VoiceMap{
	American:  "voice-us",
	Australia: "voice-au",
	British:   "voice-uk",
	Chinese:   "voice-cn",
	India:     "voice-in",
}

func collect(t *testing.T, chunks <-chan []byte, errs <-chan error) ([][]byte, error) {
	t.Helper()
	var got [][]byte
	for chunks != nil || errs != nil {
		select {
		case c, ok := <-chunks:
			if !ok {
				chunks = nil
				continue
			}
			got = append(got, c)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return got, err
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for synthesis stream")
		}
	}
	return got, nil
}

func TestSynthesize_EmptyText_NoRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	a := NewFree(Config{APIBase: srv.URL, APIKey: "key", Voices: testVoices}, srv.Client(), metrics.DefaultMetrics)

	for _, text := range []string{"", "   ", "\n\t"} {
		chunks, errs := a.Synthesize(context.Background(), text, "American English")
		got, err := collect(t, chunks, errs)
		if err != nil {
			t.Fatalf("blank text %q: unexpected error %v", text, err)
		}
		if len(got) != 0 {
			t.Errorf("blank text %q: expected zero chunks, got %d", text, len(got))
		}
	}
	if calls.Load() != 0 {
		t.Errorf("expected no HTTP calls for blank text, got %d", calls.Load())
	}
}

func TestSynthesize_MissingCredential(t *testing.T) {
	a := NewFree(Config{APIBase: "http://unused", Voices: testVoices}, nil, metrics.DefaultMetrics)

	chunks, errs := a.Synthesize(context.Background(), "hello", "American English")
	got, err := collect(t, chunks, errs)
	if !errors.Is(err, tts.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected zero chunks before credential error, got %d", len(got))
	}
}

func TestSynthesize_StreamContract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/text-to-speech/voice-uk/stream") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("optimize_streaming_latency"); got != "2" {
			t.Errorf("optimize_streaming_latency = %q", got)
		}
		if got := r.Header.Get("xi-api-key"); got != "key" {
			t.Errorf("xi-api-key = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "audio/mpeg" {
			t.Errorf("accept = %q", got)
		}

		var req synthRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Text != "hello there" {
			t.Errorf("text = %q", req.Text)
		}
		if req.ModelID != "eleven_monolingual_v1" {
			t.Errorf("model_id = %q", req.ModelID)
		}

		w.Header().Set("Content-Type", "audio/mpeg")
		flusher := w.(http.Flusher)
		for _, part := range []string{"aaa", "bbb", "ccc"} {
			w.Write([]byte(part))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	a := NewFree(Config{APIBase: srv.URL, APIKey: "key", Voices: testVoices}, srv.Client(), metrics.DefaultMetrics)

	chunks, errs := a.Synthesize(context.Background(), "hello there", "British English")
	got, err := collect(t, chunks, errs)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	var all []byte
	for _, c := range got {
		all = append(all, c...)
	}
	if string(all) != "aaabbbccc" {
		t.Errorf("reassembled stream = %q", all)
	}
}

func TestSynthesize_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "voice not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	a := NewPaid(Config{APIBase: srv.URL, APIKey: "key", Voices: testVoices}, srv.Client(), metrics.DefaultMetrics)

	chunks, errs := a.Synthesize(context.Background(), "hello", "American English")
	got, err := collect(t, chunks, errs)
	if err == nil {
		t.Fatal("expected error on non-2xx response")
	}
	var serr *tts.SynthesisError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *tts.SynthesisError, got %T", err)
	}
	if len(got) != 0 {
		t.Errorf("expected zero chunks on failure, got %d", len(got))
	}
}

func TestVoiceMap_Pick(t *testing.T) {
	tests := []struct {
		accent string
		want   string
	}{
		{"American English", "voice-us"},
		{"Australia English", "voice-au"},
		{"australia", "voice-au"},
		{"BRITISH english", "voice-uk"},
		{"Chinese English", "voice-cn"},
		{"India English", "voice-in"},
		{"", "voice-us"},
		{"Klingon", "voice-us"},
	}
	for _, tt := range tests {
		if got := testVoices.Pick(tt.accent); got != tt.want {
			t.Errorf("Pick(%q) = %q, want %q", tt.accent, got, tt.want)
		}
	}
}
