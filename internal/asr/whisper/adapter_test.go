package whisper

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"voice-relay-service/internal/asr"
	"voice-relay-service/internal/observability/metrics"
)

func writeTestWAV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, []byte("RIFFfakewavdata"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranscribe_MissingCredential(t *testing.T) {
	a := New(Config{URL: "http://unused", Model: "whisper-1"}, nil, metrics.DefaultMetrics)

	_, err := a.Transcribe(context.Background(), writeTestWAV(t))
	if !errors.Is(err, asr.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestTranscribe_MultipartContract(t *testing.T) {
	wavPath := writeTestWAV(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model field = %q", got)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format field = %q", got)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("file field: %v", err)
		}
		defer file.Close()
		if header.Filename != "audio.wav" {
			t.Errorf("filename = %q", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "audio/wav" {
			t.Errorf("file content type = %q", ct)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "RIFFfakewavdata" {
			t.Errorf("file payload = %q", data)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "  hello world \n", "duration": 1.5}`))
	}))
	defer srv.Close()

	a := New(Config{URL: srv.URL, Model: "whisper-1", APIKey: "sk-test"}, srv.Client(), metrics.DefaultMetrics)

	text, err := a.Transcribe(context.Background(), wavPath)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "hello world" {
		t.Errorf("expected trimmed transcript, got %q", text)
	}
}

func TestTranscribe_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := New(Config{URL: srv.URL, Model: "whisper-1", APIKey: "sk-test"}, srv.Client(), metrics.DefaultMetrics)

	_, err := a.Transcribe(context.Background(), writeTestWAV(t))
	if err == nil {
		t.Fatal("expected error on non-2xx response")
	}
	var terr *asr.TranscriptionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *asr.TranscriptionError, got %T", err)
	}
	if terr.Provider != "whisper" {
		t.Errorf("provider = %q", terr.Provider)
	}
}

func TestTranscribe_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	a := New(Config{URL: srv.URL, Model: "whisper-1", APIKey: "sk-test"}, nil, metrics.DefaultMetrics)

	_, err := a.Transcribe(context.Background(), writeTestWAV(t))
	var terr *asr.TranscriptionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *asr.TranscriptionError, got %v", err)
	}
}
