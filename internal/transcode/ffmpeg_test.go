package transcode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestToWAV16kMono_MissingInput(t *testing.T) {
	f := NewFFmpeg("ffmpeg")

	_, err := f.ToWAV16kMono(context.Background(), filepath.Join(t.TempDir(), "nope.webm"))
	if err == nil {
		t.Fatal("expected error for missing input")
	}
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("expected *transcode.Error, got %T", err)
	}
}

func TestToWAV16kMono_EmptyInput(t *testing.T) {
	f := NewFFmpeg("ffmpeg")

	src := filepath.Join(t.TempDir(), "empty.webm")
	if err := os.WriteFile(src, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := f.ToWAV16kMono(context.Background(), src)
	if err == nil {
		t.Fatal("expected error for empty input")
	}
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("expected *transcode.Error, got %T", err)
	}
}

func TestToWAV16kMono_BadBinary(t *testing.T) {
	f := NewFFmpeg(filepath.Join(t.TempDir(), "no-such-ffmpeg"))

	src := filepath.Join(t.TempDir(), "in.webm")
	if err := os.WriteFile(src, []byte("not really audio"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := f.ToWAV16kMono(context.Background(), src)
	if err == nil {
		t.Fatal("expected error when ffmpeg binary is missing")
	}
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("expected *transcode.Error, got %T", err)
	}
}
