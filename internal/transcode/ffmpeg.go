// Package transcode normalizes uploaded audio for transcription by shelling
// out to ffmpeg.
package transcode

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Error reports a failed or rejected transcode.
type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcode: %s: %v", e.Detail, e.Err)
	}
	return "transcode: " + e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

// Transcoder converts an uploaded audio file into single-channel 16 kHz
// linear PCM WAV. The caller owns deleting both the input and output paths.
type Transcoder interface {
	ToWAV16kMono(ctx context.Context, srcPath string) (string, error)
}

// FFmpeg runs the ffmpeg binary.
type FFmpeg struct {
	binary string
}

// NewFFmpeg creates a transcoder using the given ffmpeg binary path
// ("ffmpeg" resolves via PATH).
func NewFFmpeg(binary string) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{binary: binary}
}

// ToWAV16kMono converts srcPath into a new temporary WAV file and returns
// its path. Empty input is rejected before ffmpeg runs.
func (f *FFmpeg) ToWAV16kMono(ctx context.Context, srcPath string) (string, error) {
	info, err := os.Stat(srcPath)
	if err != nil {
		return "", &Error{Detail: "stat input", Err: err}
	}
	if info.Size() == 0 {
		return "", &Error{Detail: "empty input audio"}
	}

	out, err := os.CreateTemp("", "normalized_*.wav")
	if err != nil {
		return "", &Error{Detail: "create output file", Err: err}
	}
	outPath := out.Name()
	out.Close()

	cmd := exec.CommandContext(ctx, f.binary,
		"-i", srcPath,
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		"-y", outPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(outPath)
		detail := strings.TrimSpace(stderr.String())
		if len(detail) > 512 {
			detail = detail[len(detail)-512:]
		}
		if detail == "" {
			detail = "ffmpeg failed"
		}
		return "", &Error{Detail: detail, Err: err}
	}

	return outPath, nil
}
