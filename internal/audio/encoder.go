package audio

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// UnsupportedFormatError means the runtime could not decode the file to
// determine its playable duration. Recoverable: the caller returns to idle.
type UnsupportedFormatError struct {
	Path string
	Err  error
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported audio format: %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *UnsupportedFormatError) Unwrap() error { return e.Err }

// EncodingError means reading the file's bytes failed mid-encode.
type EncodingError struct {
	Path string
	Err  error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("failed to encode audio file %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// Encoded is the transport-ready form of an uploaded file.
type Encoded struct {
	Payload         string // base64 of the full binary content
	DurationSeconds float64
	DurationLabel   string // "MM:SS" or "HH:MM:SS"
}

// Encoder converts an uploaded file into the provider transport encoding
// and extracts its playable duration. The duration probe is injectable so
// tests run without ffprobe installed.
type Encoder struct {
	probe func(ctx context.Context, path string) (float64, error)
}

// NewEncoder creates an encoder backed by ffprobe for duration extraction.
func NewEncoder() *Encoder {
	return &Encoder{probe: probeDuration}
}

// NewEncoderWithProbe creates an encoder with a custom duration probe.
func NewEncoderWithProbe(probe func(ctx context.Context, path string) (float64, error)) *Encoder {
	return &Encoder{probe: probe}
}

// Encode reads the full file into a base64 payload and probes its duration.
// The two run concurrently; the call completes when both finish, and the
// first failure cancels the other.
func (e *Encoder) Encode(ctx context.Context, path string) (*Encoded, error) {
	var (
		payload  string
		duration float64
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			return &EncodingError{Path: path, Err: err}
		}
		if gctx.Err() != nil {
			return gctx.Err()
		}
		payload = base64.StdEncoding.EncodeToString(data)
		return nil
	})

	g.Go(func() error {
		d, err := e.probe(gctx, path)
		if err != nil {
			return &UnsupportedFormatError{Path: path, Err: err}
		}
		duration = d
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Encoded{
		Payload:         payload,
		DurationSeconds: duration,
		DurationLabel:   FormatDuration(duration),
	}, nil
}

// probeDuration asks ffprobe for the container duration in seconds.
func probeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %v: %s", err, strings.TrimSpace(string(output)))
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned no duration: %s", strings.TrimSpace(string(output)))
	}
	return seconds, nil
}

// FormatDuration renders seconds as "MM:SS", or "HH:MM:SS" past the hour.
func FormatDuration(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// ValidFormat checks the upload extension against the supported set.
func ValidFormat(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	supported := []string{".mp3", ".wav", ".m4a", ".ogg", ".flac", ".webm", ".aac", ".wma"}

	for _, s := range supported {
		if ext == s {
			return true
		}
	}
	return false
}

// MimeType maps an upload extension to the provider media type.
func MimeType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp3":
		return "audio/mp3"
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	case ".webm":
		return "audio/webm"
	case ".aac":
		return "audio/aac"
	default:
		return "application/octet-stream"
	}
}
