package audio

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeTempAudio(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write temp audio: %v", err)
	}
	return path
}

func TestEncodeProducesFullBase64Payload(t *testing.T) {
	data := []byte("RIFF....WAVEfmt fake audio bytes")
	path := writeTempAudio(t, "call.wav", data)

	enc := NewEncoderWithProbe(func(ctx context.Context, p string) (float64, error) {
		return 330, nil
	})

	got, err := enc.Encode(context.Background(), path)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if got.Payload != base64.StdEncoding.EncodeToString(data) {
		t.Error("payload is not the base64 of the full file content")
	}
	if got.DurationSeconds != 330 {
		t.Errorf("duration = %v, want 330", got.DurationSeconds)
	}
	if got.DurationLabel != "05:30" {
		t.Errorf("duration label = %q, want 05:30", got.DurationLabel)
	}
}

func TestEncodeProbeFailure(t *testing.T) {
	path := writeTempAudio(t, "notes.wav", []byte("this is actually a text file"))

	enc := NewEncoderWithProbe(func(ctx context.Context, p string) (float64, error) {
		return 0, fmt.Errorf("no decodable stream")
	})

	_, err := enc.Encode(context.Background(), path)
	var ufe *UnsupportedFormatError
	if !errors.As(err, &ufe) {
		t.Fatalf("err = %v, want UnsupportedFormatError", err)
	}
}

func TestEncodeMissingFile(t *testing.T) {
	enc := NewEncoderWithProbe(func(ctx context.Context, p string) (float64, error) {
		return 10, nil
	})

	_, err := enc.Encode(context.Background(), filepath.Join(t.TempDir(), "gone.mp3"))
	var ee *EncodingError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want EncodingError", err)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "00:00"},
		{59, "00:59"},
		{330, "05:30"},
		{3723, "1:02:03"},
		{3600, "1:00:00"},
		{125.8, "02:05"},
	}

	for _, c := range cases {
		if got := FormatDuration(c.in); got != c.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestValidFormat(t *testing.T) {
	valid := []string{"call.wav", "call.MP3", "demo.m4a", "x.flac"}
	for _, name := range valid {
		if !ValidFormat(name) {
			t.Errorf("ValidFormat(%q) = false, want true", name)
		}
	}

	invalid := []string{"call.txt", "call", "call.pdf"}
	for _, name := range invalid {
		if ValidFormat(name) {
			t.Errorf("ValidFormat(%q) = true, want false", name)
		}
	}
}

func TestMimeType(t *testing.T) {
	if got := MimeType("call.wav"); got != "audio/wav" {
		t.Errorf("MimeType(call.wav) = %q", got)
	}
	if got := MimeType("call.bin"); got != "application/octet-stream" {
		t.Errorf("MimeType(call.bin) = %q", got)
	}
}
