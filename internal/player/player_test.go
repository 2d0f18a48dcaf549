package player

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHandleCopiesSourceAndReleasesOnce(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "call.wav")
	if err := os.WriteFile(src, []byte("audio bytes"), 0644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	h, err := NewHandle(src, dir)
	if err != nil {
		t.Fatalf("NewHandle: %v", err)
	}

	data, err := os.ReadFile(h.Path())
	if err != nil {
		t.Fatalf("playable copy unreadable: %v", err)
	}
	if string(data) != "audio bytes" {
		t.Error("playable copy does not match source content")
	}
	if h.URL() != "/audio/"+h.ID() {
		t.Errorf("URL = %q", h.URL())
	}

	h.Release()
	if !h.Released() {
		t.Error("handle not marked released")
	}
	if _, err := os.Stat(h.Path()); !os.IsNotExist(err) {
		t.Error("playable file still on disk after release")
	}

	// Second release is a no-op, not a failure.
	h.Release()
}

func TestHandleMissingSource(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewHandle(filepath.Join(dir, "gone.wav"), dir); err == nil {
		t.Error("expected error for missing source file")
	}
}

func TestClockSetAndNow(t *testing.T) {
	c := NewClock()
	if c.Now() != 0 {
		t.Errorf("new clock at %v, want 0", c.Now())
	}

	c.Set(12.5)
	if c.Now() != 12.5 {
		t.Errorf("Now() = %v, want 12.5", c.Now())
	}
}

func TestClockSeekDelivery(t *testing.T) {
	c := NewClock()

	// No sink attached: must not panic.
	c.Seek(30)

	var got float64
	c.AttachSeekSink(func(seconds float64) { got = seconds })
	c.Seek(90)
	if got != 90 {
		t.Errorf("seek sink received %v, want 90", got)
	}

	c.AttachSeekSink(nil)
	c.Seek(120)
	if got != 90 {
		t.Error("detached sink still received a seek")
	}
}
