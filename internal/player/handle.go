package player

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Handle is the playable-audio resource for the currently bound file: a
// copy in the temp dir served to the browser player. Exclusively owned by
// the controller, which must release it exactly once on every path that
// discards it.
type Handle struct {
	id       string
	path     string
	once     sync.Once
	released bool
}

// NewHandle copies the source file into tempDir under a fresh id so the
// audio stays previewable even after the upload's own temp file is gone.
func NewHandle(srcPath, tempDir string) (*Handle, error) {
	id := uuid.New().String()
	dst := filepath.Join(tempDir, fmt.Sprintf("play_%s%s", id, filepath.Ext(srcPath)))

	src, err := os.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open source audio: %v", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("failed to create playable copy: %v", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dst)
		return nil, fmt.Errorf("failed to copy audio: %v", err)
	}

	return &Handle{id: id, path: dst}, nil
}

// ID returns the handle id used in the /audio/:id URL.
func (h *Handle) ID() string { return h.id }

// Path returns the playable file's location on disk.
func (h *Handle) Path() string { return h.path }

// URL returns the route the player loads the audio from.
func (h *Handle) URL() string { return "/audio/" + h.id }

// Release frees the playable resource. Safe to call more than once; only
// the first call removes the file.
func (h *Handle) Release() {
	h.once.Do(func() {
		h.released = true
		if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to remove playable file %s: %v", h.path, err)
		}
	})
}

// Released reports whether Release has run.
func (h *Handle) Released() bool { return h.released }
