package session

import (
	"fmt"
	"time"
)

// SchemaVersion tags fingerprints so a change to the result shape
// invalidates previously cached entries.
const SchemaVersion = 2

// Fingerprint derives the cache key for an upload from its name, byte size
// and last-modified time. Not a content hash: two different files with
// identical metadata collide, which is an accepted limitation.
func Fingerprint(name string, size int64, modified time.Time) string {
	return fmt.Sprintf("%s|%d|%d|v%d", name, size, modified.UnixMilli(), SchemaVersion)
}
