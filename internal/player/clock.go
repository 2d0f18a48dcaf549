package player

import (
	"math"
	"sync"
	"sync/atomic"
)

// Clock holds the current playback time as pushed by the client player.
// The server never polls; the browser reports time updates over the player
// websocket and TranscriptSync consumers read the latest value.
type Clock struct {
	bits atomic.Uint64

	mu       sync.RWMutex
	seekSink func(seconds float64)
}

// NewClock creates a clock at position zero with no seek sink attached.
func NewClock() *Clock {
	return &Clock{}
}

// Set records the current playback position in seconds.
func (c *Clock) Set(seconds float64) {
	c.bits.Store(math.Float64bits(seconds))
}

// Now returns the last reported playback position in seconds.
func (c *Clock) Now() float64 {
	return math.Float64frombits(c.bits.Load())
}

// AttachSeekSink registers the function that delivers seek commands to the
// connected player. A nil sink detaches.
func (c *Clock) AttachSeekSink(sink func(seconds float64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seekSink = sink
}

// Seek asks the player to jump to the given position and resume playback.
// Fire and forget: with no player attached, or a player that cannot start
// (autoplay policy), the command is silently dropped.
func (c *Clock) Seek(seconds float64) {
	c.mu.RLock()
	sink := c.seekSink
	c.mu.RUnlock()

	if sink != nil {
		sink(seconds)
	}
}
