package handlers

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/callsight/call-analysis/internal/controller"
	"github.com/callsight/call-analysis/internal/transcript"
)

// PlayerHandler bridges the browser audio player and transcript sync: the
// client pushes playback-time updates, the server answers with the active
// transcript segment and delivers seek commands.
type PlayerHandler struct {
	ctrl *controller.Controller
}

// NewPlayerHandler creates a new player handler.
func NewPlayerHandler(ctrl *controller.Controller) *PlayerHandler {
	return &PlayerHandler{ctrl: ctrl}
}

type playerMessage struct {
	Type     string  `json:"type"`
	Seconds  float64 `json:"seconds,omitempty"`
	Timecode string  `json:"timecode,omitempty"`
}

type activeMessage struct {
	Type    string  `json:"type"`
	Index   int     `json:"index"`
	Seconds float64 `json:"seconds"`
}

// Handle runs one player websocket connection.
func (h *PlayerHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	clock := h.ctrl.Clock()

	// Seek commands are fire-and-forget: a write failure means the player
	// is gone or cannot start, and that is silently ignored.
	var writeMu sync.Mutex
	clock.AttachSeekSink(func(seconds float64) {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = c.WriteJSON(playerMessage{Type: "seek", Seconds: seconds})
	})
	defer clock.AttachSeekSink(nil)

	lastIndex := -2
	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}

		var msg playerMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("Player sent malformed message: %v", err)
			continue
		}

		switch msg.Type {
		case "time":
			clock.Set(msg.Seconds)

			snap := h.ctrl.Snapshot()
			if snap.Session == nil {
				continue
			}

			// Only a changed active segment is pushed, so unrelated time
			// ticks do not make the transcript view flicker.
			index := transcript.ActiveIndex(snap.Session.Result.Transcript, msg.Seconds)
			if index == lastIndex {
				continue
			}
			lastIndex = index

			writeMu.Lock()
			_ = c.WriteJSON(activeMessage{Type: "active", Index: index, Seconds: msg.Seconds})
			writeMu.Unlock()

		case "seek":
			// Segment click: convert the timecode and command the player.
			clock.Seek(transcript.ParseTimecode(msg.Timecode))
		}
	}
}

// Seek is the HTTP variant of a segment click, for non-websocket clients.
func (h *PlayerHandler) Seek(c *fiber.Ctx) error {
	var msg playerMessage
	if err := c.BodyParser(&msg); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}

	h.ctrl.Clock().Seek(transcript.ParseTimecode(msg.Timecode))
	return c.SendStatus(204)
}

// Audio streams the playable resource for the bound handle.
func (h *PlayerHandler) Audio(c *fiber.Ctx) error {
	path, ok := h.ctrl.AudioPath(c.Params("id"))
	if !ok {
		return c.Status(404).JSON(fiber.Map{
			"error": "No playable audio for this id",
			"code":  "ERR_NO_AUDIO",
		})
	}
	return c.SendFile(path)
}
