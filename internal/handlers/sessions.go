package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/callsight/call-analysis/internal/controller"
	"github.com/callsight/call-analysis/internal/transcript"
)

// SessionHandler serves state, history and transcript search.
type SessionHandler struct {
	ctrl *controller.Controller
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(ctrl *controller.Controller) *SessionHandler {
	return &SessionHandler{ctrl: ctrl}
}

// State returns the current tagged state for the dashboard.
func (h *SessionHandler) State(c *fiber.Ctx) error {
	return c.JSON(h.ctrl.Snapshot())
}

// List returns recent sessions, most recent first.
func (h *SessionHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.ctrl.Store().ListRecent())
}

type loadRequest struct {
	Fingerprint string `json:"fingerprint"`
}

// Load re-binds a prior session from history.
func (h *SessionHandler) Load(c *fiber.Ctx) error {
	var req loadRequest
	if err := c.BodyParser(&req); err != nil || req.Fingerprint == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "Fingerprint is required",
			"code":  "ERR_NO_FINGERPRINT",
		})
	}

	if err := h.ctrl.LoadSession(req.Fingerprint); err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Session not found",
			"code":  "ERR_SESSION_NOT_FOUND",
		})
	}
	return c.JSON(h.ctrl.Snapshot())
}

// Reset returns the dashboard to Idle. The session cache is untouched.
func (h *SessionHandler) Reset(c *fiber.Ctx) error {
	if err := h.ctrl.Reset(); err != nil {
		return c.Status(409).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "ERR_INVALID_STATE",
		})
	}
	return c.JSON(h.ctrl.Snapshot())
}

type searchHit struct {
	Index        int               `json:"index"`
	Speaker      string            `json:"speaker"`
	Text         string            `json:"text"`
	StartTime    string            `json:"startTime"`
	EndTime      string            `json:"endTime,omitempty"`
	TextSpans    []transcript.Span `json:"textSpans,omitempty"`
	SpeakerSpans []transcript.Span `json:"speakerSpans,omitempty"`
}

// Search filters the bound transcript and marks every occurrence of the
// query for highlighting.
func (h *SessionHandler) Search(c *fiber.Ctx) error {
	snap := h.ctrl.Snapshot()
	if snap.Session == nil {
		return c.Status(409).JSON(fiber.Map{
			"error": "No analysis is currently bound",
			"code":  "ERR_NO_SESSION",
		})
	}

	query := c.Query("q")
	segments := transcript.Search(snap.Session.Result.Transcript, query)

	hits := make([]searchHit, 0, len(segments))
	for i, seg := range segments {
		hits = append(hits, searchHit{
			Index:        i,
			Speaker:      seg.Speaker,
			Text:         seg.Text,
			StartTime:    seg.StartTime,
			EndTime:      seg.EndTime,
			TextSpans:    transcript.Highlight(seg.Text, query),
			SpeakerSpans: transcript.Highlight(seg.Speaker, query),
		})
	}

	return c.JSON(fiber.Map{"query": query, "segments": hits})
}
