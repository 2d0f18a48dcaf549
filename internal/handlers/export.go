package handlers

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/callsight/call-analysis/internal/controller"
	"github.com/callsight/call-analysis/internal/export"
	"github.com/callsight/call-analysis/internal/types"
)

// ExportHandler serves the CSV exports of an analysis.
type ExportHandler struct {
	ctrl *controller.Controller
}

// NewExportHandler creates a new export handler.
func NewExportHandler(ctrl *controller.Controller) *ExportHandler {
	return &ExportHandler{ctrl: ctrl}
}

// resolve picks the session to export: an explicit fingerprint query, or
// the currently bound one.
func (h *ExportHandler) resolve(c *fiber.Ctx) *types.Session {
	if fp := c.Query("fingerprint"); fp != "" {
		return h.ctrl.Store().Get(fp)
	}
	return h.ctrl.Snapshot().Session
}

// Transcript serves the transcript-only CSV.
func (h *ExportHandler) Transcript(c *fiber.Ctx) error {
	sess := h.resolve(c)
	if sess == nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "No session to export",
			"code":  "ERR_NO_SESSION",
		})
	}

	var buf bytes.Buffer
	if err := export.WriteTranscriptCSV(&buf, sess.Result); err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": "Export failed",
			"code":  "ERR_EXPORT_FAILED",
		})
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "transcript.csv"))
	return c.Send(buf.Bytes())
}

// Analysis serves the flattened full-analysis CSV.
func (h *ExportHandler) Analysis(c *fiber.Ctx) error {
	sess := h.resolve(c)
	if sess == nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "No session to export",
			"code":  "ERR_NO_SESSION",
		})
	}

	var buf bytes.Buffer
	if err := export.WriteAnalysisCSV(&buf, sess.Result); err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": "Export failed",
			"code":  "ERR_EXPORT_FAILED",
		})
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "analysis.csv"))
	return c.Send(buf.Bytes())
}
