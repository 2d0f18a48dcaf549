package handlers

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/callsight/call-analysis/internal/analysis"
	"github.com/callsight/call-analysis/internal/audio"
	"github.com/callsight/call-analysis/internal/controller"
)

// AnalyzeHandler accepts the call recording upload and drives the pipeline.
type AnalyzeHandler struct {
	ctrl      *controller.Controller
	tempDir   string
	maxSizeMB int
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(ctrl *controller.Controller, tempDir string, maxSizeMB int) *AnalyzeHandler {
	return &AnalyzeHandler{ctrl: ctrl, tempDir: tempDir, maxSizeMB: maxSizeMB}
}

// Handle processes the upload and runs the analysis pipeline to completion.
func (h *AnalyzeHandler) Handle(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "No file uploaded",
			"code":  "ERR_NO_FILE",
		})
	}

	maxSize := int64(h.maxSizeMB) * 1024 * 1024
	if file.Size > maxSize {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large (max %dMB)", h.maxSizeMB),
			"code":  "ERR_FILE_TOO_LARGE",
		})
	}

	if !audio.ValidFormat(file.Filename) {
		return c.Status(400).JSON(fiber.Map{
			"error": "Unsupported audio format",
			"code":  "ERR_INVALID_FORMAT",
		})
	}

	// Browsers send lastModified as unix milliseconds; it feeds the cache
	// fingerprint. Upload time is the fallback.
	modified := time.Now()
	if ms, err := strconv.ParseInt(c.FormValue("modified"), 10, 64); err == nil && ms > 0 {
		modified = time.UnixMilli(ms)
	}

	tempPath := filepath.Join(h.tempDir, fmt.Sprintf("%s%s", uuid.New().String(), filepath.Ext(file.Filename)))
	if err := c.SaveFile(file, tempPath); err != nil {
		log.Printf("Failed to save uploaded file: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to save file",
			"code":  "ERR_SAVE_FAILED",
		})
	}
	defer os.Remove(tempPath)

	err = h.ctrl.SelectFile(c.Context(), controller.FileInfo{
		Name:     file.Filename,
		Size:     file.Size,
		Modified: modified,
		Path:     tempPath,
	})
	if errors.Is(err, controller.ErrBusy) {
		return c.Status(409).JSON(fiber.Map{
			"error": "An analysis is already in progress",
			"code":  "ERR_BUSY",
		})
	}

	snap := h.ctrl.Snapshot()
	if err != nil {
		return c.Status(422).JSON(fiber.Map{
			"error": snap.Error,
			"code":  errorCode(err),
			"state": snap.State,
		})
	}

	return c.JSON(snap)
}

// errorCode classifies a pipeline failure for the response body.
func errorCode(err error) string {
	var ufe *audio.UnsupportedFormatError
	if errors.As(err, &ufe) {
		return "ERR_UNSUPPORTED_FORMAT"
	}

	var ee *audio.EncodingError
	if errors.As(err, &ee) {
		return "ERR_ENCODING"
	}

	var mre *analysis.MalformedResponseError
	if errors.As(err, &mre) {
		return "ERR_ANALYSIS_FAILED"
	}

	var pe *analysis.ProviderError
	if errors.As(err, &pe) {
		switch pe.Kind {
		case analysis.ProviderTooLarge:
			return "ERR_PROVIDER_TOO_LARGE"
		case analysis.ProviderRateLimited:
			return "ERR_PROVIDER_RATE_LIMITED"
		case analysis.ProviderUnsupportedMedia:
			return "ERR_PROVIDER_UNSUPPORTED_MEDIA"
		case analysis.ProviderContentFiltered:
			return "ERR_PROVIDER_CONTENT_FILTERED"
		}
		return "ERR_PROVIDER"
	}

	return "ERR_ANALYSIS_FAILED"
}
