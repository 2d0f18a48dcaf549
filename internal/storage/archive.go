package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/callsight/call-analysis/internal/types"
)

// Archive writes every completed analysis to local disk: the result JSON
// plus a copy of the source audio. The audio copy is what a later
// load-from-history recreates its playable handle from.
type Archive struct {
	outputDir string
}

// NewArchive creates a local archive rooted at outputDir.
func NewArchive(outputDir string) *Archive {
	return &Archive{outputDir: outputDir}
}

// Save stores the session result and audio under a dated directory and
// returns the archived audio path.
func (a *Archive) Save(sess *types.Session, audioSrcPath string) (string, error) {
	now := time.Now()
	dateDir := filepath.Join(a.outputDir,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()))

	if err := os.MkdirAll(dateDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create date directory: %v", err)
	}

	base := fmt.Sprintf("%s_%s", now.Format("20060102_150405"), sanitizeFilename(sess.FileName))
	jsonPath := filepath.Join(dateDir, base+"_analysis.json")
	audioPath := filepath.Join(dateDir, base+filepath.Ext(sess.FileName))

	record := map[string]interface{}{
		"session_id":     sess.ID,
		"fingerprint":    sess.Fingerprint,
		"file_name":      sess.FileName,
		"duration_label": sess.DurationLabel,
		"created_at":     sess.CreatedAt,
		"analysis":       sess.Result,
	}

	recordJSON, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal analysis record: %v", err)
	}
	if err := os.WriteFile(jsonPath, recordJSON, 0644); err != nil {
		return "", fmt.Errorf("failed to save analysis record: %v", err)
	}

	if err := copyFile(audioSrcPath, audioPath); err != nil {
		return "", fmt.Errorf("failed to archive audio: %v", err)
	}

	return audioPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// sanitizeFilename strips path separators and caps the length.
func sanitizeFilename(name string) string {
	result := filepath.Base(name)
	result = strings.TrimSuffix(result, filepath.Ext(result))
	invalid := []string{":", "*", "?", "\"", "<", ">", "|", " "}
	for _, ch := range invalid {
		result = strings.ReplaceAll(result, ch, "_")
	}
	if len(result) > 100 {
		result = result[:100]
	}
	return result
}
