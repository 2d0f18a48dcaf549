package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/callsight/call-analysis/internal/types"
)

// DriveClient uploads completed analyses to Google Drive. Optional
// collaborator: when construction fails the app keeps running with local
// persistence only, and upload failures surface as dismissible warnings
// rather than aborting the pipeline.
type DriveClient struct {
	service    *drive.Service
	folderName string
	folderID   string
}

// NewDriveClient builds a Drive client from stored OAuth credentials. A
// missing or expired token is an error here, not a fatal condition for the
// caller.
func NewDriveClient(credentialsFile, tokenFile, folderName string) (*DriveClient, error) {
	ctx := context.Background()

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.ConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("no stored OAuth token (run the authorization flow first): %v", err)
	}
	client := config.Client(ctx, tok)

	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive service: %v", err)
	}

	dc := &DriveClient{service: srv, folderName: folderName}
	if err := dc.ensureFolder(); err != nil {
		return nil, err
	}
	return dc, nil
}

// tokenFromFile retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// ensureFolder finds or creates the root folder.
func (dc *DriveClient) ensureFolder() error {
	query := fmt.Sprintf("name='%s' and mimeType='application/vnd.google-apps.folder' and trashed=false",
		dc.folderName)

	r, err := dc.service.Files.List().Q(query).Spaces("drive").Fields("files(id, name)").Do()
	if err != nil {
		return fmt.Errorf("unable to search for folder: %v", err)
	}

	if len(r.Files) > 0 {
		dc.folderID = r.Files[0].Id
		return nil
	}

	folder := &drive.File{
		Name:     dc.folderName,
		MimeType: "application/vnd.google-apps.folder",
	}
	file, err := dc.service.Files.Create(folder).Fields("id").Do()
	if err != nil {
		return fmt.Errorf("unable to create folder: %v", err)
	}
	dc.folderID = file.Id
	return nil
}

// Upload stores the analysis record and the source audio in a dated Drive
// folder and returns a shareable link to the record.
func (dc *DriveClient) Upload(sess *types.Session, audioSrcPath string, audioMime string) (string, error) {
	now := time.Now()
	folderID, err := dc.ensureDateFolder(now)
	if err != nil {
		return "", err
	}

	base := fmt.Sprintf("%s_%s", now.Format("20060102_150405"), sanitizeFilename(sess.FileName))

	record := map[string]interface{}{
		"session_id":     sess.ID,
		"fingerprint":    sess.Fingerprint,
		"file_name":      sess.FileName,
		"duration_label": sess.DurationLabel,
		"created_at":     sess.CreatedAt,
		"analysis":       sess.Result,
	}
	recordJSON, _ := json.MarshalIndent(record, "", "  ")

	jsonFile := &drive.File{
		Name:    base + "_analysis.json",
		Parents: []string{folderID},
	}
	createdRecord, err := dc.service.Files.Create(jsonFile).
		Media(bytes.NewReader(recordJSON)).Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload analysis record: %v", err)
	}

	audio, err := os.Open(audioSrcPath)
	if err != nil {
		return "", fmt.Errorf("failed to open audio for upload: %v", err)
	}
	defer audio.Close()

	audioFile := &drive.File{
		Name:     base + "_audio",
		Parents:  []string{folderID},
		MimeType: audioMime,
	}
	_, err = dc.service.Files.Create(audioFile).Media(audio).Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload audio: %v", err)
	}

	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", createdRecord.Id), nil
}

// ensureDateFolder creates nested year/month/day folders.
func (dc *DriveClient) ensureDateFolder(t time.Time) (string, error) {
	yearID, err := dc.findOrCreateFolder(fmt.Sprintf("%d", t.Year()), dc.folderID)
	if err != nil {
		return "", err
	}

	monthID, err := dc.findOrCreateFolder(fmt.Sprintf("%02d", t.Month()), yearID)
	if err != nil {
		return "", err
	}

	return dc.findOrCreateFolder(fmt.Sprintf("%02d", t.Day()), monthID)
}

// findOrCreateFolder finds or creates a folder with the given parent.
func (dc *DriveClient) findOrCreateFolder(name, parentID string) (string, error) {
	query := fmt.Sprintf("name='%s' and '%s' in parents and mimeType='application/vnd.google-apps.folder' and trashed=false",
		name, parentID)

	r, err := dc.service.Files.List().Q(query).Spaces("drive").Fields("files(id)").Do()
	if err != nil {
		return "", err
	}
	if len(r.Files) > 0 {
		return r.Files[0].Id, nil
	}

	folder := &drive.File{
		Name:     name,
		MimeType: "application/vnd.google-apps.folder",
		Parents:  []string{parentID},
	}
	file, err := dc.service.Files.Create(folder).Fields("id").Do()
	if err != nil {
		return "", err
	}
	return file.Id, nil
}
