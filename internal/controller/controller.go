package controller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/callsight/call-analysis/internal/audio"
	"github.com/callsight/call-analysis/internal/player"
	"github.com/callsight/call-analysis/internal/session"
	"github.com/callsight/call-analysis/internal/types"
)

// ErrBusy is returned when a file is selected while a pipeline is already
// in flight. The caller simply ignores the event.
var ErrBusy = errors.New("an analysis is already in progress")

// FileInfo describes a selected upload. Modified comes from the client
// (browser lastModified) since multipart carries no mtime.
type FileInfo struct {
	Name     string
	Size     int64
	Modified time.Time
	Path     string // temp location of the uploaded bytes
}

// AudioEncoder produces the transport payload and duration for a file.
type AudioEncoder interface {
	Encode(ctx context.Context, path string) (*audio.Encoded, error)
}

// Analyzer runs one remote analysis call.
type Analyzer interface {
	Analyze(ctx context.Context, payload, mimeType string) (*types.AnalysisResult, error)
}

// Archiver persists the result and audio locally.
type Archiver interface {
	Save(sess *types.Session, audioSrcPath string) (string, error)
}

// BlobUploader persists the result and audio to the optional remote store.
type BlobUploader interface {
	Upload(sess *types.Session, audioSrcPath, audioMime string) (string, error)
}

// Recorder persists session metadata to the optional database.
type Recorder interface {
	Insert(sess *types.Session) error
}

// Snapshot is the single typed state-plus-data value the presentation
// layer consumes. Exactly one of Session/Error is meaningful per state.
type Snapshot struct {
	State   string         `json:"state"`
	Session *types.Session `json:"session,omitempty"`
	Error   string         `json:"error,omitempty"`
	Warning string         `json:"warning,omitempty"`
}

// Config wires a controller's collaborators. Archive, Drive and Records
// are optional; when nil the pipeline runs in-memory only.
type Config struct {
	Store         *session.Store
	Encoder       AudioEncoder
	Analyzer      Analyzer
	Archive       Archiver
	Drive         BlobUploader
	Records       Recorder
	TempDir       string
	CacheHitDelay time.Duration
	OnTransition  func(state string)
}

// Controller sequences upload -> encode -> analyze -> persist -> success
// and owns the playable-audio handle. One pipeline in flight at a time:
// file selection is rejected unless the state is Idle or Error.
type Controller struct {
	mu      sync.Mutex
	state   string
	errMsg  string
	warning string
	current *types.Session
	handle  *player.Handle

	clock *player.Clock

	store         *session.Store
	encoder       AudioEncoder
	analyzer      Analyzer
	archive       Archiver
	drive         BlobUploader
	records       Recorder
	tempDir       string
	cacheHitDelay time.Duration
	onTransition  func(state string)
}

// New creates a controller in the Idle state.
func New(cfg Config) *Controller {
	return &Controller{
		state:         types.StateIdle,
		clock:         player.NewClock(),
		store:         cfg.Store,
		encoder:       cfg.Encoder,
		analyzer:      cfg.Analyzer,
		archive:       cfg.Archive,
		drive:         cfg.Drive,
		records:       cfg.Records,
		tempDir:       cfg.TempDir,
		cacheHitDelay: cfg.CacheHitDelay,
		onTransition:  cfg.OnTransition,
	}
}

// Clock returns the playback clock fed by the player websocket.
func (c *Controller) Clock() *player.Clock { return c.clock }

// Snapshot returns the current tagged state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{State: c.state, Session: c.current, Error: c.errMsg, Warning: c.warning}
}

// Store exposes the session cache for history listings.
func (c *Controller) Store() *session.Store { return c.store }

// AudioPath resolves a playable handle id to its file, for /audio/:id.
func (c *Controller) AudioPath(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle != nil && c.handle.ID() == id {
		return c.handle.Path(), true
	}
	return "", false
}

// SelectFile runs the full pipeline for a newly chosen file. Returns
// ErrBusy unless the controller is Idle or in Error; any other error has
// already moved the controller to the Error state with a user message.
func (c *Controller) SelectFile(ctx context.Context, file FileInfo) error {
	old, err := c.begin()
	if err != nil {
		return err
	}
	// Re-selecting while a previous result is shown replaces its handle.
	if old != nil {
		old.Release()
	}
	c.notify(types.StateUploading)

	fingerprint := session.Fingerprint(file.Name, file.Size, file.Modified)

	// The playable handle is created immediately so the audio is
	// previewable before the cache is even consulted.
	handle, err := player.NewHandle(file.Path, c.tempDir)
	if err != nil {
		return c.fail(&audio.EncodingError{Path: file.Path, Err: err})
	}

	if cached := c.store.Get(fingerprint); cached != nil {
		// Deliberate minimum visible delay so the transition does not
		// look jarring on an instant cache hit.
		time.Sleep(c.cacheHitDelay)

		bound := *cached
		bound.AudioURL = handle.URL()
		c.bindSuccess(&bound, handle)
		log.Printf("Cache hit for %s, skipped remote analysis", file.Name)
		return nil
	}

	encoded, err := c.encoder.Encode(ctx, file.Path)
	if err != nil {
		handle.Release()
		return c.fail(err)
	}

	c.setState(types.StateAnalyzing)
	c.notify(types.StateAnalyzing)

	result, err := c.analyzer.Analyze(ctx, encoded.Payload, audio.MimeType(file.Name))
	if err != nil {
		handle.Release()
		return c.fail(err)
	}

	sess := &types.Session{
		ID:            session.NewID(),
		Fingerprint:   fingerprint,
		FileName:      file.Name,
		DurationLabel: encoded.DurationLabel,
		AudioURL:      handle.URL(),
		Result:        result,
		CreatedAt:     time.Now(),
	}

	c.persist(sess, file.Path, audio.MimeType(file.Name))
	c.store.Put(sess)
	c.bindSuccess(sess, handle)
	return nil
}

// LoadSession re-binds a previously completed analysis from history.
func (c *Controller) LoadSession(fingerprint string) error {
	sess := c.store.Get(fingerprint)
	if sess == nil {
		return fmt.Errorf("no session for fingerprint %q", fingerprint)
	}

	old, err := c.beginFrom(types.StateIdle, types.StateError, types.StateSuccess)
	if err != nil {
		return err
	}
	if old != nil {
		old.Release()
	}
	// Brief Uploading-styled transition for consistency with a fresh upload.
	c.notify(types.StateUploading)

	bound := *sess
	var handle *player.Handle
	if sess.AudioPath != "" {
		h, err := player.NewHandle(sess.AudioPath, c.tempDir)
		if err != nil {
			log.Printf("Could not recreate playable audio for %s: %v", sess.FileName, err)
			c.setWarning("The archived audio for this session is unavailable.")
		} else {
			handle = h
			bound.AudioURL = h.URL()
		}
	}

	c.bindSuccess(&bound, handle)
	return nil
}

// Reset returns to Idle from Success or Error, releasing the playable
// handle and unbinding the current result. The session cache is kept.
func (c *Controller) Reset() error {
	c.mu.Lock()
	if c.state != types.StateSuccess && c.state != types.StateError {
		c.mu.Unlock()
		return fmt.Errorf("cannot reset while %s", c.state)
	}
	old := c.handle
	c.handle = nil
	c.current = nil
	c.errMsg = ""
	c.warning = ""
	c.state = types.StateIdle
	c.mu.Unlock()

	if old != nil {
		old.Release()
	}
	c.notify(types.StateIdle)
	return nil
}

// begin starts a pipeline if the state allows a new file selection and
// returns the displaced handle, if any.
func (c *Controller) begin() (*player.Handle, error) {
	return c.beginFrom(types.StateIdle, types.StateError)
}

func (c *Controller) beginFrom(allowed ...string) (*player.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ok := false
	for _, s := range allowed {
		if c.state == s {
			ok = true
			break
		}
	}
	if !ok {
		return nil, ErrBusy
	}

	old := c.handle
	c.handle = nil
	c.current = nil
	c.errMsg = ""
	c.warning = ""
	c.state = types.StateUploading
	return old, nil
}

// persist writes the completed session to the optional stores. Failures
// here never abort the pipeline; they only degrade what is persisted and
// leave a dismissible warning.
func (c *Controller) persist(sess *types.Session, audioSrcPath, audioMime string) {
	if c.archive != nil {
		archivedPath, err := c.archive.Save(sess, audioSrcPath)
		if err != nil {
			log.Printf("WARNING: local archive failed for %s: %v", sess.FileName, err)
			c.setWarning("The analysis could not be archived locally; it is kept in memory for this session.")
		} else {
			sess.AudioPath = archivedPath
		}
	}

	if c.drive != nil {
		url, err := c.drive.Upload(sess, audioSrcPath, audioMime)
		if err != nil {
			log.Printf("WARNING: remote upload failed for %s: %v", sess.FileName, err)
			c.setWarning("The analysis could not be saved to cloud storage; a local copy is used instead.")
		} else {
			sess.RemoteURL = url
		}
	}

	if c.records != nil {
		if err := c.records.Insert(sess); err != nil {
			log.Printf("WARNING: session record insert failed for %s: %v", sess.FileName, err)
			c.setWarning("The session history database is unavailable; history is in-memory only.")
		}
	}
}

// fail releases nothing itself; callers release what they created. It
// records the user-facing message and moves to Error.
func (c *Controller) fail(err error) error {
	c.mu.Lock()
	c.state = types.StateError
	c.errMsg = UserMessage(err)
	c.current = nil
	c.handle = nil
	c.mu.Unlock()

	log.Printf("Pipeline failed: %v", err)
	c.notify(types.StateError)
	return err
}

func (c *Controller) bindSuccess(sess *types.Session, handle *player.Handle) {
	c.mu.Lock()
	c.current = sess
	c.handle = handle
	c.state = types.StateSuccess
	c.mu.Unlock()
	c.notify(types.StateSuccess)
}

func (c *Controller) setState(state string) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *Controller) setWarning(msg string) {
	c.mu.Lock()
	c.warning = msg
	c.mu.Unlock()
}

func (c *Controller) notify(state string) {
	if c.onTransition != nil {
		c.onTransition(state)
	}
}
