package controller

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/callsight/call-analysis/internal/analysis"
	"github.com/callsight/call-analysis/internal/audio"
	"github.com/callsight/call-analysis/internal/session"
	"github.com/callsight/call-analysis/internal/types"
)

type fakeEncoder struct {
	err   error
	calls int
}

func (f *fakeEncoder) Encode(ctx context.Context, path string) (*audio.Encoded, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &audio.Encoded{Payload: "cGF5bG9hZA==", DurationSeconds: 330, DurationLabel: "05:30"}, nil
}

type fakeAnalyzer struct {
	result *types.AnalysisResult
	err    error
	calls  int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, payload, mimeType string) (*types.AnalysisResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func discoveryResult() *types.AnalysisResult {
	return &types.AnalysisResult{
		CallType: types.CallDiscovery,
		Summary:  "Discovery call with a price-sensitive buyer.",
		Transcript: []types.TranscriptSegment{
			{Speaker: "Salesperson", Text: "Thanks for joining.", StartTime: "00:05"},
		},
		RiskAssessment: types.RiskAssessment{Score: 7, Level: types.RiskHigh},
		NextSteps:      types.NextSteps{PrimaryAction: "Send ROI one-pager"},
	}
}

type fixture struct {
	ctrl        *Controller
	encoder     *fakeEncoder
	analyzer    *fakeAnalyzer
	tempDir     string
	transitions *[]string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tempDir := t.TempDir()
	encoder := &fakeEncoder{}
	analyzer := &fakeAnalyzer{result: discoveryResult()}
	var transitions []string

	ctrl := New(Config{
		Store:         session.NewStore(),
		Encoder:       encoder,
		Analyzer:      analyzer,
		TempDir:       tempDir,
		CacheHitDelay: time.Millisecond,
		OnTransition:  func(state string) { transitions = append(transitions, state) },
	})

	return &fixture{ctrl: ctrl, encoder: encoder, analyzer: analyzer, tempDir: tempDir, transitions: &transitions}
}

func (f *fixture) uploadFile(t *testing.T, name string) FileInfo {
	t.Helper()
	path := filepath.Join(f.tempDir, "upload_"+name)
	if err := os.WriteFile(path, []byte("fake audio content"), 0644); err != nil {
		t.Fatalf("write upload: %v", err)
	}
	return FileInfo{
		Name:     name,
		Size:     18,
		Modified: time.UnixMilli(1700000000000),
		Path:     path,
	}
}

func playableFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	var playable []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "play_") {
			playable = append(playable, e.Name())
		}
	}
	return playable
}

func TestSelectFileReachesSuccess(t *testing.T) {
	f := newFixture(t)
	file := f.uploadFile(t, "call.wav")

	if err := f.ctrl.SelectFile(context.Background(), file); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}

	snap := f.ctrl.Snapshot()
	if snap.State != types.StateSuccess {
		t.Fatalf("state = %s, want SUCCESS", snap.State)
	}
	if snap.Session == nil || snap.Session.Result.CallType != types.CallDiscovery {
		t.Errorf("bound session = %+v", snap.Session)
	}
	if snap.Session.Result.RiskAssessment.Score != 7 {
		t.Errorf("risk score = %d, want 7", snap.Session.Result.RiskAssessment.Score)
	}
	if snap.Session.DurationLabel != "05:30" {
		t.Errorf("duration label = %q", snap.Session.DurationLabel)
	}
}

func TestSelectFileAlwaysPassesThroughUploading(t *testing.T) {
	f := newFixture(t)

	if err := f.ctrl.SelectFile(context.Background(), f.uploadFile(t, "call.wav")); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}

	got := *f.transitions
	want := []string{types.StateUploading, types.StateAnalyzing, types.StateSuccess}
	if len(got) != len(want) {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", got, want)
		}
	}
}

func TestCacheHitSkipsRemoteAnalysis(t *testing.T) {
	f := newFixture(t)
	file := f.uploadFile(t, "call.wav")

	if err := f.ctrl.SelectFile(context.Background(), file); err != nil {
		t.Fatalf("first SelectFile: %v", err)
	}
	if err := f.ctrl.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	*f.transitions = nil
	if err := f.ctrl.SelectFile(context.Background(), file); err != nil {
		t.Fatalf("second SelectFile: %v", err)
	}

	if f.analyzer.calls != 1 {
		t.Errorf("analyzer called %d times, want exactly 1", f.analyzer.calls)
	}
	if f.ctrl.Snapshot().State != types.StateSuccess {
		t.Errorf("state = %s, want SUCCESS", f.ctrl.Snapshot().State)
	}

	// Cache hit still goes through Uploading, never straight to Success.
	got := *f.transitions
	if len(got) < 2 || got[0] != types.StateUploading || got[len(got)-1] != types.StateSuccess {
		t.Errorf("cache-hit transitions = %v", got)
	}
	for _, s := range got {
		if s == types.StateAnalyzing {
			t.Error("cache hit must not enter Analyzing")
		}
	}
}

func TestEncodeFailureEntersErrorAndReleasesHandle(t *testing.T) {
	f := newFixture(t)
	f.encoder.err = &audio.UnsupportedFormatError{Path: "call.wav", Err: errors.New("no decodable stream")}
	file := f.uploadFile(t, "call.wav")

	if err := f.ctrl.SelectFile(context.Background(), file); err == nil {
		t.Fatal("expected SelectFile to fail")
	}

	snap := f.ctrl.Snapshot()
	if snap.State != types.StateError {
		t.Fatalf("state = %s, want ERROR", snap.State)
	}
	if !strings.Contains(snap.Error, "decoded as audio") {
		t.Errorf("error message = %q, want the unsupported-format sentence", snap.Error)
	}

	// The playable handle created for the failed attempt must be gone.
	if files := playableFiles(t, f.tempDir); len(files) != 0 {
		t.Errorf("playable files leaked after failure: %v", files)
	}

	// No session is cached for the failed fingerprint.
	fp := session.Fingerprint(file.Name, file.Size, file.Modified)
	if f.ctrl.Store().Get(fp) != nil {
		t.Error("failed analysis must not be cached")
	}
}

func TestAnalysisFailureMessagesByKind(t *testing.T) {
	cases := []struct {
		kind analysis.ProviderErrorKind
		want string
	}{
		{analysis.ProviderTooLarge, "too large"},
		{analysis.ProviderRateLimited, "too many requests"},
		{analysis.ProviderUnsupportedMedia, "does not support"},
		{analysis.ProviderContentFiltered, "declined"},
		{analysis.ProviderGeneric, "analysis failed"},
	}

	for _, c := range cases {
		t.Run(string(c.kind), func(t *testing.T) {
			f := newFixture(t)
			f.analyzer.err = &analysis.ProviderError{Kind: c.kind, Err: errors.New("boom")}

			_ = f.ctrl.SelectFile(context.Background(), f.uploadFile(t, "call.wav"))

			snap := f.ctrl.Snapshot()
			if snap.State != types.StateError {
				t.Fatalf("state = %s, want ERROR", snap.State)
			}
			if !strings.Contains(strings.ToLower(snap.Error), c.want) {
				t.Errorf("message %q does not contain %q", snap.Error, c.want)
			}
		})
	}
}

func TestResetReleasesHandleAndKeepsCache(t *testing.T) {
	f := newFixture(t)
	file := f.uploadFile(t, "call.wav")

	if err := f.ctrl.SelectFile(context.Background(), file); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	if len(playableFiles(t, f.tempDir)) != 1 {
		t.Fatal("expected one playable file while in Success")
	}

	if err := f.ctrl.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	snap := f.ctrl.Snapshot()
	if snap.State != types.StateIdle || snap.Session != nil || snap.Error != "" {
		t.Errorf("post-reset snapshot = %+v", snap)
	}
	if files := playableFiles(t, f.tempDir); len(files) != 0 {
		t.Errorf("playable files leaked after reset: %v", files)
	}
	if f.ctrl.Store().Len() != 1 {
		t.Error("reset must not clear the session cache")
	}
}

func TestResetOnlyFromSuccessOrError(t *testing.T) {
	f := newFixture(t)
	if err := f.ctrl.Reset(); err == nil {
		t.Error("Reset from Idle should fail")
	}
}

func TestReselectingReplacesHandleExactlyOnce(t *testing.T) {
	f := newFixture(t)

	if err := f.ctrl.SelectFile(context.Background(), f.uploadFile(t, "first.wav")); err != nil {
		t.Fatalf("first SelectFile: %v", err)
	}
	if err := f.ctrl.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := f.ctrl.SelectFile(context.Background(), f.uploadFile(t, "second.wav")); err != nil {
		t.Fatalf("second SelectFile: %v", err)
	}

	// Exactly the second selection's handle remains.
	if files := playableFiles(t, f.tempDir); len(files) != 1 {
		t.Errorf("playable files = %v, want exactly one", files)
	}
}

func TestSelectFileRejectedWhileBound(t *testing.T) {
	f := newFixture(t)
	file := f.uploadFile(t, "call.wav")

	if err := f.ctrl.SelectFile(context.Background(), file); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}

	// Success is not a valid source state for a new selection; the UI
	// resets first.
	err := f.ctrl.SelectFile(context.Background(), file)
	if !errors.Is(err, ErrBusy) {
		t.Errorf("err = %v, want ErrBusy", err)
	}
}

func TestLoadSessionRebindsFromHistory(t *testing.T) {
	f := newFixture(t)
	file := f.uploadFile(t, "call.wav")

	if err := f.ctrl.SelectFile(context.Background(), file); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	fp := session.Fingerprint(file.Name, file.Size, file.Modified)

	if err := f.ctrl.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	*f.transitions = nil
	if err := f.ctrl.LoadSession(fp); err != nil {
		t.Fatalf("LoadSession: %v", err)
	}

	snap := f.ctrl.Snapshot()
	if snap.State != types.StateSuccess {
		t.Fatalf("state = %s, want SUCCESS", snap.State)
	}
	if snap.Session.Fingerprint != fp {
		t.Errorf("bound fingerprint = %s, want %s", snap.Session.Fingerprint, fp)
	}
	if f.analyzer.calls != 1 {
		t.Errorf("loading history triggered %d analyzer calls, want still 1", f.analyzer.calls)
	}

	got := *f.transitions
	if len(got) != 2 || got[0] != types.StateUploading || got[1] != types.StateSuccess {
		t.Errorf("load transitions = %v, want [UPLOADING SUCCESS]", got)
	}
}

func TestLoadSessionUnknownFingerprint(t *testing.T) {
	f := newFixture(t)
	if err := f.ctrl.LoadSession("nope"); err == nil {
		t.Error("expected error for unknown fingerprint")
	}
}

type failingRecorder struct{}

func (failingRecorder) Insert(*types.Session) error {
	return errors.New("database is on fire")
}

func TestPersistenceFailureIsWarningNotError(t *testing.T) {
	f := newFixture(t)
	ctrl := New(Config{
		Store:         f.ctrl.Store(),
		Encoder:       f.encoder,
		Analyzer:      f.analyzer,
		Records:       failingRecorder{},
		TempDir:       f.tempDir,
		CacheHitDelay: time.Millisecond,
	})

	if err := ctrl.SelectFile(context.Background(), f.uploadFile(t, "call.wav")); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}

	snap := ctrl.Snapshot()
	if snap.State != types.StateSuccess {
		t.Fatalf("state = %s, want SUCCESS despite persistence failure", snap.State)
	}
	if snap.Warning == "" {
		t.Error("expected a dismissible warning for the persistence failure")
	}
}
