package session

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/callsight/call-analysis/internal/types"
)

// RecordStore persists completed sessions to SQLite so history survives a
// restart. Optional collaborator: when absent the app runs in-memory only
// and its failures never abort the pipeline.
type RecordStore struct {
	db *sql.DB
}

// NewRecordStore opens (and if needed initializes) the session database.
func NewRecordStore(dbPath string) (*RecordStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL UNIQUE,
		file_name TEXT NOT NULL,
		duration_label TEXT NOT NULL,
		audio_path TEXT,
		audio_url TEXT,
		result_json TEXT NOT NULL,
		call_type TEXT NOT NULL,
		risk_score INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create sessions table: %v", err)
	}

	return &RecordStore{db: db}, nil
}

// NewID returns a time-sortable session id.
func NewID() string {
	return ulid.Make().String()
}

// Insert writes one completed session. An existing fingerprint is replaced,
// matching the cache's put-overwrites contract.
func (rs *RecordStore) Insert(sess *types.Session) error {
	resultJSON, err := json.Marshal(sess.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %v", err)
	}

	query := `
	INSERT OR REPLACE INTO sessions
		(id, fingerprint, file_name, duration_label, audio_path, audio_url, result_json, call_type, risk_score, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = rs.db.Exec(query,
		sess.ID, sess.Fingerprint, sess.FileName, sess.DurationLabel,
		sess.AudioPath, sess.AudioURL, string(resultJSON),
		sess.Result.CallType, sess.Result.RiskAssessment.Score, sess.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert session: %v", err)
	}
	return nil
}

// List returns persisted sessions, most recent first.
func (rs *RecordStore) List(limit int) ([]*types.Session, error) {
	query := `
	SELECT id, fingerprint, file_name, duration_label, audio_path, audio_url, result_json, created_at
	FROM sessions ORDER BY created_at DESC LIMIT ?
	`

	rows, err := rs.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %v", err)
	}
	defer rows.Close()

	var sessions []*types.Session
	for rows.Next() {
		var (
			sess       types.Session
			resultJSON string
		)
		if err := rows.Scan(&sess.ID, &sess.Fingerprint, &sess.FileName, &sess.DurationLabel,
			&sess.AudioPath, &sess.AudioURL, &resultJSON, &sess.CreatedAt); err != nil {
			continue
		}

		var result types.AnalysisResult
		if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
			continue
		}
		sess.Result = &result
		sessions = append(sessions, &sess)
	}

	return sessions, rows.Err()
}

// Get returns one persisted session by fingerprint, or nil.
func (rs *RecordStore) Get(fingerprint string) (*types.Session, error) {
	query := `
	SELECT id, fingerprint, file_name, duration_label, audio_path, audio_url, result_json, created_at
	FROM sessions WHERE fingerprint = ?
	`

	var (
		sess       types.Session
		resultJSON string
	)
	err := rs.db.QueryRow(query, fingerprint).Scan(
		&sess.ID, &sess.Fingerprint, &sess.FileName, &sess.DurationLabel,
		&sess.AudioPath, &sess.AudioURL, &resultJSON, &sess.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %v", err)
	}

	var result types.AnalysisResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to decode stored result: %v", err)
	}
	sess.Result = &result
	return &sess, nil
}

// Close closes the database connection.
func (rs *RecordStore) Close() error {
	return rs.db.Close()
}
