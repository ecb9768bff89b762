package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // CGO-free SQLite

	"github.com/vango-dev/thinclient/pkg/middleware"
	"github.com/vango-dev/thinclient/pkg/protocol"
)

// ErrNoSession is returned when the journal holds no matching session.
var ErrNoSession = errors.New("journal: no such session")

// Journal is a SQLite-backed session journal. It is safe for concurrent
// use.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// SessionInfo describes one recorded session.
type SessionInfo struct {
	ID        string
	RootTag   string
	StartedAt time.Time
	Batches   int
	Faults    int
}

// BatchRecord is one recorded inbound batch.
type BatchRecord struct {
	Seq        uint64
	ReceivedAt time.Time
	Raw        []byte
	Patches    int
	Outcome    string // middleware fault class, "none" when applied cleanly
	Error      string
}

// EventRecord is one recorded outbound event.
type EventRecord struct {
	SentAt time.Time
	Event  protocol.Event
}

// Open opens or creates the journal at path.
func Open(path string) (*Journal, error) {
	// WAL + busy timeout to avoid "database is locked"
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db, now: time.Now}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS sessions(
	  id          TEXT    PRIMARY KEY,
	  root_tag    TEXT    NOT NULL,
	  started_utc INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS batches(
	  id           INTEGER PRIMARY KEY,
	  session_id   TEXT    NOT NULL,
	  seq          INTEGER NOT NULL,
	  ts_utc       INTEGER NOT NULL,
	  raw          TEXT    NOT NULL,
	  patch_count  INTEGER NOT NULL,
	  outcome      TEXT    NOT NULL CHECK (outcome IN ('none','desync','decode','internal')),
	  error        TEXT
	);
	CREATE TABLE IF NOT EXISTS events(
	  id             INTEGER PRIMARY KEY,
	  session_id     TEXT    NOT NULL,
	  ts_utc         INTEGER NOT NULL,
	  handler        TEXT    NOT NULL,
	  arguments_json TEXT    NOT NULL CHECK (json_valid(arguments_json))
	);
	CREATE INDEX IF NOT EXISTS idx_batches_session ON batches(session_id, seq);
	CREATE INDEX IF NOT EXISTS idx_events_session  ON events(session_id, ts_utc);
	`)
	if err != nil {
		return fmt.Errorf("journal: create tables: %w", err)
	}
	return nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// StartSession records a session. Starting a known session is a no-op.
func (j *Journal) StartSession(ctx context.Context, id, rootTag string) error {
	if id == "" {
		return errors.New("journal: empty session ID")
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions(id, root_tag, started_utc) VALUES(?,?,?)`,
		id, rootTag, j.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("journal: start session: %w", err)
	}
	return nil
}

// RecordBatch records one inbound batch and its outcome. Batches built in
// memory without a raw message are re-encoded.
func (j *Journal) RecordBatch(ctx context.Context, sessionID string, b protocol.Batch, outcome error) error {
	raw := b.Raw
	if len(raw) == 0 {
		var err error
		if raw, err = protocol.EncodeBatch(b.Patches); err != nil {
			return fmt.Errorf("journal: encode batch %d: %w", b.Seq, err)
		}
	}

	var errText sql.NullString
	if outcome != nil {
		errText = sql.NullString{String: outcome.Error(), Valid: true}
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO batches(session_id, seq, ts_utc, raw, patch_count, outcome, error) VALUES(?,?,?,?,?,?,?)`,
		sessionID, int64(b.Seq), j.now().UnixMilli(), string(raw), len(b.Patches),
		middleware.Classify(outcome), errText)
	if err != nil {
		return fmt.Errorf("journal: record batch %d: %w", b.Seq, err)
	}
	return nil
}

// RecordEvent records one outbound event.
func (j *Journal) RecordEvent(ctx context.Context, sessionID string, e protocol.Event) error {
	args := e.Arguments
	if args == nil {
		args = []any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("journal: marshal arguments: %w", err)
	}

	_, err = j.db.ExecContext(ctx,
		`INSERT INTO events(session_id, ts_utc, handler, arguments_json) VALUES(?,?,?,json(?))`,
		sessionID, j.now().UnixMilli(), e.Handler, string(data))
	if err != nil {
		return fmt.Errorf("journal: record event %s: %w", e.Handler, err)
	}
	return nil
}

// Sessions lists recorded sessions, oldest first.
func (j *Journal) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := j.db.QueryContext(ctx, `
	SELECT s.id, s.root_tag, s.started_utc,
	       (SELECT COUNT(*) FROM batches b WHERE b.session_id = s.id),
	       (SELECT COUNT(*) FROM batches b WHERE b.session_id = s.id AND b.outcome != 'none')
	FROM sessions s
	ORDER BY s.started_utc, s.id`)
	if err != nil {
		return nil, fmt.Errorf("journal: list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var started int64
		if err := rows.Scan(&info.ID, &info.RootTag, &started, &info.Batches, &info.Faults); err != nil {
			return nil, fmt.Errorf("journal: scan session: %w", err)
		}
		info.StartedAt = time.UnixMilli(started).UTC()
		out = append(out, info)
	}
	return out, rows.Err()
}

// Session returns one recorded session.
func (j *Journal) Session(ctx context.Context, id string) (SessionInfo, error) {
	sessions, err := j.Sessions(ctx)
	if err != nil {
		return SessionInfo{}, err
	}
	for _, s := range sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return SessionInfo{}, fmt.Errorf("%w: %s", ErrNoSession, id)
}

// LatestSession returns the most recently started session.
func (j *Journal) LatestSession(ctx context.Context) (SessionInfo, error) {
	sessions, err := j.Sessions(ctx)
	if err != nil {
		return SessionInfo{}, err
	}
	if len(sessions) == 0 {
		return SessionInfo{}, ErrNoSession
	}
	return sessions[len(sessions)-1], nil
}

// Batches returns the recorded batches of a session in sequence order.
func (j *Journal) Batches(ctx context.Context, sessionID string) ([]BatchRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
	SELECT seq, ts_utc, raw, patch_count, outcome, error
	FROM batches WHERE session_id = ?
	ORDER BY seq, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("journal: query batches: %w", err)
	}
	defer rows.Close()

	var out []BatchRecord
	for rows.Next() {
		var rec BatchRecord
		var seq, ts int64
		var raw string
		var errText sql.NullString
		if err := rows.Scan(&seq, &ts, &raw, &rec.Patches, &rec.Outcome, &errText); err != nil {
			return nil, fmt.Errorf("journal: scan batch: %w", err)
		}
		rec.Seq = uint64(seq)
		rec.ReceivedAt = time.UnixMilli(ts).UTC()
		rec.Raw = []byte(raw)
		rec.Error = errText.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Events returns the recorded events of a session in send order.
func (j *Journal) Events(ctx context.Context, sessionID string) ([]EventRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
	SELECT ts_utc, handler, arguments_json
	FROM events WHERE session_id = ?
	ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("journal: query events: %w", err)
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var rec EventRecord
		var ts int64
		var args string
		if err := rows.Scan(&ts, &rec.Event.Handler, &args); err != nil {
			return nil, fmt.Errorf("journal: scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(args), &rec.Event.Arguments); err != nil {
			return nil, fmt.Errorf("journal: decode arguments: %w", err)
		}
		rec.SentAt = time.UnixMilli(ts).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Replay hands the recorded batches of a session to fn in sequence
// order, carrying only the raw message so fn decodes exactly what was
// received. Replay stops at the first error from fn.
func (j *Journal) Replay(ctx context.Context, sessionID string, fn func(protocol.Batch) error) (int, error) {
	records, err := j.Batches(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := fn(protocol.Batch{Seq: rec.Seq, Raw: rec.Raw}); err != nil {
			return i, err
		}
	}
	return len(records), nil
}
