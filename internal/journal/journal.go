// Package journal persists ledger events and state snapshots in a local
// sqlite database so a ledger survives across process runs.
package journal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/w3ledger/internal/ledger"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Snapshot keys used by the CLI.
const (
	StateLedger = "ledger"
	StateChain  = "chain"
)

// ErrNoSnapshot reports a missing snapshot key.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Record is one journaled event.
type Record struct {
	Seq     int64           `json:"seq"`
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

// Journal stores an append-only event log plus named state snapshots.
type Journal struct {
	db *sql.DB
}

// Open opens the journal database at path, creating the schema if needed.
// Use ":memory:" for an ephemeral journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing journal schema: %w", err)
	}
	return j, nil
}

func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		at DATETIME NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_name ON events(name);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Append journals one event.
func (j *Journal) Append(ev ledger.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", ev.Name(), err)
	}
	_, err = j.db.Exec(
		`INSERT INTO events (id, name, at, payload) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), ev.Name(), time.Now().UTC(), string(payload),
	)
	return err
}

// Events returns journaled records in append order. A positive limit keeps
// only the most recent limit records.
func (j *Journal) Events(limit int) ([]Record, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = j.db.Query(
			`SELECT seq, id, name, at, payload FROM (
				SELECT seq, id, name, at, payload FROM events ORDER BY seq DESC LIMIT ?
			) ORDER BY seq`, limit)
	} else {
		rows, err = j.db.Query(`SELECT seq, id, name, at, payload FROM events ORDER BY seq`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r       Record
			payload []byte
		)
		if err := rows.Scan(&r.Seq, &r.ID, &r.Name, &r.At, &payload); err != nil {
			return nil, err
		}
		r.Payload = json.RawMessage(payload)
		records = append(records, r)
	}
	return records, rows.Err()
}

// EventCount returns the number of journaled events.
func (j *Journal) EventCount() (int64, error) {
	var n int64
	err := j.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

// SaveState stores v as the JSON snapshot for key, replacing any previous
// snapshot under that key.
func (j *Journal) SaveState(key string, v any) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s state: %w", key, err)
	}
	_, err = j.db.Exec(
		`INSERT INTO snapshots (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(blob), time.Now().UTC(),
	)
	return err
}

// LoadState decodes the snapshot stored under key into v.
func (j *Journal) LoadState(key string, v any) error {
	var blob string
	err := j.db.QueryRow(`SELECT value FROM snapshots WHERE key = ?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNoSnapshot, key)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(blob), v)
}

// Sink adapts the journal to the ledger's event sink. Journaling is
// best-effort: an append failure must never abort the ledger operation that
// produced the event, so errors are dropped here.
func (j *Journal) Sink() ledger.Sink {
	return ledger.SinkFunc(func(ev ledger.Event) {
		_ = j.Append(ev)
	})
}
