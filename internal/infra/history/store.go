// Package history records client flow events in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog/log"
)

const (
	// CurrentSchemaVersion is the current database schema version.
	CurrentSchemaVersion = "1"

	// DefaultDBPath is the default path for the history database.
	DefaultDBPath = "data/history.db"
)

// EventKind names a step of the client flow.
type EventKind string

const (
	EventDiscovered   EventKind = "discovered"
	EventCapabilities EventKind = "capabilities"
	EventTechSelected EventKind = "tech_selected"
	EventPlayStarted  EventKind = "play_started"
	EventPlayStopped  EventKind = "play_stopped"
	EventFailed       EventKind = "failed"
)

// Event is one row of the history.
type Event struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	Kind       EventKind `json:"kind"`
	HotspotURL string    `json:"hotspotUrl,omitempty"`
	Tech       string    `json:"tech,omitempty"`
	Programme  string    `json:"programme,omitempty"`
	URL        string    `json:"url,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DB represents the SQLite history database.
type DB struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// NewDB creates a new history database instance.
func NewDB(path string) *DB {
	if path == "" {
		path = DefaultDBPath
	}
	return &DB{
		path: path,
	}
}

// Open opens the database and initializes the schema.
func (d *DB) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", d.path+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	d.db = db

	if err := d.initSchema(); err != nil {
		d.db.Close()
		d.db = nil
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Info().Str("path", d.path).Msg("History database opened")
	return nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db != nil {
		err := d.db.Close()
		d.db = nil
		return err
	}
	return nil
}

func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		hotspot_url TEXT,
		tech TEXT,
		programme TEXT,
		url TEXT,
		detail TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at);
	CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id);
	`
	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	var version string
	err := d.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	if err == sql.ErrNoRows {
		_, err = d.db.Exec(`INSERT INTO meta (key, value) VALUES ('schema_version', ?)`, CurrentSchemaVersion)
		return err
	}
	if err != nil {
		return err
	}
	if version != CurrentSchemaVersion {
		log.Info().
			Str("current", version).
			Str("target", CurrentSchemaVersion).
			Msg("Migrating history schema")
		_, err = d.db.Exec(`UPDATE meta SET value = ? WHERE key = 'schema_version'`, CurrentSchemaVersion)
	}
	return err
}

// SchemaVersion returns the stored schema version.
func (d *DB) SchemaVersion(ctx context.Context) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return "", fmt.Errorf("history database not open")
	}
	var version string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	return version, err
}

// Record stores an event. ID and CreatedAt are filled in when empty.
func (d *DB) Record(ctx context.Context, e Event) (Event, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return e, fmt.Errorf("history database not open")
	}

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO events (id, session_id, kind, hotspot_url, tech, programme, url, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, string(e.Kind), e.HotspotURL, e.Tech, e.Programme, e.URL, e.Detail,
		e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return e, fmt.Errorf("failed to record event: %w", err)
	}

	log.Debug().
		Str("session", e.SessionID).
		Str("kind", string(e.Kind)).
		Msg("Recorded history event")
	return e, nil
}

// Recent returns up to limit events, newest first.
func (d *DB) Recent(ctx context.Context, limit int) ([]Event, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return nil, fmt.Errorf("history database not open")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, session_id, kind, hotspot_url, tech, programme, url, detail, created_at
		FROM events
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var kind, createdAt string
		var hotspotURL, tech, programme, url, detail sql.NullString
		if err := rows.Scan(&e.ID, &e.SessionID, &kind, &hotspotURL, &tech, &programme, &url, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Kind = EventKind(kind)
		e.HotspotURL = hotspotURL.String
		e.Tech = tech.String
		e.Programme = programme.String
		e.URL = url.String
		e.Detail = detail.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		events = append(events, e)
	}
	return events, rows.Err()
}
