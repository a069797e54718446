package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"hopper/internal/apps"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one recorded launch.
type Entry struct {
	ID         int64     `json:"id"`
	AppID      string    `json:"app_id"`
	Name       string    `json:"name"`
	Exec       []string  `json:"exec"`
	Terminal   bool      `json:"terminal"`
	PID        int       `json:"pid"`
	LaunchedAt time.Time `json:"launched_at"`
}

// NewEntry builds an entry for app launched at the given time.
func NewEntry(app apps.App, pid int, at time.Time) Entry {
	return Entry{
		AppID:      app.ID,
		Name:       app.Name,
		Exec:       append([]string(nil), app.Exec...),
		Terminal:   app.Terminal,
		PID:        pid,
		LaunchedAt: at,
	}
}

// Count is the number of launches recorded for one app.
type Count struct {
	AppID    string    `json:"app_id"`
	Name     string    `json:"name"`
	Launches int       `json:"launches"`
	Last     time.Time `json:"last"`
}

// Store manages the launch journal backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal at path and applies migrations.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends a launch and returns it with its assigned ID.
func (s *Store) Record(ctx context.Context, entry Entry) (Entry, error) {
	if entry.AppID == "" {
		return Entry{}, errors.New("record launch: app id is empty")
	}
	if entry.LaunchedAt.IsZero() {
		entry.LaunchedAt = time.Now()
	}
	entry.LaunchedAt = entry.LaunchedAt.UTC()
	execJSON, err := json.Marshal(entry.Exec)
	if err != nil {
		return Entry{}, fmt.Errorf("encode exec: %w", err)
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO launches (app_id, name, exec, terminal, pid, launched_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		entry.AppID,
		entry.Name,
		string(execJSON),
		boolToInt(entry.Terminal),
		entry.PID,
		entry.LaunchedAt.Format(timeLayout),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert launch: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Entry{}, fmt.Errorf("launch id: %w", err)
	}
	entry.ID = id
	return entry, nil
}

// Recent returns the most recent launches, newest first. A limit <= 0
// returns every entry.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, app_id, name, exec, terminal, pid, launched_at
        FROM launches ORDER BY launched_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query launches: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate launches: %w", err)
	}
	return entries, nil
}

// Counts returns launch totals per app, most launched first.
func (s *Store) Counts(ctx context.Context) ([]Count, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT app_id, name, COUNT(1), MAX(launched_at)
        FROM launches GROUP BY app_id
        ORDER BY COUNT(1) DESC, MAX(launched_at) DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query launch counts: %w", err)
	}
	defer rows.Close()

	var counts []Count
	for rows.Next() {
		var (
			c    Count
			last string
		)
		if err := rows.Scan(&c.AppID, &c.Name, &c.Launches, &last); err != nil {
			return nil, fmt.Errorf("scan launch count: %w", err)
		}
		c.Last = parseTime(last)
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate launch counts: %w", err)
	}
	return counts, nil
}

// Prune deletes launches recorded before the cutoff and reports how many
// were removed.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		"DELETE FROM launches WHERE launched_at < ?",
		before.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune launches: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune launches: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		entry    Entry
		execJSON string
		terminal int
		launched string
	)
	if err := row.Scan(&entry.ID, &entry.AppID, &entry.Name, &execJSON, &terminal, &entry.PID, &launched); err != nil {
		return Entry{}, fmt.Errorf("scan launch: %w", err)
	}
	if execJSON != "" {
		if err := json.Unmarshal([]byte(execJSON), &entry.Exec); err != nil {
			return Entry{}, fmt.Errorf("decode exec for launch %d: %w", entry.ID, err)
		}
	}
	entry.Terminal = terminal != 0
	entry.LaunchedAt = parseTime(launched)
	return entry, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
