package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"curio/internal/catalog"
	"curio/internal/config"
	"curio/internal/schema"
)

// Store persists the working collection in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// State is the persisted collection plus the digest of its last exported or
// imported content.
type State struct {
	Collection catalog.Collection
	Baseline   uint64
	// Initialized is false until the first Save.
	Initialized bool
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the working-state database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens the database at dbPath directly.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
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

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load reads the stored collection. A fresh database yields an empty
// collection with every registered category present.
func (s *Store) Load(ctx context.Context) (State, error) {
	ctx = ensureContext(ctx)
	var state State
	err := retryOnBusy(ctx, func() error {
		loaded, err := s.load(ctx)
		if err != nil {
			return err
		}
		state = loaded
		return nil
	})
	return state, err
}

func (s *Store) load(ctx context.Context) (State, error) {
	state := State{Collection: catalog.NewCollection()}

	var (
		revision  int64
		lastSaved sql.NullString
		baseline  string
	)
	err := s.db.QueryRowContext(ctx, "SELECT revision, last_saved, baseline FROM meta WHERE id = 1").
		Scan(&revision, &lastSaved, &baseline)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		state.Baseline = state.Collection.ContentDigest()
		return state, nil
	case err != nil:
		return State{}, fmt.Errorf("read meta: %w", err)
	}
	state.Initialized = true
	state.Collection.Revision = revision
	state.Collection.LastSaved = lastSaved.String
	if state.Baseline, err = strconv.ParseUint(baseline, 10, 64); err != nil {
		return State{}, fmt.Errorf("parse baseline digest %q: %w", baseline, err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT category, item_json FROM items ORDER BY category, position")
	if err != nil {
		return State{}, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			category string
			body     string
		)
		if err := rows.Scan(&category, &body); err != nil {
			return State{}, fmt.Errorf("scan item: %w", err)
		}
		if !schema.Known(schema.Category(category)) {
			return State{}, fmt.Errorf("stored item has unknown category %q", category)
		}
		var item catalog.Item
		if err := json.Unmarshal([]byte(body), &item); err != nil {
			return State{}, fmt.Errorf("decode stored %s item: %w", category, err)
		}
		key := schema.Category(category)
		state.Collection.Collections[key] = append(state.Collection.Collections[key], item)
	}
	if err := rows.Err(); err != nil {
		return State{}, fmt.Errorf("iterate items: %w", err)
	}

	carried, err := s.db.QueryContext(ctx, "SELECT key, raw_json FROM carried ORDER BY key")
	if err != nil {
		return State{}, fmt.Errorf("query carried keys: %w", err)
	}
	defer carried.Close()
	for carried.Next() {
		var key, raw string
		if err := carried.Scan(&key, &raw); err != nil {
			return State{}, fmt.Errorf("scan carried key: %w", err)
		}
		state.Collection.Carry(key, json.RawMessage(raw))
	}
	if err := carried.Err(); err != nil {
		return State{}, fmt.Errorf("iterate carried keys: %w", err)
	}
	return state, nil
}

// Save replaces the stored collection with c in one transaction.
func (s *Store) Save(ctx context.Context, c catalog.Collection, baseline uint64) error {
	ctx = ensureContext(ctx)
	rows, err := encodeRows(c)
	if err != nil {
		return err
	}
	return retryOnBusy(ctx, func() error {
		return s.save(ctx, c, baseline, rows)
	})
}

type itemRow struct {
	category schema.Category
	position int
	id       string
	title    string
	body     string
}

func encodeRows(c catalog.Collection) ([]itemRow, error) {
	var rows []itemRow
	for _, category := range c.Categories() {
		for position, item := range c.Collections[category] {
			body, err := json.Marshal(item)
			if err != nil {
				return nil, fmt.Errorf("encode %s item %q: %w", category, item.ID, err)
			}
			rows = append(rows, itemRow{
				category: category,
				position: position,
				id:       item.ID,
				title:    item.Title,
				body:     string(body),
			})
		}
	}
	return rows, nil
}

func (s *Store) save(ctx context.Context, c catalog.Collection, baseline uint64, rows []itemRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{"DELETE FROM items", "DELETE FROM carried"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear working state: %w", err)
		}
	}

	insert, err := tx.PrepareContext(ctx,
		"INSERT INTO items (category, position, id, title, item_json) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare item insert: %w", err)
	}
	defer insert.Close()
	for _, row := range rows {
		if _, err := insert.ExecContext(ctx, string(row.category), row.position, row.id, row.title, row.body); err != nil {
			return fmt.Errorf("insert %s item %q: %w", row.category, row.id, err)
		}
	}

	keys, carried := c.Carried()
	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, "INSERT INTO carried (key, raw_json) VALUES (?, ?)", key, string(carried[key])); err != nil {
			return fmt.Errorf("insert carried key %q: %w", key, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO meta (id, revision, last_saved, baseline, updated_at) VALUES (1, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET revision = excluded.revision, last_saved = excluded.last_saved,
            baseline = excluded.baseline, updated_at = excluded.updated_at`,
		c.Revision,
		nullableString(c.LastSaved),
		strconv.FormatUint(baseline, 10),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
