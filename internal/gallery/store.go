package gallery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Store reads and writes renders. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the gallery at path and records meta. Passing a zero
// Metadata leaves existing metadata in place.
func Open(path string, meta Metadata) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Serialise writers; SQLite only allows one at a time anyway.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if len(meta.ToMap()) > 0 {
		if err := insertMetadata(db, meta); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to insert metadata: %w", err)
		}
	}

	return &Store{db: db, path: path}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS metadata (
			name TEXT NOT NULL PRIMARY KEY,
			value TEXT
		);

		CREATE TABLE IF NOT EXISTS renders (
			key TEXT NOT NULL PRIMARY KEY,
			format TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			config TEXT NOT NULL,
			image_data BLOB NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS renders_created ON renders (created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func insertMetadata(db *sql.DB, meta Metadata) error {
	stmt, err := db.Prepare("INSERT OR REPLACE INTO metadata (name, value) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare metadata insert: %w", err)
	}
	defer stmt.Close()

	for key, value := range meta.ToMap() {
		if _, err := stmt.Exec(key, value); err != nil {
			return fmt.Errorf("failed to insert metadata %q: %w", key, err)
		}
	}
	return nil
}

// Put stores e, replacing any render with the same key. A zero CreatedAt is
// set to now.
func (s *Store) Put(ctx context.Context, e Entry) error {
	if e.Key == "" {
		return fmt.Errorf("render key is empty")
	}
	if len(e.Data) == 0 {
		return fmt.Errorf("render %s has no image data", e.Key)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO renders (key, format, width, height, seed, config, image_data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Key, e.Format, e.Width, e.Height, e.Seed, string(e.Config), e.Data, e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert render %s: %w", e.Key, err)
	}
	return nil
}

// Get returns the render stored under key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (Entry, error) {
	var (
		e       Entry
		config  string
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT key, format, width, height, seed, config, image_data, created_at FROM renders WHERE key = ?",
		key,
	).Scan(&e.Key, &e.Format, &e.Width, &e.Height, &e.Seed, &config, &e.Data, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to query render: %w", err)
	}
	e.Config = []byte(config)
	e.CreatedAt = time.UnixMilli(created)
	return e, nil
}

// List returns every render, newest first, without image data.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, format, width, height, seed, config, created_at FROM renders ORDER BY created_at DESC, key")
	if err != nil {
		return nil, fmt.Errorf("failed to query renders: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			config  string
			created int64
		)
		if err := rows.Scan(&e.Key, &e.Format, &e.Width, &e.Height, &e.Seed, &config, &created); err != nil {
			return nil, fmt.Errorf("failed to scan render: %w", err)
		}
		e.Config = []byte(config)
		e.CreatedAt = time.UnixMilli(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Metadata reads the metadata table.
func (s *Store) Metadata(ctx context.Context) (Metadata, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, value FROM metadata")
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	var meta Metadata
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return Metadata{}, fmt.Errorf("failed to scan metadata: %w", err)
		}
		switch name {
		case "name":
			meta.Name = value
		case "description":
			meta.Description = value
		case "version":
			meta.Version = value
		}
	}
	return meta, rows.Err()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
