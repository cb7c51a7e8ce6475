package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

// ErrNotFound is returned when a row addressed by id or key is missing.
var ErrNotFound = errors.New("not found")

// tsLayout is fixed-width so stored timestamps sort as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps the bloom database.
type Store struct {
	db *sql.DB
}

// DataDir is ~/.local/share/bloom, created on first use.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	base := filepath.Join(home, ".local", "share", "bloom")
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}
	return base, nil
}

// Open opens the default database under DataDir.
func Open() (*Store, error) {
	dir, err := DataDir()
	if err != nil {
		return nil, err
	}
	return OpenPath(filepath.Join(dir, "bloom.db"))
}

// OpenPath opens or creates the database at path and applies the schema.
func OpenPath(path string) (*Store, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		path,
	)
	dbh, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One writer; the pragmas above are per connection.
	dbh.SetMaxOpenConns(1)

	if err := migrate(dbh); err != nil {
		_ = dbh.Close()
		return nil, err
	}
	return &Store{db: dbh}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func migrate(dbh *sql.DB) error {
	b, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	if _, err := dbh.Exec(string(b)); err != nil {
		return errors.Join(fmt.Errorf("schema apply failed"), err)
	}
	return nil
}

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func parseTS(s string) (time.Time, error) {
	t, err := time.Parse(tsLayout, s)
	if err != nil {
		// Rows written by hand or older builds.
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	return t, err
}
