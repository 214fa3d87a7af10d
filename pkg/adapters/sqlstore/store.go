// Package sqlstore persists dialogue sessions in a SQL database.
// SQLite (modernc.org/sqlite, CGO-free) and PostgreSQL (pgx) are supported.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/parley/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects placeholder style and DDL.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

const defaultTable = "parley_sessions"

// Store implements ports.StateStore on database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

type Option func(*Store)

// WithTable overrides the table name.
func WithTable(name string) Option {
	return func(s *Store) {
		s.table = name
	}
}

// Open connects with the driver matching dialect and creates the table.
// For SQLite dsn is a file path; for Postgres a connection URL.
func Open(ctx context.Context, dialect Dialect, dsn string, opts ...Option) (*Store, error) {
	driver := "sqlite"
	if dialect == Postgres {
		driver = "pgx"
	} else if dialect != SQLite {
		return nil, fmt.Errorf("unknown sql dialect %q", dialect)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if dialect == SQLite {
		// One writer at a time; avoids SQLITE_BUSY under concurrent saves.
		db.SetMaxOpenConns(1)
	}
	s, err := New(ctx, db, dialect, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing handle and ensures the table exists.
func New(ctx context.Context, db *sql.DB, dialect Dialect, opts ...Option) (*Store, error) {
	s := &Store{db: db, dialect: dialect, table: defaultTable}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
	id TEXT PRIMARY KEY,
	script TEXT NOT NULL,
	data TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save upserts the session.
func (s *Store) Save(ctx context.Context, session *domain.Session) error {
	if session.ID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	q := s.rebind(`INSERT INTO ` + s.table + ` (id, script, data, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET script = excluded.script, data = excluded.data, updated_at = excluded.updated_at`)
	updated := session.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	if _, err := s.db.ExecContext(ctx, q, session.ID, session.Script, string(data), updated.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load reads the session.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var data string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT data FROM `+s.table+` WHERE id = ?`), sessionID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var session domain.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if session.State == nil {
		session.State = domain.NewState()
	}
	return &session, nil
}

// Delete removes the session row.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM `+s.table+` WHERE id = ?`), sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List returns every session ID, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM `+s.table+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
