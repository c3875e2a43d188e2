// Package postgres implements ports.StateStore on PostgreSQL using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/storefront/pkg/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable is the sessions table name.
const DefaultTable = "storefront_sessions"

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type queries struct {
	migrate string
	load    string
	upsert  string
	delete  string
	list    string
}

func buildQueries(table string) queries {
	t := pgx.Identifier{table}.Sanitize()
	return queries{
		migrate: `CREATE TABLE IF NOT EXISTS ` + t + ` (
	user_id       TEXT PRIMARY KEY,
	state         TEXT NOT NULL,
	last_event_id TEXT NOT NULL DEFAULT '',
	sealed        TEXT NOT NULL DEFAULT '',
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		load: `SELECT state, last_event_id, sealed, updated_at FROM ` + t + ` WHERE user_id = $1`,
		upsert: `INSERT INTO ` + t + ` (user_id, state, last_event_id, sealed, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET
	state = EXCLUDED.state,
	last_event_id = EXCLUDED.last_event_id,
	sealed = EXCLUDED.sealed,
	updated_at = EXCLUDED.updated_at`,
		delete: `DELETE FROM ` + t + ` WHERE user_id = $1`,
		list:   `SELECT COALESCE(array_agg(user_id ORDER BY user_id), '{}'::text[]) FROM ` + t,
	}
}

// Store implements ports.StateStore with one row per user.
type Store struct {
	db DB
	q  queries
}

type Option func(*Store)

// WithTable overrides the table name.
func WithTable(table string) Option {
	return func(s *Store) {
		s.q = buildQueries(table)
	}
}

// New creates a store over an existing pool (or any DB).
func New(db DB, opts ...Option) *Store {
	s := &Store{db: db, q: buildQueries(DefaultTable)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect opens a pgx pool and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Migrate creates the sessions table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, s.q.migrate); err != nil {
		return fmt.Errorf("%w: migrate sessions table: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Save upserts the session row.
func (s *Store) Save(ctx context.Context, userID string, session *domain.Session) error {
	updated := session.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	_, err := s.db.Exec(ctx, s.q.upsert, userID, string(session.State), session.LastEventID, session.Sealed, updated)
	if err != nil {
		return fmt.Errorf("%w: save session: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Load reads the session row.
func (s *Store) Load(ctx context.Context, userID string) (*domain.Session, error) {
	session := domain.Session{UserID: userID}
	var state string
	err := s.db.QueryRow(ctx, s.q.load, userID).Scan(&state, &session.LastEventID, &session.Sealed, &session.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load session: %v", domain.ErrStoreUnavailable, err)
	}
	session.State = domain.State(state)
	return &session, nil
}

// Delete removes the session row.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if _, err := s.db.Exec(ctx, s.q.delete, userID); err != nil {
		return fmt.Errorf("%w: delete session: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// List returns all user IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.QueryRow(ctx, s.q.list).Scan(&ids); err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", domain.ErrStoreUnavailable, err)
	}
	return ids, nil
}
