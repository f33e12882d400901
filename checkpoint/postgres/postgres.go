// Package postgres provides a durable core.CheckpointStore backed by
// PostgreSQL. Snapshots are append-only rows keyed (tenant_id, thread_id,
// version); optimistic concurrency is enforced with a conditional insert so
// a stale writer receives core.ErrConflict instead of overwriting.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hupe1980/tenantmesh/core"
)

//go:embed migrations.sql
var migrations embed.FS

// uniqueViolation is the PostgreSQL error code raised when two writers race
// the same (tenant, thread, version) primary key.
const uniqueViolation = "23505"

// Config holds PostgreSQL connection parameters.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Store is a PostgreSQL-backed checkpoint store. It is safe for concurrent
// use; all isolation guarantees are delegated to the database.
type Store struct {
	db *sql.DB
}

// New opens a connection pool, verifies connectivity and applies the
// embedded schema migrations.
func New(cfg Config) (*Store, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

// NewFromDB wraps an existing connection pool and applies migrations.
func NewFromDB(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("execute migrations: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Get returns the latest snapshot for the thread, scoped to the tenant.
func (s *Store) Get(ctx context.Context, tenantID, threadID string) (*core.Checkpoint, error) {
	const query = `
		SELECT payload FROM checkpoints
		WHERE tenant_id = $1 AND thread_id = $2
		ORDER BY version DESC
		LIMIT 1`

	var payload []byte
	err := s.db.QueryRowContext(ctx, query, tenantID, threadID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("thread %s: %w", threadID, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query checkpoint: %w", err)
	}

	var cp core.Checkpoint
	if err := json.Unmarshal(payload, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return &cp, nil
}

// Put appends a new snapshot version. The conditional insert only matches
// when the stored latest version equals expectedVersion; zero rows means a
// concurrent writer got there first.
func (s *Store) Put(ctx context.Context, tenantID, threadID string, expectedVersion int, cp *core.Checkpoint) error {
	payload, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	const query = `
		INSERT INTO checkpoints (tenant_id, thread_id, version, payload)
		SELECT $1, $2, $3, $4
		WHERE COALESCE(
			(SELECT MAX(version) FROM checkpoints WHERE tenant_id = $1 AND thread_id = $2),
			0) = $5`

	res, err := s.db.ExecContext(ctx, query, tenantID, threadID, cp.Version, payload, expectedVersion)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("thread %s: %w", threadID, core.ErrConflict)
		}
		return fmt.Errorf("insert checkpoint: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("thread %s: expected version %d: %w", threadID, expectedVersion, core.ErrConflict)
	}
	return nil
}

// List returns the latest snapshot of every thread the tenant owns.
func (s *Store) List(ctx context.Context, tenantID string) ([]*core.Checkpoint, error) {
	const query = `
		SELECT DISTINCT ON (thread_id) payload FROM checkpoints
		WHERE tenant_id = $1
		ORDER BY thread_id, version DESC`

	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query checkpoints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var res []*core.Checkpoint
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		var cp core.Checkpoint
		if err := json.Unmarshal(payload, &cp); err != nil {
			return nil, fmt.Errorf("decode checkpoint: %w", err)
		}
		res = append(res, &cp)
	}
	return res, rows.Err()
}
