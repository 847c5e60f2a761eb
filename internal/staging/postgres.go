package staging

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// The watermark lives in the clearcode_env key/value table under this key.
const watermarkKey = "date"

// PostgresStore implements Store against the ClearCode staging database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the staging database and ensures the
// bookkeeping tables exist.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	poolCfg.MaxConns = 5
	poolCfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping staging database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// NewRecords returns records modified after since, newest first, or all
// records when since is nil.
func (s *PostgresStore) NewRecords(ctx context.Context, since *time.Time) ([]Record, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if since != nil {
		rows, err = s.pool.Query(ctx,
			`SELECT path, content, last_modified_date FROM clearcode_cditem
			 WHERE last_modified_date > $1
			 ORDER BY last_modified_date DESC`, *since)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT path, content, last_modified_date FROM clearcode_cditem
			 ORDER BY last_modified_date DESC`)
	}
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Path, &r.Content, &r.LastModified); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// RecordByPath fetches one record exactly, or nil when absent.
func (s *PostgresStore) RecordByPath(ctx context.Context, path string) (*Record, error) {
	var r Record
	err := s.pool.QueryRow(ctx,
		`SELECT path, content, last_modified_date FROM clearcode_cditem
		 WHERE path = $1`, path,
	).Scan(&r.Path, &r.Content, &r.LastModified)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch record %q: %w", path, err)
	}
	return &r, nil
}

// LastRunDate returns the persisted watermark, or nil on first run.
func (s *PostgresStore) LastRunDate(ctx context.Context) (*time.Time, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		"SELECT value FROM clearcode_env WHERE key = $1", watermarkKey,
	).Scan(&value)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read watermark: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, fmt.Errorf("parse watermark %q: %w", value, err)
	}
	return &t, nil
}

// SetLastRunDate persists the watermark, committed immediately.
func (s *PostgresStore) SetLastRunDate(ctx context.Context, t time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO clearcode_env (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		watermarkKey, t.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write watermark: %w", err)
	}
	return nil
}

// UnmappedPaths lists the paths pending retry.
func (s *PostgresStore) UnmappedPaths(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT path FROM unmapped_data")
	if err != nil {
		return nil, fmt.Errorf("query unmapped paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan unmapped path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unmapped paths: %w", err)
	}
	return paths, nil
}

// AddUnmapped inserts a path into the retry set; duplicates are no-ops.
func (s *PostgresStore) AddUnmapped(ctx context.Context, path string) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO unmapped_data (path) VALUES ($1) ON CONFLICT (path) DO NOTHING",
		path,
	)
	if err != nil {
		return fmt.Errorf("add unmapped path %q: %w", path, err)
	}
	return nil
}

// RemoveUnmapped deletes a path from the retry set.
func (s *PostgresStore) RemoveUnmapped(ctx context.Context, path string) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM unmapped_data WHERE path = $1", path)
	if err != nil {
		return fmt.Errorf("remove unmapped path %q: %w", path, err)
	}
	return nil
}

// InsertRecord writes a staging row. The harvester normally owns this
// table; the mapper inserts only when seeding a fresh database.
func (s *PostgresStore) InsertRecord(ctx context.Context, r Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO clearcode_cditem
			(path, content, last_modified_date, last_map_date, map_error, uuid)
		 VALUES ($1, $2, $3, $3, '', $4)`,
		r.Path, r.Content, r.LastModified, uuid.New(),
	)
	if err != nil {
		return fmt.Errorf("insert record %q: %w", r.Path, err)
	}
	return nil
}
