package sink

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// PostgresWriter implements Writer using PostgreSQL.
type PostgresWriter struct {
	pool *pgxpool.Pool
}

// NewPostgresWriter connects to the metadata database and initializes
// the schema.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
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
		return nil, fmt.Errorf("ping metadata database: %w", err)
	}

	w := &PostgresWriter{pool: pool}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return w, nil
}

// Close releases the connection pool.
func (w *PostgresWriter) Close() {
	w.pool.Close()
}

// RegisterAuthority upserts the authority record.
func (w *PostgresWriter) RegisterAuthority(ctx context.Context, a Authority) error {
	_, err := w.pool.Exec(ctx,
		`INSERT INTO metadata_authority (type, url) VALUES ($1, $2)
		 ON CONFLICT (type, url) DO NOTHING`,
		a.Type, a.URL,
	)
	if err != nil {
		return fmt.Errorf("register authority: %w", err)
	}
	return nil
}

// RegisterFetcher upserts the fetcher record.
func (w *PostgresWriter) RegisterFetcher(ctx context.Context, f Fetcher) error {
	_, err := w.pool.Exec(ctx,
		`INSERT INTO metadata_fetcher (name, version) VALUES ($1, $2)
		 ON CONFLICT (name, version) DO NOTHING`,
		f.Name, f.Version,
	)
	if err != nil {
		return fmt.Errorf("register fetcher: %w", err)
	}
	return nil
}

// Add appends metadata entries. Each entry is committed independently;
// a crash mid-batch loses no already-written entry.
func (w *PostgresWriter) Add(ctx context.Context, entries []Entry) error {
	const query = `
		INSERT INTO raw_extrinsic_metadata (
			target, origin, format, discovery_date, payload,
			authority_type, authority_url, fetcher_name, fetcher_version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, e := range entries {
		var origin any
		if e.Origin != "" {
			origin = e.Origin
		}
		_, err := w.pool.Exec(ctx, query,
			e.Target.String(),
			origin,
			e.Format,
			e.DiscoveryDate,
			e.Payload,
			e.Authority.Type,
			e.Authority.URL,
			e.Fetcher.Name,
			e.Fetcher.Version,
		)
		if err != nil {
			return fmt.Errorf("add metadata for %s: %w", e.Target, err)
		}
	}
	return nil
}
