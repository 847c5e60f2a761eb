package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresArchive implements Archive against a Software Heritage
// storage database.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

// NewPostgresArchive connects to the archive database.
func NewPostgresArchive(dsn string) (*PostgresArchive, error) {
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
		return nil, fmt.Errorf("ping archive database: %w", err)
	}

	return &PostgresArchive{pool: pool}, nil
}

// Close releases the connection pool.
func (a *PostgresArchive) Close() {
	a.pool.Close()
}

// ContentSHA1Git returns the sha1_git of the archived content with the
// given sha1, or nil when absent.
func (a *PostgresArchive) ContentSHA1Git(ctx context.Context, sha1 []byte) ([]byte, error) {
	var sha1Git []byte
	err := a.pool.QueryRow(ctx,
		"SELECT sha1_git FROM content WHERE sha1 = $1", sha1,
	).Scan(&sha1Git)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("content lookup: %w", err)
	}
	return sha1Git, nil
}

// RevisionMissing returns the subset of ids with no archived revision.
func (a *PostgresArchive) RevisionMissing(ctx context.Context, ids [][]byte) ([][]byte, error) {
	rows, err := a.pool.Query(ctx,
		"SELECT id FROM revision WHERE id = ANY($1)", ids,
	)
	if err != nil {
		return nil, fmt.Errorf("revision lookup: %w", err)
	}
	defer rows.Close()

	present := make(map[string]struct{}, len(ids))
	for rows.Next() {
		var id []byte
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan revision id: %w", err)
		}
		present[string(id)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}

	var missing [][]byte
	for _, id := range ids {
		if _, ok := present[string(id)]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
