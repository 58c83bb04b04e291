package lookup

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ppiankov/crosscheck/internal/model"
)

const postgresQuery = `SELECT authority, COALESCE(category, ''), agency FROM authority_agency`

// PostgresSource reads the reference table from a shared PostgreSQL database
type PostgresSource struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and verifies the connection
func OpenPostgres(ctx context.Context, dsn string) (*PostgresSource, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolConfig.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresSource{pool: pool}, nil
}

// Load returns every row of authority_agency
func (p *PostgresSource) Load(ctx context.Context) ([]model.AuthorityAgency, error) {
	rows, err := p.pool.Query(ctx, postgresQuery)
	if err != nil {
		return nil, fmt.Errorf("query lookup: %w", err)
	}
	defer rows.Close()

	var entries []model.AuthorityAgency
	for rows.Next() {
		var e model.AuthorityAgency
		if err := rows.Scan(&e.Authority, &e.Category, &e.Agency); err != nil {
			return nil, fmt.Errorf("scan lookup row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lookup rows: %w", err)
	}
	return entries, nil
}

// Close releases the pool
func (p *PostgresSource) Close() error {
	p.pool.Close()
	return nil
}
