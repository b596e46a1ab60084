package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"census/migrations"
)

// Postgres is a Storage backed by a catalog_cache table, for deployments
// that already run Postgres and want the cache shared and durable.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects, pings, and applies the embedded schema migrations.
func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("cache: creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cache: pinging database: %w", err)
	}
	if err := runMigrations(connString); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func runMigrations(connString string) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("cache: creating migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, connString)
	if err != nil {
		return fmt.Errorf("cache: creating migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("cache: migration failed: %w", err)
	}
	return nil
}

func (p *Postgres) Get(key string) ([]byte, error) {
	ctx := context.Background()

	var val []byte
	var expiresAt *time.Time
	err := p.pool.QueryRow(ctx,
		`SELECT value, expires_at FROM catalog_cache WHERE key = $1`, key,
	).Scan(&val, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if expiresAt != nil && time.Now().After(*expiresAt) {
		p.pool.Exec(ctx, `DELETE FROM catalog_cache WHERE key = $1`, key)
		return nil, nil
	}
	return val, nil
}

func (p *Postgres) Set(key string, val []byte, exp time.Duration) error {
	var expiresAt *time.Time
	if exp > 0 {
		t := time.Now().Add(exp)
		expiresAt = &t
	}

	_, err := p.pool.Exec(context.Background(), `
		INSERT INTO catalog_cache (key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = now()
	`, key, val, expiresAt)
	return err
}

func (p *Postgres) Delete(key string) error {
	_, err := p.pool.Exec(context.Background(), `DELETE FROM catalog_cache WHERE key = $1`, key)
	return err
}

func (p *Postgres) Reset() error {
	_, err := p.pool.Exec(context.Background(), `DELETE FROM catalog_cache`)
	return err
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
