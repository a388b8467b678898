package storemanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/dayplanner/internal/server/migrations"
	"github.com/dmitrijs2005/dayplanner/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/dayplanner/internal/server/repositories/tasks"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresManager owns the connection pool and vends PostgreSQL-backed
// repositories.
type PostgresManager struct {
	db *sql.DB
}

// gooseUpContext is a seam for testing runMigrations.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// NewPostgresManager opens the pool, verifies the connection, and brings the
// schema up to date with the embedded migrations.
func NewPostgresManager(ctx context.Context, dsn string) (*PostgresManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresManager{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func (m *PostgresManager) Accounts() accounts.Repository {
	return accounts.NewPostgresRepository(m.db)
}

func (m *PostgresManager) Tasks() tasks.Repository {
	return tasks.NewPostgresRepository(m.db)
}

func (m *PostgresManager) Close() error { return m.db.Close() }
