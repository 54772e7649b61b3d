package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/romanzh1/practice-srs/internal/models"
	"github.com/romanzh1/practice-srs/migrations"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

var _ models.Repository = (*DB)(nil)

type DB struct {
	db     *sqlx.DB
	tx     *sqlx.Tx
	psql   squirrel.StatementBuilderType
	driver string
}

func NewDB(driver, dsn string, maxIdle, maxOpen int) (*DB, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database (driver: %s): %w", driver, err)
	}

	var placeholder squirrel.PlaceholderFormat = squirrel.Dollar
	switch driver {
	case DriverPostgres:
		db.SetMaxIdleConns(maxIdle)
		db.SetMaxOpenConns(maxOpen)
		db.SetConnMaxLifetime(time.Hour)
		db.SetConnMaxIdleTime(time.Minute * 10)
	case DriverSQLite:
		// SQLite has a single writer; an in-memory database also lives only as long as its connection.
		db.SetMaxIdleConns(1)
		db.SetMaxOpenConns(1)
		placeholder = squirrel.Question

		if _, err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	default:
		_ = db.Close()
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{
		db:     db,
		psql:   squirrel.StatementBuilder.PlaceholderFormat(placeholder),
		driver: driver,
	}, nil
}

func (r *DB) Close() error {
	return r.db.Close()
}

func (r *DB) Driver() string {
	return r.driver
}

// migrationDir maps the driver to both the goose dialect and the embedded directory.
func (r *DB) migrationDir() (string, error) {
	goose.SetBaseFS(migrations.FS)

	dialect := "postgres"
	dir := "postgres"
	if r.driver == DriverSQLite {
		dialect = "sqlite3"
		dir = "sqlite3"
	}

	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("set goose dialect (dialect: %s): %w", dialect, err)
	}

	return dir, nil
}

func (r *DB) Up() error {
	dir, err := r.migrationDir()
	if err != nil {
		return err
	}

	if err := goose.Up(r.db.DB, dir); err != nil {
		return fmt.Errorf("run migrations (dir: %s): %w", dir, err)
	}

	return nil
}

func (r *DB) Down() error {
	dir, err := r.migrationDir()
	if err != nil {
		return err
	}

	if err := goose.Down(r.db.DB, dir); err != nil {
		return fmt.Errorf("roll back migration (dir: %s): %w", dir, err)
	}

	return nil
}

func (r *DB) Reset() error {
	dir, err := r.migrationDir()
	if err != nil {
		return err
	}

	if err := goose.Reset(r.db.DB, dir); err != nil {
		return fmt.Errorf("reset migrations (dir: %s): %w", dir, err)
	}

	return nil
}

func (r *DB) Status() error {
	dir, err := r.migrationDir()
	if err != nil {
		return err
	}

	if err := goose.Status(r.db.DB, dir); err != nil {
		return fmt.Errorf("migration status (dir: %s): %w", dir, err)
	}

	return nil
}

func (r *DB) Begin(ctx context.Context) (*DB, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	return &DB{
		db:     r.db,
		tx:     tx,
		psql:   r.psql,
		driver: r.driver,
	}, nil
}

func (r *DB) Commit() error {
	if r.tx == nil {
		return fmt.Errorf("no active transaction to commit")
	}
	return r.tx.Commit()
}

func (r *DB) Rollback() error {
	if r.tx == nil {
		return fmt.Errorf("no active transaction to rollback")
	}
	return r.tx.Rollback()
}

// RunInTx runs fn inside a transaction. Nested calls reuse the outer transaction.
func (r *DB) RunInTx(ctx context.Context, fn func(models.Repository) error) error {
	return r.inTx(ctx, func(tx *DB) error {
		return fn(tx)
	})
}

func (r *DB) inTx(ctx context.Context, fn func(*DB) error) error {
	if r.tx != nil {
		return fn(r)
	}

	txRepo, err := r.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = txRepo.Rollback()
			panic(p)
		}
	}()

	if err = fn(txRepo); err != nil {
		_ = txRepo.Rollback()
		return err
	}

	if err = txRepo.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (r *DB) executor() sqlx.ExtContext {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.executor().ExecContext(ctx, query, args...)
}

func (r *DB) QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row {
	return r.executor().QueryRowxContext(ctx, query, args...)
}

func (r *DB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, r.executor(), dest, query, args...)
}

func (r *DB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, r.executor(), dest, query, args...)
}
