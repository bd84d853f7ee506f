package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/markdave123-py/botgpt/internal/config"
	"github.com/markdave123-py/botgpt/internal/core"
)

var _ core.DbClient = (*DatabaseClient)(nil)

// DatabaseClient implements core.DbClient on database/sql for either
// Postgres (pgx) or SQLite (modernc).
type DatabaseClient struct {
	db *sql.DB
	d  dialect
}

// NewDatabaseClient opens the database selected by cfg.DatabaseDriver and
// makes sure the schema exists.
func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		return NewPostgresClient(ctx, cfg.DatabaseURL, cfg.SslCertPath)
	case config.DriverSQLite, "":
		return NewSQLiteClient(ctx, cfg.DatabasePath)
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
}

// NewPostgresClient connects through pgx. When sslCertPath is set the
// connection verifies the server against that CA.
func NewPostgresClient(ctx context.Context, databaseURL, sslCertPath string) (*DatabaseClient, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	dsn := databaseURL
	if sslCertPath != "" {
		if _, err := os.Stat(sslCertPath); err != nil {
			return nil, fmt.Errorf("ssl cert not accessible at %q: %w", sslCertPath, err)
		}
		u, err := url.Parse(databaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		q := u.Query()
		q.Set("sslmode", "verify-ca")
		q.Set("sslrootcert", sslCertPath)
		u.RawQuery = q.Encode()
		dsn = u.String()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	return open(ctx, db, postgresDialect)
}

// NewSQLiteClient opens (creating if needed) the database file at path.
// ":memory:" is accepted for throwaway databases.
func NewSQLiteClient(ctx context.Context, path string) (*DatabaseClient, error) {
	if path == "" {
		return nil, fmt.Errorf("DATABASE_PATH is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// one writer at a time; this also keeps a :memory: database alive
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	return open(ctx, db, sqliteDialect)
}

func open(ctx context.Context, db *sql.DB, d dialect) (*DatabaseClient, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := EnsureBootstrapped(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return &DatabaseClient{db: db, d: d}, nil
}

// Driver reports the active dialect name.
func (c *DatabaseClient) Driver() string { return c.d.name }

func (c *DatabaseClient) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *DatabaseClient) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return c.db.ExecContext(ctx, c.d.rebind(q), args...)
}

func (c *DatabaseClient) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, c.d.rebind(q), args...)
}

func (c *DatabaseClient) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return c.db.QueryRowContext(ctx, c.d.rebind(q), args...)
}

// deleteByID runs a single-row delete and reports ErrNotFound when nothing
// matched.
func (c *DatabaseClient) deleteByID(ctx context.Context, table, what, id string) error {
	res, err := c.exec(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return mapError(err, what)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(what, id)
	}
	return nil
}
