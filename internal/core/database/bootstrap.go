package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"
)

//go:embed scripts/*.sql
var bootstrapFS embed.FS

const schemaVersion = 1

// EnsureBootstrapped creates the schema when the meta table or its version
// row is missing. The scripts are idempotent, so a partial earlier run is
// simply completed.
func EnsureBootstrapped(ctx context.Context, db *sql.DB, d dialect) error {
	ctxBoot, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	var exists bool
	if err := db.QueryRowContext(ctxBoot, d.metaTableQuery).Scan(&exists); err != nil {
		return fmt.Errorf("meta table check failed: %w", err)
	}
	if !exists {
		return runBootstrap(ctxBoot, db, d)
	}

	var hasVersion bool
	q := d.rebind(`SELECT EXISTS (SELECT 1 FROM botgpt_meta WHERE version = ?)`)
	if err := db.QueryRowContext(ctxBoot, q, schemaVersion).Scan(&hasVersion); err != nil {
		return fmt.Errorf("meta version check failed: %w", err)
	}
	if !hasVersion {
		return runBootstrap(ctxBoot, db, d)
	}
	return nil
}

func runBootstrap(ctx context.Context, db *sql.DB, d dialect) error {
	sqlBytes, err := bootstrapFS.ReadFile(d.script)
	if err != nil {
		return fmt.Errorf("read %s: %w", d.script, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("exec bootstrap: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap: %w", err)
	}
	return nil
}
