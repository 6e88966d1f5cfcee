// Package migrations applies the numbered SQL files under migrations/ and
// records each applied version in schema_migrations.
package migrations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/yigit/examhub/internal/db"
)

// advisoryLockKey serialises migrations across server instances
const advisoryLockKey = 7340991

const createTrackingTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    VARCHAR(255) PRIMARY KEY,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Migrator runs SQL migration files inside transactions
type Migrator struct {
	db     db.Querier
	tx     db.TxManager
	logger zerolog.Logger
}

// NewMigrator creates a Migrator; conn runs the tracking table DDL and tx
// wraps every migration file
func NewMigrator(conn db.Querier, tx db.TxManager, lgr zerolog.Logger) *Migrator {
	return &Migrator{db: conn, tx: tx, logger: lgr}
}

// MigrationVersion extracts the version prefix of a migration file name,
// e.g. "001_init.sql" => "001"
func MigrationVersion(filename string) string {
	return strings.SplitN(filepath.Base(filename), "_", 2)[0]
}

// SQLFiles lists the .sql files of a directory in execution order
func SQLFiles(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// MigrateFromDirectory applies every pending SQL file of dirPath in order
func (m *Migrator) MigrateFromDirectory(ctx context.Context, dirPath string) error {
	files, err := SQLFiles(dirPath)
	if err != nil {
		return err
	}

	if _, err := m.db.Exec(ctx, createTrackingTable); err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}

	for _, file := range files {
		if err := m.MigrateFromFile(ctx, filepath.Join(dirPath, file)); err != nil {
			return err
		}
	}
	return nil
}

// MigrateFromFile applies one file unless its version is already recorded.
// The file and its tracking row commit together.
func (m *Migrator) MigrateFromFile(ctx context.Context, filePath string) error {
	filename := filepath.Base(filePath)
	version := MigrationVersion(filename)

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	applied := false
	err = m.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryLockKey); err != nil {
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}

		var done bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version,
		).Scan(&done); err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if done {
			return nil
		}

		if _, err := tx.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("error occurred during SQL migration %s: %w", filename, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return err
	}

	if applied {
		m.logger.Info().Str("file", filename).Msg("Migration applied")
	} else {
		m.logger.Debug().Str("file", filename).Msg("Migration already applied, skipping")
	}
	return nil
}
