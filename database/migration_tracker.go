package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

const migrationsTableName = "schema_migrations"

// migration одно изменение схемы файла хранилища.
type migration struct {
	name  string
	apply func(ctx context.Context, tx *sql.Tx) error
}

// ensureMigrationTable создает schema_migrations при необходимости.
func ensureMigrationTable(ctx context.Context, db *sql.DB) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, migrationsTableName)

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure %s table: %w", migrationsTableName, err)
	}
	return nil
}

func appliedSet(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT name FROM %s`, migrationsTableName))
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

// applyMigrations применяет каждую миграцию не более одного раза на файл.
// Миграция и запись о ней идут в одной транзакции: при ошибке файл остается
// в прежнем состоянии и миграция повторится при следующем открытии.
func applyMigrations(ctx context.Context, db *sql.DB, migrations []migration) error {
	if err := ensureMigrationTable(ctx, db); err != nil {
		return err
	}
	applied, err := appliedSet(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.name] {
			slog.Debug("migration already applied", "migration", m.name)
			continue
		}
		if err := runMigration(ctx, db, m); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.name, err)
		}
		slog.Info("migration applied", "migration", m.name)
	}
	return nil
}

func runMigration(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := m.apply(ctx, tx); err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s(name, applied_at) VALUES(?, ?)`, migrationsTableName)
	if _, err := tx.ExecContext(ctx, query, m.name, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to mark migration as applied: %w", err)
	}
	return tx.Commit()
}

// AppliedMigrations возвращает имена примененных миграций в порядке применения.
func AppliedMigrations(db *sql.DB) ([]string, error) {
	ctx := context.Background()
	if err := ensureMigrationTable(ctx, db); err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT name FROM %s ORDER BY applied_at, name`, migrationsTableName))
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
