package database

import (
	"context"
	"database/sql"
	"fmt"
)

// InitCombinedSchema создает каталог хранилищ и журнал пакетов.
func InitCombinedSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS combined_stores (
			store_key TEXT PRIMARY KEY,
			table_name TEXT NOT NULL UNIQUE,
			columns TEXT NOT NULL,
			row_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS combined_batches (
			id TEXT PRIMARY KEY,
			store_key TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			sources TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_combined_batches_store_key ON combined_batches(store_key);
		CREATE INDEX IF NOT EXISTS idx_combined_batches_created ON combined_batches(store_key, created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create combined schema: %w", err)
	}
	return nil
}

// combinedMigrations изменения формата для файлов, созданных прежними версиями.
var combinedMigrations = []migration{
	{name: "data_tables_cell_kinds", apply: addCellKindColumns},
}

// MigrateCombinedSchema приводит существующий файл хранилища к текущему формату.
func MigrateCombinedSchema(ctx context.Context, db *sql.DB) error {
	return applyMigrations(ctx, db, combinedMigrations)
}

// addCellKindColumns добавляет столбцы k<i> в таблицы данных, где их нет.
// Пустое значение k<i> означает тип столбца из каталога, поэтому старые
// строки читаются как прежде.
func addCellKindColumns(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `SELECT table_name, columns FROM combined_stores`)
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	type entry struct {
		name  string
		width int
	}
	var entries []entry
	for rows.Next() {
		var name, columns string
		if err := rows.Scan(&name, &columns); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan catalog: %w", err)
		}
		fields, err := decodeFields(columns)
		if err != nil {
			rows.Close()
			return err
		}
		entries = append(entries, entry{name: name, width: len(fields)})
	}
	if err := rows.Close(); err != nil {
		return err
	}

	for _, e := range entries {
		if err := ValidateTableName(e.name); err != nil {
			return err
		}
		existing, err := tableColumns(ctx, tx, e.name)
		if err != nil {
			return err
		}
		for i := 0; i < e.width; i++ {
			col := kindColumnName(i)
			if existing[col] {
				continue
			}
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %q ADD COLUMN %s TEXT`, e.name, col)); err != nil {
				return fmt.Errorf("failed to add %s to %s: %w", col, e.name, err)
			}
		}
	}
	return nil
}

func tableColumns(ctx context.Context, tx *sql.Tx, name string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, name))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", name, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			col     string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &col, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan columns of %s: %w", name, err)
		}
		cols[col] = true
	}
	return cols, rows.Err()
}
