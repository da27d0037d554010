package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"inventoryetl/table"
)

// DBConfig настройки пула соединений.
type DBConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// CombinedDB хранит накопительные общие таблицы, по одной на ключ.
type CombinedDB struct {
	conn *sql.DB
}

// StoreInfo описание одной хранимой таблицы.
type StoreInfo struct {
	Key       string
	Columns   []table.Field
	RowCount  int
	UpdatedAt time.Time
}

// Batch одно добавление, записанное в журнал хранилища.
type Batch struct {
	ID        string
	Key       string
	RowCount  int
	Sources   []string
	CreatedAt time.Time
}

// NewCombinedDB открывает файл хранилища, создавая его при необходимости.
func NewCombinedDB(dbPath string) (*CombinedDB, error) {
	return NewCombinedDBWithConfig(dbPath, DBConfig{})
}

// NewCombinedDBWithConfig открывает файл хранилища с настройками пула.
func NewCombinedDBWithConfig(dbPath string, config DBConfig) (*CombinedDB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open combined database: %w", err)
	}

	// Один писатель, чтобы SQLite не отвечал "database is locked".
	if config.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(config.MaxOpenConns)
	} else {
		conn.SetMaxOpenConns(1)
	}
	if config.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(config.MaxIdleConns)
	} else {
		conn.SetMaxIdleConns(1)
	}
	if config.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(config.ConnMaxLifetime)
	} else {
		conn.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping combined database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA encoding = 'UTF-8'"); err != nil {
		slog.Warn("failed to set UTF-8 encoding", "error", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
		slog.Warn("failed to enable WAL journal", "error", err)
	}

	if err := InitCombinedSchema(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize combined schema: %w", err)
	}
	if err := MigrateCombinedSchema(context.Background(), conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &CombinedDB{conn: conn}, nil
}

// Close закрывает базу.
func (db *CombinedDB) Close() error {
	return db.conn.Close()
}

type storedField struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func encodeFields(fields []table.Field) (string, error) {
	out := make([]storedField, len(fields))
	for i, f := range fields {
		out[i] = storedField{Name: f.Name, Kind: f.Kind.String()}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to encode columns: %w", err)
	}
	return string(b), nil
}

func decodeFields(s string) ([]table.Field, error) {
	var stored []storedField
	if err := json.Unmarshal([]byte(s), &stored); err != nil {
		return nil, fmt.Errorf("failed to decode columns: %w", err)
	}
	fields := make([]table.Field, len(stored))
	for i, f := range stored {
		kind, err := table.ParseKind(f.Kind)
		if err != nil {
			return nil, err
		}
		fields[i] = table.Field{Name: f.Name, Kind: kind}
	}
	return fields, nil
}

// dataTableName строит безопасный SQL-идентификатор из ключа хранилища.
func dataTableName(key string) string {
	var b strings.Builder
	b.WriteString("cs_")
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	fmt.Fprintf(&b, "_%08x", h.Sum32())
	return b.String()
}

func columnName(i int) string { return fmt.Sprintf("c%d", i) }

// kindColumnName хранит тип значения, если он отличается от типа столбца.
func kindColumnName(i int) string { return fmt.Sprintf("k%d", i) }

func (db *CombinedDB) lookup(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, key string) (name string, fields []table.Field, found bool, err error) {
	var columns string
	err = q.QueryRowContext(ctx,
		`SELECT table_name, columns FROM combined_stores WHERE store_key = ?`, key,
	).Scan(&name, &columns)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, false, nil
	}
	if err != nil {
		return "", nil, false, fmt.Errorf("failed to look up store %s: %w", key, err)
	}
	if err := ValidateTableName(name); err != nil {
		return "", nil, false, err
	}
	fields, err = decodeFields(columns)
	if err != nil {
		return "", nil, false, err
	}
	return name, fields, true, nil
}

// Load возвращает таблицу ключа key. found false, если ничего не сохранено.
func (db *CombinedDB) Load(ctx context.Context, key string) (*table.Table, bool, error) {
	name, fields, found, err := db.lookup(ctx, db.conn, key)
	if err != nil || !found {
		return nil, false, err
	}

	cols := make([]string, 0, 2*len(fields))
	for i := range fields {
		cols = append(cols, columnName(i), kindColumnName(i))
	}
	query := fmt.Sprintf(`SELECT %s FROM %q ORDER BY row_seq`, strings.Join(cols, ", "), name)
	if len(fields) == 0 {
		query = fmt.Sprintf(`SELECT row_seq FROM %q ORDER BY row_seq`, name)
	}
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read store %s: %w", key, err)
	}
	defer rows.Close()

	t := table.New(key, fields...)
	scan := make([]any, max(2*len(fields), 1))
	ptrs := make([]any, len(scan))
	for i := range scan {
		ptrs[i] = &scan[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, false, fmt.Errorf("failed to scan store %s: %w", key, err)
		}
		row := make([]table.Value, len(fields))
		for i, f := range fields {
			kind, err := cellKind(scan[2*i+1], f.Kind)
			if err != nil {
				return nil, false, fmt.Errorf("failed to read store %s: %w", key, err)
			}
			row[i] = fromSQL(scan[2*i], kind)
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to iterate store %s: %w", key, err)
	}
	return t, true, nil
}

// Save заменяет содержимое ключа key на t в одной транзакции.
func (db *CombinedDB) Save(ctx context.Context, key string, t *table.Table) error {
	columns, err := encodeFields(t.Fields)
	if err != nil {
		return err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	name, _, found, err := db.lookup(ctx, tx, key)
	if err != nil {
		return err
	}
	if !found {
		name = dataTableName(key)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, name)); err != nil {
		return fmt.Errorf("failed to drop %s: %w", name, err)
	}
	defs := []string{"row_seq INTEGER PRIMARY KEY"}
	cols := make([]string, 0, 2*len(t.Fields))
	marks := make([]string, 0, 2*len(t.Fields))
	for i := range t.Fields {
		cols = append(cols, columnName(i), kindColumnName(i))
		marks = append(marks, "?", "?")
		defs = append(defs, columnName(i), kindColumnName(i)+" TEXT")
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %q (%s)`, name, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}

	if len(t.Fields) > 0 {
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`,
			name, strings.Join(cols, ", "), strings.Join(marks, ", ")))
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		args := make([]any, 2*len(t.Fields))
		for r, row := range t.Rows {
			for i, v := range row {
				args[2*i] = toSQL(v)
				args[2*i+1] = kindTag(v, t.Fields[i].Kind)
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("failed to insert row %d into %s: %w", r, key, err)
			}
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO combined_stores (store_key, table_name, columns, row_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(store_key) DO UPDATE SET
			columns = excluded.columns,
			row_count = excluded.row_count,
			updated_at = excluded.updated_at
	`, key, name, columns, len(t.Rows), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update catalog for %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit store %s: %w", key, err)
	}
	return nil
}

// Clear удаляет все данные ключа key вместе с журналом пакетов.
func (db *CombinedDB) Clear(ctx context.Context, key string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	name, _, found, err := db.lookup(ctx, tx, key)
	if err != nil {
		return err
	}
	if found {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, name)); err != nil {
			return fmt.Errorf("failed to drop %s: %w", name, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM combined_stores WHERE store_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete catalog entry %s: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM combined_batches WHERE store_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete batches of %s: %w", key, err)
	}
	return tx.Commit()
}

// RecordBatch записывает добавление в журнал и возвращает его id.
func (db *CombinedDB) RecordBatch(ctx context.Context, key string, rowCount int, sources []string) (string, error) {
	if sources == nil {
		sources = []string{}
	}
	encoded, err := json.Marshal(sources)
	if err != nil {
		return "", fmt.Errorf("failed to encode sources: %w", err)
	}
	id := uuid.New().String()
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO combined_batches (id, store_key, row_count, sources, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, key, rowCount, string(encoded), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record batch for %s: %w", key, err)
	}
	return id, nil
}

// Batches возвращает добавления ключа key, старые первыми.
func (db *CombinedDB) Batches(ctx context.Context, key string) ([]Batch, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, store_key, row_count, sources, created_at FROM combined_batches
		 WHERE store_key = ? ORDER BY created_at, rowid`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches of %s: %w", key, err)
	}
	defer rows.Close()

	var out []Batch
	for rows.Next() {
		var b Batch
		var sources string
		if err := rows.Scan(&b.ID, &b.Key, &b.RowCount, &sources, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		if err := json.Unmarshal([]byte(sources), &b.Sources); err != nil {
			return nil, fmt.Errorf("failed to decode batch sources: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Sources возвращает все исходные файлы из журнала ключа key.
func (db *CombinedDB) Sources(ctx context.Context, key string) ([]string, error) {
	batches, err := db.Batches(ctx, key)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, b := range batches {
		out = append(out, b.Sources...)
	}
	return out, nil
}

// Keys перечисляет хранилища по порядку ключей.
func (db *CombinedDB) Keys(ctx context.Context) ([]StoreInfo, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT store_key, columns, row_count, updated_at FROM combined_stores ORDER BY store_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	defer rows.Close()

	var out []StoreInfo
	for rows.Next() {
		var info StoreInfo
		var columns string
		if err := rows.Scan(&info.Key, &columns, &info.RowCount, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		if info.Columns, err = decodeFields(columns); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

const storedTimeLayout = "2006-01-02T15:04:05Z07:00"

func toSQL(v table.Value) any {
	if !v.Valid {
		return nil
	}
	switch v.Kind {
	case table.KindInt:
		return v.Int
	case table.KindFloat:
		return v.Float
	case table.KindDate:
		return v.Time.Format(storedTimeLayout)
	case table.KindBool:
		if v.Bool {
			return int64(1)
		}
		return int64(0)
	default:
		return v.Str
	}
}

// kindTag возвращает тип значения для k<i> или nil, если он совпадает с
// типом столбца.
func kindTag(v table.Value, column table.Kind) any {
	if !v.Valid || v.Kind == column {
		return nil
	}
	return v.Kind.String()
}

func cellKind(src any, column table.Kind) (table.Kind, error) {
	switch s := src.(type) {
	case string:
		return table.ParseKind(s)
	case []byte:
		return table.ParseKind(string(s))
	}
	return column, nil
}

func fromSQL(src any, kind table.Kind) table.Value {
	switch s := src.(type) {
	case nil:
		return table.Null()
	case int64:
		switch kind {
		case table.KindBool:
			return table.Bool(s != 0)
		case table.KindFloat:
			return table.Float(float64(s))
		}
		return table.Int(s)
	case float64:
		if kind == table.KindInt && s == float64(int64(s)) {
			return table.Int(int64(s))
		}
		return table.Float(s)
	case []byte:
		return textValue(string(s), kind)
	case string:
		return textValue(s, kind)
	case time.Time:
		return table.Date(s)
	}
	return table.Str(fmt.Sprint(src))
}

func textValue(s string, kind table.Kind) table.Value {
	if kind == table.KindDate {
		if t, err := time.Parse(storedTimeLayout, s); err == nil {
			return table.Date(t)
		}
	}
	return table.Str(s)
}
