// Package combine appends normalized batches to persistent combined stores.
package combine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"inventoryetl/table"
)

// Store хранит по одной общей таблице на ключ.
type Store interface {
	Load(ctx context.Context, key string) (*table.Table, bool, error)
	Save(ctx context.Context, key string, t *table.Table) error
	Clear(ctx context.Context, key string) error
	RecordBatch(ctx context.Context, key string, rowCount int, sources []string) (string, error)
	Sources(ctx context.Context, key string) ([]string, error)
}

// AppendResult итог одного добавления.
type AppendResult struct {
	Key       string
	BatchID   string
	PriorRows int
	Appended  int
	TotalRows int
	// NewColumns столбцы пакета, которых еще не было в хранилище.
	NewColumns []string
	// AbsentColumns столбцы хранилища, которых нет в пакете.
	AbsentColumns []string
	// Repeated источники, уже записанные в журнал этого ключа.
	Repeated []string
	// KindConflicts общие столбцы, тип которых в пакете отличается от
	// хранимого. Остается хранимый тип.
	KindConflicts []KindConflict
}

// KindConflict столбец, типизированный по-разному в хранилище и в пакете.
type KindConflict struct {
	Column string
	Stored table.Kind
	Batch  table.Kind
	// Converted означает, что все значения пакета приведены к хранимому
	// типу. Иначе значения пакета сохраняют свой тип.
	Converted bool
}

// Combiner добавляет пакеты в Store. Дубликаты при добавлении не удаляются:
// повторный запуск на тех же файлах запишет их строки дважды. Для чистого
// старта есть Clear.
type Combiner struct {
	store  Store
	logger *slog.Logger
}

// NewCombiner создает объединитель над store. При nil logger используется slog.Default().
func NewCombiner(store Store, logger *slog.Logger) *Combiner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Combiner{store: store, logger: logger}
}

// Append дописывает batch после содержимого ключа key и сохраняет результат.
// Прежние строки идут первыми в прежнем порядке.
func (c *Combiner) Append(ctx context.Context, key string, batch *table.Table, sources []string) (*AppendResult, error) {
	if c.store == nil {
		return nil, ErrNoStore
	}
	if key == "" {
		return nil, ErrEmptyKey
	}
	if batch == nil {
		batch = table.New(key)
	}

	// 1. Прежнее содержимое.
	prior, found, err := c.store.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load store %s: %w", key, err)
	}
	res := &AppendResult{Key: key, Appended: batch.NumRows()}

	// 2. О расхождении столбцов и повторных источниках сообщаем, но не исправляем.
	if found {
		res.PriorRows = prior.NumRows()
		res.NewColumns, res.AbsentColumns = columnDrift(prior, batch)
		if len(res.NewColumns) > 0 || len(res.AbsentColumns) > 0 {
			c.logger.Warn("stored columns differ from batch",
				"key", key,
				"new_columns", res.NewColumns,
				"absent_columns", res.AbsentColumns,
			)
		}
		batch, res.KindConflicts = alignKinds(prior, batch)
		for _, kc := range res.KindConflicts {
			c.logger.Warn("batch column kind differs from store, stored kind kept",
				"key", key,
				"column", kc.Column,
				"stored_kind", kc.Stored.String(),
				"batch_kind", kc.Batch.String(),
				"converted", kc.Converted,
			)
		}
	}
	recorded, err := c.store.Sources(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch log of %s: %w", key, err)
	}
	for _, s := range sources {
		if slices.Contains(recorded, s) {
			res.Repeated = append(res.Repeated, s)
		}
	}
	if len(res.Repeated) > 0 {
		c.logger.Warn("sources already appended, rows will repeat",
			"key", key,
			"sources", res.Repeated,
		)
	}

	// 3. Склейка и запись. Хранимые столбцы сохраняют тип, прежние строки
	// читаются так, как были записаны.
	combined := table.Concat(key, prior, batch)
	if found {
		for i, f := range prior.Fields {
			combined.Fields[i].Kind = f.Kind
		}
	}
	if err := c.store.Save(ctx, key, combined); err != nil {
		return nil, fmt.Errorf("failed to save store %s: %w", key, err)
	}
	res.TotalRows = combined.NumRows()

	// 4. Журнал пакетов.
	id, err := c.store.RecordBatch(ctx, key, batch.NumRows(), sources)
	if err != nil {
		return nil, err
	}
	res.BatchID = id

	c.logger.Info("batch appended",
		"key", key,
		"prior_rows", res.PriorRows,
		"appended", res.Appended,
		"total_rows", res.TotalRows,
	)
	return res, nil
}

// Clear удаляет содержимое ключа key.
func (c *Combiner) Clear(ctx context.Context, key string) error {
	if c.store == nil {
		return ErrNoStore
	}
	if key == "" {
		return ErrEmptyKey
	}
	if err := c.store.Clear(ctx, key); err != nil {
		return fmt.Errorf("failed to clear store %s: %w", key, err)
	}
	c.logger.Info("store cleared", "key", key)
	return nil
}

// Load возвращает текущее содержимое key или nil, если ничего не сохранено.
func (c *Combiner) Load(ctx context.Context, key string) (*table.Table, error) {
	if c.store == nil {
		return nil, ErrNoStore
	}
	t, found, err := c.store.Load(ctx, key)
	if err != nil || !found {
		return nil, err
	}
	return t, nil
}

// alignKinds приводит столбцы пакета к хранимому типу там, где приводятся все
// значения. Сам batch не меняется.
func alignKinds(prior, batch *table.Table) (*table.Table, []KindConflict) {
	var conflicts []KindConflict
	aligned := batch
	for _, f := range prior.Fields {
		i := batch.ColumnIndex(f.Name)
		if i < 0 || batch.Fields[i].Kind == f.Kind {
			continue
		}
		if aligned == batch {
			aligned = batch.Clone()
		}
		kc := KindConflict{Column: f.Name, Stored: f.Kind, Batch: batch.Fields[i].Kind}
		kc.Converted = aligned.CoerceColumn(i, f.Kind) == nil
		conflicts = append(conflicts, kc)
	}
	return aligned, conflicts
}

func columnDrift(prior, batch *table.Table) (added, absent []string) {
	for _, f := range batch.Fields {
		if prior.ColumnIndex(f.Name) < 0 {
			added = append(added, f.Name)
		}
	}
	for _, f := range prior.Fields {
		if batch.ColumnIndex(f.Name) < 0 {
			absent = append(absent, f.Name)
		}
	}
	return added, absent
}
