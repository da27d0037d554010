package combine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"inventoryetl/exporter"
	"inventoryetl/importer"
	"inventoryetl/normalization"
	"inventoryetl/schema"
	"inventoryetl/table"
)

// Имена служебных столбцов, добавляемых при объединении.
const (
	ColumnBU    = "BU"
	ColumnYear  = "Year"
	ColumnMonth = "Month"
)

// FolderJob одна папка сконвертированных книг для сведения в хранилище.
type FolderJob struct {
	Dir   string
	Year  string
	BU    string
	Rules *normalization.Rules
	// Key заменяет ключ хранилища, выведенный из правил.
	Key string
	// SnapshotPath, если задан, получает parquet-копию всего хранилища.
	SnapshotPath string
}

// FileFailure книга, которую не удалось прочитать.
type FileFailure struct {
	Path string
	Err  error
}

// FolderResult итоги одного вызова CombineFolder.
type FolderResult struct {
	Key      string
	Files    []string
	Failures []FileFailure
	Drifts   []schema.Drift
	Append   *AppendResult
	Snapshot string
}

// Stage читает сконвертированные книги, выравнивает их и добавляет в хранилище.
type Stage struct {
	combiner   *Combiner
	normalizer *normalization.Normalizer
	reconciler *schema.Reconciler
	logger     *slog.Logger
}

// NewStage создает этап объединения над store. При nil logger используется slog.Default().
func NewStage(store Store, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{
		combiner:   NewCombiner(store, logger),
		normalizer: normalization.NewNormalizer(logger),
		reconciler: schema.NewReconciler(logger),
		logger:     logger,
	}
}

// Combiner возвращает объединитель, через который этап добавляет пакеты.
func (s *Stage) Combiner() *Combiner { return s.combiner }

// CombineFolder добавляет все книги .xlsx из job.Dir в хранилище задания.
// Нечитаемые книги попадают в отчет и пропускаются.
func (s *Stage) CombineFolder(ctx context.Context, job FolderJob) (*FolderResult, error) {
	if job.Rules == nil {
		return nil, ErrNilRules
	}
	key := job.Key
	if key == "" {
		key = job.Rules.StoreKey(job.Year, job.BU)
	}
	res := &FolderResult{Key: key}

	files, err := workbooks(job.Dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoInputFiles, job.Dir)
	}
	s.logger.Info("combining folder",
		"dir", job.Dir,
		"category", job.Rules.Category,
		"key", key,
		"files", len(files),
	)

	// 1. Чтение и нормализация каждой книги.
	var tables []*table.Table
	var sources []string
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sheets, err := s.readFile(path, job)
		if err != nil {
			s.logger.Error("skipping workbook", "file", path, "error", err)
			res.Failures = append(res.Failures, FileFailure{Path: path, Err: err})
			continue
		}
		tables = append(tables, sheets...)
		sources = append(sources, filepath.Base(path))
		res.Files = append(res.Files, path)
	}
	if len(tables) == 0 {
		return res, nil
	}

	// 2. Выравнивание по первой таблице и склейка.
	aligned, _, drifts := s.reconciler.Reconcile(tables)
	res.Drifts = drifts
	batch := table.Concat(key, aligned...)

	// 3. Добавление в хранилище.
	appended, err := s.combiner.Append(ctx, key, batch, sources)
	if err != nil {
		return nil, err
	}
	res.Append = appended

	// 4. Parquet-копия всего содержимого хранилища, если задан путь.
	if job.SnapshotPath != "" {
		stored, err := s.combiner.Load(ctx, key)
		if err != nil {
			return nil, err
		}
		if stored != nil {
			if err := exporter.WriteParquet(job.SnapshotPath, stored); err != nil {
				return nil, fmt.Errorf("failed to write snapshot: %w", err)
			}
			res.Snapshot = job.SnapshotPath
			s.logger.Info("snapshot written", "key", key, "path", job.SnapshotPath, "rows", stored.NumRows())
		}
	}
	return res, nil
}

func (s *Stage) readFile(path string, job FolderJob) ([]*table.Table, error) {
	sheets, err := importer.ReadWorkbook(path)
	if err != nil {
		return nil, err
	}
	if !job.Rules.Combine.AllSheets {
		sheets = sheets[:1]
	}
	out := make([]*table.Table, 0, len(sheets))
	for _, raw := range sheets {
		t, _, err := s.normalizer.Normalize(raw, job.Rules, job.Rules.RequiredColumns)
		if err != nil {
			return nil, err
		}
		addExtras(t, filepath.Base(path), job)
		out = append(out, t)
	}
	return out, nil
}

func addExtras(t *table.Table, name string, job FolderJob) {
	opts := job.Rules.Combine
	if opts.AddBU {
		t.SetConstant(ColumnBU, table.Str(job.BU))
	}
	if opts.AddYear {
		t.SetConstant(ColumnYear, table.Str(job.Year))
	}
	if opts.MonthFromFilename {
		t.SetConstant(ColumnMonth, table.Str(ExtractMonth(name)))
	}
	if opts.SourceColumn != "" {
		t.SetConstant(opts.SourceColumn, table.Str(job.Rules.Category))
	}
}

func workbooks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), "~$") {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".xlsx") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
