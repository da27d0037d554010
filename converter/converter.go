// Package converter drives source files through detection, splitting and
// normalization into native spreadsheets.
package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"inventoryetl/blocks"
	"inventoryetl/detect"
	"inventoryetl/exporter"
	"inventoryetl/importer"
	"inventoryetl/internal/logging"
	"inventoryetl/normalization"
	"inventoryetl/table"
)

// Job один файл для конвертации.
type Job struct {
	Path   string
	Rules  *normalization.Rules
	OutDir string
	Year   string
	BU     string
}

// SheetSummary описание одного записанного листа.
type SheetSummary struct {
	Name    string
	Rows    int
	Columns int
	// DroppedRows пустые строки, удаленные при разбиении на блоки.
	DroppedRows int
	// CoercedToNull число значений по столбцам, ставших пропусками.
	CoercedToNull map[string]int
}

// Result итог обработки одного файла.
type Result struct {
	Input      string
	Output     string
	Category   string
	Trace      []State
	Encoding   string
	Confidence float64
	// Fallback означает, что книгу прочитать не удалось и файл разобран как
	// текст с разделителями.
	Fallback bool
	Copied   bool
	Sheets   []SheetSummary
	Duration time.Duration
	Err      error
}

// State возвращает последнее достигнутое состояние.
func (r *Result) State() State {
	if len(r.Trace) == 0 {
		return StateStart
	}
	return r.Trace[len(r.Trace)-1]
}

func (r *Result) enter(s State) { r.Trace = append(r.Trace, s) }

// Converter конвертирует файлы по одному.
type Converter struct {
	detector   *detect.Detector
	normalizer *normalization.Normalizer
	logger     *slog.Logger
}

// New создает конвертер. При nil logger используется slog.Default().
func New(detector *detect.Detector, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	if detector == nil {
		detector = detect.New(detect.DefaultConfig(), logger)
	}
	return &Converter{
		detector:   detector,
		normalizer: normalization.NewNormalizer(logger),
		logger:     logger,
	}
}

// ConvertFile конвертирует job.Path в job.OutDir/<basename>.xlsx. Ошибка,
// если есть, имеет тип *FileError и дублируется в Result.Err.
func (c *Converter) ConvertFile(ctx context.Context, job Job) (*Result, error) {
	start := time.Now()
	res := &Result{Input: job.Path}
	res.enter(StateStart)
	if job.Rules == nil {
		return c.fail(res, ErrNilRules)
	}
	res.Category = job.Rules.Category
	logging.LogFileStart(c.logger, job.Path, job.Rules.Category)

	if err := ctx.Err(); err != nil {
		return c.fail(res, err)
	}

	// 1. Проверка расширения.
	res.enter(StateExtensionCheck)
	ext := filepath.Ext(job.Path)
	stem := strings.TrimSuffix(filepath.Base(job.Path), ext)
	res.Output = filepath.Join(job.OutDir, stem+".xlsx")

	if strings.EqualFold(ext, ".xlsx") {
		if err := exporter.CopyFile(job.Path, res.Output); err != nil {
			return c.fail(res, err)
		}
		res.Copied = true
		res.Encoding = "utf-8"
		res.Confidence = 1
		return c.done(res, start)
	}

	// 2. Чтение.
	raw, err := c.read(ctx, job, res)
	if err != nil {
		return c.fail(res, err)
	}
	res.Encoding = raw.Encoding
	res.Confidence = raw.Confidence

	// 3. Разбиение на блоки.
	parts := []blocks.Block{{Index: 1, Start: 0, End: raw.Width(), Raw: raw}}
	if job.Rules.MultiBlock {
		res.enter(StateBlockSplit)
		parts = blocks.Split(raw, job.Rules.Marker())
		c.logger.Debug("blocks split", "file", job.Path, "blocks", len(parts))
	}

	// 4. Приведение типов. Дубликаты строк сохраняются.
	res.enter(StateTypeCoerce)
	sheets := make([]exporter.Sheet, 0, len(parts))
	for _, b := range parts {
		t, report, err := c.normalizer.Coerce(b.Raw, job.Rules)
		if err != nil {
			return c.fail(res, err)
		}
		name := b.SheetName()
		sheets = append(sheets, exporter.Sheet{Name: name, Table: t})
		res.Sheets = append(res.Sheets, SheetSummary{
			Name:          name,
			Rows:          t.NumRows(),
			Columns:       t.NumCols(),
			DroppedRows:   b.Dropped,
			CoercedToNull: report.CoercedToNull,
		})
	}

	// 5. Запись.
	res.enter(StateWrite)
	if err := exporter.WriteWorkbook(res.Output, sheets); err != nil {
		return c.fail(res, err)
	}
	return c.done(res, start)
}

// read пробует читатель книг для .xls и при любой ошибке переходит к разбору
// текста с разделителями. Остальные расширения сразу идут в разбор.
func (c *Converter) read(ctx context.Context, job Job, res *Result) (*table.Raw, error) {
	data, err := os.ReadFile(job.Path)
	if err != nil {
		res.enter(StateDelimitedParse)
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(job.Path), ".xls") {
		res.enter(StateSpreadsheetRead)
		raw, err := importer.ReadSpreadsheet(job.Path, c.detector.Charset(data), job.Rules.SkipRows)
		if err == nil {
			return raw, nil
		}
		res.Fallback = true
		level := slog.LevelWarn
		if errors.Is(err, importer.ErrNotSpreadsheet) {
			level = slog.LevelDebug
		}
		c.logger.Log(ctx, level, "spreadsheet read failed, parsing as delimited text",
			"file", job.Path,
			"error", err,
		)
	}

	res.enter(StateDelimitedParse)
	raw, err := c.detector.Detect(data, job.Rules.Delimiter, job.Rules.SkipRows)
	if err != nil {
		return nil, err
	}
	raw.Path = job.Path
	return raw, nil
}

func (c *Converter) done(res *Result, start time.Time) (*Result, error) {
	res.enter(StateDone)
	res.Duration = time.Since(start)
	logging.LogFileDone(c.logger, res.Input, res.Output, res.Encoding, len(res.Sheets), res.Duration)
	return res, nil
}

// fail привязывает err к последнему состоянию.
func (c *Converter) fail(res *Result, err error) (*Result, error) {
	state := res.State()
	fe := &FileError{Path: res.Input, State: state, Err: err}
	res.enter(StateFailed)
	res.Err = fe
	logging.LogFileFailed(c.logger, res.Input, state.String(), err)
	return res, fe
}
