// Package logging configures the process-wide structured logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

var (
	// Logger глобальный структурированный логгер
	Logger *slog.Logger
)

func init() {
	Logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
	}))
}

// ParseLevel переводит DEBUG, INFO, WARN и ERROR (в любом регистре) в уровень slog.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// New создает логгер, пишущий в w. format: "json" или "text".
func New(level slog.Level, format string, w io.Writer) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	}
	switch strings.ToLower(format) {
	case "", "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

// Setup заменяет глобальный логгер и логгер slog по умолчанию.
func Setup(level, format string, w io.Writer) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l, err := New(lvl, format, w)
	if err != nil {
		return err
	}
	Logger = l
	slog.SetDefault(l)
	return nil
}

// --- Жизненный цикл конвейера ---

// LogFileStart логирует начало конвертации файла
func LogFileStart(l *slog.Logger, path, category string) {
	l.Info("File conversion started",
		"file", path,
		"category", category,
	)
}

// LogFileDone логирует успешно сконвертированный файл
func LogFileDone(l *slog.Logger, path, output, encoding string, sheets int, duration time.Duration) {
	l.Info("File conversion completed",
		"file", path,
		"output", output,
		"encoding", encoding,
		"sheets", sheets,
		"duration_ms", duration.Milliseconds(),
	)
}

// LogFileFailed логирует файл, который не удалось сконвертировать
func LogFileFailed(l *slog.Logger, path, state string, err error) {
	l.Error("File conversion failed",
		"file", path,
		"state", state,
		"error", err,
	)
}

// LogBatchComplete логирует итоги пакетного запуска
func LogBatchComplete(l *slog.Logger, total, converted, failed int, duration time.Duration) {
	l.Info("Batch completed",
		"total", total,
		"converted", converted,
		"failed", failed,
		"duration_ms", duration.Milliseconds(),
	)
}
