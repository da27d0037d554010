package config

import (
	"errors"
	"fmt"
	"strings"

	"inventoryetl/detect"
)

// ErrMissingRoot возвращается, когда команде нужна ненастроенная папка.
var ErrMissingRoot = errors.New("required folder is not configured")

// Validate проверяет конфигурацию и сообщает обо всех проблемах сразу.
func (c *Config) Validate() error {
	var errors []string

	if c.SampleSize < 1 {
		errors = append(errors, "sample size must be at least 1")
	}
	if c.MaxReplacementRatio < 0 || c.MaxReplacementRatio > 1 {
		errors = append(errors, fmt.Sprintf("max replacement ratio must be between 0 and 1, got %g", c.MaxReplacementRatio))
	}
	if c.LocaleCodepage != "" {
		if _, err := detect.Lookup(c.LocaleCodepage); err != nil {
			errors = append(errors, fmt.Sprintf("unknown locale codepage: %s", c.LocaleCodepage))
		}
	}
	if c.StorePath == "" {
		errors = append(errors, "store path is required")
	}

	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	if c.LogLevel != "" {
		valid := false
		logLevelUpper := strings.ToUpper(c.LogLevel)
		for _, level := range validLogLevels {
			if logLevelUpper == level {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, fmt.Sprintf("invalid log level: %s (valid: %s)",
				c.LogLevel, strings.Join(validLogLevels, ", ")))
		}
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "json", "text":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format: %s (valid: json, text)", c.LogFormat))
	}

	for category, dir := range c.OutputDirs {
		if strings.TrimSpace(dir) == "" {
			errors = append(errors, fmt.Sprintf("output dir for %s is empty", category))
		}
	}
	if c.ParquetExport != nil && c.ParquetExport.Enabled && c.ParquetDir() == "" {
		errors = append(errors, "parquet export needs parquet_export.dir or combined_folder_path")
	}

	if len(errors) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

// RequireSource проверяет папки, нужные для конвертации.
func (c *Config) RequireSource() error {
	if c.SourceRoot == "" {
		return fmt.Errorf("%w: INV_SOURCE_ROOT", ErrMissingRoot)
	}
	if c.CleanRoot == "" && len(c.OutputDirs) == 0 {
		return fmt.Errorf("%w: INV_CLEAN_ROOT", ErrMissingRoot)
	}
	return nil
}

// RequireClean проверяет папки, нужные для объединения.
func (c *Config) RequireClean() error {
	if c.CleanRoot == "" {
		return fmt.Errorf("%w: INV_CLEAN_ROOT", ErrMissingRoot)
	}
	return nil
}
