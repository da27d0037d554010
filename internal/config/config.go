package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"inventoryetl/detect"
)

// Config конфигурация конвейера.
type Config struct {
	// Папки
	SourceRoot     string `json:"INV_SOURCE_ROOT" yaml:"INV_SOURCE_ROOT"`
	CleanRoot      string `json:"INV_CLEAN_ROOT" yaml:"INV_CLEAN_ROOT"`
	CombinedFolder string `json:"combined_folder_path" yaml:"combined_folder_path"`

	// Отбор; пусто значит все найденные папки.
	Years         []string `json:"years" yaml:"years"`
	BusinessUnits []string `json:"business_units" yaml:"business_units"`

	// Переопределение выходных папок по категориям.
	OutputDirs map[string]string `json:"output_dirs" yaml:"output_dirs"`

	// Общее хранилище
	StorePath     string         `json:"store_path" yaml:"store_path"`
	ParquetExport *ParquetConfig `json:"parquet_export" yaml:"parquet_export"`

	// Переопределения правил: категория -> старое имя -> новое и
	// категория -> столбец -> старое значение -> новое.
	ColumnRenames     map[string]map[string]string            `json:"column_renames" yaml:"column_renames"`
	ValueReplacements map[string]map[string]map[string]string `json:"value_replacements" yaml:"value_replacements"`

	// Определение кодировки
	SampleSize          int     `json:"sample_size" yaml:"sample_size"`
	LocaleCodepage      string  `json:"locale_codepage" yaml:"locale_codepage"`
	MaxReplacementRatio float64 `json:"max_replacement_ratio" yaml:"max_replacement_ratio"`

	// Логирование
	LogLevel  string `json:"log_level" yaml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format"`
}

// ParquetConfig настройки parquet-копий общих хранилищ.
type ParquetConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Dir     string `json:"dir" yaml:"dir"`
}

// Load читает .env, если он есть, строит конфигурацию из окружения и
// накладывает поверх файл path, если он задан. Результат проверяется.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // .env необязателен

	cfg := FromEnv()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv возвращает конфигурацию из переменных окружения со значениями по
// умолчанию для незаданных.
func FromEnv() *Config {
	defaults := detect.DefaultConfig()
	return &Config{
		SourceRoot:          getEnv("INV_SOURCE_ROOT", ""),
		CleanRoot:           getEnv("INV_CLEAN_ROOT", ""),
		CombinedFolder:      getEnv("INV_COMBINED_FOLDER", ""),
		Years:               getEnvList("INV_YEARS", nil),
		BusinessUnits:       getEnvList("INV_BUSINESS_UNITS", nil),
		StorePath:           getEnv("INV_STORE_PATH", "combined.db"),
		SampleSize:          getEnvInt("INV_SAMPLE_SIZE", defaults.SampleSize),
		LocaleCodepage:      getEnv("INV_LOCALE_CODEPAGE", defaults.Profile.Codepage),
		MaxReplacementRatio: getEnvFloat("INV_MAX_REPLACEMENT_RATIO", defaults.MaxReplacementRatio),
		LogLevel:            getEnv("LOG_LEVEL", "INFO"),
		LogFormat:           getEnv("LOG_FORMAT", "json"),
	}
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// DetectorConfig возвращает настройки детектора. Метки коллизий берутся из
// тайского профиля при любой кодовой странице.
func (c *Config) DetectorConfig() detect.Config {
	cfg := detect.DefaultConfig()
	if c.SampleSize > 0 {
		cfg.SampleSize = c.SampleSize
	}
	if c.LocaleCodepage != "" {
		cfg.Profile.Codepage = c.LocaleCodepage
	}
	cfg.MaxReplacementRatio = c.MaxReplacementRatio
	return cfg
}

// OutputDir возвращает папку для сконвертированных файлов категории.
func (c *Config) OutputDir(year, bu, category string) string {
	if dir, ok := c.OutputDirs[category]; ok && dir != "" {
		return dir
	}
	return filepath.Join(c.CleanRoot, year, bu, category)
}

// ParquetDir возвращает каталог parquet-копий хранилищ или "", если они
// выключены. Без секции parquet_export копии пишутся в combined_folder_path.
func (c *Config) ParquetDir() string {
	if c.ParquetExport == nil {
		return c.CombinedFolder
	}
	if !c.ParquetExport.Enabled {
		return ""
	}
	if c.ParquetExport.Dir != "" {
		return c.ParquetExport.Dir
	}
	return c.CombinedFolder
}

// getEnv получает переменную окружения или значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvList разбивает переменную по запятым
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
