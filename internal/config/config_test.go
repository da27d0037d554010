package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		SourceRoot:          "src",
		CleanRoot:           "clean",
		StorePath:           "combined.db",
		SampleSize:          100_000,
		LocaleCodepage:      "windows-874",
		MaxReplacementRatio: 0.05,
		LogLevel:            "INFO",
		LogFormat:           "json",
	}
}

func TestConfigLogLevelValidation(t *testing.T) {
	tests := []struct {
		name      string
		logLevel  string
		wantError bool
	}{
		{"Valid DEBUG", "DEBUG", false},
		{"Valid WARN", "WARN", false},
		{"Valid lowercase info", "info", false},
		{"Mixed case", "DeBuG", false},
		{"Empty string", "", false},
		{"Invalid value", "INVALID", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.LogLevel = tt.logLevel
			err := cfg.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.SampleSize = 0
	cfg.MaxReplacementRatio = 2
	cfg.LocaleCodepage = "klingon"
	cfg.LogFormat = "xml"
	cfg.StorePath = ""

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"sample size", "replacement ratio", "klingon", "log format", "store path"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"INV_SOURCE_ROOT": "/data/src",
		"INV_CLEAN_ROOT": "/data/clean",
		"combined_folder_path": "/data/combined",
		"years": ["ข้อมูลคลังสินค้า 2024"],
		"output_dirs": {"INV_VALUE": "/data/value"},
		"column_renames": {"INV_VALUE": {"SubInv": "SubInventory"}},
		"parquet_export": {"enabled": true}
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/src", cfg.SourceRoot)
	assert.Equal(t, []string{"ข้อมูลคลังสินค้า 2024"}, cfg.Years)
	assert.Equal(t, "SubInventory", cfg.ColumnRenames["INV_VALUE"]["SubInv"])
	assert.Equal(t, "/data/value", cfg.OutputDir("2024", "PT2", "INV_VALUE"))
	assert.Equal(t, filepath.Join("/data/clean", "2024", "PT2", "ORCMII"), cfg.OutputDir("2024", "PT2", "ORCMII"))
	assert.Equal(t, "/data/combined", cfg.ParquetDir())
	assert.Equal(t, 100_000, cfg.SampleSize)
	assert.NoError(t, cfg.RequireSource())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
INV_CLEAN_ROOT: /clean
business_units: [PT2, PLC]
sample_size: 2048
max_replacement_ratio: 0
value_replacements:
  INV_VALUE:
    UOM:
      EA: Each
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"PT2", "PLC"}, cfg.BusinessUnits)
	assert.Equal(t, 2048, cfg.DetectorConfig().SampleSize)
	assert.Zero(t, cfg.DetectorConfig().MaxReplacementRatio)
	assert.Equal(t, "Each", cfg.ValueReplacements["INV_VALUE"]["UOM"]["EA"])
	assert.ErrorIs(t, cfg.RequireSource(), ErrMissingRoot)
	assert.NoError(t, cfg.RequireClean())
	assert.Empty(t, cfg.ParquetDir())
}

func TestParquetDir(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantDir string
	}{
		{"off without combined folder", Config{}, ""},
		{"default on with combined folder", Config{CombinedFolder: "/combined"}, "/combined"},
		{"explicitly disabled", Config{CombinedFolder: "/combined", ParquetExport: &ParquetConfig{}}, ""},
		{"enabled with own dir", Config{CombinedFolder: "/combined", ParquetExport: &ParquetConfig{Enabled: true, Dir: "/snap"}}, "/snap"},
		{"enabled falls back to combined folder", Config{CombinedFolder: "/combined", ParquetExport: &ParquetConfig{Enabled: true}}, "/combined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantDir, tt.cfg.ParquetDir())
		})
	}
}

func TestLoadEnvFallback(t *testing.T) {
	t.Setenv("INV_SOURCE_ROOT", "/env/src")
	t.Setenv("INV_YEARS", "2024, 2025")
	t.Setenv("INV_SAMPLE_SIZE", "512")
	t.Setenv("INV_MAX_REPLACEMENT_RATIO", "0.2")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/env/src", cfg.SourceRoot)
	assert.Equal(t, []string{"2024", "2025"}, cfg.Years)
	assert.Equal(t, 512, cfg.SampleSize)
	assert.InDelta(t, 0.2, cfg.MaxReplacementRatio, 1e-9)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "windows-874", cfg.DetectorConfig().Profile.Codepage)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"sample_size": "lots"}`), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}
