package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"Warn", slog.LevelWarn, false},
		{"ERROR", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(slog.LevelInfo, "json", &buf)
	require.NoError(t, err)

	LogFileFailed(l, "a.xls", "DELIMITED_PARSE", errors.New("boom"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "File conversion failed", rec["msg"])
	assert.Equal(t, "a.xls", rec["file"])
	assert.Equal(t, "DELIMITED_PARSE", rec["state"])
	assert.Equal(t, "boom", rec["error"])
	assert.Contains(t, rec, "source")
}

func TestNewTextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(slog.LevelWarn, "text", &buf)
	require.NoError(t, err)

	LogFileStart(l, "a.xls", "ORCMII")
	assert.Empty(t, buf.String())

	l.Warn("skipped", "file", "b.xls")
	assert.True(t, strings.Contains(buf.String(), "file=b.xls"))
}

func TestNewUnknownFormat(t *testing.T) {
	_, err := New(slog.LevelInfo, "xml", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestSetup(t *testing.T) {
	prev := Logger
	defer func() {
		Logger = prev
		slog.SetDefault(prev)
	}()

	var buf bytes.Buffer
	require.NoError(t, Setup("debug", "json", &buf))
	LogBatchComplete(Logger, 3, 2, 1, time.Second)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, float64(1000), rec["duration_ms"])
	assert.Equal(t, float64(1), rec["failed"])

	assert.Error(t, Setup("loud", "json", &buf))
}
