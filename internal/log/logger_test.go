package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goverrors "github.com/felixgeelhaar/apigov/internal/errors"
)

func jsonLogger(buf *bytes.Buffer, level Level) *Logger {
	return New(Config{Level: level, Format: FormatJSON, Output: buf, ServiceName: "apigov", ServiceVersion: "test"})
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"verbose", LevelInfo, true},
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
	assert.Equal(t, "WARN", LevelWarn.String())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("console")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, LevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown", "unresolved", 2)
	logger.Error("shown too")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "shown", entries[0]["msg"])
	assert.Equal(t, float64(2), entries[0]["unresolved"])
	assert.Equal(t, "apigov", entries[0]["service"])
	assert.Equal(t, "test", entries[0]["version"])

	assert.False(t, logger.Enabled(context.Background(), LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), LevelError))
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatText, Output: &buf})
	logger.With("run_id", "abc").Info("run finished", "verdict", "PASS")

	out := buf.String()
	assert.Contains(t, out, "msg=\"run finished\"")
	assert.Contains(t, out, "run_id=abc")
	assert.Contains(t, out, "verdict=PASS")
	assert.NotContains(t, out, "service=", "no service attrs without a name")
}

func TestWithGroup(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger(&buf, LevelInfo).WithGroup("counts").Info("classified", "breaking", 1)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	counts, ok := entries[0]["counts"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), counts["breaking"])
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, LevelInfo)

	govErr := goverrors.NewCorpusError("specs", errors.New("bad yaml"))
	logger.WithError(fmt.Errorf("check: %w", govErr)).Warn("load failed")
	logger.WithError(errors.New("plain")).Warn("other")
	assert.Same(t, logger, logger.WithError(nil))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, string(goverrors.ErrCodeCorpusParse), entries[0]["error_code"])
	assert.Equal(t, "bad yaml", entries[0]["cause"])
	assert.NotEmpty(t, entries[0]["suggestions"])
	assert.Equal(t, "plain", entries[1]["error"])
	assert.NotContains(t, entries[1], "error_code")
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, LevelInfo)

	logger.LogError(context.Background(), nil)
	logger.LogError(context.Background(), goverrors.NewGovViolationError(3))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "operation failed", entries[0]["msg"])
	assert.Equal(t, "GOV-001", entries[0]["error_code"])
	assert.Contains(t, entries[0]["docs_url"], "#enforcement")
}

func TestDefaultLogger(t *testing.T) {
	t.Cleanup(func() { SetDefaultLogger(nil) })

	SetDefaultLogger(nil)
	first := DefaultLogger()
	require.NotNil(t, first)
	assert.Same(t, first, DefaultLogger())
	assert.Equal(t, "apigov", first.Config().ServiceName)

	custom := Nop()
	SetDefaultLogger(custom)
	assert.Same(t, custom, DefaultLogger())
}

func TestDefaultLoggerConcurrency(t *testing.T) {
	t.Cleanup(func() { SetDefaultLogger(nil) })
	SetDefaultLogger(nil)

	var wg sync.WaitGroup
	got := make([]*Logger, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = DefaultLogger()
		}(i)
	}
	wg.Wait()

	for _, l := range got {
		assert.Same(t, got[0], l)
	}
}
