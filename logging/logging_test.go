package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Empty(t, cfg.Directory)
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.True(t, cfg.LogInTerminal)
}

func TestConfigZapLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{" warn ", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"unknown", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, Config{Level: tt.level}.ZapLevel())
		})
	}
}

func TestNew_WritesPerLevelFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Directory = dir
	cfg.LogInTerminal = false
	cfg.Level = "info"

	logger, closeFn := New(cfg)
	logger.Debug("hidden")
	logger.Info("plugin installed", zap.String("plugin", "search"))
	logger.Error("plugin failed")
	require.NoError(t, closeFn())

	date := time.Now().Format("2006-01-02")
	info, err := os.ReadFile(filepath.Join(dir, date, "info.log"))
	require.NoError(t, err)
	assert.Contains(t, string(info), `"message":"plugin installed"`)
	assert.Contains(t, string(info), `"plugin":"search"`)
	assert.NotContains(t, string(info), "plugin failed")
	assert.NotContains(t, string(info), "hidden")

	errs, err := os.ReadFile(filepath.Join(dir, date, "error.log"))
	require.NoError(t, err)
	assert.Contains(t, string(errs), "plugin failed")

	_, err = os.Stat(filepath.Join(dir, date, "debug.log"))
	assert.True(t, os.IsNotExist(err))
}

func TestNew_NoOutputs(t *testing.T) {
	logger, closeFn := New(Config{Level: "debug"})
	logger.Info("dropped")
	assert.NoError(t, closeFn())
}

func TestLevelWriter_SwitchesFileOnDateChange(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Directory = dir
	w := newLevelWriter(cfg, "info")

	day := time.Date(2026, 3, 1, 23, 59, 0, 0, time.Local)
	w.now = func() time.Time { return day }
	_, err := w.Write([]byte("first\n"))
	require.NoError(t, err)

	day = day.Add(2 * time.Minute)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	first, err := os.ReadFile(filepath.Join(dir, "2026-03-01", "info.log"))
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir, "2026-03-02", "info.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(first))
	assert.Equal(t, "second\n", string(second))
}

func TestTimeEncoder(t *testing.T) {
	enc := zapcore.NewMapObjectEncoder()
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, enc.AddArray("t", zapcore.ArrayMarshalerFunc(func(ae zapcore.ArrayEncoder) error {
		timeEncoder("2006-01-02")(ts, ae)
		return nil
	})))
	assert.Equal(t, []any{"2026-01-02"}, enc.Fields["t"])
}

func TestContextTraceID(t *testing.T) {
	ctx := SetTraceID(context.Background(), "abc")
	assert.Equal(t, "abc", GetTraceID(ctx))
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestContextLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := ToContext(context.Background(), zap.New(core))
	FromContext(ctx).Info("hello")
	assert.Equal(t, 1, logs.Len())

	assert.NotNil(t, FromContext(context.Background()))
}

func TestHTTPMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := HTTPMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("inside")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/plugins/a/install", nil)
	req = req.WithContext(SetTraceID(req.Context(), "trace-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, 2, logs.Len())
	inside := logs.All()[0]
	assert.Equal(t, "trace-1", inside.ContextMap()["trace_id"])

	done := logs.FilterMessage("http.request").All()
	require.Len(t, done, 1)
	fields := done[0].ContextMap()
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
	assert.Equal(t, "/plugins/a/install", fields["path"])
	assert.Equal(t, int64(len("short and stout")), fields["bytes"])
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := HTTPMiddleware(zap.New(core))(RecoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	panics := logs.FilterMessage("http.panic.recovered").All()
	require.Len(t, panics, 1)
	assert.True(t, strings.Contains(panics[0].ContextMap()["error"].(string), "boom"))
}
