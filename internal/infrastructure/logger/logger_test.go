package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.NotEmpty(t, cfg.TimeFormat)
}

func TestProductionConfig(t *testing.T) {
	cfg := ProductionConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{name: "default config", cfg: DefaultConfig()},
		{name: "production config", cfg: ProductionConfig()},
		{
			name: "debug console",
			cfg:  &Config{Level: "debug", Format: "console", Output: "stdout", TimeFormat: "2006-01-02T15:04:05Z07:00"},
		},
		{
			name: "json to stderr",
			cfg:  &Config{Level: "warn", Format: "json", Output: "stderr", TimeFormat: "2006-01-02T15:04:05Z07:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestNewForEnvironment(t *testing.T) {
	for _, env := range []string{"development", "production", "staging"} {
		t.Run(env, func(t *testing.T) {
			log, err := NewForEnvironment(env)
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, levelFor(tt.level))
		})
	}
}

func TestSinkFor(t *testing.T) {
	for _, output := range []string{"stdout", "stderr", "STDOUT", ""} {
		assert.NotNil(t, sinkFor(output))
	}
}

func TestSinkFor_File(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "billing-*.log")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())
	tmpFile.Close()

	assert.NotNil(t, sinkFor(tmpFile.Name()))
}

func TestEncoderFor(t *testing.T) {
	base := Config{Level: "info", Output: "stdout", TimeFormat: "2006-01-02T15:04:05Z07:00"}

	console := base
	console.Format = "console"
	assert.NotNil(t, encoderFor(&console))

	jsonCfg := base
	jsonCfg.Format = "json"
	assert.NotNil(t, encoderFor(&jsonCfg))
}

func TestJSONOutputCarriesFields(t *testing.T) {
	var buf bytes.Buffer

	cfg := ProductionConfig()
	core := zapcore.NewCore(encoderFor(cfg), zapcore.AddSync(&buf), zapcore.InfoLevel)
	log := zap.New(core)

	log.Info("Usage billed",
		zap.String("transaction_id", "tx-1"),
		zap.String("cost", "12.80"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Usage billed", line["msg"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "tx-1", line["transaction_id"])
	assert.Equal(t, "12.80", line["cost"])
}

func TestLevelSuppression(t *testing.T) {
	var buf bytes.Buffer

	cfg := ProductionConfig()
	core := zapcore.NewCore(encoderFor(cfg), zapcore.AddSync(&buf), levelFor("warn"))
	log := zap.New(core)

	log.Info("below threshold")
	assert.Empty(t, buf.String())

	log.Warn("at threshold")
	assert.Contains(t, buf.String(), "at threshold")
}

func TestSync(t *testing.T) {
	log, err := NewForEnvironment("development")
	require.NoError(t, err)

	// stdout may reject fsync depending on the platform; it must not panic
	_ = Sync(log)
}
