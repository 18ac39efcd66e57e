package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiora/backend/internal/timer"
)

func TestLoadDefaultsFromEnv(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, 72*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:5173"}, cfg.CORSOrigins)
	assert.Equal(t, timer.DefaultSettings(), cfg.Timer.Settings())
	assert.Equal(t, time.Second, cfg.Timer.TickInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Timer.RearmDelay)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TIMER_FOCUS_SECONDS", "3000")
	t.Setenv("TIMER_LONG_BREAK_INTERVAL", "3")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3000, cfg.Timer.FocusSeconds)
	assert.Equal(t, 3, cfg.Timer.LongBreakInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7000\"\ntimer:\n  short_break_seconds: 120\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, 120, cfg.Timer.ShortBreakSeconds)
	assert.Equal(t, 1500, cfg.Timer.FocusSeconds)
}

func TestLoadRejectsInvalidTimerDurations(t *testing.T) {
	t.Setenv("TIMER_LONG_BREAK_SECONDS", "0")

	_, err := Load("")
	assert.ErrorIs(t, err, timer.ErrInvalidSettings)
}
