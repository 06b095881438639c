package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOutpassOverrides(t *testing.T) {
	t.Setenv("ENV", EnvDevelopment)
	t.Setenv("API_PREFIX", "/api/v2")
	t.Setenv("ALLOWED_ORIGINS", " https://campus.edu , ,http://localhost:3000")
	t.Setenv("OUTPASS_ATTENDANCE_THRESHOLD", "80")
	t.Setenv("OUTPASS_NOTIFICATION_WORKERS", "4")
	t.Setenv("OUTPASS_SHORTFALL_CACHE_TTL", "2m")
	t.Setenv("OUTPASS_GATE_PASS_URL_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/api/v2", cfg.APIPrefix)
	assert.Equal(t, []string{"https://campus.edu", "http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 80.0, cfg.Outpass.AttendanceThreshold)
	assert.Equal(t, 4, cfg.Outpass.NotificationWorkers)
	assert.Equal(t, 2*time.Minute, cfg.Outpass.ShortfallCacheTTL)
	assert.Equal(t, 30*time.Minute, cfg.Outpass.GatePassURLTTL)
}

func TestLoadClampsOutOfRangeValues(t *testing.T) {
	t.Setenv("OUTPASS_ATTENDANCE_THRESHOLD", "140")
	t.Setenv("OUTPASS_NOTIFICATION_WORKERS", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 75.0, cfg.Outpass.AttendanceThreshold)
	assert.Equal(t, 1, cfg.Outpass.NotificationWorkers)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, time.Hour, parseDuration("", time.Hour))
	assert.Equal(t, time.Hour, parseDuration("abc", time.Hour))
	assert.Equal(t, 90*time.Second, parseDuration("1m30s", time.Hour))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim("a, ,b ,"))
}
