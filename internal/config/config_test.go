package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATA_MODE", "")
	t.Setenv("API_TIMEOUT", "")
	t.Setenv("SERVER_PORT", "")

	cfg := Load()

	assert.Equal(t, ModeDemo, cfg.DataMode)
	assert.False(t, cfg.IsDBMode())
	assert.Equal(t, 5*time.Second, cfg.APITimeout)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATA_MODE", "DB")
	t.Setenv("API_TIMEOUT", "750ms")
	t.Setenv("CALENDAR_CONFIRM_TIMEOUT", "3")
	t.Setenv("PORTAL_SYNTHETIC_FALLBACK", "true")
	t.Setenv("API_BASE_URL", "http://api.local:9000/")
	t.Setenv("S3_BUCKET", "backups")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.salon.test, ,http://localhost:3000")

	cfg := Load()

	assert.True(t, cfg.IsDBMode())
	assert.Equal(t, 750*time.Millisecond, cfg.APITimeout)
	assert.Equal(t, 3*time.Second, cfg.CalendarConfirmTimeout)
	assert.True(t, cfg.PortalSyntheticFallback)
	assert.Equal(t, "http://api.local:9000", cfg.APIBaseURL)
	assert.True(t, cfg.S3Enabled())
	assert.Equal(t, []string{"https://app.salon.test", "http://localhost:3000"}, cfg.CORSOrigins)
}

func TestGetEnvDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_TIMEOUT", "soon")
	assert.Equal(t, time.Minute, getEnvDuration("SOME_TIMEOUT", time.Minute))

	t.Setenv("SOME_TIMEOUT", "-5s")
	assert.Equal(t, time.Minute, getEnvDuration("SOME_TIMEOUT", time.Minute))
}
