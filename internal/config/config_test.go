package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2.0, cfg.Detection.MultiplierThreshold)
	assert.Equal(t, 1.5, cfg.Detection.SigmaThreshold)
	assert.Equal(t, 30, cfg.Detection.LookbackDays)
	assert.Equal(t, 3, cfg.Detection.MinBaselinePosts)
	assert.Equal(t, 4, cfg.Trend.LookbackWeeks)
	assert.Equal(t, 0.15, cfg.Trend.VelocityThreshold)
	assert.Equal(t, 72, cfg.Radar.LookbackHours)
	assert.Equal(t, 2, cfg.Radar.MinUsageCount)
	assert.Equal(t, 5, cfg.Gap.MaxPerMetric)
	assert.Equal(t, "pulse", cfg.NATS.EventsTopic)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DETECT_MULTIPLIER_THRESHOLD", "2.5")
	t.Setenv("SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SCHEDULER_ACCOUNT_SETS", "fitness,beauty")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2.5, cfg.Detection.MultiplierThreshold)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CorsOrigins)
	assert.Equal(t, []string{"fitness", "beauty"}, cfg.Scheduler.AccountSets)
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	t.Setenv("DETECT_SIGMA_THRESHOLD", "-1")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRejectsTooFewBaselinePosts(t *testing.T) {
	t.Setenv("DETECT_MIN_BASELINE_POSTS", "1")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidateSchedulerNeedsAccountSetsOutsideDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SCHEDULER_ENABLED", "true")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SCHEDULER_ACCOUNT_SETS", "fitness")
	_, err = Load()
	assert.NoError(t, err)
}
