package config

import (
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvPort, EnvIPBlocks, EnvExcludeIPAddresses, EnvScraperTimeout,
		EnvScraperProxy, EnvRedisURL, EnvFailingCooldown, EnvLogLevel,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.ScraperTimeout)
	assert.False(t, cfg.ScraperTimeoutSet)
	assert.Nil(t, cfg.IPBlocks)
	assert.Nil(t, cfg.ExcludeIPAddresses)
	assert.False(t, cfg.RoutePlannerEnabled())
	assert.Equal(t, DefaultFailingCooldown, cfg.FailingCooldown)
	assert.Equal(t, log.InfoLevel, cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPort, "8080")
	t.Setenv(EnvIPBlocks, "2001:db8::/48;192.0.2.0/24")
	t.Setenv(EnvExcludeIPAddresses, "192.0.2.1")
	t.Setenv(EnvScraperTimeout, "2500")
	t.Setenv(EnvScraperProxy, "socks5://127.0.0.1:1080")
	t.Setenv(EnvFailingCooldown, "15m")
	t.Setenv(EnvLogLevel, "DEBUG")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, []string{"2001:db8::/48", "192.0.2.0/24"}, cfg.IPBlocks)
	assert.Equal(t, []string{"192.0.2.1"}, cfg.ExcludeIPAddresses)
	assert.True(t, cfg.RoutePlannerEnabled())
	assert.Equal(t, 2500*time.Millisecond, cfg.ScraperTimeout)
	assert.True(t, cfg.ScraperTimeoutSet)
	assert.Equal(t, "socks5://127.0.0.1:1080", cfg.ScraperProxy)
	assert.Equal(t, 15*time.Minute, cfg.FailingCooldown)
	assert.Equal(t, log.DebugLevel, cfg.LogLevel)
}

func TestLoadFallsBackOnInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPort, "not-a-port")
	t.Setenv(EnvScraperTimeout, "soon")
	t.Setenv(EnvLogLevel, "loud")

	cfg := Load()

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultScraperTimeout, cfg.ScraperTimeout)
	assert.False(t, cfg.ScraperTimeoutSet)
	assert.Equal(t, log.InfoLevel, cfg.LogLevel)
}

func TestLoadRejectsOutOfRangeValues(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPort, "70000")
	t.Setenv(EnvScraperTimeout, "-5")

	cfg := Load()

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultScraperTimeout, cfg.ScraperTimeout)
	assert.False(t, cfg.ScraperTimeoutSet)
}
