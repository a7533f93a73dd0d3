package config

import (
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"ytrelated/internal/support"
)

const (
	DefaultPort            = 3000
	DefaultScraperTimeout  = 10000 * time.Millisecond
	DefaultFailingCooldown = time.Hour

	listSeparator = ";"
)

// Environment variable names.
const (
	EnvPort               = "PORT"
	EnvIPBlocks           = "IP_BLOCKS"
	EnvExcludeIPAddresses = "EXCLUDE_IP_ADDRESSES"
	EnvScraperTimeout     = "SCRAPER_TIMEOUT"
	EnvScraperProxy       = "SCRAPER_PROXY"
	EnvRedisURL           = "REDIS_URL"
	EnvFailingCooldown    = "FAILING_ADDRESS_COOLDOWN"
	EnvLogLevel           = "LOG_LEVEL"
)

// Config is read once at startup and never mutated afterwards.
type Config struct {
	Port int

	IPBlocks           []string
	ExcludeIPAddresses []string
	FailingCooldown    time.Duration
	RedisURL           string

	ScraperTimeout    time.Duration
	ScraperTimeoutSet bool
	ScraperProxy      string

	LogLevel log.Level
}

// RoutePlannerEnabled reports whether at least one IP block is configured.
func (c Config) RoutePlannerEnabled() bool {
	return len(c.IPBlocks) > 0
}

func Load() Config {
	cfg := Config{
		Port:               readPort(EnvPort, DefaultPort),
		IPBlocks:           support.GetEnvList(EnvIPBlocks, listSeparator),
		ExcludeIPAddresses: support.GetEnvList(EnvExcludeIPAddresses, listSeparator),
		FailingCooldown:    support.GetEnvDuration(EnvFailingCooldown, DefaultFailingCooldown),
		RedisURL:           strings.TrimSpace(support.GetEnv(EnvRedisURL, "")),
		ScraperTimeout:     DefaultScraperTimeout,
		ScraperProxy:       strings.TrimSpace(support.GetEnv(EnvScraperProxy, "")),
		LogLevel:           readLogLevel(EnvLogLevel, log.InfoLevel),
	}

	if support.IsEnvSet(EnvScraperTimeout) {
		ms := support.GetEnvInt(EnvScraperTimeout, 0)
		if ms <= 0 {
			log.Warn("invalid scraper timeout, using default", "env", EnvScraperTimeout, "value", support.GetEnv(EnvScraperTimeout, ""), "default_ms", DefaultScraperTimeout.Milliseconds())
		} else {
			cfg.ScraperTimeout = time.Duration(ms) * time.Millisecond
			cfg.ScraperTimeoutSet = true
		}
	}

	return cfg
}

func readPort(envKey string, fallback int) int {
	if !support.IsEnvSet(envKey) {
		return fallback
	}
	port := support.GetEnvInt(envKey, 0)
	if port < 1 || port > 65535 {
		log.Warn("invalid port override", "env", envKey, "value", support.GetEnv(envKey, ""))
		return fallback
	}
	return port
}

func readLogLevel(envKey string, fallback log.Level) log.Level {
	raw := strings.TrimSpace(support.GetEnv(envKey, ""))
	if raw == "" {
		return fallback
	}
	level, err := log.ParseLevel(strings.ToLower(raw))
	if err != nil {
		log.Warn("invalid log level", "env", envKey, "value", raw)
		return fallback
	}
	return level
}
