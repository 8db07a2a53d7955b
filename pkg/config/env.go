package config

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

const envPrefix = "FPSMON_"

// ApplyEnv overrides fields from FPSMON_* environment variables. Invalid
// values are logged and ignored.
func (c *Config) ApplyEnv(logger *logrus.Logger) {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	c.AppID = envString("APP_ID", c.AppID)
	c.StealthLevel = envInt(logger, "STEALTH_LEVEL", c.StealthLevel)
	c.Mode = envString("MODE", c.Mode)
	c.LowPower = envBool(logger, "LOW_POWER", c.LowPower)
	c.StallThresholdSeconds = envFloat(logger, "STALL_THRESHOLD_SECONDS", c.StallThresholdSeconds)
	c.AverageWindow = envInt(logger, "AVERAGE_WINDOW", c.AverageWindow)
	c.HistorySize = envInt(logger, "HISTORY_SIZE", c.HistorySize)
	c.RefreshSeconds = envFloat(logger, "REFRESH_SECONDS", c.RefreshSeconds)
	c.TargetFPS = envFloat(logger, "TARGET_FPS", c.TargetFPS)
	c.TextFormat = envString("TEXT_FORMAT", c.TextFormat)
	c.LogLevel = envString("LOG_LEVEL", c.LogLevel)
	c.MetricsAddr = envString("METRICS_ADDR", c.MetricsAddr)
	c.BaselineDir = envString("BASELINE_DIR", c.BaselineDir)
}

func envString(key, fallback string) string {
	if value, ok := os.LookupEnv(envPrefix + key); ok {
		return value
	}
	return fallback
}

func envInt(logger *logrus.Logger, key string, fallback int) int {
	if value, ok := os.LookupEnv(envPrefix + key); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			logger.WithField("key", envPrefix+key).WithError(err).Warn("invalid environment value")
			return fallback
		}
		return parsed
	}
	return fallback
}

func envFloat(logger *logrus.Logger, key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(envPrefix + key); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			logger.WithField("key", envPrefix+key).WithError(err).Warn("invalid environment value")
			return fallback
		}
		return parsed
	}
	return fallback
}

func envBool(logger *logrus.Logger, key string, fallback bool) bool {
	if value, ok := os.LookupEnv(envPrefix + key); ok {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			logger.WithField("key", envPrefix+key).WithError(err).Warn("invalid environment value")
			return fallback
		}
		return parsed
	}
	return fallback
}
