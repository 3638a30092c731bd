// Package config reads the server settings from the environment.
package config

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Config holds the runtime settings.
type Config struct {
	LogLevel         logrus.Level
	Unit             string
	ExportMultiplier float64
	ViewportWidth    float64
	ViewportHeight   float64
	OutputDir        string
}

// Load reads the configuration from MARKUP_* environment variables. Unset or
// malformed values fall back to their defaults.
func Load() *Config {
	level, err := logrus.ParseLevel(getEnv("MARKUP_LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	return &Config{
		LogLevel:         level,
		Unit:             getEnv("MARKUP_UNIT", "mm"),
		ExportMultiplier: getEnvAsFloat("MARKUP_EXPORT_MULTIPLIER", 4),
		ViewportWidth:    float64(getEnvAsInt("MARKUP_VIEWPORT_WIDTH", 1600)),
		ViewportHeight:   float64(getEnvAsInt("MARKUP_VIEWPORT_HEIGHT", 900)),
		OutputDir:        getEnv("MARKUP_OUTPUT_DIR", "."),
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil && intVal > 0 {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultVal
}
