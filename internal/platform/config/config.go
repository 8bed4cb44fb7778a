package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load copies variables from .env files into the process environment without
// overriding ones already set. With no paths it reads ".env" from the working
// directory. A missing file is reported as an error that the server ignores,
// so plain environment variables and defaults still apply.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the variable named by key, or fallback when it is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt is GetEnv for integers such as DRAFT_CACHE_SIZE. A value that
// does not parse yields fallback.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvBool is GetEnv for flags such as METRICS_ENABLED. It accepts what
// strconv.ParseBool accepts.
func GetEnvBool(key string, fallback bool) bool {
	if s := os.Getenv(key); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return fallback
}
