package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds environment-driven configuration.
type Config struct {
	Addr             string
	DatabaseURL      string
	DBMaxConns       int
	DBConnectTimeout time.Duration
	StaticDir        string
	CORSAllowOrigins string
	ShutdownTimeout  time.Duration
}

// Load reads configuration from environment variables, falling back to
// defaults for anything unset or unparseable.
func Load() Config {
	return Config{
		Addr:             stringEnv("PERSONS_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DBMaxConns:       intEnv("DB_MAX_CONNS", 5),
		DBConnectTimeout: durationEnv("DB_CONNECT_TIMEOUT", 5*time.Second),
		StaticDir:        os.Getenv("STATIC_DIR"),
		CORSAllowOrigins: stringEnv("CORS_ALLOW_ORIGINS", "*"),
		ShutdownTimeout:  durationEnv("SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func durationEnv(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
