package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        string
	DatabaseURL string
	DataDir     string
	AttemptCap  int // answers per untimed session
	TimeLimit   int // seconds, timed mode
}

func Load() Config {
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DataDir:     getEnv("DATA_DIR", "data"),
		AttemptCap:  getEnvInt("ATTEMPT_CAP", 20),
		TimeLimit:   getEnvInt("TIME_LIMIT", 60),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
