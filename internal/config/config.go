package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	BackendBaseURL string

	SessionBackend string // "redis", "postgres" or "memory"
	SessionTTL     time.Duration

	RedisAddr     string
	RedisPassword string

	DatabaseDSN string

	LoginPath   string
	DefaultPath string
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present so local runs do not
// need an exported environment.
func Load() Config {

	_ = godotenv.Load()

	cfg := Config{

		AppPort: getenv("APP_PORT", "8080"),

		BackendBaseURL: getenv("BACKEND_BASE_URL", "http://localhost:3000"),

		SessionBackend: getenv("SESSION_BACKEND", "redis"),
		SessionTTL:     getDuration("SESSION_TTL", 24*time.Hour),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		DatabaseDSN: os.Getenv("DATABASE_DSN"),

		LoginPath:   getenv("LOGIN_PATH", "/login"),
		DefaultPath: getenv("DEFAULT_PATH", "/admin"),
	}

	return cfg

}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
