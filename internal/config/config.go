package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Snapshot backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	// ListenAddr is where the local surface serves the rendering layer.
	ListenAddr string

	// APIBaseURL is the backend the gateway talks to.
	APIBaseURL string

	// DataDir holds the on-device SQLite database.
	DataDir string

	// SnapshotBackend selects where cart/session blobs live: "sqlite"
	// (default, on-device) or "redis" (shared kiosk store).
	SnapshotBackend string

	RedisAddr string

	// OTPMinLength is 6 on the authoritative contract; the demo deployment
	// runs with 4.
	OTPMinLength int

	// CollectDeliveryTime enables the half-hour delivery slot field.
	CollectDeliveryTime bool
}

// Load reads .env (if present) and the environment.
func Load() Config {
	// Missing .env is fine: production kiosks configure via environment.
	_ = godotenv.Load()

	return Config{
		ListenAddr:          getEnv("STOREFRONT_ADDR", ":8080"),
		APIBaseURL:          getEnv("API_BASE_URL", "http://localhost:5044"),
		DataDir:             getEnv("DATA_DIR", "data"),
		SnapshotBackend:     getEnv("SNAPSHOT_BACKEND", BackendSQLite),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		OTPMinLength:        getEnvInt("OTP_MIN_LENGTH", 6),
		CollectDeliveryTime: getEnvBool("COLLECT_DELIVERY_TIME", false),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
