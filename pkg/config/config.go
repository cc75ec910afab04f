package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/anonto42/vidspace/backend/pkg/logging"
)

type Config struct {
	Port        string `validate:"required,numeric"`
	Env         string `validate:"required"`
	MetricsPort string `validate:"omitempty,numeric"`

	StoreBackend  string `validate:"oneof=memory file mongo postgres"`
	DataDir       string `validate:"required_if=StoreBackend file"`
	MongoURI      string `validate:"required_if=StoreBackend mongo"`
	MongoDatabase string `validate:"required_if=StoreBackend mongo"`
	PostgresUrl   string `validate:"required_if=StoreBackend postgres"`

	MediaBackend            string `validate:"oneof=inline minio firebase"`
	MinioEndpoint           string `validate:"required_if=MediaBackend minio"`
	MinioAccessKey          string
	MinioSecretKey          string
	MinioBucket             string `validate:"required_if=MediaBackend minio"`
	MinioUseSSL             bool
	MinioPublicURL          string
	FirebaseCredentialsPath string `validate:"required_if=MediaBackend firebase"`
	FirebaseBucket          string `validate:"required_if=MediaBackend firebase"`

	SessionBackend string `validate:"oneof=memory redis"`
	RedisAddr      string `validate:"required_if=SessionBackend redis"`
	RedisPassword  string
	RedisDB        int `validate:"gte=0"`
	SessionTTL     time.Duration `validate:"gte=0"`

	LogLevel  string `validate:"oneof=trace debug info warn error disabled"`
	LogFormat string `validate:"oneof=json console"`

	FeedLimit         int           `validate:"gte=1"`
	ReconcileInterval time.Duration `validate:"gte=0"`
	BcryptCost        int           `validate:"gte=4,lte=31"`
}

// Load reads configuration from the environment, after loading a .env file
// when one is present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logging.Debug().Msg("No .env file found, assuming environment variables are set.")
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		MetricsPort: getEnv("METRICS_PORT", "9090"),

		StoreBackend:  getEnv("STORE_BACKEND", "file"),
		DataDir:       getEnv("DATA_DIR", "./data"),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "vidspace"),
		PostgresUrl:   getEnv("POSTGRES_URL", ""),

		MediaBackend:            getEnv("MEDIA_BACKEND", "inline"),
		MinioEndpoint:           getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:          getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:          getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:             getEnv("MINIO_BUCKET", "vidspace"),
		MinioPublicURL:          getEnv("MINIO_PUBLIC_URL", ""),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		FirebaseBucket:          getEnv("FIREBASE_BUCKET", ""),

		SessionBackend: getEnv("SESSION_BACKEND", "memory"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.MinioUseSSL, err = getBool("MINIO_USE_SSL", false); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.FeedLimit, err = getInt("FEED_LIMIT", 100); err != nil {
		return nil, err
	}
	if cfg.ReconcileInterval, err = getDuration("RECONCILE_INTERVAL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getInt("BCRYPT_COST", 10); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags of the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
