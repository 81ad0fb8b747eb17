package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                     string
	HTTPAddr                string
	StorageMode             string
	MongoURI                string
	MongoDB                 string
	KafkaBrokers            []string
	KafkaTopicPrefix        string
	EventSource             string
	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	IdempotencyTTL          time.Duration
	OutboxPollInterval      time.Duration
	RetryBackoff            []time.Duration
	MarketplaceCurrency     string
	MarketplaceLocale       string
	ListingMinPriceSubunits int64
	FuzzyLocation           bool
	FuzzyPrecision          uint
	S3Endpoint              string
	S3PublicEndpoint        string
	S3AccessKey             string
	S3SecretKey             string
	S3Bucket                string
	S3UseSSL                bool
	JWTSecret               string
	ListingsFixtures        string
}

// Load reads an optional .env file and parses configuration from the environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := Config{
		Env:                 getEnv("APP_ENV", "dev"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		StorageMode:         strings.ToLower(getEnv("STORAGE_MODE", StorageMemory)),
		MongoURI:            os.Getenv("MONGO_URI"),
		MongoDB:             getEnv("MONGO_DB", "programhub"),
		KafkaTopicPrefix:    getEnv("KAFKA_TOPIC_PREFIX", ""),
		EventSource:         getEnv("EVENT_SOURCE", "app://programhub"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		MarketplaceCurrency: getEnv("MARKETPLACE_CURRENCY", "USD"),
		MarketplaceLocale:   getEnv("MARKETPLACE_LOCALE", "en"),
		S3Endpoint:          os.Getenv("S3_ENDPOINT"),
		S3PublicEndpoint:    os.Getenv("S3_PUBLIC_ENDPOINT"),
		S3AccessKey:         getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:         getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:            getEnv("S3_BUCKET", "programhub-photos"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		ListingsFixtures:    os.Getenv("LISTINGS_FIXTURES"),
	}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	var err error
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", 168*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	minPrice, err := parseIntEnv("LISTING_MIN_PRICE_SUBUNITS", 0)
	if err != nil {
		return Config{}, err
	}
	if minPrice < 0 {
		return Config{}, fmt.Errorf("LISTING_MIN_PRICE_SUBUNITS must be non-negative")
	}
	cfg.ListingMinPriceSubunits = int64(minPrice)
	if cfg.FuzzyLocation, err = parseBoolEnv("FUZZY_LOCATION", true); err != nil {
		return Config{}, err
	}
	precision, err := parseIntEnv("FUZZY_PRECISION", 6)
	if err != nil {
		return Config{}, err
	}
	if precision < 1 || precision > 12 {
		return Config{}, fmt.Errorf("FUZZY_PRECISION must be between 1 and 12, got %d", precision)
	}
	cfg.FuzzyPrecision = uint(precision)
	if cfg.S3UseSSL, err = parseBoolEnv("S3_USE_SSL", false); err != nil {
		return Config{}, err
	}
	if cfg.S3PublicEndpoint == "" {
		cfg.S3PublicEndpoint = cfg.S3Endpoint
	}

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	switch cfg.StorageMode {
	case StorageMemory:
	case StorageMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required when STORAGE_MODE=mongo")
		}
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_MODE %q", cfg.StorageMode)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return v, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
