package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTP     HTTPConfig
	Zettle   ZettleConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Storage  StorageConfig
	Checkout CheckoutConfig
	Log      LogConfig
}

type HTTPConfig struct {
	Port            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type ZettleConfig struct {
	ClientID     string
	ClientSecret string
	OAuthURL     string
	ProductsURL  string
	PurchaseURL  string
	Currency     string
	SiteURL      string
	Timeout      time.Duration
	RPS          float64
	MaxRetries   int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	MenuTTL  time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type StorageConfig struct {
	Backend  string
	Path     string
	MongoURI string
	MongoDB  string
	KioskID  string
}

type CheckoutConfig struct {
	StorefrontURL   string
	PollInterval    time.Duration
	PollMaxAttempts int
}

type LogConfig struct {
	Level  string
	Pretty bool
}

const (
	StorageFile   = "file"
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

// Load reads the environment, after loading a .env file when present.
// Each binary validates the sections it uses.
func Load() (*Config, error) {
	_ = godotenv.Load()

	p := &parser{}
	hostname, _ := os.Hostname()

	cfg := &Config{
		HTTP: HTTPConfig{
			Port:            getEnv("HTTP_PORT", "8080"),
			RequestTimeout:  p.getDuration("REQUEST_TIMEOUT", 15*time.Second),
			ShutdownTimeout: p.getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Zettle: ZettleConfig{
			ClientID:     getEnv("ZETTLE_CLIENT_ID", ""),
			ClientSecret: getEnv("ZETTLE_CLIENT_SECRET", ""),
			OAuthURL:     getEnv("ZETTLE_OAUTH_URL", ""),
			ProductsURL:  getEnv("ZETTLE_PRODUCTS_URL", ""),
			PurchaseURL:  getEnv("ZETTLE_PURCHASE_URL", ""),
			Currency:     getEnv("ZETTLE_CURRENCY", "GBP"),
			SiteURL:      getEnv("SITE_URL", "http://localhost:8080"),
			Timeout:      p.getDuration("ZETTLE_TIMEOUT", 10*time.Second),
			RPS:          p.getFloat("ZETTLE_RPS", 10),
			MaxRetries:   p.getInt("ZETTLE_MAX_RETRIES", 2),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       p.getInt("REDIS_DB", 0),
			MenuTTL:  p.getDuration("MENU_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "coffee-orders"),
			GroupID: getEnv("KAFKA_GROUP_ID", "barista-display"),
		},
		Storage: StorageConfig{
			Backend:  getEnv("STORAGE_BACKEND", StorageFile),
			Path:     getEnv("STORAGE_PATH", ".kiosk"),
			MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDB:  getEnv("MONGO_DB", "coffee"),
			KioskID:  getEnv("KIOSK_ID", hostname),
		},
		Checkout: CheckoutConfig{
			StorefrontURL:   getEnv("STOREFRONT_URL", "http://localhost:8080"),
			PollInterval:    p.getDuration("POLL_INTERVAL", 3*time.Second),
			PollMaxAttempts: p.getInt("POLL_MAX_ATTEMPTS", 40),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: p.getBool("LOG_PRETTY", false),
		},
	}

	if p.err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", p.err)
	}
	return cfg, nil
}

func (c *Config) ValidateStorefront() error {
	if c.HTTP.Port == "" {
		return errors.New("HTTP_PORT is required")
	}
	if c.Zettle.ClientID == "" {
		return errors.New("ZETTLE_CLIENT_ID is required")
	}
	if c.Zettle.ClientSecret == "" {
		return errors.New("ZETTLE_CLIENT_SECRET is required")
	}
	if c.Redis.Addr == "" {
		return errors.New("REDIS_ADDR is required")
	}
	return nil
}

func (c *Config) ValidateKiosk() error {
	if c.Checkout.StorefrontURL == "" {
		return errors.New("STOREFRONT_URL is required")
	}
	if c.Checkout.PollInterval <= 0 {
		return errors.New("POLL_INTERVAL must be positive")
	}
	if c.Checkout.PollMaxAttempts < 1 {
		return errors.New("POLL_MAX_ATTEMPTS must be at least 1")
	}
	switch c.Storage.Backend {
	case StorageFile:
		if c.Storage.Path == "" {
			return errors.New("STORAGE_PATH is required for the file backend")
		}
	case StorageMongo:
		if c.Storage.MongoURI == "" || c.Storage.MongoDB == "" {
			return errors.New("MONGO_URI and MONGO_DB are required for the mongo backend")
		}
		if c.Storage.KioskID == "" {
			return errors.New("KIOSK_ID is required for the mongo backend")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	return nil
}

func (c *Config) ValidateBarista() error {
	if len(c.Kafka.Brokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if c.Kafka.Topic == "" {
		return errors.New("KAFKA_TOPIC is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser keeps the first malformed value it sees.
type parser struct {
	err error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%s=%q: %w", key, value, err)
	}
}

func (p *parser) getDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}

func (p *parser) getInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *parser) getFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return f
}

func (p *parser) getBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}
