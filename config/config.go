package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env        string        `env:"ENV" envDefault:"development"`
	LogLevel   string        `env:"LOG_LEVEL" envDefault:"info"`
	ServerPort int           `env:"SERVER_PORT" envDefault:"8080"`
	BaseURL    string        `env:"NEXT_PUBLIC_APP_URL" envDefault:"http://localhost:3000"`
	JWTSecret  string        `env:"JWT_SECRET"`
	SessionTTL time.Duration `env:"ADMIN_SESSION_DURATION" envDefault:"8h"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"12"`

	// TrustProxy honours X-Forwarded-For / X-Real-IP. Only enable it behind
	// a proxy that overwrites those headers.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`

	Database  DatabaseConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	MQ        MQConfig
}

type DatabaseConfig struct {
	// Driver selects the persistence backend: "postgres" or "memory".
	Driver   string `env:"DB_DRIVER" envDefault:"postgres"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"novafusion"`
	Password string `env:"DB_PASSWORD" envDefault:"password"`
	DBName   string `env:"DB_NAME" envDefault:"novafusion"`
	UseSSL   bool   `env:"DB_SSL" envDefault:"false"`
}

type RateLimitConfig struct {
	LoginMaxAttempts   int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginWindow        time.Duration `env:"LOGIN_WINDOW" envDefault:"15m"`
	EnquiryMaxAttempts int           `env:"ENQUIRY_MAX_ATTEMPTS" envDefault:"5"`
	EnquiryWindow      time.Duration `env:"ENQUIRY_WINDOW" envDefault:"1h"`
	// RedisURL switches counters to a shared Redis store when set.
	RedisURL string `env:"REDIS_URL"`
}

type StorageConfig struct {
	// Backend is "minio", "gcs", "memory" or empty to disable media uploads.
	Backend string `env:"STORAGE_BACKEND"`
	Minio   MinioConfig
	GCS     GCSConfig
}

type MinioConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET" envDefault:"novafusion-media"`
	UseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
}

type GCSConfig struct {
	Bucket          string `env:"GCS_BUCKET"`
	ProjectID       string `env:"GCS_PROJECT_ID"`
	CredentialsFile string `env:"GCS_CREDENTIALS_FILE"`
}

type MQConfig struct {
	// Backend is "rabbitmq", "pubsub", "memory" or empty to disable enquiry events.
	Backend      string `env:"MQ_BACKEND"`
	EnquiryTopic string `env:"ENQUIRY_TOPIC" envDefault:"enquiry.created"`
	RabbitMQ     RabbitMQConfig
	PubSub       PubSubConfig
}

type RabbitMQConfig struct {
	URL             string `env:"RABBITMQ_URL"`
	PrefetchCount   int    `env:"RABBITMQ_PREFETCH" envDefault:"10"`
	QueueDurable    bool   `env:"RABBITMQ_QUEUE_DURABLE" envDefault:"true"`
	QueueAutoDelete bool   `env:"RABBITMQ_QUEUE_AUTO_DELETE" envDefault:"false"`
}

type PubSubConfig struct {
	ProjectID          string `env:"PUBSUB_PROJECT_ID"`
	CredentialsFile    string `env:"PUBSUB_CREDENTIALS_FILE"`
	SubscriptionSuffix string `env:"PUBSUB_SUBSCRIPTION_SUFFIX" envDefault:"-sub"`
	// MaxOutstanding caps unacknowledged messages per subscriber, like
	// RABBITMQ_PREFETCH.
	MaxOutstanding int           `env:"PUBSUB_MAX_OUTSTANDING" envDefault:"10"`
	AckDeadline    time.Duration `env:"PUBSUB_ACK_DEADLINE" envDefault:"30s"`
}

// IsProduction reports whether secure cookies and JSON logs should be used.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func LoadConfig() (Config, error) {
	if env := os.Getenv("ENV"); env == "" || env == "development" || env == "dev" {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("ADMIN_SESSION_DURATION must be positive, got %s", cfg.SessionTTL)
	}
	switch cfg.Database.Driver {
	case "postgres", "memory":
	default:
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
	return cfg, nil
}
