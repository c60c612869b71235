// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, storage, the messaging gateway, the
// survey dispatcher, rate limiting, and observability.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // TIME_ZONE must resolve in images without a zoneinfo dir

	"github.com/caarlos0/env/v11"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool          `env:"ENABLE_HSTS" envDefault:"false"`
	HSTSMaxAge time.Duration `env:"HSTS_MAX_AGE" envDefault:"4320h"`
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	ServiceName string  `env:"OTEL_SERVICE_NAME" envDefault:"meet-eat-backend"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1.0"` // [0..1]
}

// DBConfig selects the relational store.
type DBConfig struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite"` // sqlite|mysql
	Path   string `env:"DB_PATH" envDefault:"app.db"`   // sqlite file
	DSN    string `env:"DB_DSN"`                        // mysql DSN
}

// TelegramConfig configures the outbound messaging gateway and the inbound
// webhook. An empty BotToken disables outbound delivery.
type TelegramConfig struct {
	BotToken       string        `env:"BOT_TOKEN"`
	APIBaseURL     string        `env:"TELEGRAM_API_BASE_URL" envDefault:"https://api.telegram.org"`
	WebhookSecret  string        `env:"TELEGRAM_WEBHOOK_SECRET"`
	RequestTimeout time.Duration `env:"TELEGRAM_REQUEST_TIMEOUT" envDefault:"10s"`
	PublicBaseURL  string        `env:"SERVER_BASE_URL"` // used for "open profile" buttons
}

// SurveyConfig controls the post-meal survey dispatcher.
type SurveyConfig struct {
	Enabled          bool          `env:"SURVEY_ENABLED" envDefault:"true"`
	GraceInterval    time.Duration `env:"SURVEY_GRACE_INTERVAL" envDefault:"1h"`
	PollInterval     time.Duration `env:"SURVEY_POLL_INTERVAL" envDefault:"30s"`
	BatchSize        int           `env:"SURVEY_BATCH_SIZE" envDefault:"100"`
	DeliveryAttempts int           `env:"SURVEY_DELIVERY_ATTEMPTS" envDefault:"3"`
	RetryBackoff     time.Duration `env:"SURVEY_RETRY_BACKOFF" envDefault:"500ms"`
	RetryMaxDelay    time.Duration `env:"SURVEY_RETRY_MAX_DELAY" envDefault:"5s"`
}

// NotifyConfig sizes the async pool used for fire-and-forget deliveries.
type NotifyConfig struct {
	Workers     int           `env:"NOTIFY_WORKERS" envDefault:"8"`
	TaskTimeout time.Duration `env:"NOTIFY_TASK_TIMEOUT" envDefault:"15s"`
}

// LocaleConfig controls how meeting times and copy are rendered.
type LocaleConfig struct {
	TimeZone string `env:"TIME_ZONE" envDefault:"Asia/Almaty"`
	Language string `env:"APP_LANGUAGE" envDefault:"ru"`
}

// NATSConfig enables mirroring notification rows to NATS subjects.
type NATSConfig struct {
	URL           string `env:"NATS_URL"`
	SubjectPrefix string `env:"NATS_SUBJECT_PREFIX" envDefault:"meeteat.notifications"`
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        `env:"PORT" envDefault:"8080"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"10s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" envDefault:"20s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	MaxHeaderBytes    int           `env:"MAX_HEADER_BYTES" envDefault:"1048576"`
	GinMode           string        `env:"GIN_MODE" envDefault:"release"` // debug|release|test

	// Logging / Docs
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"` // debug|info|warn|error|fatal|panic
	LogPretty      bool   `env:"LOG_PRETTY" envDefault:"false"`
	SwaggerEnabled bool   `env:"SWAGGER_ENABLED" envDefault:"false"`
	APIBasePath    string `env:"API_BASE_PATH" envDefault:"/api/v1"`

	DB       DBConfig
	Telegram TelegramConfig
	Survey   SurveyConfig
	Notify   NotifyConfig
	Locale   LocaleConfig
	NATS     NATSConfig

	// Rate limiting
	RateRPS   float64 `env:"RATE_RPS" envDefault:"5"`
	RateBurst int     `env:"RATE_BURST" envDefault:"10"`

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	return cfg, cfg.Validate()
}

func (cfg *Config) normalize() {
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	cfg.GinMode = strings.ToLower(strings.TrimSpace(cfg.GinMode))
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	cfg.APIBasePath = normalizeBasePath(cfg.APIBasePath)
	cfg.DB.Driver = strings.ToLower(strings.TrimSpace(cfg.DB.Driver))
	cfg.Telegram.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.Telegram.APIBaseURL), "/")
	cfg.Telegram.PublicBaseURL = strings.TrimRight(strings.TrimSpace(cfg.Telegram.PublicBaseURL), "/")
	cfg.CORS.AllowedOrigins = compact(cfg.CORS.AllowedOrigins)
}

// Validate reports the first invalid setting.
func (cfg Config) Validate() error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case "mysql":
		if strings.TrimSpace(cfg.DB.DSN) == "" {
			return errors.New("DB_DSN is required when DB_DRIVER=mysql")
		}
	default:
		return errors.New("DB_DRIVER must be one of: sqlite, mysql")
	}
	if cfg.Telegram.APIBaseURL == "" {
		return errors.New("TELEGRAM_API_BASE_URL must not be empty")
	}
	if cfg.Telegram.RequestTimeout <= 0 {
		return errors.New("TELEGRAM_REQUEST_TIMEOUT must be > 0")
	}
	if cfg.Survey.GraceInterval < 0 {
		return errors.New("SURVEY_GRACE_INTERVAL must be >= 0")
	}
	if cfg.Survey.PollInterval <= 0 {
		return errors.New("SURVEY_POLL_INTERVAL must be > 0")
	}
	if cfg.Survey.BatchSize < 1 {
		return errors.New("SURVEY_BATCH_SIZE must be >= 1")
	}
	if cfg.Survey.DeliveryAttempts < 1 {
		return errors.New("SURVEY_DELIVERY_ATTEMPTS must be >= 1")
	}
	if cfg.Survey.RetryBackoff <= 0 || cfg.Survey.RetryMaxDelay < cfg.Survey.RetryBackoff {
		return errors.New("SURVEY_RETRY_BACKOFF must be > 0 and <= SURVEY_RETRY_MAX_DELAY")
	}
	if cfg.Notify.Workers < 1 {
		return errors.New("NOTIFY_WORKERS must be >= 1")
	}
	if cfg.Notify.TaskTimeout <= 0 {
		return errors.New("NOTIFY_TASK_TIMEOUT must be > 0")
	}
	if _, err := time.LoadLocation(cfg.Locale.TimeZone); err != nil {
		return fmt.Errorf("TIME_ZONE is invalid: %w", err)
	}
	if cfg.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

func compact(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, p := range in {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
