package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "licensing"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Billing      BillingConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LICENSING_APP_ENV" required:"true"`
	Port         string `envconfig:"LICENSING_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LICENSING_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LICENSING_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LICENSING_DB_DSN"`
	Driver string `envconfig:"LICENSING_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"LICENSING_DB_HOST"`
	Port     int    `envconfig:"LICENSING_DB_PORT" default:"5432"`
	User     string `envconfig:"LICENSING_DB_USER"`
	Password string `envconfig:"LICENSING_DB_PASSWORD"`
	Name     string `envconfig:"LICENSING_DB_NAME"`
	SSLMode  string `envconfig:"LICENSING_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LICENSING_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LICENSING_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LICENSING_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LICENSING_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either LICENSING_DB_DSN or host/user/name settings are required")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"LICENSING_REDIS_URL"`
	Address      string        `envconfig:"LICENSING_REDIS_ADDR"`
	Password     string        `envconfig:"LICENSING_REDIS_PASSWORD"`
	DB           int           `envconfig:"LICENSING_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LICENSING_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LICENSING_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LICENSING_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LICENSING_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LICENSING_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LICENSING_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LICENSING_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LICENSING_JWT_EXPIRATION_MINUTES" default:"60"`
}

type BillingConfig struct {
	// RateCacheTTL bounds how long an exchange-rate or tax-rule snapshot may be
	// served from cache before the catalog is consulted again.
	RateCacheTTL time.Duration `envconfig:"LICENSING_BILLING_RATE_CACHE_TTL" default:"10m"`
	// DueDateGraceDays is added to period_end when a cycle does not supply an
	// explicit payment due date.
	DueDateGraceDays int `envconfig:"LICENSING_BILLING_DUE_DATE_GRACE_DAYS" default:"14"`
	// BaseCurrencyCode is the catalog currency every license price is stored in.
	BaseCurrencyCode string `envconfig:"LICENSING_BILLING_BASE_CURRENCY" default:"USD"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LICENSING_FEATURE_AUTO_MIGRATE" default:"false"`
}
