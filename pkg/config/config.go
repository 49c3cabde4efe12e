package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "pneumback"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvDBDSN  = "PNEUMBACK_DB_DSN"
	EnvDBHost = "PNEUMBACK_DB_HOST"
	EnvDBUser = "PNEUMBACK_DB_USER"
	EnvDBName = "PNEUMBACK_DB_NAME"

	EnvAppEnv = "PNEUMBACK_APP_ENV"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	PayDunya     PayDunyaConfig
	Quotes       QuotesConfig
	RateLimit    RateLimitConfig
	Delivery     DeliveryConfig
	SMTP         SMTPConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"PNEUMBACK_APP_ENV" required:"true"`
	Port         string `envconfig:"PNEUMBACK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PNEUMBACK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PNEUMBACK_LOG_WARN_STACK" default:"false"`
	PublicURL    string `envconfig:"PNEUMBACK_APP_PUBLIC_URL" default:"http://localhost:8080"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PNEUMBACK_DB_DSN"`
	Driver string `envconfig:"PNEUMBACK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PNEUMBACK_DB_HOST"`
	LegacyPort     int    `envconfig:"PNEUMBACK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PNEUMBACK_DB_USER"`
	LegacyPassword string `envconfig:"PNEUMBACK_DB_PASSWORD"`
	LegacyName     string `envconfig:"PNEUMBACK_DB_NAME"`
	LegacySSLMode  string `envconfig:"PNEUMBACK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PNEUMBACK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PNEUMBACK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PNEUMBACK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PNEUMBACK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PNEUMBACK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PNEUMBACK_REDIS_ADDR"`
	Password     string        `envconfig:"PNEUMBACK_REDIS_PASSWORD"`
	DB           int           `envconfig:"PNEUMBACK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PNEUMBACK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PNEUMBACK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PNEUMBACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PNEUMBACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PNEUMBACK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PNEUMBACK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PNEUMBACK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PNEUMBACK_JWT_EXPIRATION_MINUTES" default:"60"`
}

// PayDunyaConfig holds the PSP credentials and transport limits.
type PayDunyaConfig struct {
	BaseURL     string        `envconfig:"PNEUMBACK_PAYDUNYA_BASE_URL" default:"https://app.paydunya.com/api/v1"`
	CheckoutURL string        `envconfig:"PNEUMBACK_PAYDUNYA_CHECKOUT_URL" default:"https://paydunya.com/checkout/invoice"`
	MasterKey   string        `envconfig:"PNEUMBACK_PAYDUNYA_MASTER_KEY"`
	PrivateKey  string        `envconfig:"PNEUMBACK_PAYDUNYA_PRIVATE_KEY"`
	PublicKey   string        `envconfig:"PNEUMBACK_PAYDUNYA_PUBLIC_KEY"`
	Token       string        `envconfig:"PNEUMBACK_PAYDUNYA_TOKEN"`
	CallbackURL string        `envconfig:"PNEUMBACK_PAYDUNYA_CALLBACK_URL"`
	Timeout     time.Duration `envconfig:"PNEUMBACK_PAYDUNYA_TIMEOUT" default:"10s"`
}

type QuotesConfig struct {
	ValidityDays int `envconfig:"PNEUMBACK_QUOTE_VALIDITY_DAYS" default:"15"`
}

type RateLimitConfig struct {
	SubmitWindow    time.Duration `envconfig:"PNEUMBACK_RATE_LIMIT_SUBMIT_WINDOW" default:"1m"`
	SubmitUserLimit int           `envconfig:"PNEUMBACK_RATE_LIMIT_SUBMIT_USER_LIMIT" default:"5"`
	SubmitIPLimit   int           `envconfig:"PNEUMBACK_RATE_LIMIT_SUBMIT_IP_LIMIT" default:"20"`
}

type DeliveryConfig struct {
	AbsentCeiling int `envconfig:"PNEUMBACK_DELIVERY_ABSENT_CEILING" default:"3"`
}

type SMTPConfig struct {
	Host     string `envconfig:"PNEUMBACK_SMTP_HOST"`
	Port     int    `envconfig:"PNEUMBACK_SMTP_PORT" default:"587"`
	Username string `envconfig:"PNEUMBACK_SMTP_USERNAME"`
	Password string `envconfig:"PNEUMBACK_SMTP_PASSWORD"`
	From     string `envconfig:"PNEUMBACK_SMTP_FROM"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PNEUMBACK_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PNEUMBACK_OUTBOX_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PNEUMBACK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PNEUMBACK_FEATURE_AUTO_MIGRATE" default:"false"`
}

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}
	dsn := url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:     db.LegacyName,
		RawQuery: "sslmode=" + db.LegacySSLMode,
	}
	db.DSN = dsn.String()
	return nil
}
