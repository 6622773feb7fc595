package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Stripe       StripeConfig
	Commerce     CommerceConfig
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
	Env          string `envconfig:"SECONDSTORY_APP_ENV" required:"true"`
	Port         string `envconfig:"SECONDSTORY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SECONDSTORY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SECONDSTORY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SECONDSTORY_DB_DSN"`
	Driver string `envconfig:"SECONDSTORY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SECONDSTORY_DB_HOST"`
	LegacyPort     int    `envconfig:"SECONDSTORY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SECONDSTORY_DB_USER"`
	LegacyPassword string `envconfig:"SECONDSTORY_DB_PASSWORD"`
	LegacyName     string `envconfig:"SECONDSTORY_DB_NAME"`
	LegacySSLMode  string `envconfig:"SECONDSTORY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SECONDSTORY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SECONDSTORY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SECONDSTORY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SECONDSTORY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SECONDSTORY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SECONDSTORY_REDIS_ADDR"`
	Password     string        `envconfig:"SECONDSTORY_REDIS_PASSWORD"`
	DB           int           `envconfig:"SECONDSTORY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SECONDSTORY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SECONDSTORY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SECONDSTORY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SECONDSTORY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SECONDSTORY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SECONDSTORY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SECONDSTORY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SECONDSTORY_JWT_EXPIRATION_MINUTES" default:"60"`
}

type StripeConfig struct {
	APIKey string `envconfig:"SECONDSTORY_STRIPE_API_KEY"`
	Env    string `envconfig:"SECONDSTORY_STRIPE_ENV" default:"test"`

	// Timeout applied to gateway calls; a timed-out authorization is a
	// failure, never an ambiguous success.
	CallTimeout time.Duration `envconfig:"SECONDSTORY_STRIPE_CALL_TIMEOUT" default:"15s"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CommerceConfig struct {
	PriceCeiling string `envconfig:"SECONDSTORY_PRICE_CEILING" default:"10000"`
	ShippingFee  string `envconfig:"SECONDSTORY_SHIPPING_FEE" default:"5.99"`
}

// PriceCeilingAmount parses the configured item price ceiling.
func (c CommerceConfig) PriceCeilingAmount() (decimal.Decimal, error) {
	return decimal.NewFromString(c.PriceCeiling)
}

// ShippingFeeAmount parses the flat shipping fee applied to shipped orders.
func (c CommerceConfig) ShippingFeeAmount() (decimal.Decimal, error) {
	return decimal.NewFromString(c.ShippingFee)
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SECONDSTORY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SECONDSTORY_AUTO_MIGRATE" default:"false"`
}

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

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
