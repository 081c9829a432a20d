package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/sweetdelights/bakery-backend/pkg/enums"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Cart         CartConfig
	Checkout     CheckoutConfig
	RateLimit    RateLimitConfig
	Payments     PaymentsConfig
	Square       SquareConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BAKERY_APP_ENV" required:"true"`
	Port         string `envconfig:"BAKERY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BAKERY_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"BAKERY_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"BAKERY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BAKERY_DB_DSN"`
	Driver string `envconfig:"BAKERY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BAKERY_DB_HOST"`
	LegacyPort     int    `envconfig:"BAKERY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BAKERY_DB_USER"`
	LegacyPassword string `envconfig:"BAKERY_DB_PASSWORD"`
	LegacyName     string `envconfig:"BAKERY_DB_NAME"`
	LegacySSLMode  string `envconfig:"BAKERY_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"BAKERY_SQLITE_PATH" default:"bakery.db"`

	MaxOpenConns    int           `envconfig:"BAKERY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BAKERY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BAKERY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BAKERY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver targets the embedded sqlite database.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"BAKERY_REDIS_URL"`
	Address      string        `envconfig:"BAKERY_REDIS_ADDR"`
	Password     string        `envconfig:"BAKERY_REDIS_PASSWORD"`
	DB           int           `envconfig:"BAKERY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BAKERY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BAKERY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BAKERY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BAKERY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BAKERY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes how bearer tokens minted by the hosted auth provider are verified.
type JWTConfig struct {
	Secret    string `envconfig:"BAKERY_JWT_SECRET" required:"true"`
	Issuer    string `envconfig:"BAKERY_JWT_ISSUER"`
	Audience  string `envconfig:"BAKERY_JWT_AUDIENCE" default:"authenticated"`
	AdminRole string `envconfig:"BAKERY_JWT_ADMIN_ROLE" default:"admin"`
	// ExpirationMinutes is only used when the service mints tokens itself (dev tooling, tests).
	ExpirationMinutes int `envconfig:"BAKERY_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"BAKERY_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

type CartConfig struct {
	GuestTTL        time.Duration `envconfig:"BAKERY_CART_GUEST_TTL" default:"720h"`
	MirrorTTL       time.Duration `envconfig:"BAKERY_CART_MIRROR_TTL" default:"24h"`
	LockTTL         time.Duration `envconfig:"BAKERY_CART_LOCK_TTL" default:"10s"`
	LockRetryDelay  time.Duration `envconfig:"BAKERY_CART_LOCK_RETRY_DELAY" default:"50ms"`
	LockMaxAttempts uint64        `envconfig:"BAKERY_CART_LOCK_MAX_ATTEMPTS" default:"20"`
}

type CheckoutConfig struct {
	Flow                string `envconfig:"BAKERY_CHECKOUT_FLOW" default:"standard"`
	Currency            string `envconfig:"BAKERY_CHECKOUT_CURRENCY" default:"NGN"`
	ReferencePrefix     string `envconfig:"BAKERY_CHECKOUT_REFERENCE_PREFIX" default:"sweet-delights"`
	RequireDeliveryDate bool   `envconfig:"BAKERY_CHECKOUT_REQUIRE_DELIVERY_DATE" default:"false"`
}

// CheckoutFlow returns the parsed status flow; Load has already validated it.
func (c CheckoutConfig) CheckoutFlow() enums.CheckoutFlow {
	flow, err := enums.ParseCheckoutFlow(c.Flow)
	if err != nil {
		return enums.CheckoutFlowStandard
	}
	return flow
}

// CurrencyCode returns the parsed widget currency; Load has already validated it.
func (c CheckoutConfig) CurrencyCode() enums.Currency {
	currency, err := enums.ParseCurrency(c.Currency)
	if err != nil {
		return enums.CurrencyNGN
	}
	return currency
}

func (c CheckoutConfig) validate() error {
	if _, err := enums.ParseCheckoutFlow(c.Flow); err != nil {
		return fmt.Errorf("%s: %w", EnvCheckoutFlow, err)
	}
	if _, err := enums.ParseCurrency(c.Currency); err != nil {
		return fmt.Errorf("%s: %w", EnvCheckoutCurrency, err)
	}
	return nil
}

// RateLimitConfig throttles checkout attempts per client IP and per customer email.
type RateLimitConfig struct {
	CheckoutWindow     time.Duration `envconfig:"BAKERY_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutIPLimit    int           `envconfig:"BAKERY_RATE_LIMIT_CHECKOUT_IP" default:"20"`
	CheckoutEmailLimit int           `envconfig:"BAKERY_RATE_LIMIT_CHECKOUT_EMAIL" default:"5"`
}

type PaymentsConfig struct {
	// Verify enables the server-side lookup of the payment before an order is written.
	Verify bool `envconfig:"BAKERY_PAYMENTS_VERIFY" default:"false"`
}

type SquareConfig struct {
	AccessToken string `envconfig:"BAKERY_SQUARE_ACCESS_TOKEN"`
	Env         string `envconfig:"BAKERY_SQUARE_ENV" default:"sandbox"`
	LocationID  string `envconfig:"BAKERY_SQUARE_LOCATION_ID"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BAKERY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BAKERY_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
	}
	if db.IsSQLite() {
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
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
