package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "BAKERY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv           = "BAKERY_APP_ENV"
	EnvPort             = "BAKERY_APP_PORT"
	EnvDBDSN            = "BAKERY_DB_DSN"
	EnvDBHost           = "BAKERY_DB_HOST"
	EnvDBUser           = "BAKERY_DB_USER"
	EnvDBName           = "BAKERY_DB_NAME"
	EnvRedisURL         = "BAKERY_REDIS_URL"
	EnvJWTSecret        = "BAKERY_JWT_SECRET"
	EnvUseSQLite        = "BAKERY_USE_SQLITE"
	EnvCheckoutFlow     = "BAKERY_CHECKOUT_FLOW"
	EnvCheckoutCurrency = "BAKERY_CHECKOUT_CURRENCY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
