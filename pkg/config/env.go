package config

// EnvPrefix is passed to envconfig; individual fields carry the fully
// prefixed names so the .env file stays greppable.
const EnvPrefix = "barstock"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "BARSTOCK_APP_ENV"
	EnvPort       = "BARSTOCK_APP_PORT"
	EnvLogLevel   = "BARSTOCK_LOG_LEVEL"
	EnvDBDSN      = "BARSTOCK_DB_DSN"
	EnvDBHost     = "BARSTOCK_DB_HOST"
	EnvDBUser     = "BARSTOCK_DB_USER"
	EnvDBName     = "BARSTOCK_DB_NAME"
	EnvRedisURL   = "BARSTOCK_REDIS_URL"
	EnvJWTSecret  = "BARSTOCK_JWT_SECRET"
	EnvJWTIssuer  = "BARSTOCK_JWT_ISSUER"
	EnvJWTExpMins = "BARSTOCK_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
