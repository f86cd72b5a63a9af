package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Stock        StockConfig
	Idempotency  IdempotencyConfig
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
	Env          string `envconfig:"BARSTOCK_APP_ENV" required:"true"`
	Port         string `envconfig:"BARSTOCK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BARSTOCK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BARSTOCK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BARSTOCK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BARSTOCK_DB_DSN"`
	Driver string `envconfig:"BARSTOCK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BARSTOCK_DB_HOST"`
	LegacyPort     int    `envconfig:"BARSTOCK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BARSTOCK_DB_USER"`
	LegacyPassword string `envconfig:"BARSTOCK_DB_PASSWORD"`
	LegacyName     string `envconfig:"BARSTOCK_DB_NAME"`
	LegacySSLMode  string `envconfig:"BARSTOCK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BARSTOCK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BARSTOCK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BARSTOCK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BARSTOCK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BARSTOCK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BARSTOCK_REDIS_ADDR"`
	Password     string        `envconfig:"BARSTOCK_REDIS_PASSWORD"`
	DB           int           `envconfig:"BARSTOCK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BARSTOCK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BARSTOCK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BARSTOCK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BARSTOCK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BARSTOCK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BARSTOCK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BARSTOCK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BARSTOCK_JWT_EXPIRATION_MINUTES" required:"true"`
}

// TokenTTL returns the access token TTL configured in minutes.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type StockConfig struct {
	AlertChannel        string `envconfig:"BARSTOCK_STOCK_ALERT_CHANNEL" default:"barstock.stock.alerts"`
	DefaultLowThreshold int    `envconfig:"BARSTOCK_STOCK_DEFAULT_LOW_THRESHOLD" default:"5"`
	ReconcileBatchSize  int    `envconfig:"BARSTOCK_STOCK_RECONCILE_BATCH_SIZE" default:"200"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"BARSTOCK_IDEMPOTENCY_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BARSTOCK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BARSTOCK_AUTO_MIGRATE" default:"false"`
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
