package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the platform reads.
	EnvPrefix = "MEALDASH"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "MEALDASH_DB_DSN"
	EnvDBHost = "MEALDASH_DB_HOST"
	EnvDBUser = "MEALDASH_DB_USER"
	EnvDBName = "MEALDASH_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Cache        CacheConfig
	Dispatch     DispatchConfig
	Gateway      GatewayConfig
	RateLimit    RateLimitConfig
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
	Env          string `envconfig:"MEALDASH_APP_ENV" required:"true"`
	Port         string `envconfig:"MEALDASH_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MEALDASH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MEALDASH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MEALDASH_DB_DSN"`
	Driver string `envconfig:"MEALDASH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MEALDASH_DB_HOST"`
	LegacyPort     int    `envconfig:"MEALDASH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MEALDASH_DB_USER"`
	LegacyPassword string `envconfig:"MEALDASH_DB_PASSWORD"`
	LegacyName     string `envconfig:"MEALDASH_DB_NAME"`
	LegacySSLMode  string `envconfig:"MEALDASH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MEALDASH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MEALDASH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MEALDASH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEALDASH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MEALDASH_REDIS_URL"`
	Address      string        `envconfig:"MEALDASH_REDIS_ADDR"`
	Password     string        `envconfig:"MEALDASH_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEALDASH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEALDASH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEALDASH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEALDASH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEALDASH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEALDASH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MEALDASH_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MEALDASH_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MEALDASH_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CacheConfig struct {
	TTL time.Duration `envconfig:"MEALDASH_CACHE_TTL" default:"30s"`
}

type DispatchConfig struct {
	PushTimeout     time.Duration `envconfig:"MEALDASH_DISPATCH_PUSH_TIMEOUT" default:"5s"`
	PushMaxAttempts uint64        `envconfig:"MEALDASH_DISPATCH_PUSH_MAX_ATTEMPTS" default:"3"`
}

type GatewayConfig struct {
	WriteTimeout time.Duration `envconfig:"MEALDASH_GATEWAY_WRITE_TIMEOUT" default:"10s"`
	PingInterval time.Duration `envconfig:"MEALDASH_GATEWAY_PING_INTERVAL" default:"30s"`
	SendBuffer   int           `envconfig:"MEALDASH_GATEWAY_SEND_BUFFER" default:"32"`
}

type RateLimitConfig struct {
	LocationWindow time.Duration `envconfig:"MEALDASH_RATELIMIT_LOCATION_WINDOW" default:"1m"`
	LocationLimit  int64         `envconfig:"MEALDASH_RATELIMIT_LOCATION_LIMIT" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MEALDASH_AUTO_MIGRATE" default:"false"`
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
