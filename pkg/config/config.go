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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Provisioning ProvisioningConfig
	Backend      BackendConfig
	Cron         CronConfig
	Tracing      TracingConfig
	Seed         SeedConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"COSTUMERZ_APP_ENV" required:"true"`
	Port         string `envconfig:"COSTUMERZ_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"COSTUMERZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"COSTUMERZ_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"COSTUMERZ_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"COSTUMERZ_DB_DSN"`
	Driver string `envconfig:"COSTUMERZ_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"COSTUMERZ_DB_HOST"`
	LegacyPort     int    `envconfig:"COSTUMERZ_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"COSTUMERZ_DB_USER"`
	LegacyPassword string `envconfig:"COSTUMERZ_DB_PASSWORD"`
	LegacyName     string `envconfig:"COSTUMERZ_DB_NAME"`
	LegacySSLMode  string `envconfig:"COSTUMERZ_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"COSTUMERZ_SQLITE_PATH" default:"costumerz.db"`

	MaxOpenConns    int           `envconfig:"COSTUMERZ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"COSTUMERZ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"COSTUMERZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"COSTUMERZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQueryThreshold logs statements slower than this at warn. Zero disables.
	SlowQueryThreshold time.Duration `envconfig:"COSTUMERZ_DB_SLOW_QUERY_THRESHOLD" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"COSTUMERZ_REDIS_URL" required:"true"`
	Address      string        `envconfig:"COSTUMERZ_REDIS_ADDR"`
	Password     string        `envconfig:"COSTUMERZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"COSTUMERZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"COSTUMERZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"COSTUMERZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"COSTUMERZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"COSTUMERZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"COSTUMERZ_REDIS_WRITE_TIMEOUT" default:"5s"`
	CartTTL      time.Duration `envconfig:"COSTUMERZ_REDIS_CART_TTL" default:"72h"`
}

// JWTConfig covers staff access tokens. Tokens are minted by cmd/token or an
// upstream identity service sharing the secret.
type JWTConfig struct {
	Secret            string `envconfig:"COSTUMERZ_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"COSTUMERZ_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"COSTUMERZ_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"COSTUMERZ_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"COSTUMERZ_AUTO_MIGRATE" default:"false"`
}

// ProvisioningConfig bounds batch checkout. Zero values leave the calls unbounded.
type ProvisioningConfig struct {
	UnitTimeout    time.Duration `envconfig:"COSTUMERZ_PROVISION_UNIT_TIMEOUT" default:"0s"`
	BatchDeadline  time.Duration `envconfig:"COSTUMERZ_PROVISION_BATCH_DEADLINE" default:"0s"`
	IdempotencyTTL time.Duration `envconfig:"COSTUMERZ_PROVISION_IDEMPOTENCY_TTL" default:"24h"`
}

// BackendConfig points the API at a remote shop backend. When URL is empty the
// in-process services are used.
type BackendConfig struct {
	URL     string        `envconfig:"COSTUMERZ_BACKEND_URL"`
	Token   string        `envconfig:"COSTUMERZ_BACKEND_TOKEN"`
	Timeout time.Duration `envconfig:"COSTUMERZ_BACKEND_TIMEOUT" default:"10s"`
}

func (b BackendConfig) Remote() bool {
	return strings.TrimSpace(b.URL) != ""
}

type CronConfig struct {
	Interval time.Duration `envconfig:"COSTUMERZ_CRON_INTERVAL" default:"15m"`
	LockTTL  time.Duration `envconfig:"COSTUMERZ_CRON_LOCK_TTL" default:"10m"`
}

type TracingConfig struct {
	Endpoint    string  `envconfig:"COSTUMERZ_OTLP_ENDPOINT"`
	SampleRatio float64 `envconfig:"COSTUMERZ_TRACE_SAMPLE_RATIO" default:"1"`
}

func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

type SeedConfig struct {
	CatalogPath string `envconfig:"COSTUMERZ_SEED_CATALOG_PATH" default:"seed/catalog.yaml"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
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
