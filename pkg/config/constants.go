package config

const EnvPrefix = "COSTUMERZ"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "COSTUMERZ_APP_ENV"
	EnvPort     = "COSTUMERZ_APP_PORT"
	EnvLogLevel = "COSTUMERZ_LOG_LEVEL"

	EnvDBDSN  = "COSTUMERZ_DB_DSN"
	EnvDBHost = "COSTUMERZ_DB_HOST"
	EnvDBUser = "COSTUMERZ_DB_USER"
	EnvDBName = "COSTUMERZ_DB_NAME"

	EnvRedisURL = "COSTUMERZ_REDIS_URL"

	EnvJWTSecret  = "COSTUMERZ_JWT_SECRET"
	EnvJWTIssuer  = "COSTUMERZ_JWT_ISSUER"
	EnvJWTExpMins = "COSTUMERZ_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite   = "COSTUMERZ_USE_SQLITE"
	EnvAutoMigrate = "COSTUMERZ_AUTO_MIGRATE"

	EnvProvisionUnitTimeout   = "COSTUMERZ_PROVISION_UNIT_TIMEOUT"
	EnvProvisionBatchDeadline = "COSTUMERZ_PROVISION_BATCH_DEADLINE"

	EnvBackendURL     = "COSTUMERZ_BACKEND_URL"
	EnvBackendTimeout = "COSTUMERZ_BACKEND_TIMEOUT"

	EnvCronInterval = "COSTUMERZ_CRON_INTERVAL"
	EnvOTLPEndpoint = "COSTUMERZ_OTLP_ENDPOINT"
	EnvSeedCatalog  = "COSTUMERZ_SEED_CATALOG_PATH"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
