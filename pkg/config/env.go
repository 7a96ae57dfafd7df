package config

const EnvPrefix = "CART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageDriverFile   = "file"
	StorageDriverRedis  = "redis"
	StorageDriverSQL    = "sql"
	StorageDriverMemory = "memory"
)

const (
	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"

	defaultSQLiteDSN = "file:cart.db?_pragma=busy_timeout(5000)"
)

const (
	EnvAppEnv         = "CART_APP_ENV"
	EnvPort           = "CART_APP_PORT"
	EnvStorageDriver  = "CART_STORAGE_DRIVER"
	EnvStorageKey     = "CART_STORAGE_KEY"
	EnvStorageFileDir = "CART_STORAGE_FILE_DIR"
	EnvRedisURL       = "CART_REDIS_URL"
	EnvRedisAddr      = "CART_REDIS_ADDR"
	EnvDBDriver       = "CART_DB_DRIVER"
	EnvDBDSN          = "CART_DB_DSN"
	EnvDBHost         = "CART_DB_HOST"
	EnvDBUser         = "CART_DB_USER"
	EnvDBName         = "CART_DB_NAME"
	EnvStockBaseURL   = "CART_STOCK_BASE_URL"
)

var postgresDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
