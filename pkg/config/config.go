package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	HTTP    HTTPConfig
	Storage StorageConfig
	Redis   RedisConfig
	DB      DBConfig
	Stock   StockConfig
	Tracing TracingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	if cfg.Storage.Driver == StorageDriverRedis {
		if err := cfg.Redis.validate(); err != nil {
			return nil, err
		}
	}
	if cfg.Storage.Driver == StorageDriverSQL {
		if err := cfg.DB.validate(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Stock.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDB reads only the app and database sections. The migrate binary uses it so it can run
// without the stock service being configured.
func LoadDB() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg.App); err != nil {
		return nil, fmt.Errorf("parsing app config: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg.DB); err != nil {
		return nil, fmt.Errorf("parsing db config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CART_APP_ENV" required:"true"`
	Port         string `envconfig:"CART_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CART_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"CART_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"CART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type HTTPConfig struct {
	ReadHeaderTimeout time.Duration `envconfig:"CART_HTTP_READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `envconfig:"CART_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout      time.Duration `envconfig:"CART_HTTP_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout       time.Duration `envconfig:"CART_HTTP_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout   time.Duration `envconfig:"CART_HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	EventsHeartbeat   time.Duration `envconfig:"CART_HTTP_EVENTS_HEARTBEAT" default:"15s"`
	CORSOrigins       []string      `envconfig:"CART_HTTP_CORS_ORIGINS" default:"http://localhost:3000"`
}

// StorageConfig selects where the cart snapshot lives.
type StorageConfig struct {
	Driver  string `envconfig:"CART_STORAGE_DRIVER" default:"file"`
	Key     string `envconfig:"CART_STORAGE_KEY" default:"cart"`
	FileDir string `envconfig:"CART_STORAGE_FILE_DIR" default:".data"`
}

func (s *StorageConfig) validate() error {
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	switch s.Driver {
	case StorageDriverFile:
		if strings.TrimSpace(s.FileDir) == "" {
			return fmt.Errorf("%s is required for the file storage driver", EnvStorageFileDir)
		}
	case StorageDriverRedis, StorageDriverSQL, StorageDriverMemory:
	default:
		return fmt.Errorf("unsupported %s %q", EnvStorageDriver, s.Driver)
	}
	if strings.TrimSpace(s.Key) == "" {
		return fmt.Errorf("%s is required", EnvStorageKey)
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"CART_REDIS_URL"`
	Address      string        `envconfig:"CART_REDIS_ADDR"`
	Password     string        `envconfig:"CART_REDIS_PASSWORD"`
	DB           int           `envconfig:"CART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) validate() error {
	if r.URL == "" && r.Address == "" {
		return fmt.Errorf("either %s or %s is required for the redis storage driver", EnvRedisURL, EnvRedisAddr)
	}
	return nil
}

type DBConfig struct {
	Driver string `envconfig:"CART_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"CART_DB_DSN"`

	Host     string `envconfig:"CART_DB_HOST"`
	Port     int    `envconfig:"CART_DB_PORT" default:"5432"`
	User     string `envconfig:"CART_DB_USER"`
	Password string `envconfig:"CART_DB_PASSWORD"`
	Name     string `envconfig:"CART_DB_NAME"`
	SSLMode  string `envconfig:"CART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CART_DB_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"CART_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"CART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CART_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"CART_DB_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) validate() error {
	db.Driver = strings.ToLower(strings.TrimSpace(db.Driver))
	switch db.Driver {
	case DBDriverSQLite:
		if db.DSN == "" {
			db.DSN = defaultSQLiteDSN
		}
		return nil
	case DBDriverPostgres:
		return db.ensureDSN()
	default:
		return fmt.Errorf("unsupported %s %q", EnvDBDriver, db.Driver)
	}
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range postgresDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

// StockConfig points at the inventory service consulted before every quantity change.
type StockConfig struct {
	BaseURL string        `envconfig:"CART_STOCK_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"CART_STOCK_TIMEOUT" default:"5s"`
}

func (s StockConfig) validate() error {
	u, err := url.Parse(strings.TrimSpace(s.BaseURL))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvStockBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url", EnvStockBaseURL)
	}
	return nil
}

type TracingConfig struct {
	Enabled     bool    `envconfig:"CART_TRACING_ENABLED" default:"false"`
	Endpoint    string  `envconfig:"CART_TRACING_ENDPOINT" default:"localhost:4317"`
	ServiceName string  `envconfig:"CART_TRACING_SERVICE_NAME" default:"rocketcart"`
	SampleRatio float64 `envconfig:"CART_TRACING_SAMPLE_RATIO" default:"1"`
}
