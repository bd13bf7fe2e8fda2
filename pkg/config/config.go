package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	CartStorePostgres = "postgres"
	CartStoreMongo    = "mongo"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Mongo        MongoConfig
	JWT          JWTConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Cart         CartConfig
	Orders       OrdersConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

// Load reads the environment into Config. Missing required values abort startup.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	} else if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Cart.validate(cfg.Mongo); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"MERCADITO_APP_ENV" required:"true"`
	Port         string   `envconfig:"MERCADITO_APP_PORT" default:"3000"`
	LogLevel     string   `envconfig:"MERCADITO_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"MERCADITO_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"MERCADITO_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MERCADITO_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MERCADITO_DB_DSN"`
	Driver string `envconfig:"MERCADITO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MERCADITO_DB_HOST"`
	LegacyPort     int    `envconfig:"MERCADITO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MERCADITO_DB_USER"`
	LegacyPassword string `envconfig:"MERCADITO_DB_PASSWORD"`
	LegacyName     string `envconfig:"MERCADITO_DB_NAME"`
	LegacySSLMode  string `envconfig:"MERCADITO_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"MERCADITO_SQLITE_PATH" default:"mercadito.db"`

	MaxOpenConns    int           `envconfig:"MERCADITO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MERCADITO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MERCADITO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MERCADITO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MERCADITO_REDIS_URL" required:"true"`
	Password     string        `envconfig:"MERCADITO_REDIS_PASSWORD"`
	DB           int           `envconfig:"MERCADITO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MERCADITO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MERCADITO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MERCADITO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MERCADITO_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"MERCADITO_REDIS_WRITE_TIMEOUT" default:"3s"`
}

type MongoConfig struct {
	URI            string        `envconfig:"MERCADITO_MONGO_URI"`
	Database       string        `envconfig:"MERCADITO_MONGO_DATABASE" default:"mercadito"`
	ConnectTimeout time.Duration `envconfig:"MERCADITO_MONGO_CONNECT_TIMEOUT" default:"10s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MERCADITO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MERCADITO_JWT_ISSUER" default:"mercadito"`
	ExpirationMinutes int    `envconfig:"MERCADITO_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// AccessTTL is the lifetime of an access token and its backing session.
func (j JWTConfig) AccessTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MERCADITO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MERCADITO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MERCADITO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MERCADITO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MERCADITO_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	GlobalWindow       time.Duration `envconfig:"MERCADITO_RATE_LIMIT_GLOBAL_WINDOW" default:"10m"`
	GlobalIPLimit      int           `envconfig:"MERCADITO_RATE_LIMIT_GLOBAL_IP_LIMIT" default:"100"`
	LoginWindow        time.Duration `envconfig:"MERCADITO_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"MERCADITO_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"MERCADITO_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"MERCADITO_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"MERCADITO_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"MERCADITO_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MERCADITO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MERCADITO_AUTO_MIGRATE" default:"false"`
}

type CartConfig struct {
	Store                 string        `envconfig:"MERCADITO_CART_STORE" default:"postgres"`
	SharedSessionFallback bool          `envconfig:"MERCADITO_CART_SHARED_SESSION_FALLBACK" default:"false"`
	TTL                   time.Duration `envconfig:"MERCADITO_CART_TTL" default:"720h"`
}

func (c CartConfig) validate(mongo MongoConfig) error {
	switch strings.ToLower(strings.TrimSpace(c.Store)) {
	case CartStorePostgres, "":
		return nil
	case CartStoreMongo:
		if strings.TrimSpace(mongo.URI) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvMongoURI, EnvCartStore, CartStoreMongo)
		}
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q", EnvCartStore, CartStorePostgres, CartStoreMongo)
	}
}

// UsesMongo reports whether carts live in MongoDB.
func (c CartConfig) UsesMongo() bool {
	return strings.EqualFold(strings.TrimSpace(c.Store), CartStoreMongo)
}

type OrdersConfig struct {
	// Decimal strings so money never round-trips through float.
	ShippingFee      string `envconfig:"MERCADITO_ORDERS_SHIPPING_FEE" default:"0"`
	FreeShippingOver string `envconfig:"MERCADITO_ORDERS_FREE_SHIPPING_OVER" default:"0"`
	NumberKey        string `envconfig:"MERCADITO_ORDERS_NUMBER_KEY" default:"mk:orders:seq"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"MERCADITO_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic string `envconfig:"MERCADITO_PUBSUB_DOMAIN_TOPIC" default:"mercadito-domain-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MERCADITO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MERCADITO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MERCADITO_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"MERCADITO_OUTBOX_RETENTION_DAYS" default:"30"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"MERCADITO_CRON_INTERVAL" default:"1h"`
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
