package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	RateLimit     RateLimitConfig
	Booking       BookingConfig
	Payment       PaymentConfig
	Cron          CronConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env            string        `envconfig:"CAMPGROUND_APP_ENV" required:"true"`
	Port           string        `envconfig:"CAMPGROUND_APP_PORT" required:"true"`
	LogLevel       string        `envconfig:"CAMPGROUND_LOG_LEVEL" default:"info"`
	LogFormat      string        `envconfig:"CAMPGROUND_LOG_FORMAT"`
	LogWarnStack   bool          `envconfig:"CAMPGROUND_LOG_WARN_STACK" default:"false"`
	RequestTimeout time.Duration `envconfig:"CAMPGROUND_REQUEST_TIMEOUT" default:"15s"`
	CORSOrigins    []string      `envconfig:"CAMPGROUND_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"CAMPGROUND_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CAMPGROUND_DB_DSN"`
	Driver string `envconfig:"CAMPGROUND_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CAMPGROUND_DB_HOST"`
	LegacyPort     int    `envconfig:"CAMPGROUND_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CAMPGROUND_DB_USER"`
	LegacyPassword string `envconfig:"CAMPGROUND_DB_PASSWORD"`
	LegacyName     string `envconfig:"CAMPGROUND_DB_NAME"`
	LegacySSLMode  string `envconfig:"CAMPGROUND_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAMPGROUND_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CAMPGROUND_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CAMPGROUND_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAMPGROUND_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"CAMPGROUND_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CAMPGROUND_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CAMPGROUND_REDIS_ADDR"`
	Password     string        `envconfig:"CAMPGROUND_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAMPGROUND_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAMPGROUND_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAMPGROUND_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAMPGROUND_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAMPGROUND_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAMPGROUND_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CAMPGROUND_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CAMPGROUND_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CAMPGROUND_JWT_EXPIRATION_MINUTES" required:"true"`
}

// TokenTTL returns the access token lifetime, which also bounds the session.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CAMPGROUND_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CAMPGROUND_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CAMPGROUND_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CAMPGROUND_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CAMPGROUND_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CAMPGROUND_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"CAMPGROUND_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CAMPGROUND_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"CAMPGROUND_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"CAMPGROUND_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"CAMPGROUND_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type RateLimitConfig struct {
	Window time.Duration `envconfig:"CAMPGROUND_RATE_LIMIT_WINDOW" default:"1m"`
	Limit  int           `envconfig:"CAMPGROUND_RATE_LIMIT_MAX" default:"1000"`
}

type BookingConfig struct {
	MaxActivePerUser int `envconfig:"CAMPGROUND_BOOKING_MAX_PER_USER" default:"3"`
}

type PaymentConfig struct {
	RequireLuhn bool `envconfig:"CAMPGROUND_PAYMENT_REQUIRE_LUHN" default:"false"`
}

type CronConfig struct {
	Interval        time.Duration `envconfig:"CAMPGROUND_CRON_INTERVAL" default:"24h"`
	AnchorMidnight  bool          `envconfig:"CAMPGROUND_CRON_ANCHOR_MIDNIGHT" default:"true"`
	LockTTL         time.Duration `envconfig:"CAMPGROUND_CRON_LOCK_TTL" default:"30m"`
	OutboxRetention time.Duration `envconfig:"CAMPGROUND_CRON_OUTBOX_RETENTION" default:"168h"`
	DLQRetention    time.Duration `envconfig:"CAMPGROUND_CRON_DLQ_RETENTION" default:"720h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CAMPGROUND_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CAMPGROUND_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"CAMPGROUND_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic string `envconfig:"CAMPGROUND_PUBSUB_DOMAIN_TOPIC" default:"campground-domain-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CAMPGROUND_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CAMPGROUND_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CAMPGROUND_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
