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
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Cron         CronConfig
	Billback     BillbackConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"PROCUREHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"PROCUREHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PROCUREHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PROCUREHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PROCUREHUB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PROCUREHUB_DB_DSN"`
	Driver string `envconfig:"PROCUREHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PROCUREHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"PROCUREHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PROCUREHUB_DB_USER"`
	LegacyPassword string `envconfig:"PROCUREHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"PROCUREHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"PROCUREHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PROCUREHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PROCUREHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PROCUREHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PROCUREHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PROCUREHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PROCUREHUB_REDIS_ADDR"`
	Password     string        `envconfig:"PROCUREHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"PROCUREHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PROCUREHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PROCUREHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PROCUREHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PROCUREHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PROCUREHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PROCUREHUB_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PROCUREHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"PROCUREHUB_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"PROCUREHUB_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PROCUREHUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PROCUREHUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PROCUREHUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PROCUREHUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PROCUREHUB_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PROCUREHUB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PROCUREHUB_AUTO_MIGRATE" default:"false"`
}

type CronConfig struct {
	BillbackSyncInterval time.Duration `envconfig:"PROCUREHUB_CRON_BILLBACK_SYNC_INTERVAL" default:"10m"`
	LockTTL              time.Duration `envconfig:"PROCUREHUB_CRON_LOCK_TTL" default:"5m"`
}

type BillbackConfig struct {
	DefaultMarkupPercent string `envconfig:"PROCUREHUB_BILLBACK_DEFAULT_MARKUP_PERCENT" default:"0"`
	SyncBatchSize        int    `envconfig:"PROCUREHUB_BILLBACK_SYNC_BATCH_SIZE" default:"100"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PROCUREHUB_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"PROCUREHUB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PROCUREHUB_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	EventsTopic        string `envconfig:"PROCUREHUB_PUBSUB_EVENTS_TOPIC" required:"true"`
	EventsSubscription string `envconfig:"PROCUREHUB_PUBSUB_EVENTS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PROCUREHUB_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PROCUREHUB_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PROCUREHUB_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
