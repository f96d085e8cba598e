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
	Dispatch     DispatchConfig
	Tracking     TrackingConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
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
	Env          string `envconfig:"QUICKBITES_APP_ENV" required:"true"`
	Port         string `envconfig:"QUICKBITES_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"QUICKBITES_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"QUICKBITES_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"QUICKBITES_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"QUICKBITES_DB_DSN"`
	Driver string `envconfig:"QUICKBITES_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"QUICKBITES_DB_HOST"`
	LegacyPort     int    `envconfig:"QUICKBITES_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"QUICKBITES_DB_USER"`
	LegacyPassword string `envconfig:"QUICKBITES_DB_PASSWORD"`
	LegacyName     string `envconfig:"QUICKBITES_DB_NAME"`
	LegacySSLMode  string `envconfig:"QUICKBITES_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"QUICKBITES_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"QUICKBITES_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"QUICKBITES_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"QUICKBITES_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"QUICKBITES_REDIS_URL" required:"true"`
	Address      string        `envconfig:"QUICKBITES_REDIS_ADDR"`
	Password     string        `envconfig:"QUICKBITES_REDIS_PASSWORD"`
	DB           int           `envconfig:"QUICKBITES_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"QUICKBITES_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"QUICKBITES_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"QUICKBITES_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"QUICKBITES_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"QUICKBITES_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// DispatchConfig tunes agent selection for order assignment.
type DispatchConfig struct {
	MaxRadiusKm         float64       `envconfig:"QUICKBITES_DISPATCH_MAX_RADIUS_KM" default:"10"`
	WorkloadStatuses    []string      `envconfig:"QUICKBITES_DISPATCH_WORKLOAD_STATUSES" default:"pending,confirmed,picked"`
	CollaboratorTimeout time.Duration `envconfig:"QUICKBITES_DISPATCH_COLLABORATOR_TIMEOUT" default:"5s"`
}

// TrackingConfig tunes the live location store and broadcast hub.
type TrackingConfig struct {
	SubscriberBuffer  int           `envconfig:"QUICKBITES_TRACKING_SUBSCRIBER_BUFFER" default:"32"`
	StaleAfter        time.Duration `envconfig:"QUICKBITES_TRACKING_STALE_AFTER" default:"0"`
	StreamHeartbeat   time.Duration `envconfig:"QUICKBITES_TRACKING_STREAM_HEARTBEAT" default:"15s"`
	ReportRateWindow  time.Duration `envconfig:"QUICKBITES_TRACKING_REPORT_RATE_WINDOW" default:"1m"`
	ReportRateLimit   int           `envconfig:"QUICKBITES_TRACKING_REPORT_RATE_LIMIT" default:"120"`
	ReportRateIPLimit int           `envconfig:"QUICKBITES_TRACKING_REPORT_RATE_IP_LIMIT" default:"600"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"QUICKBITES_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"QUICKBITES_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"QUICKBITES_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"QUICKBITES_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"QUICKBITES_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"QUICKBITES_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DispatchTopic            string `envconfig:"QUICKBITES_PUBSUB_DISPATCH_TOPIC" required:"true"`
	DispatchSubscription     string `envconfig:"QUICKBITES_PUBSUB_DISPATCH_SUBSCRIPTION" required:"true"`
	NotificationTopic        string `envconfig:"QUICKBITES_PUBSUB_NOTIFICATION_TOPIC" default:"qb-notification-events"`
	NotificationSubscription string `envconfig:"QUICKBITES_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"QUICKBITES_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"QUICKBITES_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"QUICKBITES_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"QUICKBITES_CRON_INTERVAL" default:"5m"`
	LockTTL  time.Duration `envconfig:"QUICKBITES_CRON_LOCK_TTL" default:"10m"`
}

// NormalizedWorkloadStatuses returns the configured active statuses lowercased
// with blanks removed.
func (d DispatchConfig) NormalizedWorkloadStatuses() []string {
	out := make([]string, 0, len(d.WorkloadStatuses))
	for _, s := range d.WorkloadStatuses {
		s = strings.TrimSpace(strings.ToLower(s))
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
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
