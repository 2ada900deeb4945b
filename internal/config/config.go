// Package config defines the runtime configuration of the pipeline and loads
// it from an optional .env file, an optional YAML/JSON file and the process
// environment, in increasing order of precedence.
//
// Example file (every key may instead come from its environment variable):
//
//	source:
//	  bucket: raw-csv-storage
//	  subfolder: raw-olympics
//	  local_path: data/raw
//	storage:
//	  kind: postgres
//	postgres:
//	  server: localhost
//	  port: 5432
//	  db: olympics
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	// Job labels metrics and log lines.
	Job string `mapstructure:"job"`

	Source   Source   `mapstructure:"source"`
	AWS      AWS      `mapstructure:"aws"`
	Storage  Storage  `mapstructure:"storage"`
	Postgres Postgres `mapstructure:"postgres"`
	Metrics  Metrics  `mapstructure:"metrics"`
	Temporal Temporal `mapstructure:"temporal"`
	Log      Log      `mapstructure:"log"`
}

// Source locates the raw extracts.
type Source struct {
	Bucket    string `mapstructure:"bucket"`
	Subfolder string `mapstructure:"subfolder"`
	LocalPath string `mapstructure:"local_path"`

	// DownloadConcurrency bounds parallel object downloads.
	DownloadConcurrency int `mapstructure:"download_concurrency"`
}

// AWS holds the static credential pair used for the object store.
type AWS struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Region          string `mapstructure:"region"`
	// Endpoint overrides the S3 endpoint (MinIO, localstack).
	Endpoint string `mapstructure:"endpoint"`
}

// Storage selects the database backend.
type Storage struct {
	// Kind is "postgres" or "sqlite".
	Kind      string `mapstructure:"kind"`
	SQLiteDSN string `mapstructure:"sqlite_dsn"`
}

// Postgres holds the connection parameters of the target database.
type Postgres struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Server   string `mapstructure:"server"`
	Port     int    `mapstructure:"port"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "none", "pushgateway" or "datadog".
	Backend        string `mapstructure:"backend"`
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	DogStatsDAddr  string `mapstructure:"dogstatsd_addr"`
}

// Temporal configures the scheduled deployment.
type Temporal struct {
	Address    string `mapstructure:"address"`
	Namespace  string `mapstructure:"namespace"`
	TaskQueue  string `mapstructure:"task_queue"`
	ScheduleID string `mapstructure:"schedule_id"`
	// Cron is the schedule's cron expression, e.g. "0 6 * * *".
	Cron string `mapstructure:"cron"`
}

// Log configures the process logger.
type Log struct {
	// Mode is "dev" or "prod".
	Mode string `mapstructure:"mode"`
}

// envBindings maps configuration keys to the environment variables that
// override them.
var envBindings = map[string]string{
	"job":                         "JOB_NAME",
	"source.bucket":               "BUCKET_NAME",
	"source.subfolder":            "SUBFOLDER",
	"source.local_path":           "LOCAL_PATH",
	"source.download_concurrency": "DOWNLOAD_CONCURRENCY",
	"aws.access_key_id":           "AWS_ACCESS_KEY_ID",
	"aws.secret_access_key":       "AWS_SECRET_ACCESS_KEY",
	"aws.region":                  "AWS_REGION",
	"aws.endpoint":                "AWS_ENDPOINT_URL",
	"storage.kind":                "STORAGE_KIND",
	"storage.sqlite_dsn":          "SQLITE_DSN",
	"postgres.user":               "POSTGRES_USER",
	"postgres.password":           "POSTGRES_PASSWORD",
	"postgres.server":             "POSTGRES_SERVER",
	"postgres.port":               "POSTGRES_PORT",
	"postgres.db":                 "POSTGRES_DB",
	"postgres.sslmode":            "POSTGRES_SSLMODE",
	"metrics.backend":             "METRICS_BACKEND",
	"metrics.pushgateway_url":     "PUSHGATEWAY_URL",
	"metrics.dogstatsd_addr":      "DOGSTATSD_ADDR",
	"temporal.address":            "TEMPORAL_ADDRESS",
	"temporal.namespace":          "TEMPORAL_NAMESPACE",
	"temporal.task_queue":         "TEMPORAL_TASK_QUEUE",
	"temporal.schedule_id":        "TEMPORAL_SCHEDULE_ID",
	"temporal.cron":               "TEMPORAL_CRON",
	"log.mode":                    "LOG_MODE",
}

var defaults = map[string]any{
	"job":                         "olympics",
	"source.download_concurrency": 4,
	"aws.region":                  "us-east-1",
	"storage.kind":                "postgres",
	"postgres.port":               5432,
	"metrics.backend":             "none",
	"temporal.address":            "localhost:7233",
	"temporal.namespace":          "default",
	"temporal.task_queue":         "olympics-etl",
	"temporal.schedule_id":        "olympics-etl",
	"temporal.cron":               "0 6 * * *",
	"log.mode":                    "dev",
}

// Load reads configuration. path may be empty; a missing .env is ignored.
// Load does not validate; call Check on the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	for k, env := range envBindings {
		if err := v.BindEnv(k, env); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", env, err)
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.trim()
	return &cfg, nil
}

func (c *Config) trim() {
	for _, s := range []*string{
		&c.Job, &c.Source.Bucket, &c.Source.Subfolder, &c.Source.LocalPath,
		&c.AWS.AccessKeyID, &c.AWS.Region, &c.AWS.Endpoint,
		&c.Storage.Kind, &c.Storage.SQLiteDSN,
		&c.Postgres.User, &c.Postgres.Server, &c.Postgres.DB, &c.Postgres.SSLMode,
		&c.Metrics.Backend, &c.Metrics.PushgatewayURL, &c.Metrics.DogStatsDAddr,
		&c.Temporal.Address, &c.Temporal.Namespace, &c.Temporal.TaskQueue,
		&c.Temporal.ScheduleID, &c.Temporal.Cron, &c.Log.Mode,
	} {
		*s = strings.TrimSpace(*s)
	}
	c.Storage.Kind = strings.ToLower(c.Storage.Kind)
	c.Metrics.Backend = strings.ToLower(c.Metrics.Backend)
}

// PostgresDSN builds a postgresql:// URL from the Postgres section. User and
// password are escaped.
func (c Config) PostgresDSN() string {
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(c.Postgres.User, c.Postgres.Password),
		Host:   net.JoinHostPort(c.Postgres.Server, strconv.Itoa(c.Postgres.Port)),
		Path:   "/" + c.Postgres.DB,
	}
	if c.Postgres.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.Postgres.SSLMode}}.Encode()
	}
	return u.String()
}

// StorageDSN returns the DSN for the selected storage kind.
func (c Config) StorageDSN() string {
	if c.Storage.Kind == "sqlite" {
		return c.Storage.SQLiteDSN
	}
	return c.PostgresDSN()
}
