// Package config loads the bot's runtime settings: defaults, then an
// optional JSON file (-c/-config), then TODOBOT_* environment variables,
// then short command-line flags.
package config

import "time"

// Config holds runtime settings for the bot.
//
// Fields:
//   - HTTPAddr: bind address of the command API and /metrics.
//   - DBDriver / DatabaseDSN: "sqlite", "postgres" or "memory" plus its DSN.
//   - DefaultTimezone: location used for users who never set one.
//   - ReminderHour / ReminderWindow / TickInterval: daily reminder timing.
//   - QueueKind: "memory" (in-process workers) or "kafka".
//   - AssignmentTTL / SecretKey: lifetime and HS256 key of decision tokens;
//     an empty key is replaced by a random one at startup.
//   - ControlAddr: loopback lock port accepting SHUTDOWN.
//   - BackupKind: "", "s3" or "dir"; empty disables snapshots.
type Config struct {
	HTTPAddr    string `split_words:"true"`
	DBDriver    string `split_words:"true"`
	DatabaseDSN string `split_words:"true"`
	LogLevel    string `split_words:"true"`

	DefaultTimezone string        `split_words:"true"`
	ReminderHour    int           `split_words:"true"`
	ReminderWindow  time.Duration `split_words:"true"`
	TickInterval    time.Duration `split_words:"true"`
	StartupSummary  bool          `split_words:"true"`

	QueueKind       string   `split_words:"true"`
	QueueWorkers    int      `split_words:"true"`
	QueueBuffer     int      `split_words:"true"`
	DeliveryRetries int      `split_words:"true"`
	KafkaBrokers    []string `split_words:"true"`
	KafkaTopic      string   `split_words:"true"`
	KafkaGroup      string   `split_words:"true"`
	InboxSize       int      `split_words:"true"`

	AssignmentTTL time.Duration `split_words:"true"`
	SecretKey     string        `split_words:"true"`

	ControlAddr string `split_words:"true"`

	BackupKind     string        `split_words:"true"`
	BackupInterval time.Duration `split_words:"true"`
	BackupDir      string        `split_words:"true"`
	S3AccessKey    string        `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey    string        `envconfig:"S3_SECRET_KEY"`
	S3Bucket       string        `envconfig:"S3_BUCKET"`
	S3Region       string        `envconfig:"S3_REGION"`
	S3BaseEndpoint string        `envconfig:"S3_BASE_ENDPOINT"`
}

// LoadDefaults populates Config with development defaults. An empty
// SecretKey makes the app generate a random one per process.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.DBDriver = "sqlite"
	c.DatabaseDSN = "todobot.db"
	c.LogLevel = "info"

	c.DefaultTimezone = "UTC"
	c.ReminderHour = 8
	c.ReminderWindow = time.Minute
	c.TickInterval = time.Minute
	c.StartupSummary = false

	c.QueueKind = "memory"
	c.QueueWorkers = 4
	c.QueueBuffer = 256
	c.DeliveryRetries = 3
	c.KafkaBrokers = []string{"localhost:9092"}
	c.KafkaTopic = "todobot-notifications"
	c.KafkaGroup = "todobot-delivery"
	c.InboxSize = 50

	c.AssignmentTTL = 24 * time.Hour
	c.SecretKey = ""

	c.ControlAddr = "127.0.0.1:60001"

	c.BackupKind = ""
	c.BackupInterval = time.Hour
	c.BackupDir = "backups"
	c.S3Bucket = "todobot"
	c.S3Region = "us-east-1"
}

// LoadConfig applies defaults, the JSON file, the environment and the
// flags, in that order.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	cfg.Normalize()
	return cfg
}

// Normalize replaces non-positive loop intervals with their defaults;
// tickers cannot run on them.
func (c *Config) Normalize() {
	if c.TickInterval <= 0 {
		c.TickInterval = time.Minute
	}
	if c.BackupInterval <= 0 {
		c.BackupInterval = time.Hour
	}
}
