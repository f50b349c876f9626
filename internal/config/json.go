package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/todobot/internal/flagx"
	"github.com/dmitrijs2005/todobot/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// "90s" style strings or integer nanoseconds. Pointer fields distinguish
// "absent" from false/zero.
type JsonConfig struct {
	HTTPAddr    string `json:"http_addr"`
	DBDriver    string `json:"db_driver"`
	DatabaseDSN string `json:"database_dsn"`
	LogLevel    string `json:"log_level"`

	DefaultTimezone string         `json:"default_timezone"`
	ReminderHour    *int           `json:"reminder_hour"`
	ReminderWindow  timex.Duration `json:"reminder_window"`
	TickInterval    timex.Duration `json:"tick_interval"`
	StartupSummary  *bool          `json:"startup_summary"`

	QueueKind       string   `json:"queue_kind"`
	QueueWorkers    int      `json:"queue_workers"`
	QueueBuffer     int      `json:"queue_buffer"`
	DeliveryRetries *int     `json:"delivery_retries"`
	KafkaBrokers    []string `json:"kafka_brokers"`
	KafkaTopic      string   `json:"kafka_topic"`
	KafkaGroup      string   `json:"kafka_group"`
	InboxSize       int      `json:"inbox_size"`

	AssignmentTTL *timex.Duration `json:"assignment_ttl"`
	SecretKey     string          `json:"secret_key"`

	ControlAddr string `json:"control_addr"`

	BackupKind     string         `json:"backup_kind"`
	BackupInterval timex.Duration `json:"backup_interval"`
	BackupDir      string         `json:"backup_dir"`
	S3AccessKey    string         `json:"s3_access_key"`
	S3SecretKey    string         `json:"s3_secret_key"`
	S3Bucket       string         `json:"s3_bucket"`
	S3Region       string         `json:"s3_region"`
	S3BaseEndpoint string         `json:"s3_base_endpoint"`
}

// parseJson overlays values from the file named by -c/-config. Keys missing
// from the file keep their current value. An unreadable or invalid file
// panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}
	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DBDriver, c.DBDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LogLevel, c.LogLevel)

	setString(&config.DefaultTimezone, c.DefaultTimezone)
	if c.ReminderHour != nil {
		config.ReminderHour = *c.ReminderHour
	}
	if c.ReminderWindow.Duration > 0 {
		config.ReminderWindow = c.ReminderWindow.Duration
	}
	if c.TickInterval.Duration > 0 {
		config.TickInterval = c.TickInterval.Duration
	}
	if c.StartupSummary != nil {
		config.StartupSummary = *c.StartupSummary
	}

	setString(&config.QueueKind, c.QueueKind)
	setInt(&config.QueueWorkers, c.QueueWorkers)
	setInt(&config.QueueBuffer, c.QueueBuffer)
	if c.DeliveryRetries != nil {
		config.DeliveryRetries = *c.DeliveryRetries
	}
	if len(c.KafkaBrokers) > 0 {
		config.KafkaBrokers = c.KafkaBrokers
	}
	setString(&config.KafkaTopic, c.KafkaTopic)
	setString(&config.KafkaGroup, c.KafkaGroup)
	setInt(&config.InboxSize, c.InboxSize)

	if c.AssignmentTTL != nil {
		config.AssignmentTTL = c.AssignmentTTL.Duration
	}
	setString(&config.SecretKey, c.SecretKey)

	setString(&config.ControlAddr, c.ControlAddr)

	setString(&config.BackupKind, c.BackupKind)
	if c.BackupInterval.Duration > 0 {
		config.BackupInterval = c.BackupInterval.Duration
	}
	setString(&config.BackupDir, c.BackupDir)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
