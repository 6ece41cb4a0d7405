package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Queue     QueueConfig     `mapstructure:"queue"     validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Notify    NotifyConfig    `mapstructure:"notify"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains the row-store connection settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// QueueConfig contains the message-queue broker and publishing settings.
type QueueConfig struct {
	RedisAddr     string `mapstructure:"redis_addr"     validate:"required,hostname_port"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"       validate:"gte=0"`

	// TaskType is the task type name consumers register a handler for.
	TaskType string `mapstructure:"task_type" validate:"required"`

	// DefaultQueue and CriticalQueue are the broker queues messages are
	// routed to; priorities at or above HighPriorityMin go to CriticalQueue.
	DefaultQueue    string `mapstructure:"default_queue"     validate:"required"`
	CriticalQueue   string `mapstructure:"critical_queue"    validate:"required"`
	HighPriorityMin int    `mapstructure:"high_priority_min" validate:"gte=0,lte=9"`

	// DefaultPriority is used by backlog replenishment; InjectPriority is
	// the default for the priority-injection endpoint.
	DefaultPriority int `mapstructure:"default_priority" validate:"gte=0,lte=9"`
	InjectPriority  int `mapstructure:"inject_priority"  validate:"gte=0,lte=9"`
}

// AuthConfig contains API authentication settings. An empty APIKeyHash
// disables authentication, which is only sensible in development.
type AuthConfig struct {
	// APIKeyHash is the hex SHA-256 digest of the pre-shared API key.
	// Generate one with cmd/hash-generator.
	APIKeyHash string `mapstructure:"api_key_hash" validate:"omitempty,len=64,hexadecimal"`
}

// SchedulerConfig contains the periodic loop settings.
type SchedulerConfig struct {
	// LowWaterMark is the PENDING count below which a replenishment run
	// publishes work; HighWaterMark is the level it aims to restore.
	LowWaterMark  int `mapstructure:"low_water_mark"  validate:"required,gt=0"`
	HighWaterMark int `mapstructure:"high_water_mark" validate:"required,gtfield=LowWaterMark"`

	// MaxReplenish caps how many records a single run may publish.
	MaxReplenish int `mapstructure:"max_replenish" validate:"required,gt=0"`

	// ChunkSize is the number of records bundled into one queue message.
	ChunkSize int `mapstructure:"chunk_size" validate:"required,gt=0"`

	ReplenishInterval time.Duration `mapstructure:"replenish_interval" validate:"required"`
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval" validate:"required"`

	// ArchiveSpec is a cron expression for the archiver run; ArchiveAge is
	// how old a completed record must be before it is archived.
	ArchiveSpec string        `mapstructure:"archive_spec" validate:"required"`
	ArchiveAge  time.Duration `mapstructure:"archive_age"  validate:"required"`
}

// NotifyConfig contains alerting settings. An empty WebhookURL disables
// outbound notifications entirely.
type NotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url" validate:"omitempty,url"`
	Enabled    bool   `mapstructure:"enabled"`
}
