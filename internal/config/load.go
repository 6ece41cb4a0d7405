package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables with the TASKMAN_
// prefix (e.g. TASKMAN_SERVER_PORT maps to server.port), applies defaults,
// and validates the result. Returns a populated Config or an error if
// loading or validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("TASKMAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so bind
	// the keys that have no default explicitly.
	for _, key := range []string{
		"database.url",
		"queue.redis_password",
		"auth.api_key_hash",
		"notify.webhook_url",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers the default value for every setting that has one.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("queue.redis_addr", "localhost:6379")
	v.SetDefault("queue.redis_db", 0)
	v.SetDefault("queue.task_type", "task:process")
	v.SetDefault("queue.default_queue", "default")
	v.SetDefault("queue.critical_queue", "critical")
	v.SetDefault("queue.high_priority_min", 5)
	v.SetDefault("queue.default_priority", 3)
	v.SetDefault("queue.inject_priority", 5)

	v.SetDefault("scheduler.low_water_mark", 3000)
	v.SetDefault("scheduler.high_water_mark", 5000)
	v.SetDefault("scheduler.max_replenish", 500)
	v.SetDefault("scheduler.chunk_size", 10)
	v.SetDefault("scheduler.replenish_interval", "4h")
	v.SetDefault("scheduler.reconcile_interval", "1h")
	v.SetDefault("scheduler.archive_spec", "0 3 * * *")
	v.SetDefault("scheduler.archive_age", "24h")

	v.SetDefault("notify.enabled", true)
}
