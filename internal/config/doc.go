// Package config loads and validates application configuration from
// environment variables (prefixed TASKMAN_) with sensible defaults.
// Settings are grouped by concern: server, database, queue, auth,
// scheduler, and notify.
package config
