package config

import "time"

// Options configures the config loader.
type Options struct {
	// YAMLPath is the path to the primary YAML config file.
	YAMLPath string

	// EnvPath is the path to the fallback .env file, used only when YAML is absent.
	EnvPath string

	// EnvPrefix namespaces environment overrides, e.g. "IDEMPOTENCY" maps
	// idempotency.backend to IDEMPOTENCY_IDEMPOTENCY_BACKEND. Empty means no prefix.
	EnvPrefix string
}

// ConfigProvider is the interface consumers depend on for reading configuration.
// Environment variables override file values; "." in a key becomes "_".
// Implementations must be safe for concurrent use.
type ConfigProvider interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetDuration(key string) time.Duration
	GetStringSlice(key string) []string

	// IsSet checks whether the key is set in the config or the environment.
	IsSet(key string) bool

	// WatchChanges starts watching the config file for changes (YAML only).
	// Non-blocking: spawns a background goroutine.
	WatchChanges()

	// OnChange registers a callback that fires after a successful config reload.
	// Callbacks execute in registration order.
	OnChange(fn func())

	// StopWatching stops delivering reload callbacks.
	StopWatching()

	// Source returns which config source is active: "yaml" or "env".
	Source() string
}
