package keys

// Config holds configuration for the key management feature.
type Config struct {
	// AutoSync enables the background synchronization loop.
	AutoSync bool `mapstructure:"auto_sync" default:"true"`
	// SyncIntervalSeconds is the delay between automatic sync runs.
	SyncIntervalSeconds int `mapstructure:"sync_interval_seconds" default:"300"`
}
