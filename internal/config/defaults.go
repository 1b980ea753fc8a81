package config

const (
	defaultDataDir            = "~/.local/share/dirserve/data"
	defaultLogDir             = "~/.local/share/dirserve/logs"
	defaultSeedDir            = "~/.local/share/dirserve/seed"
	defaultStopSignal         = "TERM"
	defaultStopPollIntervalMs = 500
	defaultStopMaxAttempts    = 10
	defaultCacheTTLSeconds    = 300
	defaultLogLevel           = "info"
	defaultLogFormat          = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			SeedDir: defaultSeedDir,
		},
		Daemon: Daemon{
			StopSignal:         defaultStopSignal,
			StopPollIntervalMs: defaultStopPollIntervalMs,
			StopMaxAttempts:    defaultStopMaxAttempts,
		},
		Cache: Cache{
			Enabled:    true,
			TTLSeconds: defaultCacheTTLSeconds,
		},
		Watcher: Watcher{
			Enabled: true,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
