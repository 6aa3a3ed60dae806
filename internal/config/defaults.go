package config

const (
	defaultDataDir        = "~/.local/share/studiorouter"
	defaultLogDir         = "~/.local/share/studiorouter/logs"
	defaultDefinitionsDir = "~/.config/studiorouter/studios"
	defaultAPIBind        = "127.0.0.1:7490"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultShutdownGrace  = 5
	defaultConfigPath     = "~/.config/studiorouter/config.toml"
	projectConfigName     = "studiorouter.toml"
	databaseFileName      = "studios.db"
	lockFileName          = "studiod.lock"
	logFileName           = "studiod.log"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		API: API{
			Bind:                 defaultAPIBind,
			ShutdownGraceSeconds: defaultShutdownGrace,
		},
		Studios: Studios{
			DefinitionsDir: defaultDefinitionsDir,
			SeedOnStart:    true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
