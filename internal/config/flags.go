package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagPort       = flag.Int("port", 0, "HTTP API port")
	flagDB         = flag.String("db", "", "Path to the sqlite database")
	flagMinDaytime = flag.Int64("min-daytime", -1, "Shortest day length in ticks")
	flagNoSeasons  = flag.Bool("no-seasons", false, "Disable seasons (fixed 12000 tick days)")
	flagWrite      = flag.Bool("write-config", false, "Write the effective config (to -config, or the user config dir) and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// WriteConfig reports whether -write-config was given.
func WriteConfig() bool {
	return *flagWrite
}

// Write saves cfg to the -config path, or to DefaultPath when none was
// given, and returns the path written.
func Write(cfg *Config) (string, error) {
	if path := ConfigPath(); path != "" {
		return path, cfg.SaveTo(path)
	}
	return DefaultPath(), cfg.Save()
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagPort > 0 {
		cfg.API.Port = *flagPort
	}
	if *flagDB != "" {
		cfg.World.DBPath = *flagDB
	}
	if *flagMinDaytime >= 0 {
		cfg.Seasons.MinDaytime = *flagMinDaytime
	}
	if *flagNoSeasons {
		cfg.Seasons.Enabled = false
	}
}
