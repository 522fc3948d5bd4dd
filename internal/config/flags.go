package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile = flag.String("log-file", "", "Also write logs to this file")
	flagLibrary = flag.String("library", "", "Path to the originals library (bbolt file)")
	flagSuffix  = flag.String("suffix", "", "Suffix for saved animations (default _save)")
	flagNoScale = flag.Bool("no-autoscale", false, "Do not rescale the source animation before mixing")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after the global flags.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagLibrary != "" {
		cfg.Library.Path = *flagLibrary
	}
	if *flagSuffix != "" {
		cfg.Output.Suffix = *flagSuffix
	}
	if *flagNoScale {
		cfg.Mix.AutoScale = false
	}
}
