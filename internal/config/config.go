// Package config handles tool configuration loading and management.
package config

// Config holds all bt3anim settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Output  OutputConfig  `yaml:"output"`
	Mix     MixConfig     `yaml:"mix"`
	Library LibraryConfig `yaml:"library"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// OutputConfig controls where edited animations are written.
type OutputConfig struct {
	Suffix    string `yaml:"suffix"`    // appended to the input name: foo.unk -> foo_save.unk
	Extension string `yaml:"extension"` // extension replaced by Suffix+Extension
}

// MixConfig holds bone import settings.
type MixConfig struct {
	// AutoScale rescales the source animation to the target's frame count
	// before importing bones.
	AutoScale bool `yaml:"auto_scale"`
}

// LibraryConfig holds the originals library settings.
type LibraryConfig struct {
	Path string `yaml:"path"` // bbolt file; empty disables the library
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Output: OutputConfig{
			Suffix:    "_save",
			Extension: ".unk",
		},
		Mix: MixConfig{
			AutoScale: true,
		},
		Library: LibraryConfig{
			Path: "",
		},
	}
}
