package log

// Config controls the global logger.
type Config struct {
	// Name is attached to every entry as the "logger" field.
	Name string `conf:"name" yaml:"name" json:"name"`

	// Level is one of debug, info, warn, error.
	Level string `conf:"level" yaml:"level" json:"level"`

	// Format is either "json" or "console".
	Format string `conf:"format" yaml:"format" json:"format"`

	Debug bool `conf:"debug" yaml:"debug" json:"debug"`

	File FileConfig `conf:"file" yaml:"file" json:"file"`
}

// FileConfig enables file output with rotation via lumberjack.
// When Path is empty, logs go to stderr only.
type FileConfig struct {
	Path       string `conf:"path" yaml:"path" json:"path"`
	MaxSizeMB  int    `conf:"max_size_mb" yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `conf:"max_backups" yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `conf:"max_age_days" yaml:"max_age_days" json:"max_age_days"`
	Compress   bool   `conf:"compress" yaml:"compress" json:"compress"`
}
