package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

// Settings represents the tabvault behavior configuration.
type Settings struct {
	Logging LoggingSettings `mapstructure:"logging"`
	Windows WindowSettings  `mapstructure:"windows"`
	Restore RestoreSettings `mapstructure:"restore"`
}

// LoggingSettings controls the structured logger
type LoggingSettings struct {
	// Level is one of "debug", "info", "warn", "error"
	Level string `mapstructure:"level"`
	// Development switches to console encoding with stack traces
	Development bool `mapstructure:"development"`
}

// WindowSettings controls how many windows may share the state directory
type WindowSettings struct {
	// Max is the number of window indices accepted (0 .. Max-1)
	Max int `mapstructure:"max"`
}

// RestoreSettings controls tab restoration
type RestoreSettings struct {
	// Concurrency bounds parallel tab file reads during restore
	Concurrency int `mapstructure:"concurrency"`
	// ActiveTabFirst restores the previously active tab before the rest
	ActiveTabFirst bool `mapstructure:"active_tab_first"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
	v.SetDefault("windows.max", 3)
	v.SetDefault("restore.concurrency", 4)
	v.SetDefault("restore.active_tab_first", true)
}

// DefaultSettings returns the settings used when no config file exists.
func DefaultSettings() *Settings {
	v := viper.New()
	SetDefaults(v)
	var s Settings
	// Defaults always decode.
	_ = v.Unmarshal(&s)
	return &s
}

// LoadSettings reads the settings file at path. A missing file yields defaults.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks settings ranges.
func (s *Settings) Validate() error {
	if s.Windows.Max < 1 {
		return fmt.Errorf("windows.max must be at least 1, got %d", s.Windows.Max)
	}
	if s.Restore.Concurrency < 1 {
		return fmt.Errorf("restore.concurrency must be at least 1, got %d", s.Restore.Concurrency)
	}
	return nil
}

// isNotExist reports a missing config file; viper surfaces the raw os error
// when an explicit file path is set.
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
