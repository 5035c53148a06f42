// Package config loads kerf settings from defaults, an optional YAML file
// and KERF_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment variable prefix for kerf configuration.
const envPrefix = "KERF"

// ConfigEnv names the environment variable that points at a config file.
const ConfigEnv = "KERF_CONFIG"

// Config is the resolved configuration.
type Config struct {
	Build  Build  `mapstructure:"build"`
	Render Render `mapstructure:"render"`
	Export Export `mapstructure:"export"`
	Output Output `mapstructure:"output"`
}

// Build configures the build controller.
type Build struct {
	Async bool `mapstructure:"async"`
	Sync  bool `mapstructure:"sync"`
	// Timeout aborts builds running longer; zero disables it.
	Timeout time.Duration `mapstructure:"timeout"`
	Workers int           `mapstructure:"workers"`
	// Libraries are script files evaluated before every build.
	Libraries []string `mapstructure:"libraries"`
}

// Render configures the geometry kernel.
type Render struct {
	MeshCells int `mapstructure:"meshCells"`
}

// Export configures the exporter.
type Export struct {
	// Producer overrides the producer written into AMF and X3D metadata.
	Producer string `mapstructure:"producer"`
}

// Output configures where exports are written.
type Output struct {
	Dir string `mapstructure:"dir"`
}

var defaults = map[string]any{
	"build.async":      true,
	"build.sync":       true,
	"build.timeout":    time.Duration(0),
	"build.workers":    1,
	"build.libraries":  []string{},
	"render.meshCells": 200,
	"export.producer":  "",
	"output.dir":       ".",
}

// Loader reads configuration.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with defaults and environment bindings.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return &Loader{v: v}
}

// Load reads configFile, or the file named by KERF_CONFIG when configFile
// is empty. A missing file is not an error. Environment variables take
// precedence over file values.
func (l *Loader) Load(configFile string) (*Config, error) {
	if configFile == "" {
		configFile = os.Getenv(ConfigEnv)
	}
	if configFile != "" {
		l.v.SetConfigFile(configFile)
		l.v.SetConfigType("yaml")
		if err := l.v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Build.Workers < 1 {
		return fmt.Errorf("build.workers must be at least 1, got %d", c.Build.Workers)
	}
	if c.Build.Timeout < 0 {
		return fmt.Errorf("build.timeout must not be negative, got %s", c.Build.Timeout)
	}
	if c.Render.MeshCells < 0 {
		return fmt.Errorf("render.meshCells must not be negative, got %d", c.Render.MeshCells)
	}
	return nil
}
