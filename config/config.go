// Package config loads mapport settings from an optional YAML file and
// MAPPORT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

var (
	ErrInvalidVerbosity = errors.New("logging verbosity out of range")
	ErrMissingMatchFile = errors.New("match file name must not be empty")
	ErrSameMatchFile    = errors.New("match files must be distinct")
)

const (
	DefaultVerbosity       = 0
	DefaultClassMatchFile  = "classes.matches.yaml"
	DefaultFieldMatchFile  = "fields.matches.yaml"
	DefaultMethodMatchFile = "methods.matches.yaml"
	DefaultSkipSynthetic   = false
	DefaultAllowAmbiguous  = false
	DefaultColor           = true
	maxVerbosity           = 2
	minVerbosity           = -4
	configName             = ".mapport"
	envPrefix              = "MAPPORT"
)

type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Matching MatchingConfig `mapstructure:"matching"`
	Files    FilesConfig    `mapstructure:"files"`
	Output   OutputConfig   `mapstructure:"output"`
}

type LoggingConfig struct {
	// Verbosity is handed to commonlog.Configure; higher logs more.
	Verbosity int    `mapstructure:"verbosity"`
	File      string `mapstructure:"file"`
}

type MatchingConfig struct {
	SkipSynthetic  bool `mapstructure:"skip_synthetic"`
	// AllowAmbiguous lets convert run while class matches are still ambiguous.
	AllowAmbiguous bool `mapstructure:"allow_ambiguous"`
}

type FilesConfig struct {
	ClassMatches  string `mapstructure:"class_matches"`
	FieldMatches  string `mapstructure:"field_matches"`
	MethodMatches string `mapstructure:"method_matches"`
}

type OutputConfig struct {
	Color bool `mapstructure:"color"`
}

// LoadConfig reads configPath, or .mapport.yaml from the working directory
// or the home directory when configPath is empty. A missing default file
// is not an error.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Verbosity: DefaultVerbosity},
		Matching: MatchingConfig{
			SkipSynthetic:  DefaultSkipSynthetic,
			AllowAmbiguous: DefaultAllowAmbiguous,
		},
		Files: FilesConfig{
			ClassMatches:  DefaultClassMatchFile,
			FieldMatches:  DefaultFieldMatchFile,
			MethodMatches: DefaultMethodMatchFile,
		},
		Output: OutputConfig{Color: DefaultColor},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("logging.verbosity", d.Logging.Verbosity)
	v.SetDefault("logging.file", d.Logging.File)

	v.SetDefault("matching.skip_synthetic", d.Matching.SkipSynthetic)
	v.SetDefault("matching.allow_ambiguous", d.Matching.AllowAmbiguous)

	v.SetDefault("files.class_matches", d.Files.ClassMatches)
	v.SetDefault("files.field_matches", d.Files.FieldMatches)
	v.SetDefault("files.method_matches", d.Files.MethodMatches)

	v.SetDefault("output.color", d.Output.Color)
}

func (c *Config) Validate() error {
	if c.Logging.Verbosity < minVerbosity || c.Logging.Verbosity > maxVerbosity {
		return fmt.Errorf("%w: %d", ErrInvalidVerbosity, c.Logging.Verbosity)
	}

	files := map[string]string{
		"class_matches":  c.Files.ClassMatches,
		"field_matches":  c.Files.FieldMatches,
		"method_matches": c.Files.MethodMatches,
	}
	seen := map[string]string{}
	for _, key := range []string{"class_matches", "field_matches", "method_matches"} {
		name := files[key]
		if name == "" {
			return fmt.Errorf("%w: files.%s", ErrMissingMatchFile, key)
		}
		if other, dup := seen[name]; dup {
			return fmt.Errorf("%w: files.%s and files.%s are both %s", ErrSameMatchFile, other, key, name)
		}
		seen[name] = key
	}
	return nil
}
