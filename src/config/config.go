package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/carvekit/carve/src/logger"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the optional per-repository config file, looked up at the
// repository root.
const ConfigFileName = ".carve.yaml"

type Config struct {
	Version  int            `yaml:"version"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DefaultsConfig supplies fallback values for flags that were not given on
// the command line. Flags always win over config.
type DefaultsConfig struct {
	Base         string `yaml:"base,omitempty"`
	BranchPrefix string `yaml:"branch_prefix,omitempty"`
}

type LoggingConfig struct {
	Level string    `yaml:"level"`
	Sinks []LogSink `yaml:"sinks"`
}

type LogSink struct {
	Type      string `yaml:"type"`                 // "console" or "file"
	Filename  string `yaml:"filename,omitempty"`   // for file sink
	UseStderr bool   `yaml:"use_stderr,omitempty"` // for console sink
	Colorize  bool   `yaml:"colorize,omitempty"`   // for console sink
}

// GetDefaultConfig returns the configuration used when no config file exists.
func GetDefaultConfig() *Config {
	return &Config{
		Version: 1,
		Defaults: DefaultsConfig{
			BranchPrefix: "carve",
		},
		Logging: LoggingConfig{
			Level: "info",
			Sinks: []LogSink{
				{Type: "console", UseStderr: true, Colorize: true},
			},
		},
	}
}

// LoadConfig reads .carve.yaml from the repository root if present. A missing
// file is not an error; the defaults apply.
func LoadConfig(repoRoot string) (*Config, error) {
	configPath := filepath.Join(repoRoot, ConfigFileName)

	config := GetDefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		return config, nil
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if config.Defaults.BranchPrefix == "" {
		config.Defaults.BranchPrefix = "carve"
	}

	return config, nil
}

// InitializeLogger sets up the global logger based on config
func InitializeLogger(config *Config, repoRoot string) error {
	level, err := logger.ParseLevel(config.Logging.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	var sinks []logger.Sink
	for _, sinkConfig := range config.Logging.Sinks {
		switch sinkConfig.Type {
		case "console":
			sinks = append(sinks, logger.NewConsoleSink(sinkConfig.UseStderr, sinkConfig.Colorize))
		case "file":
			filename := sinkConfig.Filename
			if filename == "" {
				filename = "carve.log"
			}
			if !filepath.IsAbs(filename) {
				filename = filepath.Join(repoRoot, filename)
			}
			sink, err := logger.NewFileSink(filename)
			if err != nil {
				return fmt.Errorf("failed to create file sink: %w", err)
			}
			sinks = append(sinks, sink)
		default:
			return fmt.Errorf("unknown sink type: %s", sinkConfig.Type)
		}
	}

	logger.Initialize(sinks...)
	logger.SetLevel(level)

	return nil
}
