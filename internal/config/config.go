package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// ConfigName is the base name of the optional configuration file
const ConfigName = "bmad-board"

// EnvPrefix prefixes every environment variable override
const EnvPrefix = "BMAD_BOARD"

// Config represents the application configuration
type Config struct {
	Parser ParserConfig `mapstructure:"parser" yaml:"parser"`
	Scan   ScanConfig   `mapstructure:"scan" yaml:"scan"`
	Watch  WatchConfig  `mapstructure:"watch" yaml:"watch"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Output OutputConfig `mapstructure:"output" yaml:"output"`
}

// ParserConfig bounds the tree walks of a project parse
type ParserConfig struct {
	DocumentDepth int `mapstructure:"document_depth" yaml:"document_depth"`
	StoryDepth    int `mapstructure:"story_depth" yaml:"story_depth"`
}

// ScanConfig represents project discovery configuration
type ScanConfig struct {
	MaxDepth int `mapstructure:"max_depth" yaml:"max_depth"`
}

// WatchConfig represents file watching configuration
type WatchConfig struct {
	DebounceMS int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	Mode string `mapstructure:"mode" yaml:"mode"`
}

// OutputConfig represents export configuration
type OutputConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Parser: ParserConfig{DocumentDepth: 3, StoryDepth: 4},
	Scan:   ScanConfig{MaxDepth: 3},
	Watch:  WatchConfig{DebounceMS: 500},
	Server: ServerConfig{Addr: "127.0.0.1:7420", Mode: "release"},
	Output: OutputConfig{Dir: "output"},
}

// flagKeys maps command-line flag names to configuration keys
var flagKeys = map[string]string{
	"document-depth": "parser.document_depth",
	"story-depth":    "parser.story_depth",
	"scan-depth":     "scan.max_depth",
	"debounce":       "watch.debounce_ms",
	"addr":           "server.addr",
	"mode":           "server.mode",
	"output-dir":     "output.dir",
}

// Default returns a copy of the default configuration
func Default() *Config {
	cfg := DefaultConfig
	return &cfg
}

// Debounce returns the watcher debounce window
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// LoadConfig builds the configuration from defaults, an optional config file,
// BMAD_BOARD_* environment variables and the given flags, in increasing
// order of precedence. An empty configPath searches dir for bmad-board.{yaml,yml,json}.
func LoadConfig(configPath, dir string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Parser.DocumentDepth <= 0 {
		return fmt.Errorf("parser document_depth must be positive")
	}

	if c.Parser.StoryDepth <= 0 {
		return fmt.Errorf("parser story_depth must be positive")
	}

	if c.Scan.MaxDepth <= 0 {
		return fmt.Errorf("scan max_depth must be positive")
	}

	if c.Watch.DebounceMS <= 0 {
		return fmt.Errorf("watch debounce_ms must be positive")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server address is required")
	}

	if c.Server.Mode != "debug" && c.Server.Mode != "release" && c.Server.Mode != "test" {
		return fmt.Errorf("server mode must be one of debug, release, test: %q", c.Server.Mode)
	}

	return nil
}

// WriteDefault writes the default configuration as YAML to dir and returns
// the written path. An existing file is never overwritten.
func WriteDefault(dir string) (string, error) {
	path := filepath.Join(dir, ConfigName+".yaml")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s", path)
	}

	data, err := yaml.Marshal(DefaultConfig)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}

// RegisterFlags adds the configuration override flags to a flag set
func RegisterFlags(flags *pflag.FlagSet) {
	flags.Int("document-depth", DefaultConfig.Parser.DocumentDepth, "Maximum directory depth scanned for documents")
	flags.Int("story-depth", DefaultConfig.Parser.StoryDepth, "Maximum directory depth scanned for story files")
	flags.Int("scan-depth", DefaultConfig.Scan.MaxDepth, "Maximum directory depth for project discovery")
	flags.Int("debounce", DefaultConfig.Watch.DebounceMS, "Watcher debounce window in milliseconds")
	flags.String("addr", DefaultConfig.Server.Addr, "HTTP listen address")
	flags.String("mode", DefaultConfig.Server.Mode, "HTTP server mode (debug, release)")
	flags.String("output-dir", DefaultConfig.Output.Dir, "Directory for exported files")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("parser.document_depth", DefaultConfig.Parser.DocumentDepth)
	v.SetDefault("parser.story_depth", DefaultConfig.Parser.StoryDepth)
	v.SetDefault("scan.max_depth", DefaultConfig.Scan.MaxDepth)
	v.SetDefault("watch.debounce_ms", DefaultConfig.Watch.DebounceMS)
	v.SetDefault("server.addr", DefaultConfig.Server.Addr)
	v.SetDefault("server.mode", DefaultConfig.Server.Mode)
	v.SetDefault("output.dir", DefaultConfig.Output.Dir)
}

// bindFlags only binds flags the user actually set so unset flag defaults
// never shadow the config file or the environment.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}
