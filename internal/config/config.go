// Package config handles application configuration using Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "github.com/felixgeelhaar/todoask/internal/errors"
)

// EnvPrefix prefixes every environment override, e.g. TODOASK_SERVICES_TASK_URL.
const EnvPrefix = "TODOASK"

// Config holds the application configuration.
type Config struct {
	Services  ServicesConfig  `mapstructure:"services" yaml:"services"`
	Identity  IdentityConfig  `mapstructure:"identity" yaml:"identity"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
	Devserver DevserverConfig `mapstructure:"devserver" yaml:"devserver"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-" yaml:"-"`
}

// ServicesConfig locates the backends.
type ServicesConfig struct {
	TaskURL string        `mapstructure:"task_url" yaml:"task_url"`
	AskURL  string        `mapstructure:"ask_url" yaml:"ask_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// IdentityConfig describes the identity provider.
type IdentityConfig struct {
	Issuer       string `mapstructure:"issuer" yaml:"issuer"`
	TokenURL     string `mapstructure:"token_url" yaml:"token_url"`
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret"`
	SessionFile  string `mapstructure:"session_file" yaml:"session_file"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// TelemetryConfig holds tracing configuration.
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure bool   `mapstructure:"insecure" yaml:"insecure"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Textfile is a node-exporter textfile the CLI writes after each run.
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// OutputConfig holds display configuration.
type OutputConfig struct {
	Format  string `mapstructure:"format" yaml:"format"`
	NoColor bool   `mapstructure:"no_color" yaml:"no_color"`
}

// DevserverConfig configures todoask-devserver.
type DevserverConfig struct {
	Addr          string `mapstructure:"addr" yaml:"addr"`
	OpenAIAPIKey  string `mapstructure:"openai_api_key" yaml:"openai_api_key"`
	OpenAIBaseURL string `mapstructure:"openai_base_url" yaml:"openai_base_url"`

	// Store selects the task backend: memory, sqlite or redis.
	Store      string `mapstructure:"store" yaml:"store"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	RedisURL   string `mapstructure:"redis_url" yaml:"redis_url"`

	// Users maps usernames to bcrypt password hashes. Empty accepts anyone.
	Users map[string]string `mapstructure:"users" yaml:"users,omitempty"`
}

// Options control where configuration is read from.
type Options struct {
	// ConfigFile overrides the default ~/.todoask/config.yaml lookup.
	ConfigFile string

	// EnvFile is a dotenv file loaded into the environment before
	// overrides are applied. Missing files are ignored.
	EnvFile string
}

// Dir returns ~/.todoask.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".todoask"), nil
}

// Load reads configuration from file and environment.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.Wrap(apperrors.ErrCodeConfigLoad, "failed to load "+opts.EnvFile, err)
		}
	}

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure paths
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else if dir, err := Dir(); err == nil {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// Config file not found is OK, we'll use defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, apperrors.Wrap(apperrors.ErrCodeConfigLoad, "failed to read config file", err).
				WithSuggestion("Check the YAML syntax of your config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeConfigLoad, "failed to decode configuration", err)
	}
	cfg.File = v.ConfigFileUsed()

	// Expand home directory in session path
	cfg.Identity.SessionFile = expandHome(cfg.Identity.SessionFile)
	cfg.Metrics.Textfile = expandHome(cfg.Metrics.Textfile)
	cfg.Devserver.SQLitePath = expandHome(cfg.Devserver.SQLitePath)

	return &cfg, nil
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	dir, _ := Dir()

	v.SetDefault("services.task_url", "http://localhost:8000")
	v.SetDefault("services.ask_url", "http://localhost:8000")
	v.SetDefault("services.timeout", 30*time.Second)
	v.SetDefault("identity.issuer", "")
	v.SetDefault("identity.token_url", "")
	v.SetDefault("identity.client_id", "")
	v.SetDefault("identity.client_secret", "")
	v.SetDefault("identity.session_file", filepath.Join(dir, "session.json"))
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.insecure", false)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("output.format", "text")
	v.SetDefault("output.no_color", false)
	v.SetDefault("devserver.addr", ":8000")
	v.SetDefault("devserver.openai_api_key", "")
	v.SetDefault("devserver.openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("devserver.store", "memory")
	v.SetDefault("devserver.sqlite_path", filepath.Join(dir, "devserver.db"))
	v.SetDefault("devserver.redis_url", "redis://localhost:6379/0")
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var problems []string

	for key, raw := range map[string]string{
		"services.task_url": c.Services.TaskURL,
		"services.ask_url":  c.Services.AskURL,
	} {
		if err := checkURL(raw, true); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", key, err))
		}
	}
	for key, raw := range map[string]string{
		"identity.issuer":    c.Identity.Issuer,
		"identity.token_url": c.Identity.TokenURL,
	} {
		if err := checkURL(raw, false); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", key, err))
		}
	}

	if c.Services.Timeout < 0 {
		problems = append(problems, "services.timeout: must not be negative")
	}
	switch c.Output.Format {
	case "text", "json", "yaml":
	default:
		problems = append(problems, fmt.Sprintf("output.format: unknown format %q (supported: text, json, yaml)", c.Output.Format))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level: unknown level %q", c.Log.Level))
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return apperrors.New(apperrors.ErrCodeConfigInvalid, "invalid configuration:\n  "+strings.Join(problems, "\n  ")).
		WithSuggestion("Run 'todoask config view' to inspect the effective configuration")
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Identity.ClientSecret != "" {
		c.Identity.ClientSecret = "********"
	}
	if c.Devserver.OpenAIAPIKey != "" {
		c.Devserver.OpenAIAPIKey = "********"
	}
	if len(c.Devserver.Users) > 0 {
		users := make(map[string]string, len(c.Devserver.Users))
		for name := range c.Devserver.Users {
			users[name] = "********"
		}
		c.Devserver.Users = users
	}
	return c
}

func checkURL(raw string, required bool) error {
	if raw == "" {
		if required {
			return errors.New("must be set")
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must be an http or https URL, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
