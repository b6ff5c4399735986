// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package config provides centralized configuration management for scrollcat.
// Precedence is flags > env > config file > active profile > defaults, resolved
// through Viper and validated before any request is made.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/elastic/scrollcat/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	ES      ESConfig      `mapstructure:"es"`
	Scroll  ScrollConfig  `mapstructure:"scroll"`
	Log     LogConfig     `mapstructure:"log"`
	OTLP    OTLPConfig    `mapstructure:"otlp"`
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Profile is the name of the profile that contributed defaults, if any.
	Profile string `mapstructure:"-"`
}

// ESConfig holds Elasticsearch connection settings.
type ESConfig struct {
	URL            string        `mapstructure:"url"`
	Index          string        `mapstructure:"index"`
	APIKey         string        `mapstructure:"api_key"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PingTimeout    time.Duration `mapstructure:"ping_timeout"`
}

// ScrollConfig holds scroll pagination settings.
type ScrollConfig struct {
	KeepAlive  time.Duration `mapstructure:"keep_alive"`
	MaxPages   int           `mapstructure:"max_pages"`   // 0 disables the bound
	MaxRetries int           `mapstructure:"max_retries"` // retries after the first attempt
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// OTLPConfig holds log forwarding settings. An empty endpoint disables
// forwarding.
type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"` // Prometheus textfile written on exit
}

// Default configuration values.
const (
	DefaultESURL          = "http://localhost:9200"
	DefaultIndex          = "mlspipeline_read"
	DefaultRequestTimeout = 10000 * time.Second
	DefaultPingTimeout    = 5 * time.Second
	DefaultKeepAlive      = 20 * time.Minute
	DefaultMaxPages       = 100000
	DefaultMaxRetries     = 1
	DefaultLogLevel       = "info"
)

// EnvPrefix is prepended to every environment variable, e.g. SCROLLCAT_ES_URL.
const EnvPrefix = "SCROLLCAT"

// ContextKey is used to store config in context.
type ContextKey struct{}

// FromContext retrieves Config from context.
func FromContext(ctx context.Context) (Config, bool) {
	cfg, ok := ctx.Value(ContextKey{}).(Config)
	return cfg, ok
}

// WithContext stores Config in context.
func WithContext(ctx context.Context, cfg Config) context.Context {
	return context.WithValue(ctx, ContextKey{}, cfg)
}

// Load builds a Config from the command's flags (and its parents'), the
// environment, the optional --config file and the active profile.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	profileName, err := applyProfile(v, stringFlag(cmd, "profile"))
	if err != nil {
		return Config{}, err
	}

	if path := stringFlag(cmd, "config"); path != "" {
		if err := readConfigFile(v, path); err != nil {
			return Config{}, err
		}
	}

	if err := bindFlagsRecursive(v, cmd); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Profile = profileName

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers default values with Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("es.url", DefaultESURL)
	v.SetDefault("es.index", DefaultIndex)
	v.SetDefault("es.api_key", "")
	v.SetDefault("es.username", "")
	v.SetDefault("es.password", "")
	v.SetDefault("es.request_timeout", DefaultRequestTimeout)
	v.SetDefault("es.ping_timeout", DefaultPingTimeout)

	v.SetDefault("scroll.keep_alive", DefaultKeepAlive)
	v.SetDefault("scroll.max_pages", DefaultMaxPages)
	v.SetDefault("scroll.max_retries", DefaultMaxRetries)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.pretty", false)

	v.SetDefault("otlp.endpoint", "")
	v.SetDefault("otlp.insecure", true)

	v.SetDefault("metrics.textfile", "")
}

// applyProfile layers the active profile over the defaults. Profile values
// sit below env, config file and flags.
func applyProfile(v *viper.Viper, profileFlag string) (string, error) {
	store, err := DefaultStore()
	if err != nil {
		return "", err
	}
	profiles, err := store.Load()
	if err != nil {
		return "", err
	}

	p, name := profiles.GetActiveProfile(profileFlag)
	if p == nil {
		if profileFlag != "" {
			return "", fmt.Errorf("profile %q not found", profileFlag)
		}
		return "", nil
	}

	resolved, err := p.Resolve()
	if err != nil {
		return "", fmt.Errorf("profile %q: %w", name, err)
	}
	for key, val := range resolved.settings() {
		v.SetDefault(key, val)
	}
	return name, nil
}

// readConfigFile merges a JSON or YAML file. A top-level "uri" key is
// accepted as the cluster address when es.url is absent from the file.
func readConfigFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if v.InConfig("uri") && !v.InConfig("es.url") {
		v.SetDefault("es.url", v.GetString("uri"))
	}
	return nil
}

func stringFlag(cmd *cobra.Command, name string) string {
	if cmd == nil {
		return ""
	}
	f := cmd.Flags().Lookup(name)
	if f == nil {
		f = cmd.InheritedFlags().Lookup(name)
	}
	if f == nil {
		return ""
	}
	return f.Value.String()
}

// bindFlagsRecursive binds flags from cmd and all parents so Viper sees them.
func bindFlagsRecursive(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}
	if err := bindFlagSet(v, cmd.Flags()); err != nil {
		return err
	}
	if err := bindFlagSet(v, cmd.PersistentFlags()); err != nil {
		return err
	}
	return bindFlagsRecursive(v, cmd.Parent())
}

// flagToKey maps flag names to nested Viper keys.
var flagToKey = map[string]string{
	"es-url":          "es.url",
	"index":           "es.index",
	"api-key":         "es.api_key",
	"username":        "es.username",
	"password":        "es.password",
	"request-timeout": "es.request_timeout",
	"ping-timeout":    "es.ping_timeout",
	"keep-alive":      "scroll.keep_alive",
	"max-pages":       "scroll.max_pages",
	"max-retries":     "scroll.max_retries",
	"log-level":       "log.level",
	"pretty":          "log.pretty",
	"otlp":            "otlp.endpoint",
	"otlp-insecure":   "otlp.insecure",
	"metrics-file":    "metrics.textfile",
}

// bindFlagSet binds the mapped flags. Flags not in flagToKey are
// command-local and stay out of Viper.
func bindFlagSet(v *viper.Viper, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := flagToKey[f.Name]
		if !ok || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(key, f)
	})
	return bindErr
}

// Validate enforces correctness and fails fast on invalid configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ES.URL) == "" {
		return fmt.Errorf("es.url is required")
	}
	if strings.TrimSpace(c.ES.Index) == "" {
		return fmt.Errorf("es.index is required")
	}
	if c.ES.APIKey != "" && (c.ES.Username != "" || c.ES.Password != "") {
		return fmt.Errorf("es.api_key and es.username/es.password are mutually exclusive")
	}
	if c.ES.RequestTimeout <= 0 {
		return fmt.Errorf("es.request_timeout must be > 0")
	}
	if c.ES.PingTimeout <= 0 {
		return fmt.Errorf("es.ping_timeout must be > 0")
	}
	if c.Scroll.KeepAlive <= 0 {
		return fmt.Errorf("scroll.keep_alive must be > 0")
	}
	if c.Scroll.MaxPages < 0 {
		return fmt.Errorf("scroll.max_pages must be >= 0")
	}
	if c.Scroll.MaxRetries < 0 {
		return fmt.Errorf("scroll.max_retries must be >= 0")
	}
	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}
