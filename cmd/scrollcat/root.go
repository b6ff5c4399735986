// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elastic/scrollcat/internal/config"
	"github.com/elastic/scrollcat/internal/es"
	"github.com/elastic/scrollcat/internal/es/scroll"
	"github.com/elastic/scrollcat/internal/logging"
	"github.com/elastic/scrollcat/internal/metrics"
	"github.com/elastic/scrollcat/internal/otlp"
)

// Global flags shared across commands.
// Values are bound via Viper; variables keep Cobra compatibility.
var (
	esURL           string
	esIndex         string
	apiKeyFlag      string
	usernameFlag    string
	passwordFlag    string
	requestTimeout  time.Duration
	pingTimeoutFlag time.Duration
	profileFlag     string
	configFileFlag  string
	logLevelFlag    string
	prettyFlag      bool
	otlpFlag        string
	otlpInsecure    bool
	metricsFileFlag string
)

// runState is what PersistentPreRunE sets up and shutdown tears down.
var runState struct {
	forwarder   *otlp.Client
	metricsFile string
}

var rootCmd = &cobra.Command{
	Use:   "scrollcat",
	Short: "Retrieve every page of an Elasticsearch search using the scroll API",
	Long: `scrollcat runs a search against Elasticsearch and follows the scroll cursor
until the result set is exhausted, writing every page out in order.

Connection settings come from flags, SCROLLCAT_* environment variables,
an optional --config file and the active profile (see 'scrollcat config').`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}
		if err := setupLogging(cfg); err != nil {
			return err
		}
		runState.metricsFile = cfg.Metrics.Textfile

		log.Debug().
			Str("es_url", cfg.ES.URL).
			Str("index", cfg.ES.Index).
			Str("profile", cfg.Profile).
			Msg("Configuration loaded")

		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&esURL, "es-url", config.DefaultESURL, "Elasticsearch URL (env: SCROLLCAT_ES_URL)")
	pf.StringVarP(&esIndex, "index", "i", config.DefaultIndex, "Index or pattern to search (env: SCROLLCAT_ES_INDEX)")
	pf.StringVar(&apiKeyFlag, "api-key", "", "Elasticsearch API key (env: SCROLLCAT_ES_API_KEY)")
	pf.StringVar(&usernameFlag, "username", "", "Elasticsearch username (env: SCROLLCAT_ES_USERNAME)")
	pf.StringVar(&passwordFlag, "password", "", "Elasticsearch password (env: SCROLLCAT_ES_PASSWORD)")
	pf.DurationVar(&requestTimeout, "request-timeout", config.DefaultRequestTimeout, "Per-request timeout (env: SCROLLCAT_ES_REQUEST_TIMEOUT)")
	pf.DurationVar(&pingTimeoutFlag, "ping-timeout", config.DefaultPingTimeout, "Elasticsearch ping timeout (env: SCROLLCAT_ES_PING_TIMEOUT)")
	pf.StringVar(&profileFlag, "profile", "", "Profile to use instead of current-profile")
	pf.StringVar(&configFileFlag, "config", "", "JSON or YAML config file; a top-level \"uri\" sets the Elasticsearch URL")
	pf.StringVar(&logLevelFlag, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error (env: SCROLLCAT_LOG_LEVEL)")
	pf.BoolVar(&prettyFlag, "pretty", false, "Human-readable log output (env: SCROLLCAT_LOG_PRETTY)")
	pf.StringVar(&otlpFlag, "otlp", "", "Forward logs to this OTLP/HTTP endpoint (env: SCROLLCAT_OTLP_ENDPOINT)")
	pf.BoolVar(&otlpInsecure, "otlp-insecure", true, "Use HTTP instead of HTTPS for --otlp (env: SCROLLCAT_OTLP_INSECURE)")
	pf.StringVar(&metricsFileFlag, "metrics-file", "", "Write Prometheus metrics to this file on exit (env: SCROLLCAT_METRICS_TEXTFILE)")
}

// setupLogging configures zerolog, adding the OTLP forwarder when an
// endpoint is configured.
func setupLogging(cfg config.Config) error {
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.Level(cfg.Log.Level)
	logCfg.Pretty = cfg.Log.Pretty

	if cfg.OTLP.Endpoint != "" {
		fwd, err := otlp.New(otlp.Config{
			Endpoint: cfg.OTLP.Endpoint,
			Insecure: cfg.OTLP.Insecure,
		})
		if err != nil {
			return fmt.Errorf("failed to set up log forwarding: %w", err)
		}
		runState.forwarder = fwd
		logCfg.Forward = fwd
	}

	logging.Setup(logCfg)
	return nil
}

// shutdown flushes forwarded logs and writes the metrics textfile. It runs
// after every command, including failed ones.
func shutdown() {
	if path := runState.metricsFile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			log.Error().Err(err).Str("path", path).Msg("Failed to write metrics")
		}
	}
	if fwd := runState.forwarder; fwd != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := fwd.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to flush forwarded logs")
		}
		runState.forwarder = nil
	}
}

// loadedConfig returns the configuration stored by PersistentPreRunE.
func loadedConfig(ctx context.Context) (config.Config, error) {
	cfg, ok := config.FromContext(ctx)
	if !ok {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

// newClient builds an Elasticsearch client from cfg.
func newClient(cfg config.Config) (*es.Client, error) {
	client, err := es.New(es.Options{
		Addresses:      []string{cfg.ES.URL},
		Index:          cfg.ES.Index,
		APIKey:         cfg.ES.APIKey,
		Username:       cfg.ES.Username,
		Password:       cfg.ES.Password,
		RequestTimeout: cfg.ES.RequestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ES client: %w", err)
	}
	return client, nil
}

// scrollOptions maps cfg onto fetcher options.
func scrollOptions(cfg config.Config) scroll.Options {
	return scroll.Options{
		Index:     cfg.ES.Index,
		KeepAlive: cfg.Scroll.KeepAlive,
		MaxPages:  cfg.Scroll.MaxPages,
		Retry:     scroll.RetryPolicyFor(cfg.Scroll.MaxRetries),
	}
}
