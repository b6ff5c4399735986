// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/elastic/scrollcat/internal/config"
)

// Flags for set-profile command
var (
	setProfileESURL      string
	setProfileIndex      string
	setProfileESAPIKey   string
	setProfileESUsername string
	setProfileESPassword string
	setProfileOTLP       string
	setProfileOTLPInsec  bool
	setProfileKeepAlive  string
	setProfileMaxPages   int
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage scrollcat configuration and profiles",
	Long: `Manage scrollcat configuration profiles.

Profiles hold cluster connection settings so you can switch between clusters
(similar to kubectl contexts). Flags and SCROLLCAT_* variables still override
the active profile.

Profiles are stored in ~/.config/scrollcat/config.yaml`,
	// Profile commands read the profile file directly.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration (credentials masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}
		return writeEffectiveConfig(cmd.OutOrStdout(), cfg)
	},
}

var useProfileCmd = &cobra.Command{
	Use:   "use-profile <name>",
	Short: "Set the current profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		store, err := config.DefaultStore()
		if err != nil {
			return err
		}
		err = store.Update(func(cfg *config.ProfileConfig) error {
			return cfg.UseProfile(name)
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Switched to profile %q\n", name)
		return nil
	},
}

var setProfileCmd = &cobra.Command{
	Use:   "set-profile <name>",
	Short: "Create or update a profile",
	Long: `Create or update a named profile with connection settings.

Examples:
  # Local development cluster
  scrollcat config set-profile local --es-url http://localhost:9200

  # API key taken from the environment at run time
  scrollcat config set-profile prod \
    --es-url https://prod.es.example.com:9243 \
    --index mlspipeline_read \
    --es-api-key '${PROD_ES_API_KEY}'

  # Longer scroll context and a page cap for a slow cluster
  scrollcat config set-profile archive --keep-alive 30m --max-pages 500

Credentials can be stored as:
  - Environment variable references: ${MY_SECRET} (recommended)
  - Plain text values (warning will be shown)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		store, err := config.DefaultStore()
		if err != nil {
			return err
		}

		var profile config.Profile
		err = store.Update(func(cfg *config.ProfileConfig) error {
			profile, _ = cfg.GetProfile(name)
			for flag, dst := range map[string]*string{
				"es-url":      &profile.Elasticsearch.URL,
				"index":       &profile.Elasticsearch.Index,
				"es-api-key":  &profile.Elasticsearch.APIKey,
				"es-username": &profile.Elasticsearch.Username,
				"es-password": &profile.Elasticsearch.Password,
				"otlp":        &profile.OTLP.Endpoint,
				"keep-alive":  &profile.Scroll.KeepAlive,
			} {
				if cmd.Flags().Changed(flag) {
					*dst, _ = cmd.Flags().GetString(flag)
				}
			}
			if cmd.Flags().Changed("otlp-insecure") {
				insecure := setProfileOTLPInsec
				profile.OTLP.Insecure = &insecure
			}
			if cmd.Flags().Changed("max-pages") {
				maxPages := setProfileMaxPages
				profile.Scroll.MaxPages = &maxPages
			}
			if err := profile.Validate(); err != nil {
				return fmt.Errorf("profile %q: %w", name, err)
			}
			cfg.SetProfile(name, profile)
			return nil
		})
		if err != nil {
			return err
		}

		if profile.HasPlainTextCredentials() {
			fmt.Fprintln(cmd.ErrOrStderr(), config.PlainTextCredentialWarning)
			fmt.Fprintln(cmd.ErrOrStderr())
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Profile %q saved\n", name)
		return nil
	},
}

var listProfilesCmd = &cobra.Command{
	Use:     "list-profiles",
	Aliases: []string{"get-profiles", "profiles"},
	Short:   "List all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadProfiles()
		if err != nil {
			return err
		}
		writeProfileList(cmd.OutOrStdout(), cfg)
		return nil
	},
}

var currentProfileCmd = &cobra.Command{
	Use:   "current-profile",
	Short: "Show the current profile name",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadProfiles()
		if err != nil {
			return err
		}
		if cfg.CurrentProfile == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No profile selected (using defaults)")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.CurrentProfile)
		return nil
	},
}

var deleteProfileCmd = &cobra.Command{
	Use:   "delete-profile <name>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		store, err := config.DefaultStore()
		if err != nil {
			return err
		}
		err = store.Update(func(cfg *config.ProfileConfig) error {
			return cfg.DeleteProfile(name)
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Profile %q deleted\n", name)
		return nil
	},
}

var viewConfigCmd = &cobra.Command{
	Use:   "view",
	Short: "Show the profile file (credentials masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadProfiles()
		if err != nil {
			return err
		}
		if len(cfg.Profiles) == 0 && cfg.CurrentProfile == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No profiles configured.")
			fmt.Fprintln(cmd.OutOrStdout(), "Create one with: scrollcat config set-profile <name> --es-url <url>")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.String())
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the profile file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.DefaultStore()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), store.Path)
		return nil
	},
}

func init() {
	setProfileCmd.Flags().StringVar(&setProfileESURL, "es-url", "", "Elasticsearch URL")
	setProfileCmd.Flags().StringVarP(&setProfileIndex, "index", "i", "", "Index or pattern to search")
	setProfileCmd.Flags().StringVar(&setProfileESAPIKey, "es-api-key", "", "Elasticsearch API key (supports ${ENV_VAR} syntax)")
	setProfileCmd.Flags().StringVar(&setProfileESUsername, "es-username", "", "Elasticsearch username (supports ${ENV_VAR} syntax)")
	setProfileCmd.Flags().StringVar(&setProfileESPassword, "es-password", "", "Elasticsearch password (supports ${ENV_VAR} syntax)")
	setProfileCmd.Flags().StringVar(&setProfileOTLP, "otlp", "", "OTLP/HTTP endpoint for log forwarding")
	setProfileCmd.Flags().BoolVar(&setProfileOTLPInsec, "otlp-insecure", true, "Use HTTP instead of HTTPS for the OTLP endpoint")
	setProfileCmd.Flags().StringVar(&setProfileKeepAlive, "keep-alive", "", "Scroll context keep-alive (e.g. 20m)")
	setProfileCmd.Flags().IntVar(&setProfileMaxPages, "max-pages", 0, "Stop after this many pages (0 = unbounded)")

	configCmd.AddCommand(showConfigCmd)
	configCmd.AddCommand(useProfileCmd)
	configCmd.AddCommand(setProfileCmd)
	configCmd.AddCommand(listProfilesCmd)
	configCmd.AddCommand(currentProfileCmd)
	configCmd.AddCommand(deleteProfileCmd)
	configCmd.AddCommand(viewConfigCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}

func loadProfiles() (*config.ProfileConfig, error) {
	store, err := config.DefaultStore()
	if err != nil {
		return nil, err
	}
	return store.Load()
}

func writeProfileList(w io.Writer, cfg *config.ProfileConfig) {
	names := cfg.ListProfiles()
	if len(names) == 0 {
		fmt.Fprintln(w, "No profiles configured.")
		fmt.Fprintln(w, "Create one with: scrollcat config set-profile <name> --es-url <url>")
		return
	}

	fmt.Fprintln(w, "PROFILES:")
	for _, name := range names {
		marker := "  "
		if name == cfg.CurrentProfile {
			marker = "* "
		}
		profile, _ := cfg.GetProfile(name)
		fmt.Fprintf(w, "%s%-20s  %s\n", marker, name, formatProfileSummary(profile))
	}
	if cfg.CurrentProfile != "" {
		fmt.Fprintf(w, "\n* = current profile\n")
	}
}

// formatProfileSummary returns a brief summary of a profile's settings.
func formatProfileSummary(p config.Profile) string {
	var parts []string
	if p.Elasticsearch.URL != "" {
		parts = append(parts, "es="+p.Elasticsearch.URL)
	}
	if p.Elasticsearch.Index != "" {
		parts = append(parts, "index="+p.Elasticsearch.Index)
	}
	if p.Scroll.KeepAlive != "" {
		parts = append(parts, "keep-alive="+p.Scroll.KeepAlive)
	}
	if p.OTLP.Endpoint != "" {
		parts = append(parts, "otlp="+p.OTLP.Endpoint)
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, ", ")
}

// effectiveConfig is the YAML shape printed by "config show".
type effectiveConfig struct {
	Profile string `yaml:"profile,omitempty"`
	ES      struct {
		URL            string `yaml:"url"`
		Index          string `yaml:"index"`
		APIKey         string `yaml:"api_key,omitempty"`
		Username       string `yaml:"username,omitempty"`
		Password       string `yaml:"password,omitempty"`
		RequestTimeout string `yaml:"request_timeout"`
		PingTimeout    string `yaml:"ping_timeout"`
	} `yaml:"es"`
	Scroll struct {
		KeepAlive  string `yaml:"keep_alive"`
		MaxPages   int    `yaml:"max_pages"`
		MaxRetries int    `yaml:"max_retries"`
	} `yaml:"scroll"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	OTLP struct {
		Endpoint string `yaml:"endpoint,omitempty"`
		Insecure bool   `yaml:"insecure"`
	} `yaml:"otlp"`
	Metrics struct {
		Textfile string `yaml:"textfile,omitempty"`
	} `yaml:"metrics"`
}

func writeEffectiveConfig(w io.Writer, cfg config.Config) error {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "****"
	}

	var out effectiveConfig
	out.Profile = cfg.Profile
	out.ES.URL = cfg.ES.URL
	out.ES.Index = cfg.ES.Index
	out.ES.APIKey = mask(cfg.ES.APIKey)
	out.ES.Username = cfg.ES.Username
	out.ES.Password = mask(cfg.ES.Password)
	out.ES.RequestTimeout = cfg.ES.RequestTimeout.String()
	out.ES.PingTimeout = cfg.ES.PingTimeout.String()
	out.Scroll.KeepAlive = cfg.Scroll.KeepAlive.String()
	out.Scroll.MaxPages = cfg.Scroll.MaxPages
	out.Scroll.MaxRetries = cfg.Scroll.MaxRetries
	out.Log.Level = cfg.Log.Level
	out.Log.Pretty = cfg.Log.Pretty
	out.OTLP.Endpoint = cfg.OTLP.Endpoint
	out.OTLP.Insecure = cfg.OTLP.Insecure
	out.Metrics.Textfile = cfg.Metrics.Textfile

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = w.Write(data)
	return err
}
