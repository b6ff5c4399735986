// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// ProfileConfig is the content of the profile file.
type ProfileConfig struct {
	CurrentProfile string             `yaml:"current-profile,omitempty"`
	Profiles       map[string]Profile `yaml:"profiles,omitempty"`
}

// Profile is a named cluster target: where to scroll from, how, and where
// logs go.
type Profile struct {
	Elasticsearch ESProfile     `yaml:"elasticsearch,omitempty"`
	Scroll        ScrollProfile `yaml:"scroll,omitempty"`
	OTLP          OTLPProfile   `yaml:"otlp,omitempty"`
}

// ESProfile is the cluster address, index and credentials. Credentials may
// be ${VAR} references, expanded by Resolve.
type ESProfile struct {
	URL      string `yaml:"url,omitempty"`
	Index    string `yaml:"index,omitempty"`
	APIKey   string `yaml:"api-key,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// ScrollProfile overrides scroll defaults for a cluster.
type ScrollProfile struct {
	KeepAlive string `yaml:"keep-alive,omitempty"`
	MaxPages  *int   `yaml:"max-pages,omitempty"`
}

// OTLPProfile is the log forwarding target. A nil Insecure leaves the
// default in place.
type OTLPProfile struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	Insecure *bool  `yaml:"insecure,omitempty"`
}

// PlainTextCredentialWarning is shown when a profile stores a literal secret.
const PlainTextCredentialWarning = "Warning: credentials are stored in plain text. " +
	"Use a reference such as api-key: ${ES_API_KEY} instead."

const profileFileName = "config.yaml"

// Store reads and writes the profile file at Path.
type Store struct {
	Path string
}

// DefaultStore returns the store at $XDG_CONFIG_HOME/scrollcat/config.yaml,
// or ~/.config/scrollcat/config.yaml when XDG_CONFIG_HOME is unset.
func DefaultStore() (Store, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Store{}, fmt.Errorf("get home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return Store{Path: filepath.Join(base, "scrollcat", profileFileName)}, nil
}

// Load reads the profile file. A missing file is an empty ProfileConfig.
func (s Store) Load() (*ProfileConfig, error) {
	cfg := &ProfileConfig{}

	data, err := os.ReadFile(s.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read profile file: %w", err)
	default:
		s.checkPermissions()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse profile file %s: %w", s.Path, err)
		}
	}

	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]Profile)
	}
	return cfg, nil
}

// Save writes cfg, readable by the owner only.
func (s Store) Save(cfg *ProfileConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal profiles: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0600); err != nil {
		return fmt.Errorf("write profile file: %w", err)
	}
	return nil
}

// Update loads the profile file, applies fn and saves the result. Nothing is
// written when fn fails.
func (s Store) Update(fn func(*ProfileConfig) error) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	return s.Save(cfg)
}

func (s Store) checkPermissions() {
	info, err := os.Stat(s.Path)
	if err != nil {
		return
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		log.Warn().
			Str("path", s.Path).
			Str("mode", fmt.Sprintf("%04o", mode)).
			Msg("Profile file is readable by other users; expected 0600")
	}
}

// GetProfile returns the named profile.
func (c *ProfileConfig) GetProfile(name string) (Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile %q not found", name)
	}
	return p, nil
}

// SetProfile stores profile under name.
func (c *ProfileConfig) SetProfile(name string, profile Profile) {
	if c.Profiles == nil {
		c.Profiles = make(map[string]Profile)
	}
	c.Profiles[name] = profile
}

// UseProfile makes name the current profile.
func (c *ProfileConfig) UseProfile(name string) error {
	if _, err := c.GetProfile(name); err != nil {
		return err
	}
	c.CurrentProfile = name
	return nil
}

// DeleteProfile removes name; deleting the current profile unselects it.
func (c *ProfileConfig) DeleteProfile(name string) error {
	if _, err := c.GetProfile(name); err != nil {
		return err
	}
	delete(c.Profiles, name)
	if c.CurrentProfile == name {
		c.CurrentProfile = ""
	}
	return nil
}

// ListProfiles returns the profile names sorted.
func (c *ProfileConfig) ListProfiles() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetActiveProfile picks the profile named by the --profile flag, else the
// current profile. It returns nil when neither names an existing profile.
func (c *ProfileConfig) GetActiveProfile(profileFlag string) (*Profile, string) {
	name := profileFlag
	if name == "" {
		name = c.CurrentProfile
	}
	p, ok := c.Profiles[name]
	if name == "" || !ok {
		return nil, ""
	}
	return &p, name
}

var envRefPattern = regexp.MustCompile(`^\$\{([^}]+)\}$`)

// IsEnvRef reports whether s is exactly a ${VAR} reference.
func IsEnvRef(s string) bool {
	return envRefPattern.MatchString(s)
}

// secrets lists the credential fields of e by their YAML names.
func (e *ESProfile) secrets() map[string]*string {
	return map[string]*string{
		"api-key":  &e.APIKey,
		"username": &e.Username,
		"password": &e.Password,
	}
}

// Resolve returns a copy with ${VAR} credentials replaced by the variables'
// values. A reference to an unset variable is an error.
func (p Profile) Resolve() (Profile, error) {
	for field, value := range p.Elasticsearch.secrets() {
		m := envRefPattern.FindStringSubmatch(*value)
		if m == nil {
			continue
		}
		resolved, ok := os.LookupEnv(m[1])
		if !ok {
			return Profile{}, fmt.Errorf("%s refers to unset variable %s", field, m[1])
		}
		*value = resolved
	}
	return p, nil
}

// HasPlainTextCredentials reports whether a credential is stored as a literal.
func (p Profile) HasPlainTextCredentials() bool {
	for _, value := range p.Elasticsearch.secrets() {
		if *value != "" && !IsEnvRef(*value) {
			return true
		}
	}
	return false
}

// MaskCredentials returns a copy with literal credentials shown as "****".
func (p Profile) MaskCredentials() Profile {
	for _, value := range p.Elasticsearch.secrets() {
		if *value != "" && !IsEnvRef(*value) {
			*value = "****"
		}
	}
	return p
}

// Validate checks the values a profile would feed into Load.
func (p Profile) Validate() error {
	if raw := p.Elasticsearch.URL; raw != "" {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("elasticsearch url %q must be an http or https URL", raw)
		}
	}
	if p.Elasticsearch.APIKey != "" && (p.Elasticsearch.Username != "" || p.Elasticsearch.Password != "") {
		return fmt.Errorf("api-key and username/password are mutually exclusive")
	}
	if ka := p.Scroll.KeepAlive; ka != "" {
		d, err := time.ParseDuration(ka)
		if err != nil || d < time.Millisecond {
			return fmt.Errorf("scroll keep-alive %q must be a duration of at least 1ms", ka)
		}
	}
	if p.Scroll.MaxPages != nil && *p.Scroll.MaxPages < 0 {
		return fmt.Errorf("scroll max-pages must be >= 0")
	}
	return nil
}

// settings maps the profile onto configuration keys. Unset fields are left
// out so they do not shadow defaults.
func (p Profile) settings() map[string]interface{} {
	out := make(map[string]interface{})
	for key, val := range map[string]string{
		"es.url":            p.Elasticsearch.URL,
		"es.index":          p.Elasticsearch.Index,
		"es.api_key":        p.Elasticsearch.APIKey,
		"es.username":       p.Elasticsearch.Username,
		"es.password":       p.Elasticsearch.Password,
		"scroll.keep_alive": p.Scroll.KeepAlive,
		"otlp.endpoint":     p.OTLP.Endpoint,
	} {
		if val != "" {
			out[key] = val
		}
	}
	if p.Scroll.MaxPages != nil {
		out["scroll.max_pages"] = *p.Scroll.MaxPages
	}
	if p.OTLP.Insecure != nil {
		out["otlp.insecure"] = *p.OTLP.Insecure
	}
	return out
}

// String renders the profile file as YAML with literal credentials masked.
func (c ProfileConfig) String() string {
	masked := ProfileConfig{
		CurrentProfile: c.CurrentProfile,
		Profiles:       make(map[string]Profile, len(c.Profiles)),
	}
	for name, p := range c.Profiles {
		masked.Profiles[name] = p.MaskCredentials()
	}

	data, err := yaml.Marshal(masked)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return strings.TrimSpace(string(data))
}
