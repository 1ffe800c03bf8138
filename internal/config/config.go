// Package config manages the giftbud configuration file at ~/.giftbud/config.yaml.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hpkotak/giftbud/internal/provider"
)

var ErrNotFound = errors.New("config file not found")

// Environment variables that override file values.
const (
	EnvAPIKey   = "GIFTBUD_API_KEY"
	EnvProvider = "GIFTBUD_PROVIDER"
	EnvModel    = "GIFTBUD_MODEL"
)

// DefaultModels maps each provider to the model used when none is set.
var DefaultModels = map[string]string{
	"groq":   "llama-3.1-8b-instant",
	"gemini": "gemini-1.5-flash",
	"ollama": "llama3.2:latest",
}

type Config struct {
	Provider string   `yaml:"provider"`
	Model    string   `yaml:"model"`
	APIKey   string   `yaml:"api_key,omitempty"`
	Groq     Endpoint `yaml:"groq"`
	Gemini   Endpoint `yaml:"gemini"`
	Ollama   Endpoint `yaml:"ollama"`
	Links    Links    `yaml:"links"`
	Timeouts Timeouts `yaml:"timeouts"`
}

type Endpoint struct {
	Host string `yaml:"host"`
}

type Links struct {
	// Verify probes each storefront with a GET before accepting its link.
	Verify    bool   `yaml:"verify"`
	UserAgent string `yaml:"user_agent,omitempty"`
}

type Timeouts struct {
	Connect time.Duration `yaml:"connect"`
	Read    time.Duration `yaml:"read"`
}

// Dir returns the config directory path (~/.giftbud).
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".giftbud")
}

// Path returns the config file path (~/.giftbud/config.yaml).
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads and parses the config file. Returns ErrNotFound if it doesn't exist.
func Load() (*Config, error) {
	return loadFrom(Path())
}

func loadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Resolve loads the config file, falling back to defaults when it is
// missing, then applies .env files and environment overrides. The bool
// reports whether a config file was found.
func Resolve() (*Config, bool, error) {
	cfg, err := Load()
	found := err == nil
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
		cfg = Default()
	}

	LoadEnvFiles(".env", filepath.Join(Dir(), ".env"))
	ApplyEnv(cfg, os.Getenv)
	return cfg, found, nil
}

// LoadEnvFiles loads the given .env files into the process environment.
// Missing files are skipped and variables already set are kept.
func LoadEnvFiles(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

// ApplyEnv overrides cfg with non-empty values from getenv. Changing the
// provider without a model resets the model to that provider's default.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := strings.ToLower(strings.TrimSpace(getenv(EnvProvider))); v != "" && v != cfg.Provider {
		cfg.Provider = v
		cfg.Model = DefaultModels[v]
	}
	if v := strings.TrimSpace(getenv(EnvModel)); v != "" {
		cfg.Model = v
	}
	if v := strings.TrimSpace(getenv(EnvAPIKey)); v != "" {
		cfg.APIKey = v
	}
}

// Save writes the config to disk with owner-only permissions, creating the
// directory if needed.
func Save(cfg *Config) error {
	return saveTo(Dir(), Path(), cfg)
}

func saveTo(dir, path string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := marshalConfig(cfg)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func marshalConfig(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}

// Default returns a config with sensible defaults.
func Default() *Config {
	return &Config{
		Provider: "groq",
		Model:    DefaultModels["groq"],
		Groq:     Endpoint{Host: provider.GroqDefaultHost},
		Gemini:   Endpoint{Host: provider.GeminiDefaultHost},
		Ollama:   Endpoint{Host: provider.OllamaDefaultHost},
		Timeouts: Timeouts{
			Connect: 10 * time.Second,
			Read:    15 * time.Second,
		},
	}
}

// Validate checks field values. It does not check the API key; the
// provider does that before each request.
func (c *Config) Validate() error {
	if _, ok := DefaultModels[c.Provider]; !ok {
		return fmt.Errorf("unsupported provider %q (use groq, gemini, or ollama)", c.Provider)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("model cannot be empty")
	}
	for name, host := range map[string]string{
		"groq.host":   c.Groq.Host,
		"gemini.host": c.Gemini.Host,
		"ollama.host": c.Ollama.Host,
	} {
		if host == "" {
			continue
		}
		if _, err := url.ParseRequestURI(host); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, host, err)
		}
	}
	if c.Timeouts.Connect < 0 || c.Timeouts.Read < 0 {
		return fmt.Errorf("timeouts cannot be negative")
	}
	return nil
}

// Keys lists the keys accepted by Set, in display order.
var Keys = []string{
	"provider", "model", "api_key",
	"groq.host", "gemini.host", "ollama.host",
	"links.verify", "links.user_agent",
	"timeouts.connect", "timeouts.read",
}

// Set assigns value to key and validates the result.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)

	switch key {
	case "provider":
		p := strings.ToLower(value)
		if p != c.Provider {
			c.Provider = p
			c.Model = DefaultModels[p]
		}
	case "model":
		if value == "" {
			return fmt.Errorf("model cannot be empty")
		}
		c.Model = value
	case "api_key":
		c.APIKey = value
	case "groq.host", "gemini.host", "ollama.host":
		if _, err := url.ParseRequestURI(value); err != nil {
			return fmt.Errorf("invalid URL %q: %w", value, err)
		}
		switch key {
		case "groq.host":
			c.Groq.Host = value
		case "gemini.host":
			c.Gemini.Host = value
		default:
			c.Ollama.Host = value
		}
	case "links.verify":
		switch strings.ToLower(value) {
		case "true", "yes", "on", "1":
			c.Links.Verify = true
		case "false", "no", "off", "0":
			c.Links.Verify = false
		default:
			return fmt.Errorf("links.verify must be true or false, got %q", value)
		}
	case "links.user_agent":
		c.Links.UserAgent = value
	case "timeouts.connect", "timeouts.read":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		if key == "timeouts.connect" {
			c.Timeouts.Connect = d
		} else {
			c.Timeouts.Read = d
		}
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	return c.Validate()
}

// Masked returns a copy of c with the API key shortened for display.
func (c *Config) Masked() *Config {
	out := *c
	out.APIKey = MaskKey(c.APIKey)
	return &out
}

// MaskKey keeps the first four characters of key and hides the rest.
func MaskKey(key string) string {
	switch {
	case key == "":
		return ""
	case len(key) <= 8:
		return strings.Repeat("*", len(key))
	default:
		return key[:4] + strings.Repeat("*", len(key)-4)
	}
}

// ProviderConfig returns the provider factory settings for c.
func (c *Config) ProviderConfig(httpClient *http.Client) provider.BuildConfig {
	return provider.BuildConfig{
		Name:       c.Provider,
		Model:      c.Model,
		APIKey:     c.APIKey,
		GroqHost:   c.Groq.Host,
		GeminiHost: c.Gemini.Host,
		OllamaHost: c.Ollama.Host,
		HTTPClient: httpClient,
	}
}

// HTTPTimeouts returns the outbound request timeouts.
func (c *Config) HTTPTimeouts() provider.Timeouts {
	return provider.Timeouts{Connect: c.Timeouts.Connect, Read: c.Timeouts.Read}
}
