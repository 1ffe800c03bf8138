package provider

import (
	"fmt"
	"net/http"
	"strings"
)

// Names lists the supported provider identifiers.
var Names = []string{"groq", "gemini", "ollama"}

// BuildConfig contains provider-specific runtime settings used by the factory.
type BuildConfig struct {
	Name       string
	Model      string
	APIKey     string
	GroqHost   string
	GeminiHost string
	OllamaHost string
	HTTPClient *http.Client
}

// NewFromConfig builds the configured provider implementation. Empty hosts
// fall back to each backend's public default.
func NewFromConfig(cfg BuildConfig) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case "groq":
		return NewGroq(orDefault(cfg.GroqHost, GroqDefaultHost), cfg.Model, cfg.APIKey, cfg.HTTPClient)
	case "gemini":
		return NewGemini(orDefault(cfg.GeminiHost, GeminiDefaultHost), cfg.Model, cfg.APIKey, cfg.HTTPClient)
	case "ollama":
		return NewOllama(orDefault(cfg.OllamaHost, OllamaDefaultHost), cfg.Model, cfg.HTTPClient)
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Name)
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
