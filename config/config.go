// Package config provides configuration loading and management for LangPont.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete LangPont configuration
type Config struct {
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	NATS        NATSConfig      `yaml:"nats"`
	Providers   ProvidersConfig `yaml:"providers"`
	Analysis    AnalysisConfig  `yaml:"analysis"`
	History     HistoryConfig   `yaml:"history"`
}

// HTTPConfig configures the API listener
type HTTPConfig struct {
	// Addr is the listen address (default: :8080)
	Addr string `yaml:"addr"`
}

// NATSConfig configures the NATS connection backing the state cache and
// event sink
type NATSConfig struct {
	// URL is the NATS server URL (empty = in-process cache only, no events)
	URL string `yaml:"url"`
}

// ProvidersConfig overrides endpoints per provider
type ProvidersConfig struct {
	OpenAI    ProviderConfig `yaml:"openai"`
	Gemini    ProviderConfig `yaml:"gemini"`
	Anthropic ProviderConfig `yaml:"anthropic"`
}

// ProviderConfig overrides one provider's endpoint and model
type ProviderConfig struct {
	// BaseURL overrides the provider API base URL (empty = provider default)
	BaseURL string `yaml:"base_url"`
	// Model overrides the default model
	Model string `yaml:"model"`
}

// AnalysisConfig configures meta-analysis defaults
type AnalysisConfig struct {
	// DefaultEngine is used when a request names none (openai|gemini|claude)
	DefaultEngine string `yaml:"default_engine"`
}

// HistoryConfig configures the interactive history ring
type HistoryConfig struct {
	// Size is the number of most recent turns kept per session
	Size int `yaml:"size"`
}

// validEnvironments gates the cache key namespace.
var validEnvironments = map[string]bool{"dev": true, "stage": true, "prod": true}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Environment: "dev",
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		NATS: NATSConfig{
			URL: "",
		},
		Analysis: AnalysisConfig{
			DefaultEngine: "gemini",
		},
		History: HistoryConfig{
			Size: 10,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if !validEnvironments[c.Environment] {
		return fmt.Errorf("environment must be one of dev, stage, prod")
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	switch c.Analysis.DefaultEngine {
	case "openai", "gemini", "claude":
	default:
		return fmt.Errorf("analysis.default_engine must be one of openai, gemini, claude")
	}
	if c.History.Size <= 0 {
		return fmt.Errorf("history.size must be positive")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file, layered over defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Merge overlays non-zero fields from other onto c
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Environment != "" {
		c.Environment = other.Environment
	}
	if other.HTTP.Addr != "" {
		c.HTTP.Addr = other.HTTP.Addr
	}
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	mergeProvider(&c.Providers.OpenAI, other.Providers.OpenAI)
	mergeProvider(&c.Providers.Gemini, other.Providers.Gemini)
	mergeProvider(&c.Providers.Anthropic, other.Providers.Anthropic)
	if other.Analysis.DefaultEngine != "" {
		c.Analysis.DefaultEngine = other.Analysis.DefaultEngine
	}
	if other.History.Size != 0 {
		c.History.Size = other.History.Size
	}
}

func mergeProvider(dst *ProviderConfig, src ProviderConfig) {
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
}
