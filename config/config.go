// Package config provides configuration loading and management for
// Chainflow.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/chainflow/prompt"
	"github.com/c360studio/chainflow/provider"
)

// Config represents the complete Chainflow configuration
type Config struct {
	Providers ProvidersConfig `yaml:"providers"`
	Cache     CacheConfig     `yaml:"cache"`
	Chain     ChainConfig     `yaml:"chain"`
	NATS      NATSConfig      `yaml:"nats"`
}

// ProvidersConfig configures provider enablement
type ProvidersConfig struct {
	// Enabled lists the provider names requests may resolve to
	Enabled []string `yaml:"enabled"`
	// Primary is the provider used when a call names none
	Primary string `yaml:"primary"`
}

// CacheConfig configures the prompt cache
type CacheConfig struct {
	// TTLMs is the entry time-to-live in milliseconds (default: 300000)
	TTLMs int `yaml:"ttl_ms"`
	// MaxSize bounds the number of cached entries (default: 100)
	MaxSize int `yaml:"max_size"`
	// Enabled turns the cache off entirely when false
	Enabled bool `yaml:"enabled"`
}

// ChainConfig configures chain execution defaults
type ChainConfig struct {
	// ContinueOnError executes remaining steps after a failure (default: true)
	ContinueOnError bool `yaml:"continue_on_error"`
}

// NATSConfig configures the NATS connection for the prompt store
type NATSConfig struct {
	// URL is the NATS server URL (empty = in-memory prompt store)
	URL string `yaml:"url"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Providers: ProvidersConfig{
			Enabled: []string{"anthropic", "openai", "ollama"},
			Primary: "anthropic",
		},
		Cache: CacheConfig{
			TTLMs:   300000,
			MaxSize: 100,
			Enabled: true,
		},
		Chain: ChainConfig{
			ContinueOnError: true,
		},
		NATS: NATSConfig{
			URL: "",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Cache.TTLMs <= 0 {
		return fmt.Errorf("cache.ttl_ms must be positive")
	}
	if c.Cache.MaxSize <= 0 {
		return fmt.Errorf("cache.max_size must be positive")
	}
	if c.Providers.Primary != "" && !contains(c.Providers.Enabled, c.Providers.Primary) {
		return fmt.Errorf("providers.primary %q is not in providers.enabled", c.Providers.Primary)
	}
	return nil
}

func contains(list []string, item string) bool {
	for _, elem := range list {
		if elem == item {
			return true
		}
	}
	return false
}

// PromptCacheConfig converts the cache settings to the prompt package's
// configuration type.
func (c *Config) PromptCacheConfig() prompt.CacheConfig {
	return prompt.CacheConfig{
		TTL:     time.Duration(c.Cache.TTLMs) * time.Millisecond,
		MaxSize: c.Cache.MaxSize,
		Enabled: c.Cache.Enabled,
	}
}

// Apply pushes the runtime-adjustable settings onto the registry and the
// default prompt cache. Called on startup and again on each watcher reload.
func (c *Config) Apply(registry *provider.Registry) {
	registry.SetEnabled(c.Providers.Enabled)
	registry.SetPrimary(c.Providers.Primary)
	prompt.Configure(c.PromptCacheConfig())
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
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

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Providers
	if len(other.Providers.Enabled) > 0 {
		c.Providers.Enabled = other.Providers.Enabled
	}
	if other.Providers.Primary != "" {
		c.Providers.Primary = other.Providers.Primary
	}

	// Cache
	if other.Cache.TTLMs != 0 {
		c.Cache.TTLMs = other.Cache.TTLMs
	}
	if other.Cache.MaxSize != 0 {
		c.Cache.MaxSize = other.Cache.MaxSize
	}
	c.Cache.Enabled = other.Cache.Enabled

	// Chain
	c.Chain.ContinueOnError = other.Chain.ContinueOnError

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
}
