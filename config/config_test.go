package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/chainflow/provider"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, []string{"anthropic", "openai", "ollama"}, cfg.Providers.Enabled)
	assert.Equal(t, "anthropic", cfg.Providers.Primary)
	assert.Equal(t, 300000, cfg.Cache.TTLMs)
	assert.Equal(t, 100, cfg.Cache.MaxSize)
	assert.True(t, cfg.Cache.Enabled)
	assert.True(t, cfg.Chain.ContinueOnError)
	assert.Empty(t, cfg.NATS.URL)

	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "zero cache ttl",
			modify:  func(c *Config) { c.Cache.TTLMs = 0 },
			wantErr: true,
		},
		{
			name:    "negative cache size",
			modify:  func(c *Config) { c.Cache.MaxSize = -1 },
			wantErr: true,
		},
		{
			name:    "primary not enabled",
			modify:  func(c *Config) { c.Providers.Primary = "gemini" },
			wantErr: true,
		},
		{
			name: "empty primary is allowed",
			modify: func(c *Config) {
				c.Providers.Primary = ""
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	overlay := &Config{
		Providers: ProvidersConfig{
			Enabled: []string{"ollama"},
			Primary: "ollama",
		},
		Cache: CacheConfig{
			TTLMs:   60000,
			Enabled: true,
		},
		Chain: ChainConfig{ContinueOnError: false},
		NATS:  NATSConfig{URL: "nats://localhost:4222"},
	}

	base.Merge(overlay)

	assert.Equal(t, []string{"ollama"}, base.Providers.Enabled)
	assert.Equal(t, "ollama", base.Providers.Primary)
	assert.Equal(t, 60000, base.Cache.TTLMs)
	// Zero MaxSize in the overlay keeps the base value.
	assert.Equal(t, 100, base.Cache.MaxSize)
	assert.False(t, base.Chain.ContinueOnError)
	assert.Equal(t, "nats://localhost:4222", base.NATS.URL)
}

func TestConfigMergeNil(t *testing.T) {
	base := DefaultConfig()
	base.Merge(nil)
	assert.Equal(t, DefaultConfig(), base)
}

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "chainflow.yaml")

	cfg := DefaultConfig()
	cfg.Providers.Primary = "openai"
	cfg.Cache.TTLMs = 1234
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", loaded.Providers.Primary)
	assert.Equal(t, 1234, loaded.Cache.TTLMs)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestLoadFromFilePartial(t *testing.T) {
	// Fields absent from the file keep their defaults.
	path := filepath.Join(t.TempDir(), "chainflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  ttl_ms: 5000\n  enabled: true\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Cache.TTLMs)
	assert.Equal(t, 100, cfg.Cache.MaxSize)
	assert.Equal(t, "anthropic", cfg.Providers.Primary)
}

func TestConfigApply(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers.Enabled = []string{"ollama"}
	cfg.Providers.Primary = "ollama"

	registry := provider.NewRegistry()
	cfg.Apply(registry)

	assert.Equal(t, []string{"ollama"}, registry.Enabled())
	assert.Equal(t, "ollama", registry.Primary())
}

func TestPromptCacheConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.TTLMs = 2500

	pc := cfg.PromptCacheConfig()
	assert.Equal(t, 2500*time.Millisecond, pc.TTL)
	assert.Equal(t, 100, pc.MaxSize)
	assert.True(t, pc.Enabled)
}
