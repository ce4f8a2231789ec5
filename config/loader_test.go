package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureUserConfigCreatesDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	l := NewLoader(nil)
	require.NoError(t, l.EnsureUserConfig())

	data, err := os.ReadFile(filepath.Join(home, UserConfigDir, UserConfigFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "providers:")
	assert.Contains(t, string(data), "anthropic")
}

func TestEnsureUserConfigKeepsExistingFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, UserConfigDir, UserConfigFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  ttl_ms: 1\n"), 0644))

	require.NoError(t, NewLoader(nil).EnsureUserConfig())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cache:\n  ttl_ms: 1\n", string(data))
}

func TestProjectConfigPathFindsFileUpward(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(root, ProjectConfigFile)
	require.NoError(t, os.WriteFile(cfgPath, []byte("cache:\n  ttl_ms: 2000\n  enabled: true\n"), 0644))

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	assert.Equal(t, cfgPath, NewLoader(nil).ProjectConfigPath())
}
