package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nestedConfig struct {
	Token   string        `yaml:"token" env:"ACCESS_TOKEN"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Limit   uint32        `yaml:"limit" env:"LIMIT"`
}

type testConfig struct {
	Host    string        `yaml:"host" env:"SERVER_HOST"`
	Port    int           `yaml:"port" env:"SERVER_PORT"`
	Debug   bool          `yaml:"debug" env:"DEBUG"`
	Tags    []string      `yaml:"tags" env:"TAGS"`
	Dropbox *nestedConfig `yaml:"dropbox"`
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_HOST", "10.0.0.5")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DEBUG", "true")
	t.Setenv("TAGS", "a, b,c")

	cfg := &testConfig{Host: "0.0.0.0", Port: 8080}
	require.NoError(t, NewLoader("").LoadFromEnv(cfg))

	assert.Equal(t, "10.0.0.5", cfg.Host)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Tags)
}

func TestLoadFromEnvNestedSectionPrefix(t *testing.T) {
	t.Setenv("DROPBOX_ACCESS_TOKEN", "tok-123")
	t.Setenv("DROPBOX_TIMEOUT", "45s")
	t.Setenv("DROPBOX_LIMIT", "500")

	cfg := &testConfig{}
	require.NoError(t, NewLoader("").LoadFromEnv(cfg))

	require.NotNil(t, cfg.Dropbox)
	assert.Equal(t, "tok-123", cfg.Dropbox.Token)
	assert.Equal(t, 45*time.Second, cfg.Dropbox.Timeout)
	assert.Equal(t, uint32(500), cfg.Dropbox.Limit)
}

func TestLoadFromEnvWithLoaderPrefix(t *testing.T) {
	t.Setenv("APP_SERVER_HOST", "internal.example")

	cfg := &testConfig{}
	require.NoError(t, NewLoader("APP").LoadFromEnv(cfg))

	assert.Equal(t, "internal.example", cfg.Host)
}

func TestLoadFromFileThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("host: filehost\nport: 7000\ndropbox:\n  token: file-token\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	t.Setenv("SERVER_PORT", "7100")

	cfg := &testConfig{}
	require.NoError(t, NewLoader("").Load(path, cfg))

	assert.Equal(t, "filehost", cfg.Host)
	assert.Equal(t, 7100, cfg.Port)
	require.NotNil(t, cfg.Dropbox)
	assert.Equal(t, "file-token", cfg.Dropbox.Token)
}

func TestLoadFromFileRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o644))

	cfg := &testConfig{}
	assert.Error(t, NewLoader("").LoadFromFile(path, cfg))
}

func TestValidateConfigPath(t *testing.T) {
	assert.NoError(t, ValidateConfigPath(""))
	assert.Error(t, ValidateConfigPath("/no/such/file.yaml"))

	path := filepath.Join(t.TempDir(), "ok.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1"), 0o644))
	assert.NoError(t, ValidateConfigPath(path))
}
