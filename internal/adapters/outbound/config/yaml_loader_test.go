package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netharden/netharden/internal/adapters/outbound/config"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Site)
	assert.Equal(t, 30, cfg.TimeoutSecs)
	assert.Equal(t, "nmap", cfg.NmapPath)
}

func TestLoad_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".netharden.yaml"), []byte(`
controller_url: https://10.0.0.1
username: admin
password: secret
site: home
verify_ssl: true
timeout_seconds: 10
`), 0o644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://10.0.0.1", cfg.ControllerURL)
	assert.Equal(t, "home", cfg.Site)
	assert.True(t, cfg.VerifySSL)
	assert.Equal(t, 10, cfg.TimeoutSecs)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".netharden.yaml"), []byte(`
controller_url: https://10.0.0.1
username: admin
password: secret
`), 0o644))

	t.Setenv("NETHARDEN_CONTROLLER_URL", "https://192.168.1.1")
	t.Setenv("NETHARDEN_SITE", "office")
	t.Setenv("NETHARDEN_VERIFY_SSL", "true")

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://192.168.1.1", cfg.ControllerURL)
	assert.Equal(t, "office", cfg.Site)
	assert.True(t, cfg.VerifySSL)
}

func TestLoad_EnvAloneIsEnough(t *testing.T) {
	t.Setenv("NETHARDEN_CONTROLLER_URL", "https://192.168.1.1")
	t.Setenv("NETHARDEN_USERNAME", "admin")
	t.Setenv("NETHARDEN_PASSWORD", "secret")

	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".netharden.yaml"), []byte("controller_url: [::"), 0o644))

	_, err := config.Load(dir)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := config.DefaultSettings()
	assert.Error(t, cfg.Validate(), "missing URL")

	cfg.ControllerURL = "https://10.0.0.1"
	assert.Error(t, cfg.Validate(), "missing credentials")

	cfg.Username = "admin"
	cfg.Password = "secret"
	assert.NoError(t, cfg.Validate())
}
