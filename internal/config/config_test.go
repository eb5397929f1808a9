package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sshcollectorpro/sysvers/internal/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log:\n  level: warn\n"))
	require.NoError(t, err)

	assert.Equal(t, 22, cfg.SSH.Port)
	assert.Equal(t, 30*time.Second, cfg.SSH.CommandTimeout)
	assert.Equal(t, 30*time.Second, cfg.SSH.ConnectTimeout)
	assert.Equal(t, 10*time.Second, cfg.Detect.ProbeTimeout)
	assert.Equal(t, 8, cfg.Detect.BatchConcurrency)
	assert.Equal(t, "JeylanDevice", cfg.Inventory.Infrahub.Schema)
	assert.Equal(t, "local", cfg.Report.Backend)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Same(t, cfg, Get())

	order, err := cfg.AutoOrder()
	require.NoError(t, err)
	assert.Equal(t, model.FamilyCisco, order[0])
	assert.Len(t, order, 6)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
ssh:
  port: 2222
  username: netops
  command_timeout: 15s
detect:
  auto_order: [linux, macos]
  probe_timeout: 3s
report:
  backend: minio
  minio:
    host: minio.local
    bucket: versions
server:
  port: 9090
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2222, cfg.SSH.Port)
	assert.Equal(t, "netops", cfg.SSH.Username)
	assert.Equal(t, 3*time.Second, cfg.Detect.ProbeTimeout)
	assert.Equal(t, "minio.local", cfg.Report.Minio.Host)
	assert.Equal(t, "versions", cfg.Report.Minio.Bucket)
	assert.Equal(t, "0.0.0.0:9090", cfg.GetServerAddr())

	order, err := cfg.AutoOrder()
	require.NoError(t, err)
	assert.Equal(t, []model.Family{model.FamilyLinux, model.FamilyMacOS}, order)

	p := cfg.ConnectionParams("10.1.1.1")
	assert.Equal(t, model.ConnectionParams{
		Host:           "10.1.1.1",
		Port:           2222,
		Username:       "netops",
		CommandTimeout: 15 * time.Second,
		ConnectTimeout: 30 * time.Second,
	}, p)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("SSH_USERNAME", "admin")
	t.Setenv("SSH_PASSWORD", "s3cret")
	t.Setenv("SSH_PORT", "2200")
	t.Setenv("INFRAHUB_URL", "https://infrahub.example")
	t.Setenv("INFRAHUB_API_TOKEN", "token-1")
	t.Setenv("INFRAHUB_TLS_INSECURE", "true")
	t.Setenv("SYSVERS_DETECT_BATCH_CONCURRENCY", "2")

	cfg, err := Load(writeConfig(t, "ssh:\n  username: from-file\n"))
	require.NoError(t, err)

	assert.Equal(t, "admin", cfg.SSH.Username)
	assert.Equal(t, "s3cret", cfg.SSH.Password)
	assert.Equal(t, 2200, cfg.SSH.Port)
	assert.Equal(t, "https://infrahub.example", cfg.Inventory.Infrahub.URL)
	assert.Equal(t, "token-1", cfg.Inventory.Infrahub.Token)
	assert.True(t, cfg.Inventory.Infrahub.TLSInsecure)
	assert.Equal(t, 2, cfg.Detect.BatchConcurrency)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "detect:\n  auto_order: [cisco, vax]\n"))
	assert.ErrorIs(t, err, model.ErrUnknownFamily)
}

func TestLoggerConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log:\n  level: error\n  format: json\n"))
	require.NoError(t, err)

	lc := cfg.LoggerConfig(true)
	assert.Equal(t, "error", lc.Level)
	assert.Equal(t, "json", lc.Format)
	assert.True(t, lc.Verbose)
}
