package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobman-sh/jobman/internal/errs"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadFile(filepath.Join(t.TempDir(), "config.yml"))
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.GCExpiryDays)
	assert.Equal(t, 7*24*time.Hour, cfg.GCExpiry())
	assert.Empty(t, cfg.Sinks)
	assert.Equal(t, filepath.Join(cfg.StoragePath, "db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(cfg.StoragePath, "stdio"), cfg.StdioPath)
}

func TestLoadValidFile(t *testing.T) {
	path := writeConfig(t, `
storage_path: /tmp/jobman-test
gc_expiry_days: 3
notification_sinks:
  - name: audit
    type: file
    target: /tmp/audit.jsonl
`)

	cfg, err := loadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/jobman-test", cfg.StoragePath)
	assert.Equal(t, "/tmp/jobman-test/db", cfg.DBPath)
	assert.Equal(t, 3, cfg.GCExpiryDays)
	require.Len(t, cfg.Sinks, 1)
	assert.Equal(t, "audit", cfg.Sinks[0].Name)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "storage_path: /tmp/x\nsurprise_key: 1\n")

	_, err := loadFile(path)
	require.Error(t, err)
	assert.Equal(t, errs.CodeConfig, errs.ExitCode(err))
}

func TestLoadRejectsBadSink(t *testing.T) {
	path := writeConfig(t, `
notification_sinks:
  - name: hook
    type: webhook
    target: http://example.com
`)

	_, err := loadFile(path)
	require.Error(t, err)
	assert.Equal(t, errs.CodeConfig, errs.ExitCode(err))
}

func TestValidateNegativeExpiry(t *testing.T) {
	cfg := Default()
	cfg.GCExpiryDays = -1
	assert.Error(t, cfg.Validate())
}

func TestDirHonorsEnvOverride(t *testing.T) {
	t.Setenv(ConfigHomeEnv, "/tmp/jobman-config-home")
	assert.Equal(t, "/tmp/jobman-config-home", Dir())
}

func TestRunLogDir(t *testing.T) {
	cfg := Default()
	cfg.StoragePath = "/data/jobman"
	cfg.derivePaths()
	assert.Equal(t, "/data/jobman/stdio/abcd1234/2", cfg.RunLogDir("abcd1234", 2))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x"), expandHome("~/x"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
}
