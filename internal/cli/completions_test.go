package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobman-sh/jobman/internal/errs"
)

func TestInstallCompletionsBash(t *testing.T) {
	home := t.TempDir()

	path, installed, err := InstallCompletions("bash", home)
	require.NoError(t, err)
	assert.True(t, installed)
	assert.Equal(t, filepath.Join(home, ".bashrc"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "completion bash")
	assert.Contains(t, string(data), completionSentinel)
}

func TestInstallCompletionsIdempotent(t *testing.T) {
	home := t.TempDir()

	_, installed, err := InstallCompletions("zsh", home)
	require.NoError(t, err)
	assert.True(t, installed)

	path, installed, err := InstallCompletions("zsh", home)
	require.NoError(t, err)
	assert.False(t, installed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), completionSentinel))
}

func TestInstallCompletionsPreservesExistingRC(t *testing.T) {
	home := t.TempDir()
	rc := filepath.Join(home, ".bashrc")
	require.NoError(t, os.WriteFile(rc, []byte("export FOO=1"), 0o644))

	_, _, err := InstallCompletions("bash", home)
	require.NoError(t, err)

	data, err := os.ReadFile(rc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "export FOO=1\n"))
	assert.Contains(t, string(data), completionSentinel)
}

func TestInstallCompletionsFish(t *testing.T) {
	home := t.TempDir()

	path, installed, err := InstallCompletions("fish", home)
	require.NoError(t, err)
	assert.True(t, installed)
	assert.Equal(t,
		filepath.Join(home, ".config", "fish", "completions", "jobman.fish"), path)
	assert.FileExists(t, path)
}

func TestInstallCompletionsUnsupportedShell(t *testing.T) {
	_, _, err := InstallCompletions("tcsh", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, errs.CodeUnavailable, errs.ExitCode(err))
}

func TestInstallCompletionsInfersFromEnv(t *testing.T) {
	t.Setenv("SHELL", "/usr/bin/zsh")
	home := t.TempDir()

	path, _, err := InstallCompletions("", home)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".zshrc"), path)
}

func TestInstallCompletionsNoShellEnv(t *testing.T) {
	t.Setenv("SHELL", "")

	_, _, err := InstallCompletions("", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, errs.CodeNotFound, errs.ExitCode(err))
}
