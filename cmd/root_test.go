// File: cmd/root_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand executes a fresh command tree with args and returns its output.
func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cfgFile = ""
	t.Setenv("WXAUTO_LOCK_FILE", filepath.Join(t.TempDir(), "ui.lock"))

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_VersionFlag(t *testing.T) {
	out, err := runCommand(t, "", "--version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

func TestRootCmd_NoArgs(t *testing.T) {
	out, err := runCommand(t, "")
	require.NoError(t, err)
	assert.Contains(t, out, "wxauto drives the WeChat desktop client")
}

func TestRootCmd_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("automation:\n  language: en\n"), 0o644))

	out, err := runCommand(t, "", "--config", path, "languages")
	require.NoError(t, err)
	assert.Contains(t, out, "* en")
	assert.Contains(t, out, "  cn\n")
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("automation:\n  language: fr\n"), 0o644))

	_, err := runCommand(t, "", "--config", path, "languages")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestRootCmd_LangFlagOverridesEnv(t *testing.T) {
	t.Setenv("WXAUTO_LANGUAGE", "cn_t")
	out, err := runCommand(t, "", "--lang", "en", "languages")
	require.NoError(t, err)
	assert.Contains(t, out, "* en")

	out, err = runCommand(t, "", "languages")
	require.NoError(t, err)
	assert.Contains(t, out, "* cn_t")
}

func TestConfigFromContext(t *testing.T) {
	_, err := configFromContext(context.Background())
	assert.Error(t, err)
}

func TestLanguagesCmd_Keys(t *testing.T) {
	out, err := runCommand(t, "", "languages", "--keys")
	require.NoError(t, err)
	assert.Contains(t, out, `"赞"`)
	assert.Contains(t, out, "timestamp")
}

func TestLockCmd_Check(t *testing.T) {
	out, err := runCommand(t, "", "lock", "check", "--timeout", "100ms")
	require.NoError(t, err)
	assert.Contains(t, out, "free: ")
}

func TestLockCmd_CheckRecordsMetrics(t *testing.T) {
	t.Setenv("WXAUTO_METRICS_ENABLED", "true")
	t.Setenv("WXAUTO_METRICS_NAMESPACE", "wxauto_cmd_test")

	for i := 0; i < 2; i++ {
		_, err := runCommand(t, "", "lock", "check")
		require.NoError(t, err)
	}

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	var samples uint64
	for _, f := range families {
		if f.GetName() == "wxauto_cmd_test_actor_lock_wait_seconds" {
			samples = f.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(2), samples, "repeated runs share the registered collectors")
}

func TestNewRootCommand_IsFresh(t *testing.T) {
	a, b := NewRootCommand(), NewRootCommand()
	assert.NotSame(t, a, b)
	names := func(c *cobra.Command) []string {
		var out []string
		for _, sub := range c.Commands() {
			out = append(out, sub.Name())
		}
		return out
	}
	assert.Subset(t, names(a), []string{"parse", "languages", "lock"})
}
