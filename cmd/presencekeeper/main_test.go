package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCheckConfigCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(good, []byte(`{
		"choose_random_online_status_from": ["online"],
		"choose_random_activity_type_from": ["custom"],
		"custom": {"choose_random_name_from": ["Testing"]}
	}`), 0o600))
	require.NoError(t, os.WriteFile(bad, []byte(`{"choose_random_online_status_from": ["away"]}`), 0o600))

	cmd := CheckConfigCommand(zaptest.NewLogger(t))
	cmd.SetArgs([]string{good})
	assert.NoError(t, cmd.Execute())

	cmd = CheckConfigCommand(zaptest.NewLogger(t))
	cmd.SilenceUsage = true
	cmd.SetArgs([]string{bad})
	assert.Error(t, cmd.Execute())
}

func TestRunCommandFlags(t *testing.T) {
	cmd := RunCommand(zaptest.NewLogger(t))
	for name, want := range map[string]string{
		"tokens":  "tokens.txt",
		"config":  "config.json",
		"gateway": "wss://gateway.discord.gg/?v=10&encoding=json",
	} {
		f := cmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, want, f.DefValue)
	}
}
