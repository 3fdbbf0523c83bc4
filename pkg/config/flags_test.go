package config

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SALT_PLUGIN_SALT_API_URL", "http://env:8000")
	t.Setenv("SALT_PLUGIN_MINION_ID", "from-env")

	path := writeFile(t, "props.yaml", "salt_api_url: http://file:8000\nping:\n  attempts: 4\n")
	state := filepath.Join(t.TempDir(), "state.yaml")

	root := &cobra.Command{Use: "salt-plugin"}
	AddPersistentFlags(root)
	require.NoError(t, root.ParseFlags([]string{
		"--config", path,
		"--salt-api-url", "http://flag:8000",
		"--state", state,
	}))

	props, err := FromCommand(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, "http://flag:8000", props.SaltAPIURL)
	assert.Equal(t, "from-env", props.MinionID)
	assert.Equal(t, 4, props.Ping.Attempts)
	assert.Equal(t, state, props.StatePath)
	assert.Equal(t, DefaultMinionKeysDir, props.MinionKeysDir)
}

func TestFromCommand_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	root := &cobra.Command{Use: "salt-plugin"}
	AddPersistentFlags(root)
	require.NoError(t, root.ParseFlags([]string{"--salt-api-url", "not a url"}))

	_, err := FromCommand(context.Background(), root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "salt_api_url")
}

func TestFromCommand_PingAttempts(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeFile(t, "props.yaml", "salt_api_url: http://file:8000\nping:\n  attempts: 4\n")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "file wins over flag default", args: []string{"--config", path}, want: 4},
		{name: "flag wins over file", args: []string{"--config", path, "--ping-attempts", "7"}, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := &cobra.Command{Use: "salt-plugin"}
			AddPersistentFlags(root)
			start := &cobra.Command{Use: "start", Run: func(*cobra.Command, []string) {}}
			AddPingFlags(start)
			root.AddCommand(start)

			require.NoError(t, start.ParseFlags(append(tt.args, "--state", filepath.Join(t.TempDir(), "state.yaml"))))
			props, err := FromCommand(context.Background(), start)
			require.NoError(t, err)
			assert.Equal(t, tt.want, props.Ping.Attempts)
		})
	}
}
