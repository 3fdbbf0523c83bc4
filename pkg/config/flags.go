// pkg/config/flags.go

package config

import (
	"context"

	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/cli"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_err"
	"github.com/spf13/cobra"
)

const (
	FlagConfig  = "config"
	FlagEnvFile = "env-file"
)

// FlagPingAttempts is the local flag of the commands that wait for a minion.
const FlagPingAttempts = "ping-attempts"

// flagKeys maps flags to property keys. Flags a command does not define
// are skipped.
var flagKeys = map[string]string{
	"salt-api-url":   "salt_api_url",
	"minion-id":      "minion_id",
	"state":          "state_path",
	"keys-dir":       "minion_keys_dir",
	FlagPingAttempts: "ping.attempts",
}

// AddPersistentFlags registers the property flags on the root command.
func AddPersistentFlags(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	fs.String(FlagConfig, "", "properties file (default: salt-plugin.yaml in . or /etc/salt-plugin)")
	fs.String(FlagEnvFile, ".env", "dotenv file loaded before the environment is read")
	fs.String("salt-api-url", "", "salt-api base URL, e.g. http://salt-master:8000")
	fs.String("minion-id", "", "minion ID (default: recorded, instance or generated ID)")
	fs.String("state", DefaultStatePath, "file keeping the minion ID and token between runs")
	fs.String("keys-dir", DefaultMinionKeysDir, "directory receiving generated minion keys")
}

// AddPingFlags registers the flags tuning the wait for a minion on cmd.
func AddPingFlags(cmd *cobra.Command) {
	cli.AddIntFlag(cmd, FlagPingAttempts, "", DefaultPingAttempts,
		"test.ping attempts before the minion is reported as not responding")
}

// FromCommand loads the properties for cmd. Flags win over the
// environment, which wins over the properties file.
func FromCommand(ctx context.Context, cmd *cobra.Command) (*Properties, error) {
	v := NewViper()
	if err := cli.BindFlagsToViper(cmd, v, flagKeys); err != nil {
		return nil, plugin_err.NewInternalError("unable to bind flags", err)
	}
	configFile, _ := cmd.Flags().GetString(FlagConfig)
	envFile, _ := cmd.Flags().GetString(FlagEnvFile)
	return Load(ctx, v, configFile, envFile)
}
