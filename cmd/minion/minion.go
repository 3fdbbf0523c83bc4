// cmd/minion/minion.go

// Package minion holds the lifecycle commands run on a minion node.
package minion

import (
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/cli"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/config"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/logger"
	lifecycle "github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/minion"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_cli"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_io"
	"github.com/spf13/cobra"
)

// MinionCmd groups the minion lifecycle operations.
var MinionCmd = &cobra.Command{
	Use:   "minion",
	Short: "Minion lifecycle operations",
	Long: `Bring a freshly installed salt minion into service, or take it out.

"start" authorizes the minion key on the master, appends the configured
grains, waits for the minion to answer test.ping and applies the highstate.
A minion that does not answer in time exits with code 75 so the caller can
retry; salt-api failures exit with code 1.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ShowHelp(cmd)
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Authorize the minion, append grains, wait for it and apply the highstate",
	Args:  cobra.NoArgs,
	RunE: plugin_cli.Wrap(func(rc *plugin_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		op, err := newOperator(rc, cmd)
		if err != nil {
			return err
		}
		return op.Start(rc.Ctx)
	}),
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the minion (the salt-minion service is left running)",
	Args:  cobra.NoArgs,
	RunE: plugin_cli.Wrap(func(rc *plugin_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		op, err := newOperator(rc, cmd)
		if err != nil {
			return err
		}
		return op.Stop(rc.Ctx)
	}),
}

func newOperator(rc *plugin_io.RuntimeContext, cmd *cobra.Command) (*lifecycle.Operator, error) {
	props, err := config.FromCommand(rc.Ctx, cmd)
	if err != nil {
		return nil, err
	}
	return lifecycle.NewOperator(props, config.NewStateStore(props.StatePath), logger.L()), nil
}

func init() {
	config.AddPingFlags(startCmd)
	MinionCmd.AddCommand(startCmd, stopCmd)
}
