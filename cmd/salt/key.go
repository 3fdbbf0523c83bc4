// cmd/salt/key.go

package salt

import (
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_cli"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_io"
	"github.com/spf13/cobra"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage minion keys on the master",
	Long: `Salt uses a PKI system where minions must have their keys accepted by the
master before they can receive commands.

Commands:
  list              - List accepted minion keys
  gen-accept <id>   - Generate and accept a key for <id> unless one is already
                      accepted, and install it into --keys-dir`,
}

var keyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accepted minion keys",
	Args:  cobra.NoArgs,
	RunE: plugin_cli.Wrap(func(rc *plugin_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		_, mgr, err := session(rc, cmd)
		if err != nil {
			return err
		}
		resp, minions, err := mgr.AcceptedMinions(rc.Ctx)
		if err != nil {
			return err
		}
		if err := checkResponse(resp, "key.list"); err != nil {
			return err
		}
		return printResult(cmd, map[string][]string{"accepted": minions})
	}),
}

var keyGenAcceptCmd = &cobra.Command{
	Use:   "gen-accept <id>",
	Short: "Generate, accept and install a minion key",
	Args:  cobra.ExactArgs(1),
	RunE: plugin_cli.Wrap(func(rc *plugin_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		op, mgr, err := session(rc, cmd)
		if err != nil {
			return err
		}
		return op.Authorize(rc.Ctx, mgr, args[0])
	}),
}

func init() {
	keyCmd.AddCommand(keyListCmd, keyGenAcceptCmd)
}
