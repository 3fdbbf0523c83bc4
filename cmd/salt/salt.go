// cmd/salt/salt.go

// Package salt holds the commands working directly with salt-api sessions
// and execution functions.
package salt

import (
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/cli"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/config"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/minion"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_err"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_io"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/saltapi"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// SaltCmd groups the salt-api commands.
var SaltCmd = &cobra.Command{
	Use:   "salt",
	Short: "Work with salt-api sessions and execution functions",
	Long: `Log in to salt-api, call execution functions and manage minion keys and grains.

The token obtained by "salt login" is recorded in the state file and reused by
the other commands until it expires.

Examples:
  salt-plugin salt login
  salt-plugin salt ping 'web*'
  salt-plugin salt call --fun cmd.run --tgt web1 --arg 'uptime'
  salt-plugin salt logout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ShowHelp(cmd)
	},
}

func init() {
	SaltCmd.AddCommand(loginCmd, logoutCmd, callCmd, pingCmd, highstateCmd, keyCmd, grainsCmd)
}

func newOperator(rc *plugin_io.RuntimeContext, cmd *cobra.Command) (*minion.Operator, error) {
	props, err := config.FromCommand(rc.Ctx, cmd)
	if err != nil {
		return nil, err
	}
	return minion.NewOperator(props, config.NewStateStore(props.StatePath), logger.L()), nil
}

// session returns a logged-in manager, reusing a recorded token when possible.
func session(rc *plugin_io.RuntimeContext, cmd *cobra.Command) (*minion.Operator, *saltapi.Manager, error) {
	op, err := newOperator(rc, cmd)
	if err != nil {
		return nil, nil, err
	}
	mgr, err := op.NewManager(rc.Ctx, true)
	if err != nil {
		return nil, nil, err
	}
	return op, mgr, nil
}

func checkResponse(resp *saltapi.Response, what string) error {
	if resp.OK() {
		return nil
	}
	return plugin_err.NewNonRecoverableError(what+" failed", plugin_err.WrapSaltAPIError(cerr.New(resp.Reason())))
}

// printResult writes v to the command output as YAML.
func printResult(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return cerr.Wrap(err, "write result")
	}
	return enc.Close()
}
