// cmd/salt/ping.go

package salt

import (
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_cli"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_io"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var pingCmd = &cobra.Command{
	Use:   "ping [target]",
	Short: "Ping minions with test.ping",
	Long: `Send test.ping to the target (default '*') and print which minions answered.

Examples:
  salt-plugin salt ping
  salt-plugin salt ping 'web*'`,
	Args: cobra.MaximumNArgs(1),
	RunE: plugin_cli.Wrap(func(rc *plugin_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		target := "*"
		if len(args) == 1 {
			target = args[0]
		}

		_, mgr, err := session(rc, cmd)
		if err != nil {
			return err
		}
		resp, minions, err := mgr.Ping(rc.Ctx, target)
		if err != nil {
			return err
		}
		if err := checkResponse(resp, "ping"); err != nil {
			return err
		}
		otelzap.Ctx(rc.Ctx).Info("Ping complete",
			zap.String("target", target),
			zap.Int("responding", len(minions)))
		return printResult(cmd, minions)
	}),
}

var highstateCmd = &cobra.Command{
	Use:   "highstate <target>",
	Short: "Apply the highstate to the target",
	Args:  cobra.ExactArgs(1),
	RunE: plugin_cli.Wrap(func(rc *plugin_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		_, mgr, err := session(rc, cmd)
		if err != nil {
			return err
		}
		resp, result, err := mgr.Highstate(rc.Ctx, args[0])
		if err != nil {
			return err
		}
		if err := checkResponse(resp, "highstate"); err != nil {
			return err
		}
		return printResult(cmd, result)
	}),
}
