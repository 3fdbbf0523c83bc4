// cmd/salt/call.go

package salt

import (
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/cli"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_cli"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_err"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_io"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/saltapi"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Call an execution function, or a batch of them",
	Long: `Send one command built from the flags, or the batch of commands read from a
YAML file, to salt-api and print the result.

A batch file is a YAML list of lowstate chunks:

  - client: local
    tgt: web1
    fun: grains.append
    arg: [roles, web]
  - fun: test.ping
    tgt: '*'

Commands without a client use "local".

Examples:
  salt-plugin salt call --fun test.ping --tgt '*'
  salt-plugin salt call --client runner --fun manage.up
  salt-plugin salt call --batch commands.yaml`,
	Args: cobra.NoArgs,
	RunE: plugin_cli.Wrap(func(rc *plugin_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		logger := otelzap.Ctx(rc.Ctx)
		flags := cmd.Flags()
		batchFile, _ := flags.GetString("batch")
		asJSON, _ := flags.GetBool("json")

		var (
			fn     any
			action = saltapi.RawInterpretation
		)
		if batchFile != "" {
			var chunks []map[string]any
			if err := plugin_io.ReadYAML(rc.Ctx, batchFile, &chunks); err != nil {
				return plugin_err.NewValidationError("unable to read batch file", err)
			}
			fn, action = chunks, saltapi.InterpretAsCollection
			logger.Info("Calling batch", zap.String("file", batchFile), zap.Int("commands", len(chunks)))
		} else {
			fun, err := cli.GetRequiredString(cmd, "fun")
			if err != nil {
				return err
			}
			c := saltapi.Command{Function: fun}
			c.Client, _ = flags.GetString("client")
			c.Target, _ = flags.GetString("tgt")
			c.TargetType, _ = flags.GetString("tgt-type")
			argv, _ := flags.GetStringSlice("arg")
			for _, a := range argv {
				c.Arg = append(c.Arg, a)
			}
			fn = c
			logger.Info("Calling function", zap.String("fun", c.Function), zap.String("tgt", c.Target))
		}

		_, mgr, err := session(rc, cmd)
		if err != nil {
			return err
		}
		resp, result, err := mgr.Call(rc.Ctx, fn, action, !asJSON)
		if err != nil {
			var invalid *saltapi.InvalidArgumentError
			if cerr.As(err, &invalid) {
				return plugin_err.NewValidationError("nothing to send", plugin_err.WrapValidationError(err),
					"Give --fun, or a --batch file holding at least one command")
			}
			return err
		}
		if err := checkResponse(resp, "call"); err != nil {
			return err
		}
		return printResult(cmd, result)
	}),
}

func init() {
	cli.AddStringFlag(callCmd, "fun", "f", "", "execution function, e.g. test.ping", false)
	cli.AddStringFlag(callCmd, "tgt", "t", "", "minion target", false)
	cli.AddStringFlag(callCmd, "tgt-type", "", "", "target type, e.g. glob, list, grain", false)
	cli.AddStringFlag(callCmd, "client", "c", saltapi.DefaultClient, "salt-api client: local, local_async, runner or wheel", false)
	cli.AddStringSliceFlag(callCmd, "arg", "a", nil, "positional argument, repeatable", false)
	cli.AddStringFlag(callCmd, "batch", "b", "", "YAML file holding a list of commands", false)
	cli.AddBoolFlag(callCmd, "json", "", false, "send the request body as JSON instead of YAML")
	callCmd.MarkFlagsMutuallyExclusive("batch", "fun")
}
