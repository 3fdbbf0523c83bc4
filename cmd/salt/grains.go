// cmd/salt/grains.go

package salt

import (
	"strings"

	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/config"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_cli"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_err"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_io"
	"github.com/spf13/cobra"
)

var grainsCmd = &cobra.Command{
	Use:   "grains",
	Short: "Read and append minion grains",
}

var grainsListCmd = &cobra.Command{
	Use:   "list <id>",
	Short: "Print every grain of a minion",
	Args:  cobra.ExactArgs(1),
	RunE: plugin_cli.Wrap(func(rc *plugin_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		_, mgr, err := session(rc, cmd)
		if err != nil {
			return err
		}
		resp, grains, err := mgr.ListGrains(rc.Ctx, args[0])
		if err != nil {
			return err
		}
		if err := checkResponse(resp, "grains.items"); err != nil {
			return err
		}
		return printResult(cmd, grains)
	}),
}

var grainsAppendCmd = &cobra.Command{
	Use:   "append <id>",
	Short: "Append the configured grains, plus any given with --grain, to a minion",
	Long: `Append every grain from the properties, followed by those given as
--grain name=value, to the minion. Grains that cannot be appended are
logged and skipped.

Examples:
  salt-plugin salt grains append web1 --grain roles=web --grain datacenter=fra1`,
	Args: cobra.ExactArgs(1),
	RunE: plugin_cli.Wrap(func(rc *plugin_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		pairs, _ := cmd.Flags().GetStringArray("grain")
		extra, err := parseGrains(pairs)
		if err != nil {
			return err
		}

		op, mgr, err := session(rc, cmd)
		if err != nil {
			return err
		}
		props := op.Properties()
		props.Grains = append(props.Grains, extra...)

		added, err := op.AppendGrains(rc.Ctx, mgr, args[0])
		if err != nil {
			return err
		}
		return printResult(cmd, map[string][]string{"appended": added})
	}),
}

func parseGrains(pairs []string) ([]config.Grain, error) {
	grains := make([]config.Grain, 0, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" || value == "" {
			return nil, plugin_err.NewValidationError("invalid grain "+p, nil, "Use --grain name=value")
		}
		grains = append(grains, config.Grain{Name: name, Value: value})
	}
	return grains, nil
}

func init() {
	grainsAppendCmd.Flags().StringArray("grain", nil, "grain to append as name=value, repeatable")
	grainsCmd.AddCommand(grainsListCmd, grainsAppendCmd)
}
