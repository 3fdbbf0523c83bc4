/* cmd/root.go */

package cmd

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/CodeMonkeyCybersecurity/salt-plugin/cmd/minion"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/cmd/salt"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/config"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_err"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_io"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var registerOnce sync.Once

// RootCmd is the base command for salt-plugin.
var RootCmd = &cobra.Command{
	Use:   "salt-plugin",
	Short: "Salt minion lifecycle and salt-api session tooling",
	Long: `salt-plugin talks to a Salt master through salt-api. It manages salt-api
sessions, calls execution functions and brings new minions into service.

Properties are read from salt-plugin.yaml (in the working directory or
/etc/salt-plugin, or the file given with --config), SALT_PLUGIN_* environment
variables and flags, in increasing order of precedence.

Exit codes: 0 success, 1 failure, 2 invalid configuration or usage,
75 temporary failure worth retrying.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
			logger.InitializeWithFallback(f.Value.String())
		}
	},
}

// HelpCmd wraps help so that it can be invoked like a normal command.
var HelpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Help about any command",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return RootCmd.Help()
		}
		c, _, err := RootCmd.Find(args)
		if err != nil || c == nil {
			return plugin_err.NewValidationError(fmt.Sprintf("command not found: %s", strings.Join(args, " ")), err)
		}
		return c.Help()
	},
}

// RegisterCommands adds all subcommands and persistent flags to the root command.
func RegisterCommands() {
	registerOnce.Do(func() {
		RootCmd.Version = plugin_io.Version
		RootCmd.SetHelpCommand(HelpCmd)
		config.AddPersistentFlags(RootCmd)
		RootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default $LOG_LEVEL or info)")

		for _, subCmd := range []*cobra.Command{
			salt.SaltCmd,
			minion.MinionCmd,
		} {
			RootCmd.AddCommand(subCmd)
		}
	})
}

// Execute runs the root command and returns its error, already logged.
func Execute() error {
	RegisterCommands()

	err := RootCmd.Execute()
	switch {
	case err == nil:
	case plugin_err.IsExpectedUserError(err):
		logger.L().Warn("Command completed with user error", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
	default:
		logger.L().Error("Command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}
