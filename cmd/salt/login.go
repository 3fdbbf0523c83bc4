// cmd/salt/login.go

package salt

import (
	"time"

	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/config"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_cli"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_err"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_io"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/saltapi"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Open a salt-api session and record the token",
	Args:  cobra.NoArgs,
	RunE: plugin_cli.Wrap(func(rc *plugin_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		op, err := newOperator(rc, cmd)
		if err != nil {
			return err
		}
		mgr, err := op.NewManager(rc.Ctx, false)
		if err != nil {
			return err
		}
		token := mgr.Token()
		otelzap.Ctx(rc.Ctx).Info("Logged in to salt-api",
			zap.String("user", token.User()),
			zap.Time("expires", token.ExpiresAt()))

		return printResult(cmd, map[string]any{
			"token":   token.Token,
			"user":    token.User(),
			"expires": token.ExpiresAt().UTC().Format(time.RFC3339),
			"state":   op.Properties().StatePath,
		})
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Invalidate the recorded token",
	Long: `Invalidate the token recorded in the state file, or the one configured in the
properties when none is recorded. The token is removed from the state file
whatever salt-api answers.

With --silent a missing or expired token is not an error.`,
	Args: cobra.NoArgs,
	RunE: plugin_cli.Wrap(func(rc *plugin_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		silent, _ := cmd.Flags().GetBool("silent")
		validation := saltapi.Throw
		if silent {
			validation = saltapi.SilentlyIgnore
		}

		props, err := config.FromCommand(rc.Ctx, cmd)
		if err != nil {
			return err
		}
		store := config.NewStateStore(props.StatePath)
		st, err := store.Load(rc.Ctx)
		if err != nil {
			return plugin_err.NewRecoverableError("unable to read plugin state", err)
		}

		cfg := props.ManagerConfig()
		if st.Token != nil {
			cfg.Token = st.Token
		}
		mgr, err := saltapi.New(cfg)
		if err != nil {
			return err
		}

		resp, result, err := mgr.LogOut(rc.Ctx, validation)
		if _, uerr := store.Update(rc.Ctx, func(s *config.State) { s.Token = nil }); uerr != nil {
			otelzap.Ctx(rc.Ctx).Warn("Unable to remove token from state", zap.Error(uerr))
		}
		switch {
		case saltapi.IsReason(err, saltapi.NoTokenToClear), saltapi.IsReason(err, saltapi.TokenHasExpired):
			return plugin_err.NewValidationError("no valid token to invalidate", err,
				"Use --silent to ignore a missing or expired token")
		case err != nil:
			return err
		case resp == nil:
			return nil
		}
		if err := checkResponse(resp, "logout"); err != nil {
			return err
		}
		return printResult(cmd, result)
	}),
}

func init() {
	logoutCmd.Flags().Bool("silent", false, "do not fail when there is no valid token")
}
