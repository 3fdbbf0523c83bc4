// pkg/plugin_cli/wrap.go

package plugin_cli

import (
	"context"

	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_err"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RunFunc is the body of a command run inside a RuntimeContext.
type RunFunc func(rc *plugin_io.RuntimeContext, cmd *cobra.Command, args []string) error

// Wrap runs fn inside a RuntimeContext with panic recovery and a span.
// The runtime context is cancelled on SIGINT/SIGTERM, so blocking
// operations return early and fn's deferred calls still run.
func Wrap(fn RunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}

		rc := plugin_io.NewComponentContext(parent, componentOf(cmd), cmd.Name())
		defer rc.End(&err)
		defer rc.HandlePanic(&err)

		handler := NewSignalHandler(rc.Ctx)
		defer handler.Stop()
		rc.Ctx = handler.Context()
		rc.Attributes["command_path"] = cmd.CommandPath()

		rc.Log.Debug("Running command",
			zap.String("command", cmd.CommandPath()),
			zap.Strings("args", args))

		err = fn(rc, cmd, args)
		if err != nil && !plugin_err.IsExpectedUserError(err) {
			err = cerr.WithStack(err)
		}
		return err
	}
}

// componentOf names the command group, e.g. "salt" for "salt-plugin salt ping".
func componentOf(cmd *cobra.Command) string {
	if p := cmd.Parent(); p != nil && p.HasParent() {
		return p.Name()
	}
	return cmd.Name()
}
