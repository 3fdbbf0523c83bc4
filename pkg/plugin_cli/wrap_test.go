package plugin_cli

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_err"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_io"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newCommand(run RunFunc) *cobra.Command {
	root := &cobra.Command{Use: "salt-plugin"}
	group := &cobra.Command{Use: "salt"}
	cmd := &cobra.Command{Use: "ping", RunE: Wrap(run)}
	group.AddCommand(cmd)
	root.AddCommand(group)
	return cmd
}

func TestWrap(t *testing.T) {
	logger.SetLogger(zaptest.NewLogger(t))

	t.Run("passes runtime context", func(t *testing.T) {
		var got *plugin_io.RuntimeContext
		cmd := newCommand(func(rc *plugin_io.RuntimeContext, cmd *cobra.Command, args []string) error {
			got = rc
			assert.Equal(t, []string{"web1"}, args)
			return nil
		})
		require.NoError(t, cmd.RunE(cmd, []string{"web1"}))
		require.NotNil(t, got)
		assert.Equal(t, "salt", got.Component)
		assert.Equal(t, "ping", got.Command)
		assert.Equal(t, "salt-plugin salt ping", got.Attributes["command_path"])
	})

	t.Run("recovers panics", func(t *testing.T) {
		cmd := newCommand(func(*plugin_io.RuntimeContext, *cobra.Command, []string) error {
			panic("kaboom")
		})
		err := cmd.RunE(cmd, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kaboom")
	})

	t.Run("keeps classification", func(t *testing.T) {
		cmd := newCommand(func(*plugin_io.RuntimeContext, *cobra.Command, []string) error {
			return plugin_err.NewRecoverableError("minion silent", nil)
		})
		err := cmd.RunE(cmd, nil)
		assert.True(t, plugin_err.IsRecoverable(err))
		assert.Equal(t, 75, plugin_err.GetExitCode(err))
	})

	t.Run("user errors unchanged", func(t *testing.T) {
		want := plugin_err.NewValidationError("bad", errors.New("x"))
		cmd := newCommand(func(*plugin_io.RuntimeContext, *cobra.Command, []string) error {
			return want
		})
		assert.Same(t, want, cmd.RunE(cmd, nil))
	})
}

func TestSignalHandler(t *testing.T) {
	logger.SetLogger(zaptest.NewLogger(t))

	h := NewSignalHandler(context.Background())
	defer h.Stop()

	h.sigChan <- syscall.SIGTERM

	select {
	case <-h.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled")
	}
	assert.ErrorIs(t, h.Context().Err(), context.Canceled)
}

func TestWrap_SignalCancelsContext(t *testing.T) {
	logger.SetLogger(zaptest.NewLogger(t))

	started := make(chan struct{})
	cmd := newCommand(func(rc *plugin_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		close(started)
		<-rc.Ctx.Done()
		return plugin_err.NewRecoverableError("interrupted", rc.Ctx.Err())
	})

	go func() {
		<-started
		if p, err := os.FindProcess(os.Getpid()); err == nil {
			_ = p.Signal(os.Interrupt)
		}
	}()

	err := cmd.RunE(cmd, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSignalHandler_StopIsIdempotent(t *testing.T) {
	h := NewSignalHandler(context.Background())
	h.Stop()
	h.Stop()
	assert.Error(t, h.Context().Err())
}
