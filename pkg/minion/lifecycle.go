// pkg/minion/lifecycle.go

package minion

import (
	"context"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Start brings a freshly installed minion into service: it resolves the
// minion ID, authorizes the minion key, appends the configured grains,
// waits for the minion to answer and applies the highstate. The token is
// invalidated afterwards whatever the outcome.
func (o *Operator) Start(ctx context.Context) error {
	logger := otelzap.Ctx(ctx)

	if err := o.props.Validate(); err != nil {
		return err
	}

	id, err := o.ResolveMinionID(ctx)
	if err != nil {
		return err
	}

	mgr, err := o.NewManager(ctx, true)
	if err != nil {
		return err
	}
	defer o.LogOut(context.WithoutCancel(ctx), mgr)

	if err := o.Authorize(ctx, mgr, id); err != nil {
		return err
	}
	// Highstate may depend on grains, so they go first.
	if _, err := o.AppendGrains(ctx, mgr, id); err != nil {
		return err
	}
	if err := o.WaitForMinion(ctx, mgr, id); err != nil {
		return err
	}
	if err := o.ExecuteInitialState(ctx, mgr, id); err != nil {
		return err
	}

	logger.Info("Minion started", zap.String("minion_id", id))
	return nil
}

// Stop leaves the salt-minion service running: several minions may share
// one host.
func (o *Operator) Stop(ctx context.Context) error {
	if err := o.props.Validate(); err != nil {
		return err
	}
	otelzap.Ctx(ctx).Info("Nothing to do: the salt-minion service is not stopped since other minions may run on the same host")
	return nil
}
