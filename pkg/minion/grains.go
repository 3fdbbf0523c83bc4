// pkg/minion/grains.go

package minion

import (
	"context"

	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/saltapi"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// AppendGrains appends every configured grain to minion id. A grain that
// cannot be appended is logged and skipped. Returns the names of the
// grains that were appended.
func (o *Operator) AppendGrains(ctx context.Context, mgr *saltapi.Manager, id string) ([]string, error) {
	logger := otelzap.Ctx(ctx)
	if len(o.props.Grains) == 0 {
		return nil, nil
	}

	if resp, _, err := mgr.Ping(ctx, id); err != nil {
		return nil, err
	} else if !resp.OK() {
		logger.Debug("Ping before appending grains failed", zap.String("reason", resp.Reason()))
	}

	var added []string
	for _, g := range o.props.Grains {
		resp, _, err := mgr.AppendGrain(ctx, id, g.Name, g.Value)
		if err != nil {
			return added, err
		}
		if !resp.OK() {
			logger.Warn("Unable to append grain",
				zap.String("grain", g.Name),
				zap.Any("value", g.Value),
				zap.String("reason", resp.Reason()))
			continue
		}
		added = append(added, g.Name)
	}
	logger.Info("Using additional grains", zap.Strings("grains", added))

	resp, all, err := mgr.ListGrains(ctx, id)
	if err != nil {
		return added, err
	}
	if resp.OK() {
		logger.Debug("Complete collection of grains", zap.Any("grains", all))
	}
	return added, nil
}
