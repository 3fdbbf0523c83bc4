// pkg/minion/wait.go

package minion

import (
	"context"
	"errors"
	"time"

	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_err"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/saltapi"
	"github.com/avast/retry-go/v4"
	cerr "github.com/cockroachdb/errors"
	"github.com/sony/gobreaker"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// BreakerFailures is the number of consecutive failed salt-api exchanges
// after which salt-api is considered unreachable.
const BreakerFailures = 3

var errMinionSilent = errors.New("minion did not answer test.ping")

// apiFailure marks an exchange with salt-api that failed, as opposed to an
// exchange in which the minion simply did not answer.
type apiFailure struct {
	reason string
}

func (e *apiFailure) Error() string { return "salt-api request failed: " + e.reason }

func newAPIBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "salt-api",
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			otelzap.L().Debug("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

// WaitForMinion pings id until it answers. Attempts and the delay between
// them come from the ping properties. If salt-api itself keeps failing the
// wait is abandoned as non-recoverable; a minion that stays silent is a
// recoverable failure.
func (o *Operator) WaitForMinion(ctx context.Context, mgr *saltapi.Manager, id string) error {
	logger := otelzap.Ctx(ctx)
	logger.Info("Pinging minion", zap.String("minion_id", id),
		zap.Int("attempts", o.props.Ping.Attempts),
		zap.Duration("interval", o.props.Ping.Interval))

	err := retry.Do(
		func() error { return o.pingOnce(ctx, mgr, id) },
		retry.Context(ctx),
		retry.Attempts(uint(o.props.Ping.Attempts)),
		retry.Delay(o.props.Ping.Interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug("Minion not ready yet",
				zap.String("minion_id", id),
				zap.Uint("attempt", n+1),
				zap.Error(err))
		}),
	)
	if err == nil {
		logger.Info("Minion responded", zap.String("minion_id", id))
		return nil
	}

	var apiErr *apiFailure
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return plugin_err.NewNonRecoverableError("Salt API unreachable", err,
			"Check that salt-api is running and reachable at "+o.props.SaltAPIURL)
	case ctx.Err() != nil:
		return cerr.Wrap(ctx.Err(), "waiting for minion "+id)
	case errors.As(err, &apiErr):
		return plugin_err.NewRecoverableError(id+" does not respond", err)
	case errors.Is(err, errMinionSilent):
		return plugin_err.NewRecoverableError(id+" does not respond", err,
			"Check that the salt-minion service is running on the node")
	default:
		return err
	}
}

func (o *Operator) pingOnce(ctx context.Context, mgr *saltapi.Manager, id string) error {
	var answered bool
	_, err := o.breaker.Execute(func() (interface{}, error) {
		resp, minions, err := mgr.Ping(ctx, id)
		if err != nil {
			return nil, err
		}
		if !resp.OK() {
			return nil, &apiFailure{reason: resp.Reason()}
		}
		answered = minions[id]
		return nil, nil
	})
	switch {
	case err == nil && answered:
		return nil
	case err == nil:
		return errMinionSilent
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return retry.Unrecoverable(err)
	case saltapi.IsReason(err, saltapi.NoCommandSpecified), saltapi.IsReason(err, saltapi.UnsupportedCommandType):
		return retry.Unrecoverable(err)
	default:
		return err
	}
}

// ExecuteInitialState applies the highstate to id.
func (o *Operator) ExecuteInitialState(ctx context.Context, mgr *saltapi.Manager, id string) error {
	logger := otelzap.Ctx(ctx)
	logger.Info("Executing highstate", zap.String("minion_id", id))

	resp, result, err := mgr.Highstate(ctx, id)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return plugin_err.NewNonRecoverableError("unable to execute highstate on minion "+id,
			cerr.New(resp.Reason()))
	}
	logger.Info("Executed highstate", zap.String("minion_id", id))
	logger.Debug("Highstate result", zap.Any("result", result))
	return nil
}
