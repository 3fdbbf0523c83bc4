// pkg/minion/operator.go

// Package minion drives the lifecycle of a salt minion through salt-api:
// key authorization, grains, waiting for the minion to answer and the
// initial highstate.
package minion

import (
	"context"
	"fmt"

	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/config"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_err"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/saltapi"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Operator runs lifecycle operations for one minion node.
type Operator struct {
	props   *config.Properties
	store   *config.StateStore
	logger  *zap.Logger
	breaker *gobreaker.CircuitBreaker
}

// NewOperator creates an operator. logger is handed to the session manager
// when logger_injection is configured; it may be nil.
func NewOperator(props *config.Properties, store *config.StateStore, logger *zap.Logger) *Operator {
	return &Operator{
		props:   props,
		store:   store,
		logger:  logger,
		breaker: newAPIBreaker(),
	}
}

// Properties returns the properties the operator was built with.
func (o *Operator) Properties() *config.Properties { return o.props }

// ResolveMinionID returns the minion ID recorded in state, else the one
// configured, else the node's instance ID, else a generated one. The
// result is recorded in state.
func (o *Operator) ResolveMinionID(ctx context.Context) (string, error) {
	logger := otelzap.Ctx(ctx)

	st, err := o.store.Load(ctx)
	if err != nil {
		return "", plugin_err.NewRecoverableError("unable to read plugin state", err)
	}
	if st.MinionID != "" {
		return st.MinionID, nil
	}

	id := o.props.MinionID
	switch {
	case id != "":
	case st.InstanceID != "":
		id = st.InstanceID
	default:
		id = "minion-" + uuid.New().String()
	}

	if _, err := o.store.Update(ctx, func(s *config.State) { s.MinionID = id }); err != nil {
		return "", plugin_err.NewRecoverableError("unable to record minion ID", err)
	}
	logger.Info("Resolved minion ID", zap.String("minion_id", id))
	return id, nil
}

// NewManager returns a logged-in session manager. With reuseToken a valid
// token from state or properties is used instead of logging in again.
// A new token is recorded in state.
func (o *Operator) NewManager(ctx context.Context, reuseToken bool) (*saltapi.Manager, error) {
	logger := otelzap.Ctx(ctx)

	cfg := o.props.ManagerConfig()
	cfg.Token = nil
	if o.props.LoggerInjection != nil {
		cfg.Logger = o.logger
	}

	if reuseToken {
		st, err := o.store.Load(ctx)
		if err != nil {
			return nil, plugin_err.NewRecoverableError("unable to read plugin state", err)
		}
		switch {
		case st.Token.Valid():
			cfg.Token = st.Token
		case o.props.Token.Valid():
			cfg.Token = o.props.Token
		}
	}

	mgr, err := saltapi.New(cfg)
	if err != nil {
		return nil, err
	}

	if !mgr.LoggedIn() {
		logger.Info("Connecting to Salt API", zap.String("url", cfg.APIURL))
		resp, token, err := mgr.LogIn(ctx, nil, nil)
		if err != nil {
			if saltapi.IsReason(err, saltapi.NoAuthData) {
				return nil, plugin_err.NewValidationError("no salt-api credentials configured", err,
					"Set salt_api_auth_data (eauth, username, password) or provide a valid token")
			}
			return nil, err
		}
		if token == nil {
			return nil, plugin_err.NewNonRecoverableError("unable to connect with Salt API",
				fmt.Errorf("login failed: %s", resp.Reason()),
				"Check salt_api_url and the eauth credentials")
		}
		if _, err := o.store.Update(ctx, func(s *config.State) { s.Token = token }); err != nil {
			logger.Warn("Unable to record token in state", zap.Error(err))
		}
		logger.Info("Connected to Salt API")
	}

	// Warm-up ping; the result is not used.
	if resp, _, err := mgr.Ping(ctx, "*"); err != nil || !resp.OK() {
		logger.Debug("Warm-up ping failed", zap.String("reason", resp.Reason()), zap.Error(err))
	}
	return mgr, nil
}

// LogOut invalidates the manager's token, if any, and removes it from state.
func (o *Operator) LogOut(ctx context.Context, mgr *saltapi.Manager) {
	logger := otelzap.Ctx(ctx)

	resp, _, err := mgr.LogOut(ctx, saltapi.SilentlyIgnore)
	switch {
	case err != nil:
		logger.Warn("Unable to clear token", zap.Error(err))
	case resp == nil:
	case resp.OK():
		logger.Debug("Token has been cleared")
	default:
		logger.Warn("Unable to clear token", zap.String("reason", resp.Reason()))
	}

	if _, err := o.store.Update(ctx, func(s *config.State) { s.Token = nil }); err != nil {
		logger.Warn("Unable to remove token from state", zap.Error(err))
	}
}
