// pkg/saltapi/manager.go

// Package saltapi manages a session with Salt's REST API (rest_cherrypy):
// logging in, keeping the token, translating commands into lowstate
// requests and logging out.
//
// Contract violations such as logging out without a token are returned as
// errors (LogicError, InvalidArgumentError). Remote failures such as bad
// credentials or an unreachable API are returned as a *Response whose OK
// method reports false, paired with a nil result.
package saltapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/httpclient"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_err"
	"go.uber.org/zap"
)

// Config holds the construction parameters of a Manager.
type Config struct {
	// APIURL is the base URL of salt-api, e.g. https://salt:8000. Required.
	APIURL string
	// AuthData is used by LogIn when no explicit payload is given.
	AuthData *AuthData
	// Token is a previously obtained token to reuse.
	Token *Token
	// Session configures the HTTP client created on first use.
	Session *httpclient.Config
	// Logger, if set, receives debug output through a child logger.
	Logger *zap.Logger
	// LogLevel overrides the child logger's level (debug, info, warning, error, critical).
	LogLevel string
	// ShowAuthData disables masking of the auth payload in logs.
	ShowAuthData bool
}

// Manager is a salt-api session. It is meant for one caller issuing
// requests sequentially and is not safe for concurrent use.
type Manager struct {
	apiURL         string
	authData       *AuthData
	token          *Token
	session        *http.Client
	sessionOptions *httpclient.Config
	logger         *zap.Logger
	showAuthData   bool
}

// New creates a manager. No connection is opened.
func New(cfg Config) (*Manager, error) {
	if strings.TrimSpace(cfg.APIURL) == "" {
		return nil, plugin_err.NewValidationError("salt-api URL is required", nil,
			"Set salt_api_url to the address of salt-api, e.g. http://salt-master:8000")
	}
	logger, err := setUpLogger(cfg.Logger, cfg.LogLevel)
	if err != nil {
		return nil, plugin_err.NewValidationError("invalid manager log level", err,
			"Use one of: debug, info, warning, error, critical")
	}
	return &Manager{
		apiURL:         cfg.APIURL,
		authData:       cfg.AuthData,
		token:          cfg.Token,
		sessionOptions: cfg.Session,
		logger:         logger,
		showAuthData:   cfg.ShowAuthData,
	}, nil
}

// APIURL returns the base URL of salt-api.
func (m *Manager) APIURL() string { return m.apiURL }

// Token returns the current token, or nil.
func (m *Manager) Token() *Token { return m.token }

// AuthData returns the stored auth payload, or nil.
func (m *Manager) AuthData() *AuthData { return m.authData }

// HasSession reports whether an HTTP session is currently open.
func (m *Manager) HasSession() bool { return m.session != nil }

// LoggedIn reports whether a token is held and currently valid.
func (m *Manager) LoggedIn() bool {
	return m.token != nil && m.token.Valid()
}

// OpenSession creates the HTTP session if there is none yet.
func (m *Manager) OpenSession() error {
	if m.session != nil {
		return nil
	}
	client, err := httpclient.NewClient(m.sessionOptions)
	if err != nil {
		return plugin_err.NewValidationError("invalid session options", err)
	}
	m.session = client
	return nil
}

func (m *Manager) closeSession() {
	if m.session != nil {
		m.session.CloseIdleConnections()
		m.session = nil
	}
}

// LogIn opens a session. Non-nil arguments replace the stored auth data
// and session options. A failed login leaves the token untouched and
// returns the response with a nil token.
func (m *Manager) LogIn(ctx context.Context, authData *AuthData, sessionOptions *httpclient.Config) (*Response, *Token, error) {
	if authData != nil {
		m.authData = authData
	}
	if sessionOptions != nil {
		m.sessionOptions = sessionOptions
	}
	if m.authData == nil {
		m.logger.Error("log in: missing auth data")
		return nil, nil, newLogicError(NoAuthData)
	}
	if err := m.OpenSession(); err != nil {
		return nil, nil, err
	}

	m.logger.Debug("log in: logging in",
		zap.Any("auth_data", m.authData.covered(m.showAuthData)),
		zap.Any("session_options", m.sessionOptions))

	resp, token := sendLoginRequest(ctx, m.session, m.apiURL, m.authData, m.logger)
	if token == nil {
		m.logger.Info("log in: failed to log in", resp.logFields()...)
		return resp, nil, nil
	}

	m.token = token
	m.logger.Info("log in: successfully logged in", zap.String("token", token.Token))
	m.logger.Debug("log in: token received",
		zap.Float64("start", token.Start),
		zap.Float64("expire", token.Expire),
		zap.String("user", token.User()))
	return resp, token, nil
}

// ClearAuthData forgets the stored auth payload.
func (m *Manager) ClearAuthData(validation Validation) error {
	if m.authData == nil {
		const msg = "clear auth data: auth data not set"
		if validation == Throw {
			m.logger.Error(msg)
			return newLogicError(NoAuthData)
		}
		m.logger.Warn(msg)
	}
	m.authData = nil
	return nil
}

// ClearToken forgets the token without invalidating it on the server and
// closes the session. Under Throw a still valid token is an error; under
// SilentlyIgnore it is cleared anyway.
func (m *Manager) ClearToken(validation Validation) error {
	switch {
	case m.token == nil:
		const msg = "clear token: token not set"
		if validation == Throw {
			m.logger.Error(msg)
			return newLogicError(NoTokenToClear)
		}
		m.logger.Warn(msg)
		return nil
	case m.token.Valid():
		const msg = "clear token: the token is still valid"
		if validation == Throw {
			m.logger.Error(msg)
			return newLogicError(TokenIsStillValid)
		}
		m.logger.Warn(msg)
	}
	m.token = nil
	m.closeSession()
	return nil
}

// LogOut invalidates the token on the server. Whatever the server answers,
// the session is closed and the token dropped afterwards. The token is
// dropped as well when no session can be opened. An expired token
// is dropped locally and reported as TokenHasExpired. Under SilentlyIgnore
// both the missing and the expired token cases return nil values.
func (m *Manager) LogOut(ctx context.Context, validation Validation) (*Response, any, error) {
	var (
		err error
		msg string
	)
	switch {
	case m.token == nil:
		msg = "log out: no token to invalidate"
		err = newLogicError(NoTokenToClear)
	case !m.token.Valid():
		msg = "log out: the token has already expired"
		m.token = nil
		err = newLogicError(TokenHasExpired)
	}
	if err != nil {
		if validation == Throw {
			m.logger.Error(msg)
			return nil, nil, err
		}
		m.logger.Warn(msg)
		return nil, nil, nil
	}

	if err := m.OpenSession(); err != nil {
		m.logger.Error("log out: unable to open a session, dropping the token locally", zap.Error(err))
		m.token = nil
		return nil, nil, err
	}

	m.logger.Debug("log out: invalidating token", zap.String("token", m.token.Token))
	resp, result := sendLogoutRequest(ctx, m.session, m.apiURL, m.token, m.logger)
	if resp.OK() {
		m.logger.Info("log out: successfully cleared token", zap.String("token", m.token.Token))
	} else {
		m.logger.Info("log out: failed to clear token",
			append([]zap.Field{zap.String("token", m.token.Token)}, resp.logFields()...)...)
	}

	m.closeSession()
	m.token = nil
	return resp, result, nil
}

// Call sends one command or a batch of commands to salt-api.
//
// fn may be a Command, *Command or map[string]any (one command) or a
// []Command, []*Command, []map[string]any or []any of those (a batch).
// Map commands are sent with every key intact. action overrides the
// interpretation: InterpretAsCollection wraps a single command into a
// batch, RawInterpretation rejects batches. Commands without a client get
// "local". With useYAML the request body is YAML, otherwise JSON.
//
// The result is the per-command result for a single command, or the list
// of per-command results for a batch.
func (m *Manager) Call(ctx context.Context, fn any, action Action, useYAML bool) (*Response, any, error) {
	cmds, batch, err := classify(fn, action)
	if err != nil {
		return nil, nil, err
	}

	var payload any
	if batch {
		m.logger.Debug("call: transforming collection into a list", zap.Int("commands", len(cmds)))
		payload, err = CollectionTranslation(cmds, m.logger, useYAML)
	} else {
		m.logger.Debug("call: calling", zap.Any("command", cmds[0].Map()))
		payload, err = CommandTranslation(&cmds[0], useYAML)
	}
	if err != nil {
		return nil, nil, err
	}

	if err := m.OpenSession(); err != nil {
		return nil, nil, err
	}

	var token string
	switch {
	case m.token == nil:
	case m.token.Valid():
		token = m.token.Token
	default:
		m.logger.Warn("call: stored token has expired, sending the request without it")
	}

	resp, result := sendCommandRequest(ctx, m.session, m.apiURL, token, payload, !batch, m.logger)
	if resp.OK() {
		m.logger.Info("call: successfully called the given commands")
		m.logger.Debug("call: results", zap.Any("results", result))
	} else {
		m.logger.Info("call: failed to call given commands", resp.logFields()...)
	}
	return resp, result, nil
}
