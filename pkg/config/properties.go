// pkg/config/properties.go

// Package config holds the typed plugin properties and the runtime state
// kept between lifecycle operations.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/httpclient"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_err"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/saltapi"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

const (
	DefaultPingAttempts  = 15
	DefaultPingInterval  = 2 * time.Second
	DefaultMinionKeysDir = "/etc/salt/pki/minion"
	DefaultStatePath     = "/var/lib/salt-plugin/state.yaml"
)

// Properties is the validated configuration of a minion node.
type Properties struct {
	SaltAPIURL      string             `mapstructure:"salt_api_url" yaml:"salt_api_url" validate:"required,url"`
	SaltAPIAuthData *saltapi.AuthData  `mapstructure:"salt_api_auth_data" yaml:"salt_api_auth_data,omitempty"`
	Token           *saltapi.Token     `mapstructure:"token" yaml:"token,omitempty"`
	SessionOptions  *httpclient.Config `mapstructure:"session_options" yaml:"session_options,omitempty"`
	LoggerInjection *LoggerInjection   `mapstructure:"logger_injection" yaml:"logger_injection,omitempty"`
	MinionID        string             `mapstructure:"minion_id" yaml:"minion_id,omitempty"`
	Grains          []Grain            `mapstructure:"grains" yaml:"grains,omitempty" validate:"dive"`
	Ping            PingOptions        `mapstructure:"ping" yaml:"ping"`
	MinionKeysDir   string             `mapstructure:"minion_keys_dir" yaml:"minion_keys_dir" validate:"required"`
	StatePath       string             `mapstructure:"state_path" yaml:"state_path" validate:"required"`
}

// LoggerInjection enables the manager's own logger.
type LoggerInjection struct {
	Level    string `mapstructure:"level" yaml:"level,omitempty" validate:"omitempty,oneof=debug info warning error critical"`
	ShowAuth bool   `mapstructure:"show_auth" yaml:"show_auth,omitempty"`
}

// Grain is one value appended to a minion grain. In YAML it may be written
// as {name: roles, value: web} or in the short form {roles: web}.
type Grain struct {
	Name  string `mapstructure:"name" yaml:"name" validate:"required"`
	Value any    `mapstructure:"value" yaml:"value" validate:"required"`
}

// PingOptions controls how long a new minion is waited for.
type PingOptions struct {
	Attempts int           `mapstructure:"attempts" yaml:"attempts" validate:"min=1"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval" validate:"gt=0"`
}

// Defaults returns properties with every optional field filled in.
func Defaults() Properties {
	return Properties{
		Ping: PingOptions{
			Attempts: DefaultPingAttempts,
			Interval: DefaultPingInterval,
		},
		MinionKeysDir: DefaultMinionKeysDir,
		StatePath:     DefaultStatePath,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks the properties and reports every problem at once.
func (p *Properties) Validate() error {
	var result *multierror.Error

	if err := validate.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				result = multierror.Append(result, fmt.Errorf("%s: failed %q check", keyOf(fe.Namespace()), fe.Tag()))
			}
		} else {
			result = multierror.Append(result, err)
		}
	}

	if p.SessionOptions != nil {
		if err := p.SessionOptions.Merge().Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("session_options: %w", err))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return plugin_err.NewValidationError("invalid plugin properties", err,
			"Check the configuration file and SALT_PLUGIN_* environment variables",
			"salt_api_url is required; salt_api_auth_data needs an eauth backend")
	}
	return nil
}

// ManagerConfig builds the session manager configuration from the properties.
func (p *Properties) ManagerConfig() saltapi.Config {
	cfg := saltapi.Config{
		APIURL:   p.SaltAPIURL,
		AuthData: p.SaltAPIAuthData,
		Token:    p.Token,
		Session:  p.SessionOptions,
	}
	if p.LoggerInjection != nil {
		cfg.LogLevel = p.LoggerInjection.Level
		cfg.ShowAuthData = p.LoggerInjection.ShowAuth
	}
	return cfg
}

// keyOf turns "Properties.ping.attempts" into "ping.attempts".
func keyOf(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
