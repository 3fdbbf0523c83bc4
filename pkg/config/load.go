// pkg/config/load.go

package config

import (
	"context"
	"errors"
	"os"
	"reflect"

	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/cli"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_err"
	cerr "github.com/cockroachdb/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// EnvPrefix prefixes every environment variable read by the plugin,
// e.g. SALT_PLUGIN_SALT_API_URL.
const EnvPrefix = "SALT_PLUGIN"

// ConfigName is the base name of the properties file searched for when no
// file is given explicitly.
const ConfigName = "salt-plugin"

var searchPaths = []string{".", "/etc/salt-plugin"}

// envOnlyKeys are readable from the environment without a default value.
var envOnlyKeys = []string{
	"salt_api_auth_data.eauth",
	"salt_api_auth_data.username",
	"salt_api_auth_data.password",
	"token.token",
	"token.start",
	"token.expire",
	"logger_injection.level",
	"logger_injection.show_auth",
}

// NewViper returns a viper instance with the plugin defaults and
// SALT_PLUGIN_* environment lookup set up. Callers bind flags to it before
// calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	d := Defaults()
	v.SetDefault("salt_api_url", "")
	v.SetDefault("minion_id", "")
	v.SetDefault("ping.attempts", d.Ping.Attempts)
	v.SetDefault("ping.interval", d.Ping.Interval)
	v.SetDefault("minion_keys_dir", d.MinionKeysDir)
	v.SetDefault("state_path", d.StatePath)

	cli.SetViperEnvPrefix(v, EnvPrefix)
	for _, key := range envOnlyKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads the optional .env file and properties file into v, then
// decodes and validates the properties. An empty configFile searches for
// salt-plugin.yaml in the working directory and /etc/salt-plugin; not
// finding one is not an error.
func Load(ctx context.Context, v *viper.Viper, configFile, envFile string) (*Properties, error) {
	logger := otelzap.Ctx(ctx)

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, plugin_err.NewValidationError("failed to load env file", err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		for _, p := range searchPaths {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, plugin_err.NewValidationError("failed to read properties file", err,
				"Check that the file exists and is valid YAML")
		}
		logger.Debug("No properties file found, using environment and flags only")
	} else {
		logger.Debug("Loaded properties file", zap.String("path", v.ConfigFileUsed()))
	}

	props, err := Decode(v)
	if err != nil {
		return nil, err
	}
	if err := props.Validate(); err != nil {
		return nil, err
	}
	return props, nil
}

// Decode converts the settings held by v into Properties without validating them.
func Decode(v *viper.Viper) (*Properties, error) {
	props := Defaults()
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		grainShorthandHook,
	))
	if err := v.Unmarshal(&props, hook); err != nil {
		return nil, plugin_err.NewValidationError("failed to decode plugin properties",
			cerr.Wrap(err, "decode properties"))
	}
	return &props, nil
}

var grainType = reflect.TypeOf(Grain{})

// grainShorthandHook accepts {roles: web} for {name: roles, value: web}.
func grainShorthandHook(from, to reflect.Type, data any) (any, error) {
	if to != grainType {
		return data, nil
	}
	m, ok := data.(map[string]any)
	if !ok || len(m) != 1 {
		return data, nil
	}
	for k, val := range m {
		if k == "name" || k == "value" {
			return data, nil
		}
		return map[string]any{"name": k, "value": val}, nil
	}
	return data, nil
}
