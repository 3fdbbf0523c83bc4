// pkg/cli/cli.go
//
// Flag helpers shared by the salt-plugin commands, and the binding of
// flags into the viper instance that carries the plugin properties.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_err"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// AddStringFlag adds a string flag and optionally marks as required.
// Env/Config are handled by Viper if you call BindFlagsToViper.
func AddStringFlag(cmd *cobra.Command, name, shorthand, def, help string, required bool) {
	cmd.Flags().StringP(name, shorthand, def, help)
	if required {
		if err := cmd.MarkFlagRequired(name); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to mark flag %s as required: %v\n", name, err)
		}
	}
}

// AddBoolFlag adds a boolean flag.
func AddBoolFlag(cmd *cobra.Command, name, shorthand string, def bool, help string) {
	cmd.Flags().BoolP(name, shorthand, def, help)
}

// AddIntFlag adds an int flag.
func AddIntFlag(cmd *cobra.Command, name, shorthand string, def int, help string) {
	cmd.Flags().IntP(name, shorthand, def, help)
}

// AddStringSliceFlag adds a string slice flag.
func AddStringSliceFlag(cmd *cobra.Command, name, shorthand string, def []string, help string, required bool) {
	cmd.Flags().StringSliceP(name, shorthand, def, help)
	if required {
		if err := cmd.MarkFlagRequired(name); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to mark flag %s as required: %v\n", name, err)
		}
	}
}

// BindFlagsToViper binds the flags of cmd to v under the given keys.
// keys maps a flag name to a viper key; flags not in keys are skipped.
// Every failed binding is reported.
func BindFlagsToViper(cmd *cobra.Command, v *viper.Viper, keys map[string]string) error {
	var result error
	visit := func(f *pflag.Flag) {
		key, ok := keys[f.Name]
		if !ok {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			result = multierror.Append(result, fmt.Errorf("bind --%s: %w", f.Name, err))
		}
	}
	cmd.Flags().VisitAll(visit)
	cmd.InheritedFlags().VisitAll(visit)
	return result
}

// SetViperEnvPrefix lets v read PREFIX_KEY environment variables, with
// dots and dashes in keys mapped to underscores.
func SetViperEnvPrefix(v *viper.Viper, prefix string) {
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// GetRequiredString returns the value of a string flag that must not be empty.
func GetRequiredString(cmd *cobra.Command, name string) (string, error) {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", plugin_err.NewValidationError(fmt.Sprintf("flag error for --%s", name), err)
	}
	if val == "" {
		return "", plugin_err.NewValidationError(fmt.Sprintf("required flag --%s is empty", name), nil)
	}
	return val, nil
}

// ShowHelp prints command usage without exiting.
func ShowHelp(cmd *cobra.Command) error {
	return cmd.Usage()
}
