// pkg/saltapi/command.go

package saltapi

import (
	"encoding/json"
	"maps"
	"slices"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultClient is injected into commands that do not name an execution client.
const DefaultClient = "local"

// Common execution clients understood by salt-api.
const (
	ClientLocal      = "local"
	ClientLocalAsync = "local_async"
	ClientRunner     = "runner"
	ClientWheel      = "wheel"
)

// Validation selects how a manager operation reacts to an invalid state.
type Validation int

const (
	// Throw returns an error when the operation cannot be carried out.
	Throw Validation = iota
	// SilentlyIgnore logs a warning and carries on.
	SilentlyIgnore
)

func (v Validation) String() string {
	if v == SilentlyIgnore {
		return "silently-ignore"
	}
	return "throw"
}

// Action selects how Call interprets its argument.
type Action int

const (
	// DefaultAction treats slices as batches and everything else as one command.
	DefaultAction Action = iota
	// InterpretAsCollection always sends a batch.
	InterpretAsCollection
	// RawInterpretation always sends exactly one command.
	RawInterpretation
)

// Command is one lowstate chunk submitted to salt-api.
//
// The common keys have typed fields. Any other key, and any common key whose
// value does not fit its field (a list tgt, a scalar arg), travels in Extra
// untouched.
type Command struct {
	Client     string         `mapstructure:"client"`
	Target     string         `mapstructure:"tgt"`
	TargetType string         `mapstructure:"tgt_type"`
	Function   string         `mapstructure:"fun"`
	Arg        []any          `mapstructure:"arg"`
	Kwarg      map[string]any `mapstructure:"kwarg"`
	Extra      map[string]any `mapstructure:",remain"`
}

// commandKeys is the order in which the typed keys are encoded.
var commandKeys = []string{"client", "tgt", "tgt_type", "fun", "arg", "kwarg"}

// IsEmpty reports whether no field of the command is set.
func (c Command) IsEmpty() bool {
	return c.Client == "" && c.Target == "" && c.TargetType == "" && c.Function == "" &&
		len(c.Arg) == 0 && len(c.Kwarg) == 0 && len(c.Extra) == 0
}

func (c Command) field(key string) (any, bool) {
	switch key {
	case "client":
		return c.Client, c.Client != ""
	case "tgt":
		return c.Target, c.Target != ""
	case "tgt_type":
		return c.TargetType, c.TargetType != ""
	case "fun":
		return c.Function, c.Function != ""
	case "arg":
		return c.Arg, len(c.Arg) > 0
	case "kwarg":
		return c.Kwarg, len(c.Kwarg) > 0
	}
	return nil, false
}

// setField stores v in the typed field for key. It reports false when key
// has no typed field or v does not fit it.
func (c *Command) setField(key string, v any) bool {
	switch key {
	case "client", "tgt", "tgt_type", "fun":
		s, ok := v.(string)
		if !ok || s == "" {
			return false
		}
		switch key {
		case "client":
			c.Client = s
		case "tgt":
			c.Target = s
		case "tgt_type":
			c.TargetType = s
		default:
			c.Function = s
		}
		return true
	case "arg":
		a, ok := v.([]any)
		if ok {
			c.Arg = a
		}
		return ok
	case "kwarg":
		kw, ok := v.(map[string]any)
		if ok {
			c.Kwarg = kw
		}
		return ok
	}
	return false
}

// Map flattens the command into the key/value form salt-api receives.
func (c Command) Map() map[string]any {
	m := make(map[string]any, len(c.Extra)+len(commandKeys))
	for k, v := range c.Extra {
		m[k] = v
	}
	for _, k := range commandKeys {
		if v, ok := c.field(k); ok {
			m[k] = v
		}
	}
	return m
}

// MarshalJSON includes Extra keys at the top level.
func (c Command) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Map())
}

// MarshalYAML emits the typed keys first, in a fixed order, followed by the
// remaining keys sorted by name.
func (c Command) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	add := func(k string, v any) error {
		var value yaml.Node
		if err := value.Encode(v); err != nil {
			return err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, &value)
		return nil
	}

	seen := make(map[string]bool, len(commandKeys))
	for _, k := range commandKeys {
		v, ok := c.field(k)
		if !ok {
			v, ok = c.Extra[k]
		}
		if !ok {
			continue
		}
		seen[k] = true
		if err := add(k, v); err != nil {
			return nil, err
		}
	}
	for _, k := range slices.Sorted(maps.Keys(c.Extra)) {
		if seen[k] {
			continue
		}
		if err := add(k, c.Extra[k]); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// UnmarshalYAML accepts any lowstate mapping.
func (c *Command) UnmarshalYAML(value *yaml.Node) error {
	var m map[string]any
	if err := value.Decode(&m); err != nil {
		return err
	}
	*c = CommandFromMap(m)
	return nil
}

// CommandFromMap builds a Command from a loosely typed lowstate mapping.
// Every key of m is kept. The input map is not modified.
func CommandFromMap(m map[string]any) Command {
	var c Command
	for k, v := range m {
		if c.setField(k, v) {
			continue
		}
		if c.Extra == nil {
			c.Extra = make(map[string]any)
		}
		c.Extra[k] = v
	}
	return c
}

// AuthData is the payload accepted by the salt-api login call.
type AuthData struct {
	EAuth    string         `yaml:"eauth" mapstructure:"eauth" validate:"required"`
	Username string         `yaml:"username,omitempty" mapstructure:"username"`
	Password string         `yaml:"password,omitempty" mapstructure:"password"`
	Extra    map[string]any `yaml:",inline" mapstructure:",remain"`
}

const coverAuthDataWith = "***"

// covered returns a loggable form of the auth data with every value hidden.
func (a *AuthData) covered(show bool) any {
	if a == nil {
		return nil
	}
	if show {
		return a
	}
	out := map[string]string{"eauth": coverAuthDataWith}
	if a.Username != "" {
		out["username"] = coverAuthDataWith
	}
	if a.Password != "" {
		out["password"] = coverAuthDataWith
	}
	for k := range a.Extra {
		out[k] = coverAuthDataWith
	}
	return out
}

// CommandTranslation validates a single command and injects the default
// client. With useYAML the encoded YAML document is returned as a string,
// otherwise the translated Command.
func CommandTranslation(cmd *Command, useYAML bool) (any, error) {
	translated, err := translateCommand(cmd)
	if err != nil {
		return nil, err
	}
	if useYAML {
		return encodeYAML(translated)
	}
	return translated, nil
}

// CollectionTranslation validates every command of a batch and injects the
// default client into each. With useYAML the whole list is encoded as one
// YAML document, otherwise the translated []Command is returned.
func CollectionTranslation(cmds []Command, logger *zap.Logger, useYAML bool) (any, error) {
	list, err := translateCollection(cmds)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Debug("translation: translated command list", zap.Any("commands", list))
	}
	if useYAML {
		return encodeYAML(list)
	}
	return list, nil
}

func translateCommand(cmd *Command) (Command, error) {
	if cmd == nil || cmd.IsEmpty() {
		return Command{}, newInvalidArgument(NoCommandSpecified)
	}
	out := *cmd
	if out.Client == "" {
		out.Client = DefaultClient
	}
	return out, nil
}

func translateCollection(cmds []Command) ([]Command, error) {
	if len(cmds) == 0 {
		return nil, newInvalidArgument(EmptyCommandListSpecified)
	}
	list := make([]Command, 0, len(cmds))
	for i := range cmds {
		c, err := translateCommand(&cmds[i])
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, nil
}

// classify normalizes the argument of Call into a list of commands and
// reports whether the call is a batch.
func classify(fn any, action Action) ([]Command, bool, error) {
	var (
		single     *Command
		collection []Command
		isList     bool
	)

	switch v := fn.(type) {
	case nil:
		return nil, false, newInvalidArgument(NoCommandSpecified)
	case Command:
		single = &v
	case *Command:
		if v == nil {
			return nil, false, newInvalidArgument(NoCommandSpecified)
		}
		single = v
	case map[string]any:
		c := CommandFromMap(v)
		single = &c
	case []Command:
		collection, isList = v, true
	case []*Command:
		isList = true
		collection = make([]Command, 0, len(v))
		for _, c := range v {
			collection = append(collection, derefCommand(c))
		}
	case []map[string]any:
		isList = true
		collection = make([]Command, 0, len(v))
		for _, m := range v {
			collection = append(collection, CommandFromMap(m))
		}
	case []any:
		isList = true
		collection = make([]Command, 0, len(v))
		for _, item := range v {
			c, ok := commandOf(item)
			if !ok {
				return nil, false, newInvalidArgument(UnsupportedCommandType)
			}
			collection = append(collection, c)
		}
	default:
		return nil, false, newInvalidArgument(UnsupportedCommandType)
	}

	switch {
	case action == RawInterpretation && isList:
		return nil, false, newInvalidArgument(UnsupportedCommandType)
	case action == InterpretAsCollection && !isList:
		return []Command{*single}, true, nil
	case isList:
		return collection, true, nil
	default:
		return []Command{*single}, false, nil
	}
}

func derefCommand(c *Command) Command {
	if c == nil {
		return Command{}
	}
	return *c
}

// commandOf converts one member of a loosely typed batch.
func commandOf(item any) (Command, bool) {
	switch v := item.(type) {
	case Command:
		return v, true
	case *Command:
		return derefCommand(v), true
	case map[string]any:
		return CommandFromMap(v), true
	case nil:
		return Command{}, true
	}
	return Command{}, false
}
