// pkg/config/state.go

package config

import (
	"context"
	"errors"
	"os"

	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_io"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/saltapi"
	cerr "github.com/cockroachdb/errors"
)

// State holds what lifecycle operations learn at runtime and pass on to
// later operations on the same node.
type State struct {
	InstanceID string         `yaml:"instance_id,omitempty"`
	MinionID   string         `yaml:"minion_id,omitempty"`
	Token      *saltapi.Token `yaml:"token,omitempty"`
}

// StateStore persists State as a YAML file readable by the owner only.
type StateStore struct {
	path string
}

func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Path returns the location of the state file.
func (s *StateStore) Path() string { return s.path }

// Load returns the stored state, or an empty state if the file does not exist.
func (s *StateStore) Load(ctx context.Context) (*State, error) {
	st := &State{}
	if err := plugin_io.ReadYAML(ctx, s.path, st); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &State{}, nil
		}
		return nil, cerr.Wrapf(err, "load state from %s", s.path)
	}
	return st, nil
}

// Save replaces the stored state.
func (s *StateStore) Save(ctx context.Context, st *State) error {
	if err := plugin_io.WriteYAML(ctx, s.path, st, 0o600); err != nil {
		return cerr.Wrapf(err, "save state to %s", s.path)
	}
	return nil
}

// Update loads the state, applies fn and saves the result.
func (s *StateStore) Update(ctx context.Context, fn func(*State)) (*State, error) {
	st, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	fn(st)
	if err := s.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}
