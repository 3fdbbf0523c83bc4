// pkg/saltapi/functions.go

package saltapi

import (
	"context"
	"fmt"

	cerr "github.com/cockroachdb/errors"
)

// KeyPair is a minion key pair generated and accepted by the master.
type KeyPair struct {
	Private string
	Public  string
}

// Ping runs test.ping against tgt and reports which minions answered.
func (m *Manager) Ping(ctx context.Context, tgt string) (*Response, map[string]bool, error) {
	resp, result, err := m.Call(ctx, Command{Client: ClientLocal, Target: tgt, Function: "test.ping"}, RawInterpretation, true)
	if err != nil || !resp.OK() {
		return resp, nil, err
	}
	raw, ok := asMap(result)
	if !ok {
		resp.fail(unexpectedLayout("test.ping", result))
		return resp, nil, nil
	}
	out := make(map[string]bool, len(raw))
	for minion, v := range raw {
		b, _ := v.(bool)
		out[minion] = b
	}
	return resp, out, nil
}

// Highstate applies the highstate to tgt and returns the per-minion result as sent by salt.
func (m *Manager) Highstate(ctx context.Context, tgt string) (*Response, any, error) {
	return m.Call(ctx, Command{Client: ClientLocal, Target: tgt, Function: "state.highstate"}, RawInterpretation, true)
}

// AcceptedMinions lists the minion IDs whose keys the master has accepted.
func (m *Manager) AcceptedMinions(ctx context.Context) (*Response, []string, error) {
	cmd := Command{
		Client:   ClientWheel,
		Function: "key.list",
		Extra:    map[string]any{"match": "accepted"},
	}
	resp, result, err := m.Call(ctx, cmd, RawInterpretation, true)
	if err != nil || !resp.OK() {
		return resp, nil, err
	}
	raw, ok := lookup(result, "data", "return", "minions")
	if !ok {
		resp.fail(unexpectedLayout("key.list", result))
		return resp, nil, nil
	}
	if raw == nil {
		return resp, []string{}, nil
	}
	list, ok := raw.([]any)
	if !ok {
		resp.fail(unexpectedLayout("key.list", result))
		return resp, nil, nil
	}
	minions := make([]string, 0, len(list))
	for _, v := range list {
		minions = append(minions, fmt.Sprint(v))
	}
	return resp, minions, nil
}

// GenerateAcceptedKey has the master generate a key pair for id and accept it.
func (m *Manager) GenerateAcceptedKey(ctx context.Context, id string) (*Response, *KeyPair, error) {
	cmd := Command{
		Client:   ClientWheel,
		Function: "key.gen_accept",
		Extra:    map[string]any{"id_": id},
	}
	resp, result, err := m.Call(ctx, cmd, RawInterpretation, true)
	if err != nil || !resp.OK() {
		return resp, nil, err
	}
	priv, okPriv := lookup(result, "data", "return", "priv")
	pub, okPub := lookup(result, "data", "return", "pub")
	privStr, _ := priv.(string)
	pubStr, _ := pub.(string)
	if !okPriv || !okPub || privStr == "" || pubStr == "" {
		resp.fail(unexpectedLayout("key.gen_accept", result))
		return resp, nil, nil
	}
	return resp, &KeyPair{Private: privStr, Public: pubStr}, nil
}

// AppendGrain appends value to the grain named grain on minion id.
func (m *Manager) AppendGrain(ctx context.Context, id, grain string, value any) (*Response, any, error) {
	cmd := Command{
		Client:   ClientLocal,
		Target:   id,
		Function: "grains.append",
		Arg:      []any{grain, value},
	}
	return m.Call(ctx, cmd, RawInterpretation, true)
}

// ListGrains returns every grain of minion id.
func (m *Manager) ListGrains(ctx context.Context, id string) (*Response, map[string]any, error) {
	cmd := Command{Client: ClientLocal, Target: id, Function: "grains.items"}
	resp, result, err := m.Call(ctx, cmd, RawInterpretation, true)
	if err != nil || !resp.OK() {
		return resp, nil, err
	}
	raw, ok := lookup(result, id)
	if !ok {
		resp.fail(cerr.Newf("grains.items: minion %q did not return", id))
		return resp, nil, nil
	}
	grains, ok := asMap(raw)
	if !ok {
		resp.fail(unexpectedLayout("grains.items", result))
		return resp, nil, nil
	}
	return resp, grains, nil
}

func unexpectedLayout(fun string, result any) error {
	return cerr.Newf("%s: unexpected result layout: %T", fun, result)
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	case nil:
		return map[string]any{}, true
	default:
		return nil, false
	}
}

// lookup walks nested mappings along path.
func lookup(v any, path ...string) (any, bool) {
	cur := v
	for _, key := range path {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
