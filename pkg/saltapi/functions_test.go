package saltapi_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/saltapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// fakeSaltAPI answers lowstate requests by function name.
func fakeSaltAPI(t *testing.T, replies map[string]string, seen func(cmd map[string]any)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var cmd map[string]any
		require.NoError(t, yaml.Unmarshal(body, &cmd))
		if seen != nil {
			seen(cmd)
		}

		fun, _ := cmd["fun"].(string)
		reply, ok := replies[fun]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeYAML(w, reply)
	}))
}

func TestManager_Ping(t *testing.T) {
	var got map[string]any
	server := fakeSaltAPI(t, map[string]string{
		"test.ping": "return:\n- {web1: true, web2: false}\n",
	}, func(cmd map[string]any) { got = cmd })
	defer server.Close()

	m := newManager(t, server.URL)
	resp, minions, err := m.Ping(context.Background(), "web*")
	require.NoError(t, err)
	require.True(t, resp.OK())
	assert.Equal(t, map[string]bool{"web1": true, "web2": false}, minions)
	assert.Equal(t, map[string]any{"client": "local", "tgt": "web*", "fun": "test.ping"}, got)
}

func TestManager_PingNoMinions(t *testing.T) {
	server := fakeSaltAPI(t, map[string]string{"test.ping": "return:\n- {}\n"}, nil)
	defer server.Close()

	m := newManager(t, server.URL)
	resp, minions, err := m.Ping(context.Background(), "ghost")
	require.NoError(t, err)
	require.True(t, resp.OK())
	assert.Empty(t, minions)
}

func TestManager_PingUnexpectedLayout(t *testing.T) {
	server := fakeSaltAPI(t, map[string]string{"test.ping": "return:\n- [web1]\n"}, nil)
	defer server.Close()

	m := newManager(t, server.URL)
	resp, minions, err := m.Ping(context.Background(), "*")
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Nil(t, minions)
}

func TestManager_Highstate(t *testing.T) {
	var got map[string]any
	server := fakeSaltAPI(t, map[string]string{
		"state.highstate": "return:\n- web1:\n    file_|-motd_|-/etc/motd_|-managed:\n      result: true\n",
	}, func(cmd map[string]any) { got = cmd })
	defer server.Close()

	m := newManager(t, server.URL)
	resp, result, err := m.Highstate(context.Background(), "web1")
	require.NoError(t, err)
	require.True(t, resp.OK())
	assert.Equal(t, "state.highstate", got["fun"])
	assert.Contains(t, result, "web1")
}

func TestManager_AcceptedMinions(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    []string
		wantBad bool
	}{
		{
			name:  "two minions",
			reply: "return:\n- tag: salt/wheel/1\n  data:\n    return:\n      minions: [web1, db1]\n    success: true\n",
			want:  []string{"web1", "db1"},
		},
		{
			name:  "no minions",
			reply: "return:\n- data:\n    return:\n      minions: []\n",
			want:  []string{},
		},
		{
			name:    "missing data",
			reply:   "return:\n- tag: salt/wheel/1\n",
			wantBad: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]any
			server := fakeSaltAPI(t, map[string]string{"key.list": tt.reply}, func(cmd map[string]any) { got = cmd })
			defer server.Close()

			m := newManager(t, server.URL)
			resp, minions, err := m.AcceptedMinions(context.Background())
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"client": "wheel", "fun": "key.list", "match": "accepted"}, got)

			if tt.wantBad {
				assert.False(t, resp.OK())
				assert.Nil(t, minions)
				return
			}
			require.True(t, resp.OK())
			assert.Equal(t, tt.want, minions)
		})
	}
}

func TestManager_GenerateAcceptedKey(t *testing.T) {
	var got map[string]any
	server := fakeSaltAPI(t, map[string]string{
		"key.gen_accept": "return:\n- data:\n    return:\n      priv: PRIVATE\n      pub: PUBLIC\n    success: true\n",
	}, func(cmd map[string]any) { got = cmd })
	defer server.Close()

	m := newManager(t, server.URL)
	resp, keys, err := m.GenerateAcceptedKey(context.Background(), "web1")
	require.NoError(t, err)
	require.True(t, resp.OK())
	assert.Equal(t, &saltapi.KeyPair{Private: "PRIVATE", Public: "PUBLIC"}, keys)
	assert.Equal(t, map[string]any{"client": "wheel", "fun": "key.gen_accept", "id_": "web1"}, got)
}

func TestManager_GenerateAcceptedKeyMissingKeys(t *testing.T) {
	server := fakeSaltAPI(t, map[string]string{
		"key.gen_accept": "return:\n- data:\n    return: {}\n",
	}, nil)
	defer server.Close()

	m := newManager(t, server.URL)
	resp, keys, err := m.GenerateAcceptedKey(context.Background(), "web1")
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Nil(t, keys)
}

func TestManager_Grains(t *testing.T) {
	var calls []map[string]any
	server := fakeSaltAPI(t, map[string]string{
		"grains.append": "return:\n- web1:\n    roles: [web]\n",
		"grains.items":  "return:\n- web1:\n    os: Ubuntu\n    roles: [web]\n",
	}, func(cmd map[string]any) { calls = append(calls, cmd) })
	defer server.Close()

	m := newManager(t, server.URL)

	resp, _, err := m.AppendGrain(context.Background(), "web1", "roles", "web")
	require.NoError(t, err)
	require.True(t, resp.OK())

	resp, grains, err := m.ListGrains(context.Background(), "web1")
	require.NoError(t, err)
	require.True(t, resp.OK())
	assert.Equal(t, "Ubuntu", grains["os"])
	assert.Equal(t, []any{"web"}, grains["roles"])

	require.Len(t, calls, 2)
	assert.Equal(t, []any{"roles", "web"}, calls[0]["arg"])
	assert.Equal(t, "web1", calls[1]["tgt"])

	_, grains, err = m.ListGrains(context.Background(), "db1")
	require.NoError(t, err)
	assert.Nil(t, grains)
}
