package cmd

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_err"
	"github.com/stretchr/testify/assert"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

type fakeSaltAPI struct {
	mu      sync.Mutex
	logins  int
	logouts int
	bodies  []string
}

func (f *fakeSaltAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/x-yaml")
	switch r.URL.Path {
	case "/login":
		f.logins++
		now := time.Now()
		fmt.Fprintf(w, "return:\n- token: abc%d\n  start: %d\n  expire: %d\n  user: saltdev\n",
			f.logins, now.Add(-time.Second).Unix(), now.Add(time.Hour).Unix())
	case "/logout":
		f.logouts++
		_, _ = io.WriteString(w, "return: Your token has been cleared\n")
	default:
		body, _ := io.ReadAll(r.Body)
		f.bodies = append(f.bodies, string(body))
		_, _ = io.WriteString(w, "return:\n- {web1: true}\n")
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	RegisterCommands()
	resetFlags(RootCmd)
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetArgs(args)
	err := Execute()
	return out.String(), err
}

// resetFlags returns every flag to its default so runs do not leak into
// each other through the shared command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestSaltSession(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SALT_PLUGIN_SALT_API_AUTH_DATA_EAUTH", "pam")
	t.Setenv("SALT_PLUGIN_SALT_API_AUTH_DATA_USERNAME", "saltdev")
	t.Setenv("SALT_PLUGIN_SALT_API_AUTH_DATA_PASSWORD", "saltdev")

	api := &fakeSaltAPI{}
	server := httptest.NewServer(api)
	defer server.Close()

	state := filepath.Join(t.TempDir(), "state.yaml")
	common := []string{"--salt-api-url", server.URL, "--state", state}

	out, err := run(t, append([]string{"salt", "login"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "token: abc1")

	out, err = run(t, append([]string{"salt", "ping", "web*"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "web1: true\n", out)
	assert.Equal(t, 1, api.logins, "recorded token is reused")

	out, err = run(t, append([]string{"salt", "call", "--fun", "cmd.run", "--tgt", "web1", "--arg", "uptime"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "web1: true\n", out)
	last := api.bodies[len(api.bodies)-1]
	assert.True(t, strings.Contains(last, "fun: cmd.run"), last)
	assert.True(t, strings.Contains(last, "arg: [uptime]"), last)

	_, err = run(t, append([]string{"salt", "logout"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, 1, api.logouts)

	_, err = run(t, append([]string{"salt", "logout"}, common...)...)
	require.Error(t, err)
	assert.Equal(t, 2, plugin_err.GetExitCode(err))

	_, err = run(t, append([]string{"salt", "logout", "--silent"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, 1, api.logouts)
}

func TestMinionStop_InvalidProperties(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := run(t, "minion", "stop", "--salt-api-url", "", "--state", filepath.Join(t.TempDir(), "state.yaml"))
	require.Error(t, err)
	assert.Equal(t, 2, plugin_err.GetExitCode(err))
}

func TestSaltCall_Batch(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SALT_PLUGIN_SALT_API_AUTH_DATA_EAUTH", "pam")
	t.Setenv("SALT_PLUGIN_SALT_API_AUTH_DATA_USERNAME", "saltdev")
	t.Setenv("SALT_PLUGIN_SALT_API_AUTH_DATA_PASSWORD", "saltdev")

	api := &fakeSaltAPI{}
	server := httptest.NewServer(api)
	defer server.Close()

	dir := t.TempDir()
	batch := filepath.Join(dir, "batch.yaml")
	require.NoError(t, os.WriteFile(batch, []byte(
		"- {tgt: [web1, web2], tgt_type: list, fun: test.ping}\n"+
			"- {tgt: web1, fun: grains.get, arg: roles}\n"), 0o600))

	_, err := run(t, "salt", "call", "--batch", batch,
		"--salt-api-url", server.URL, "--state", filepath.Join(dir, "state.yaml"))
	require.NoError(t, err)
	require.Len(t, api.bodies, 1)
	body := api.bodies[0]
	assert.Contains(t, body, "tgt: [web1, web2]")
	assert.Contains(t, body, "tgt_type: list")
	assert.Contains(t, body, "arg: roles")
	assert.Equal(t, 2, strings.Count(body, "client: local"), body)
}
