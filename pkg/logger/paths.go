/* pkg/logger/paths.go */

package logger

import (
	"os"
	"path/filepath"
)

const logFileName = "salt-plugin.log"

// LogPathEnv overrides the log file location.
const LogPathEnv = "SALT_PLUGIN_LOG_PATH"

// PlatformLogPaths returns candidate log paths in order of priority.
func PlatformLogPaths() []string {
	var paths []string
	if p := os.Getenv(LogPathEnv); p != "" {
		paths = append(paths, p)
	}
	paths = append(paths, filepath.Join("/var/log/salt-plugin", logFileName))

	state := os.Getenv("XDG_STATE_HOME")
	if state == "" {
		if home, err := os.UserHomeDir(); err == nil {
			state = filepath.Join(home, ".local", "state")
		}
	}
	if state != "" {
		paths = append(paths, filepath.Join(state, "salt-plugin", logFileName))
	}

	return append(paths, filepath.Join(os.TempDir(), "salt-plugin", logFileName))
}
