// pkg/logger/writer.go

package logger

import (
	"os"
	"path/filepath"

	cerr "github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// GetLogFileWriter opens path for appending, creating it and its directory
// with owner-only permissions.
func GetLogFileWriter(path string) (zapcore.WriteSyncer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, cerr.Wrapf(err, "create log directory for %s", path)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, cerr.Wrapf(err, "open log file %s", path)
	}
	return zapcore.AddSync(file), nil
}

// FindWritableLogPath returns the first usable path from PlatformLogPaths.
func FindWritableLogPath() (string, error) {
	for _, path := range PlatformLogPaths() {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			continue
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			continue
		}
		_ = f.Close()
		return path, nil
	}
	return "", cerr.New("no writable log path found")
}
