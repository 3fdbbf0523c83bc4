/* pkg/plugin_io/yaml.go */

package plugin_io

import (
	"context"
	"os"
	"path/filepath"

	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// WriteYAML marshals in and writes it to filePath with the given
// permissions, creating parent directories. The file is replaced
// atomically.
func WriteYAML(ctx context.Context, filePath string, in any, perm os.FileMode) error {
	logger := otelzap.Ctx(ctx)
	logger.Debug("Writing YAML file", zap.String("path", filePath))

	data, err := yaml.Marshal(in)
	if err != nil {
		logger.Error("Failed to marshal YAML", zap.Error(err))
		return cerr.Wrap(err, "failed to marshal YAML")
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return cerr.Wrapf(err, "failed to create directory for %s", filePath)
	}

	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		logger.Error("Failed to write YAML file",
			zap.String("path", filePath),
			zap.Error(err))
		return cerr.Wrap(err, "failed to write YAML file")
	}
	if err := os.Rename(tmp, filePath); err != nil {
		_ = os.Remove(tmp)
		return cerr.Wrap(err, "failed to replace YAML file")
	}

	logger.Debug("YAML file written",
		zap.String("path", filePath),
		zap.Int("size", len(data)))
	return nil
}

// ReadYAML reads a YAML file into out.
func ReadYAML(ctx context.Context, filePath string, out any) error {
	logger := otelzap.Ctx(ctx)
	logger.Debug("Reading YAML file", zap.String("path", filePath))

	data, err := os.ReadFile(filePath)
	if err != nil {
		logger.Debug("Failed to read YAML file",
			zap.String("path", filePath),
			zap.Error(err))
		return cerr.Wrap(err, "failed to read YAML file")
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		logger.Error("Failed to unmarshal YAML",
			zap.String("path", filePath),
			zap.Error(err))
		return cerr.Wrap(err, "failed to unmarshal YAML")
	}

	logger.Debug("YAML file read",
		zap.String("path", filePath),
		zap.Int("size", len(data)))
	return nil
}
