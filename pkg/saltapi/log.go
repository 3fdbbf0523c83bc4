// pkg/saltapi/log.go

package saltapi

import (
	"strings"

	cerr "github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerName is the name of the child logger the manager logs through.
const LoggerName = "salt"

var logLevels = map[string]zapcore.Level{
	"debug":    zapcore.DebugLevel,
	"info":     zapcore.InfoLevel,
	"warning":  zapcore.WarnLevel,
	"warn":     zapcore.WarnLevel,
	"error":    zapcore.ErrorLevel,
	"critical": zapcore.ErrorLevel,
}

// ParseLogLevel maps a level name to a zap level.
func ParseLogLevel(level string) (zapcore.Level, error) {
	lvl, ok := logLevels[strings.ToLower(strings.TrimSpace(level))]
	if !ok {
		return zapcore.InfoLevel, cerr.Newf("unknown log level %q", level)
	}
	return lvl, nil
}

// setUpLogger derives the manager's logger from root. Without a root logger
// the manager is silent. A non-empty level overrides the level for the
// child logger only.
//
// The override replaces the level of the whole root core. When root tees
// several cores with their own levels, every entry the override admits
// reaches all of them, so a "debug" override also sends debug entries to
// sinks configured above debug.
func setUpLogger(root *zap.Logger, level string) (*zap.Logger, error) {
	if root == nil {
		return zap.NewNop(), nil
	}
	logger := root.Named(LoggerName)
	if level == "" {
		return logger, nil
	}
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	return logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return &levelCore{Core: c, level: lvl}
	})), nil
}

// levelCore applies its own level instead of the wrapped core's.
type levelCore struct {
	zapcore.Core
	level zapcore.Level
}

func (c *levelCore) Enabled(l zapcore.Level) bool {
	return c.level.Enabled(l)
}

func (c *levelCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelCore{Core: c.Core.With(fields), level: c.level}
}

func (c *levelCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *levelCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(ent, fields)
}
