// Package logger builds the process-wide zap logger and carries
// request-scoped loggers through contexts.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// consoleEnvs are environments that get human-readable colored output;
// anything serving real traffic logs JSON.
var consoleEnvs = map[string]struct{}{
	"local":  {},
	"dev":    {},
	"docker": {},
}

// NewLogger creates a zap logger for the given environment. An optional
// levelOverride (debug, info, warn, error) takes precedence over the
// environment's default level.
func NewLogger(env string, levelOverride ...string) (*zap.Logger, error) {
	var cfg zap.Config
	if _, console := consoleEnvs[env]; console {
		cfg = zap.NewDevelopmentConfig()
	} else if env == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}

	if len(levelOverride) > 0 && levelOverride[0] != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(levelOverride[0])); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", levelOverride[0], err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}
