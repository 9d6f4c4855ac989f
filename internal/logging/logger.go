// Package logging builds the module's root zap.Logger, grounded on
// cmd/zmux-server/main.go's logger setup: colored, timestamp-free output in
// dev, switching to zap.NewProductionConfig()'s JSON output with timestamps
// when UNIXLAB_ENV selects prod.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the root logger for the given environment ("prod", or anything
// else, treated as "dev").
func New(env string) *zap.Logger {
	if env != "prod" {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = ""
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
		cfg.DisableCaller = true
		return zap.Must(cfg.Build())
	}

	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return zap.Must(cfg.Build())
}
