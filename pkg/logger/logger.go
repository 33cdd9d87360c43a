// Package logger configures the process-wide zap logger of the usf-event
// server.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every entry as the "service" field.
const ServiceName = "usf-event"

// Logger is the process-wide logger set by Init.
var Logger *zap.Logger

// IsProduction reports whether env selects JSON output at info level.
// Anything else, including an empty ENV, logs for development.
func IsProduction(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod":
		return true
	}
	return false
}

func newConfig(env string) zap.Config {
	var config zap.Config
	label := "development"
	if IsProduction(env) {
		label = "production"
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else {
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.InitialFields = map[string]interface{}{
		"service": ServiceName,
		"env":     label,
	}
	return config
}

// Init builds the logger for the ENV value read by config.Load.
func Init(env string) error {
	built, err := newConfig(env).Build()
	if err != nil {
		return fmt.Errorf("build %s logger: %w", env, err)
	}
	Logger = built
	return nil
}

// Sync flushes any buffered log entries.
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Get returns the logger set by Init, or a development logger before Init.
func Get() *zap.Logger {
	if Logger == nil {
		fallback, _ := zap.NewDevelopment()
		return fallback.With(zap.String("service", ServiceName))
	}
	return Logger
}
