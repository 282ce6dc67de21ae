// Package logger builds the zap logger shared by the relay's components.
package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a production (JSON) logger, or a development (console) logger
// when development is true, filtered at level.
func New(level string, development bool) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logger: build: %w", err)
	}
	return l, nil
}
