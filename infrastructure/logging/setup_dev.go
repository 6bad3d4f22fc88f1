//go:build !prod

package logging

import (
	"log/slog"
	"os"
)

// Setup configures console logging for development builds.
// The returned close function is a no-op.
func Setup(cfg *Config) (*slog.Logger, func() error, error) {
	if cfg == nil {
		cfg = DefaultConfig()
		cfg.Level = slog.LevelDebug
		cfg.AddSource = true
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)

	logger.Info("logging initialized", "mode", "dev", "level", cfg.Level.String())
	return logger, func() error { return nil }, nil
}
