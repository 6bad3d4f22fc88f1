// Package main is the entry point for SGDET Annotate.
package main

import (
	"log/slog"
	"os"

	appsession "sgdet-annotate/application/session"
	"sgdet-annotate/core/eventbus"
	"sgdet-annotate/infrastructure/config"
	"sgdet-annotate/infrastructure/logging"
	"sgdet-annotate/infrastructure/storage"
	"sgdet-annotate/presentation"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
)

func main() {
	// Load application config first so it can shape logging.
	cfg, cfgErr := config.Load(config.DefaultPath())
	if cfgErr != nil {
		cfg = config.Default()
	}

	// Initialize logging (dev: console only, prod: rotating file)
	logCfg := logging.DefaultConfig()
	logCfg.Level = logLevel(cfg.Logging.Level)
	logCfg.MaxSizeMB = cfg.Logging.MaxSizeMB
	logCfg.MaxBackups = cfg.Logging.MaxBackups
	logCfg.MaxAgeDays = cfg.Logging.MaxAgeDays

	logger, closeLog, err := logging.Setup(logCfg)
	if err != nil {
		os.Stderr.WriteString("Failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closeLog()

	logger.Info("Starting SGDET Annotate")
	if cfgErr != nil {
		logger.Warn("Config load failed, using defaults", "error", cfgErr)
	}

	// Initialize the output store
	store, err := storage.NewStore(cfg.OutputDir, logger)
	if err != nil {
		logger.Error("Failed to initialize output directory", "error", err)
		os.Exit(1)
	}
	logger.Info("Output directory ready", "dir", store.Dir())

	// Initialize event bus
	eventBus := eventbus.New()
	defer eventBus.Close()

	// Initialize the annotation session
	session := appsession.New(&appsession.Config{
		EventBus: eventBus,
		Store:    store,
		Logger:   logger,
	})
	if err := session.LoadDictionaries(); err != nil {
		logger.Warn("Failed to restore dictionaries", "error", err)
	}

	// Initialize Fyne app
	fyneApp := app.New()

	mainWindow := presentation.NewMainWindow(&presentation.MainWindowConfig{
		App:      fyneApp,
		Session:  session,
		EventBus: eventBus,
		Logger:   logger,
		Size:     fyne.NewSize(float32(cfg.Window.Width), float32(cfg.Window.Height)),
	})

	// Show and run
	mainWindow.Show()
	fyneApp.Run()

	logger.Info("Application shutdown complete")
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
