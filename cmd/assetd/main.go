package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"asset-tracker-backend/config"
	"asset-tracker-backend/internal/db"
	"asset-tracker-backend/internal/logging"
	"asset-tracker-backend/internal/store"
)

const defaultConfigPath = "./config/config.yaml" // Default path for local development

// app bundles what every subcommand needs. It is built once per invocation.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	store  store.Store
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
	_ = a.logger.Sync()
}

// loadConfig reads path. A missing file at the implicit default path falls back to built-in defaults.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
}

func newApp(configPath string, explicit bool) (*app, error) {
	cfg, err := loadConfig(configPath, explicit)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(&cfg.Log)
	if err != nil {
		return nil, err
	}
	logger.Info("Configuration loaded", zap.String("path", configPath), zap.String("driver", cfg.Database.Driver))

	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     gormDB,
		store:  store.NewGormStore(gormDB),
	}, nil
}

func newRootCmd() *cobra.Command {
	configPath := os.Getenv("CONFIG_PATH")
	explicit := configPath != ""
	if configPath == "" {
		configPath = defaultConfigPath
	}

	root := &cobra.Command{
		Use:           "assetd",
		Short:         "Asset tracking service: equipment, departments, spreadsheet import and audit log",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", configPath, "Path to the YAML configuration file (env CONFIG_PATH)")

	open := func(cmd *cobra.Command) (*app, error) {
		return newApp(configPath, explicit || cmd.Flags().Changed("config"))
	}

	root.AddCommand(
		newServeCmd(open),
		newImportCmd(open),
		newSeedCmd(open),
		newExportCmd(open),
	)
	return root
}

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
