package cmd

import (
	"context"
	"fmt"
	"os"

	"foodgram/config"
	"foodgram/database"
	"foodgram/logger"
	"foodgram/media"
	"foodgram/repositories"
	"foodgram/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "foodgram",
	Short:         "Recipe sharing service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./config.yaml or ./config/config.yaml)")
}

// Execute runs the command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app holds what every command builds from the configuration.
type app struct {
	cfg   config.Config
	log   *zap.Logger
	db    *gorm.DB
	store media.Store

	userRepo repositories.UserRepository
	users    services.UserService
}

func bootstrap(ctx context.Context) (*app, error) {
	if err := config.InitConfig(configFile); err != nil {
		return nil, err
	}
	cfg := config.AppConfig

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	level := gormlogger.Warn
	if cfg.LogLevel == "debug" {
		level = gormlogger.Info
	}
	db, err := database.InitDB(cfg.Database, log, level)
	if err != nil {
		return nil, err
	}

	store, err := media.New(ctx, cfg.Media)
	if err != nil {
		return nil, fmt.Errorf("failed to set up media store: %w", err)
	}

	a := &app{cfg: cfg, log: log, db: db, store: store}
	a.userRepo = repositories.NewUserRepository(db)
	a.users = services.NewUserService(a.userRepo, repositories.NewSubscriptionRepository(db),
		repositories.NewRecipeRepository(db), store, log)
	return a, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync() // Make sure the buffer is flushed before the program exits
}
