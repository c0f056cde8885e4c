package main

import (
	"fmt"
	"taskManager/internal/app"
	"taskManager/internal/config"
	"taskManager/internal/logger"
	"taskManager/internal/repository/postgres"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "api",
	Short: "Task manager HTTP API",
	Long: `Task manager backend: JWT and OTP authentication, role-gated task CRUD
and an admin dashboard. Without a subcommand runs the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and background workers",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(postgres.MigrateUp)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(postgres.MigrateDown)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to config.yml")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("загрузка конфига: %w", err)
	}

	a, err := app.New(cfg).Init(cmd.Context())
	if err != nil {
		return err
	}
	return a.Run(cmd.Context())
}

func runMigrate(migrate func(url string) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("загрузка конфига: %w", err)
	}
	if err := logger.Init(cfg.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}
	defer logger.Sync()

	if err := migrate(cfg.Database.URL); err != nil {
		logger.Error("Migrate: Ошибка миграции", err)
		return err
	}
	logger.Info("Migrate: Готово")
	return nil
}
