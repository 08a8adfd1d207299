package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/timeshift/cmd/cli/commands"
	"github.com/jakechorley/timeshift/internal/config"
	"github.com/jakechorley/timeshift/pkg/utils/logging"
)

var env string

func main() {
	// A missing .env is fine; the process environment still applies
	_ = godotenv.Load()

	app := &commands.AppContext{Ctx: context.Background()}

	rootCmd := &cobra.Command{
		Use:          "timeshift",
		Short:        "Timeshift CLI - Run overtime callouts",
		Long:         `A CLI tool for ranking overtime candidates, recording callout attempts and tracking overtime hours.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(app)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
			if app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", os.Getenv("TIMESHIFT_ENV"), "Environment (test, prod, etc.)")
	rootCmd.PersistentFlags().StringVar(&app.ActorID, "actor", os.Getenv("TIMESHIFT_ACTOR_ID"), "User id of the caller")
	rootCmd.PersistentFlags().StringVar(&app.OrgID, "org", os.Getenv("TIMESHIFT_ORG_ID"), "Organisation id of the caller")
	rootCmd.PersistentFlags().StringVar(&app.Role, "role", envOr("TIMESHIFT_ROLE", "supervisor"), "Role of the caller (admin, supervisor)")
	rootCmd.PersistentFlags().BoolVar(&app.JSON, "json", false, "Print results as JSON")

	// Add all commands
	for _, cmd := range commands.All(app) {
		rootCmd.AddCommand(cmd)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// initApp sets up config, logger and store
func initApp(app *commands.AppContext) error {
	var err error

	// Load configuration
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	app.Logger, err = logging.InitLogger(env, app.Cfg.Logging.Dir)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application",
		zap.String("environment", env),
		zap.String("driver", app.Cfg.Database.Driver))

	if err := app.OpenStore(); err != nil {
		return err
	}
	app.Logger.Debug("Application initialized successfully")

	return nil
}
