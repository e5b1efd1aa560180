package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Checker-Finance/secretprops/internal/bootstrap"
	"github.com/Checker-Finance/secretprops/pkg/config"
	"github.com/Checker-Finance/secretprops/pkg/logger"
)

var (
	appConfigFile string
	dotenvFile    string
	projectID     string
	backendName   string
)

// rootCmd is the application entry point.
var rootCmd = &cobra.Command{
	Use:   "secretprops",
	Short: "Expose cloud secrets as configuration properties",
	Long: `secretprops loads the latest version of every secret in a cloud project
and exposes each one as the property spring-cloud-gcp.secrets.<secret-id>,
layered above the process environment, an optional .env file and an optional
application config file. Config values may reference secrets with
${spring-cloud-gcp.secrets.<secret-id>} placeholders.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&appConfigFile, "config", "", "application config file (yaml, json or toml); overrides APP_CONFIG_FILE")
	rootCmd.PersistentFlags().StringVar(&dotenvFile, "dotenv", "", ".env file to expose as properties; overrides DOTENV_FILE")
	rootCmd.PersistentFlags().StringVar(&projectID, "project", "", "project to list secrets from; overrides GCP_PROJECT_ID")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "", "secret backend, gcp or aws; overrides SECRETS_BACKEND")
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if appConfigFile != "" {
		cfg.AppConfigFile = appConfigFile
	}
	if dotenvFile != "" {
		cfg.DotenvFile = dotenvFile
	}
	if projectID != "" {
		cfg.ProjectID = projectID
	}
	if backendName != "" {
		cfg.SecretsBackend = backendName
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// session is everything a command needs once startup succeeded.
type session struct {
	cfg    *config.Config
	log    *zap.Logger
	result *bootstrap.Result
	close  func()
}

// startSession loads config, opens the backend and resolves all property
// sources. Any failure aborts startup.
func startSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	log := logger.L()

	var backend *bootstrap.Backend
	closeFn := func() {}
	if cfg.SecretsEnabled {
		backend, err = bootstrap.OpenBackend(ctx, cfg)
		if err != nil {
			log.Error("bootstrap.backend_open_failed", zap.String("backend", cfg.SecretsBackend), zap.Error(err))
			return nil, err
		}
		closeFn = func() {
			if err := backend.Close(); err != nil {
				log.Warn("bootstrap.backend_close_failed", zap.Error(err))
			}
		}
	}

	result, err := bootstrap.NewEnvironment(ctx, cfg, backend, log)
	if err != nil {
		closeFn()
		log.Error("bootstrap.environment_failed", zap.Error(err))
		return nil, err
	}

	return &session{cfg: cfg, log: log, result: result, close: closeFn}, nil
}
