// Package bootstrap opens the configured secret backend and assembles the
// property environment used by the commands.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Checker-Finance/secretprops/internal/environment"
	"github.com/Checker-Finance/secretprops/internal/rate"
	"github.com/Checker-Finance/secretprops/internal/secrets"
	"github.com/Checker-Finance/secretprops/pkg/config"
	"github.com/Checker-Finance/secretprops/pkg/propertysource"
	pkgsecrets "github.com/Checker-Finance/secretprops/pkg/secrets"
)

// Source names, in precedence order.
const (
	SecretSourceName = "secret-manager"
	EnvSourceName    = "systemEnvironment"
	DotenvSourceName = "dotenv"
	FileSourceName   = "applicationConfig"
)

// Backend is an opened secret provider plus its cleanup.
type Backend struct {
	Provider  pkgsecrets.Provider
	ProjectID string
	Close     func() error
}

// OpenBackend connects to the backend named in cfg. For GCP an empty project
// is detected from the metadata server.
func OpenBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	var (
		provider  pkgsecrets.Provider
		closer    = func() error { return nil }
		projectID = cfg.ProjectID
	)

	switch cfg.SecretsBackend {
	case config.BackendGCP:
		gcp, err := pkgsecrets.NewGCPProvider(ctx)
		if err != nil {
			return nil, err
		}
		if projectID == "" {
			if projectID, err = pkgsecrets.DetectProjectID(ctx); err != nil {
				_ = gcp.Close()
				return nil, err
			}
		}
		provider, closer = gcp, gcp.Close
	case config.BackendAWS:
		aws, err := pkgsecrets.NewAWSProvider(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		provider = aws
	default:
		return nil, fmt.Errorf("unsupported secrets backend %q", cfg.SecretsBackend)
	}

	if rc := accessLimit(cfg); rc.Enabled() {
		provider = rate.NewProvider(provider, rate.NewManager(rc))
	}
	return &Backend{Provider: provider, ProjectID: projectID, Close: closer}, nil
}

func accessLimit(cfg *config.Config) rate.Config {
	return rate.Config{RequestsPerSecond: cfg.SecretsAccessRPS, Burst: cfg.SecretsAccessBurst}
}

// Result is the assembled environment plus the secret source on its own.
type Result struct {
	Environment *environment.Environment
	Secrets     *secrets.PropertySource // nil when secrets are disabled
}

// NewEnvironment resolves the secret source (fail-fast) and layers it above
// the process environment, the optional .env file and the optional
// application config file. backend may be nil when secrets are disabled.
func NewEnvironment(ctx context.Context, cfg *config.Config, backend *Backend, logger *zap.Logger) (*Result, error) {
	var sources []propertysource.PropertySource
	res := &Result{}

	if cfg.SecretsEnabled {
		if backend == nil {
			return nil, fmt.Errorf("secrets enabled but no backend opened")
		}
		src, err := secrets.NewPropertySource(ctx, SecretSourceName, backend.Provider, backend.ProjectID,
			secrets.WithLogger(logger),
			secrets.WithBackend(cfg.SecretsBackend),
		)
		if err != nil {
			return nil, fmt.Errorf("load secret properties: %w", err)
		}
		res.Secrets = src
		sources = append(sources, src)
	} else {
		logger.Info("bootstrap.secrets_disabled")
	}

	sources = append(sources, propertysource.NewEnv(EnvSourceName))

	if cfg.DotenvFile != "" {
		src, err := propertysource.NewDotenv(DotenvSourceName, cfg.DotenvFile)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if cfg.AppConfigFile != "" {
		src, err := propertysource.NewFile(FileSourceName, cfg.AppConfigFile)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}

	res.Environment = environment.New(sources...)
	return res, nil
}
