package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported secret backends.
const (
	BackendGCP = "gcp"
	BackendAWS = "aws"
)

// Config holds the runtime configuration for secretprops.
type Config struct {
	ServiceName string
	Env         string
	LogLevel    string

	// Secret source
	SecretsEnabled     bool
	SecretsBackend     string
	ProjectID          string
	AWSRegion          string
	SecretsAccessRPS   float64
	SecretsAccessBurst int

	// Other property sources, lowest precedence last.
	AppConfigFile string
	DotenvFile    string

	// HTTP (serve command)
	Port             int
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// Load loads configuration from environment variables and optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServiceName:        GetEnv("SERVICE_NAME", "secretprops"),
		Env:                GetEnv("ENV", "dev"),
		LogLevel:           GetEnv("LOG_LEVEL", "info"),
		SecretsEnabled:     GetEnvBool("SECRETS_ENABLED", true),
		SecretsBackend:     strings.ToLower(GetEnv("SECRETS_BACKEND", BackendGCP)),
		ProjectID:          GetEnv("GCP_PROJECT_ID", GetEnv("GOOGLE_CLOUD_PROJECT", "")),
		AWSRegion:          GetEnv("AWS_REGION", "us-east-2"),
		SecretsAccessRPS:   GetEnvFloat("SECRETS_ACCESS_RPS", 0),
		SecretsAccessBurst: GetEnvInt("SECRETS_ACCESS_BURST", 10),
		AppConfigFile:      GetEnv("APP_CONFIG_FILE", ""),
		DotenvFile:         GetEnv("DOTENV_FILE", ""),
		Port:               GetEnvInt("PORT", 9040),
		HTTPReadTimeout:    GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout:   GetEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
		HTTPIdleTimeout:    GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
	}
}

// Validate reports configuration that would make the secret source unusable.
// An empty GCP project is allowed; it is detected from the metadata server.
func (c *Config) Validate() error {
	if !c.SecretsEnabled {
		return nil
	}
	var errs []error
	switch c.SecretsBackend {
	case BackendGCP:
	case BackendAWS:
		if c.ProjectID == "" {
			errs = append(errs, errors.New("GCP_PROJECT_ID is required as the secret name prefix for the aws backend"))
		}
		if c.AWSRegion == "" {
			errs = append(errs, errors.New("AWS_REGION is required for the aws backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported SECRETS_BACKEND %q (want %q or %q)", c.SecretsBackend, BackendGCP, BackendAWS))
	}
	if c.SecretsAccessRPS < 0 {
		errs = append(errs, errors.New("SECRETS_ACCESS_RPS must not be negative"))
	}
	return errors.Join(errs...)
}
