package secrets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
	"google.golang.org/api/iterator"

	"github.com/Checker-Finance/secretprops/internal/metrics"
	"github.com/Checker-Finance/secretprops/pkg/propertysource"
	pkgsecrets "github.com/Checker-Finance/secretprops/pkg/secrets"
)

// SecretsNamespace prefixes every property produced from a secret.
const SecretsNamespace = "spring-cloud-gcp.secrets."

var (
	// ErrEmptyProjectID is returned when no project is given.
	ErrEmptyProjectID = errors.New("project id must not be empty")

	// ErrInvalidPayload is returned when a payload is not valid UTF-8.
	ErrInvalidPayload = errors.New("secret payload is not valid UTF-8")
)

// PropertySource exposes the latest version of every secret in a project as
// "spring-cloud-gcp.secrets.<secretId>" properties. It is built once and
// never refreshed.
type PropertySource struct {
	*propertysource.Map
	provider  pkgsecrets.Provider
	projectID string
}

// Source returns the provider the properties were read from. The property
// source never closes it.
func (s *PropertySource) Source() pkgsecrets.Provider { return s.provider }

// ProjectID returns the project the secrets were listed from.
func (s *PropertySource) ProjectID() string { return s.projectID }

type options struct {
	logger  *zap.Logger
	backend string
}

// Option configures NewPropertySource.
type Option func(*options)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBackend names the provider in logs and metrics (e.g. "gcp", "aws").
func WithBackend(backend string) Option {
	return func(o *options) { o.backend = backend }
}

// NewPropertySource lists every secret of projectID, reads the latest version
// of each and returns them as an immutable property source.
//
// Any listing, access or decoding error aborts the whole build; no partial
// source is ever returned. Secrets whose name has no segments are skipped.
func NewPropertySource(ctx context.Context, name string, provider pkgsecrets.Provider, projectID string, opts ...Option) (*PropertySource, error) {
	o := options{logger: zap.NewNop(), backend: "gcp"}
	for _, opt := range opts {
		opt(&o)
	}
	if projectID == "" {
		return nil, ErrEmptyProjectID
	}

	logger := o.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("project", projectID),
		zap.String("backend", o.backend),
	)

	start := time.Now()
	defer metrics.ObserveDuration(metrics.ResolveDuration, start, o.backend)

	values, err := resolve(ctx, logger, o.backend, provider, projectID)
	if err != nil {
		logger.Error("secretmanager.property_source_failed", zap.Error(err))
		return nil, err
	}

	metrics.AddSecretsResolved(o.backend, len(values))
	logger.Info("secretmanager.property_source_loaded",
		zap.String("source", name),
		zap.Int("count", len(values)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &PropertySource{
		Map:       propertysource.NewMap(name, values),
		provider:  provider,
		projectID: projectID,
	}, nil
}

func resolve(ctx context.Context, logger *zap.Logger, backend string, provider pkgsecrets.Provider, projectID string) (map[string]string, error) {
	values := make(map[string]string)

	it := provider.ListSecrets(ctx, projectID)
	for {
		secret, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return values, nil
		}
		if err != nil {
			metrics.IncResolveFailure(backend, "list")
			return nil, fmt.Errorf("list secrets for project %q: %w", projectID, err)
		}

		secretID, ok := pkgsecrets.SecretID(secret.Name)
		if !ok {
			logger.Debug("secretmanager.secret_skipped", zap.String("name", secret.Name))
			continue
		}

		payload, err := payloadFor(ctx, backend, provider, projectID, secretID)
		if err != nil {
			return nil, err
		}

		key := SecretsNamespace + secretID
		if _, dup := values[key]; dup {
			logger.Warn("secretmanager.duplicate_secret_id", zap.String("secret", secretID))
		}
		values[key] = payload
	}
}

func payloadFor(ctx context.Context, backend string, provider pkgsecrets.Provider, projectID, secretID string) (string, error) {
	ref := pkgsecrets.VersionName{
		Project: projectID,
		Secret:  secretID,
		Version: pkgsecrets.LatestVersion,
	}

	data, err := provider.AccessSecretVersion(ctx, ref)
	if err != nil {
		metrics.IncSecretAccess(backend, "error")
		metrics.IncResolveFailure(backend, "access")
		return "", fmt.Errorf("access secret %q: %w", secretID, err)
	}
	metrics.IncSecretAccess(backend, "ok")

	text, err := decodeUTF8(data)
	if err != nil {
		metrics.IncResolveFailure(backend, "decode")
		return "", fmt.Errorf("decode secret %q: %w", secretID, err)
	}
	return text, nil
}

func decodeUTF8(data []byte) (string, error) {
	out, _, err := transform.Bytes(encoding.UTF8Validator, data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return string(out), nil
}
