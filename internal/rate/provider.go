package rate

import (
	"context"
	"fmt"

	"github.com/Checker-Finance/secretprops/pkg/secrets"
)

// Provider throttles secret version access per project. Listing is passed
// through untouched.
type Provider struct {
	inner   secrets.Provider
	manager *Manager
}

// NewProvider wraps inner so every AccessSecretVersion waits on the project's limiter.
func NewProvider(inner secrets.Provider, manager *Manager) *Provider {
	return &Provider{inner: inner, manager: manager}
}

func (p *Provider) ListSecrets(ctx context.Context, projectID string) secrets.SecretIterator {
	return p.inner.ListSecrets(ctx, projectID)
}

func (p *Provider) AccessSecretVersion(ctx context.Context, ref secrets.VersionName) ([]byte, error) {
	if err := p.manager.Wait(ctx, ref.Project); err != nil {
		return nil, fmt.Errorf("rate limit wait for %s: %w", ref, err)
	}
	return p.inner.AccessSecretVersion(ctx, ref)
}
