package secrets

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"

	"cloud.google.com/go/compute/metadata"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

// ErrPayloadCorrupted is returned when a payload does not match its CRC32C checksum.
var ErrPayloadCorrupted = errors.New("secret payload data corruption detected")

var crc32c = crc32.MakeTable(crc32.Castagnoli)

// gcpSecretIterator matches the Next method of *secretmanager.SecretIterator.
type gcpSecretIterator interface {
	Next() (*secretmanagerpb.Secret, error)
}

// gcpClient is the subset of *secretmanager.Client used by the provider.
type gcpClient interface {
	ListSecrets(ctx context.Context, req *secretmanagerpb.ListSecretsRequest, opts ...gax.CallOption) gcpSecretIterator
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// clientAdapter lets the concrete client satisfy gcpClient despite returning
// a concrete iterator type.
type clientAdapter struct {
	*secretmanager.Client
}

func (c clientAdapter) ListSecrets(ctx context.Context, req *secretmanagerpb.ListSecretsRequest, opts ...gax.CallOption) gcpSecretIterator {
	return c.Client.ListSecrets(ctx, req, opts...)
}

// GCPSecretManagerProvider implements Provider using Google Cloud Secret Manager.
type GCPSecretManagerProvider struct {
	client gcpClient
	closer func() error
}

// NewGCPProvider opens a Secret Manager client with application default
// credentials (or the given options). The provider owns the client; call Close.
func NewGCPProvider(ctx context.Context, opts ...option.ClientOption) (*GCPSecretManagerProvider, error) {
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create secretmanager client: %w", err)
	}
	return &GCPSecretManagerProvider{client: clientAdapter{client}, closer: client.Close}, nil
}

// NewGCPProviderFromClient wraps a client owned by the caller. Close is a no-op.
func NewGCPProviderFromClient(client *secretmanager.Client) *GCPSecretManagerProvider {
	return &GCPSecretManagerProvider{client: clientAdapter{client}}
}

// ListSecrets lists every secret under projects/{projectID}. Pagination is
// handled by the generated iterator.
func (p *GCPSecretManagerProvider) ListSecrets(ctx context.Context, projectID string) SecretIterator {
	it := p.client.ListSecrets(ctx, &secretmanagerpb.ListSecretsRequest{
		Parent: "projects/" + projectID,
	})
	return &gcpIterator{it: it}
}

// AccessSecretVersion fetches the payload of ref and verifies its checksum when
// the service supplies one.
func (p *GCPSecretManagerProvider) AccessSecretVersion(ctx context.Context, ref VersionName) ([]byte, error) {
	name := ref.String()
	resp, err := p.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return nil, fmt.Errorf("failed to access secret version for %s: %w", name, err)
	}
	if resp == nil || resp.GetPayload() == nil {
		return nil, fmt.Errorf("empty payload for secret version %s", name)
	}

	data := resp.GetPayload().GetData()
	if want := resp.GetPayload().DataCrc32C; want != nil {
		if got := int64(crc32.Checksum(data, crc32c)); got != *want {
			return nil, fmt.Errorf("%s: %w", name, ErrPayloadCorrupted)
		}
	}
	return data, nil
}

// Close releases the underlying client when the provider owns it.
func (p *GCPSecretManagerProvider) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

type gcpIterator struct {
	it gcpSecretIterator
}

func (g *gcpIterator) Next() (*Secret, error) {
	s, err := g.it.Next()
	if err != nil {
		return nil, err
	}
	return &Secret{Name: s.GetName()}, nil
}

// DetectProjectID returns the project of the GCE/GKE/Cloud Run metadata server,
// or an error when not running on Google Cloud.
func DetectProjectID(ctx context.Context) (string, error) {
	if !metadata.OnGCE() {
		return "", errors.New("project id not configured and metadata server unavailable")
	}
	id, err := metadata.ProjectIDWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read project id from metadata: %w", err)
	}
	return id, nil
}
