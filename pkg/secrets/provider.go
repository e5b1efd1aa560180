package secrets

import (
	"context"
	"fmt"
	"net/url"
)

// LatestVersion selects the most recently added version of a secret.
const LatestVersion = "latest"

// Secret describes a secret in a listing. Name is the fully-qualified resource
// name, e.g. "projects/my-project/secrets/db-password".
type Secret struct {
	Name string
}

// SecretIterator is a lazy, finite, non-restartable sequence of secrets.
// Next returns iterator.Done once the listing is exhausted.
type SecretIterator interface {
	Next() (*Secret, error)
}

// VersionName references one version of a secret within a project.
type VersionName struct {
	Project string
	Secret  string
	Version string
}

// String renders the fully-qualified version resource name.
func (v VersionName) String() string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/%s",
		url.PathEscape(v.Project), url.PathEscape(v.Secret), url.PathEscape(v.Version))
}

// Provider defines the read side of a secret-storage service.
// Concrete implementations (GCP, AWS) satisfy this. Implementations own
// pagination and authentication; callers only drain the iterator.
type Provider interface {
	// ListSecrets returns every secret visible under projectID.
	ListSecrets(ctx context.Context, projectID string) SecretIterator

	// AccessSecretVersion returns the raw payload bytes of the referenced version.
	AccessSecretVersion(ctx context.Context, ref VersionName) ([]byte, error)
}
