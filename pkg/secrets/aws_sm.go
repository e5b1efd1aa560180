package secrets

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"google.golang.org/api/iterator"
)

// awsCurrentStage is the staging label AWS attaches to the latest version.
const awsCurrentStage = "AWSCURRENT"

// awsAPI is the subset of *secretsmanager.Client used by the provider.
type awsAPI interface {
	secretsmanager.ListSecretsAPIClient
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsManagerProvider implements Provider using AWS Secrets Manager.
//
// AWS has no projects, so a project is a name prefix: secrets named
// "{project}/{id}" belong to project "{project}".
type AWSSecretsManagerProvider struct {
	client awsAPI
}

// NewAWSProvider creates a new AWS Secrets Manager provider for the given region.
func NewAWSProvider(ctx context.Context, region string) (*AWSSecretsManagerProvider, error) {
	cfg, err := LoadAWSConfig(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &AWSSecretsManagerProvider{client: secretsmanager.NewFromConfig(cfg)}, nil
}

// ListSecrets returns a lazy iterator over the secrets named "{projectID}/{id}".
// Pages are fetched on demand. The AWS name filter matches prefixes without
// regard to case and at any depth, so entries whose name is not exactly
// "{projectID}/" plus a single non-empty segment are dropped; each yielded
// name reads back as ref.Project + "/" + ref.Secret.
func (p *AWSSecretsManagerProvider) ListSecrets(ctx context.Context, projectID string) SecretIterator {
	input := &secretsmanager.ListSecretsInput{
		Filters: []types.Filter{
			{
				Key:    types.FilterNameStringTypeName,
				Values: []string{projectID + "/"},
			},
		},
		MaxResults: aws.Int32(100),
	}
	return &awsIterator{
		ctx:       ctx,
		projectID: projectID,
		paginator: secretsmanager.NewListSecretsPaginator(p.client, input),
	}
}

// AccessSecretVersion fetches the secret "{project}/{secret}". The latest
// version maps to the AWSCURRENT stage; anything else is treated as a version ID.
func (p *AWSSecretsManagerProvider) AccessSecretVersion(ctx context.Context, ref VersionName) ([]byte, error) {
	secretID := ref.Project + "/" + ref.Secret
	input := &secretsmanager.GetSecretValueInput{SecretId: aws.String(secretID)}
	if ref.Version == LatestVersion || ref.Version == "" {
		input.VersionStage = aws.String(awsCurrentStage)
	} else {
		input.VersionId = aws.String(ref.Version)
	}

	out, err := p.client.GetSecretValue(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch secret [%s]: %w", secretID, err)
	}
	if out.SecretBinary != nil {
		return out.SecretBinary, nil
	}
	if out.SecretString != nil {
		return []byte(*out.SecretString), nil
	}
	return nil, fmt.Errorf("empty payload for secret [%s]", secretID)
}

// LoadAWSConfig loads the default credential chain for region.
func LoadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx, config.WithRegion(region))
}

type awsIterator struct {
	ctx       context.Context
	projectID string
	paginator *secretsmanager.ListSecretsPaginator
	buf       []types.SecretListEntry
}

func (a *awsIterator) Next() (*Secret, error) {
	for {
		for len(a.buf) == 0 {
			if !a.paginator.HasMorePages() {
				return nil, iterator.Done
			}
			page, err := a.paginator.NextPage(a.ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to list secrets with prefix [%s/]: %w", a.projectID, err)
			}
			a.buf = page.SecretList
		}

		name := aws.ToString(a.buf[0].Name)
		a.buf = a.buf[1:]
		if a.directChild(name) {
			return &Secret{Name: name}, nil
		}
	}
}

func (a *awsIterator) directChild(name string) bool {
	id, ok := strings.CutPrefix(name, a.projectID+"/")
	return ok && id != "" && !strings.Contains(id, "/")
}
