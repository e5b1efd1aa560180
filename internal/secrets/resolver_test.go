package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pkgsecrets "github.com/Checker-Finance/secretprops/pkg/secrets"
)

// ─── Mock provider ────────────────────────────────────────────────────────────

type listing struct {
	names []string
	err   error // returned after names are exhausted
}

func (l *listing) Next() (*pkgsecrets.Secret, error) {
	if len(l.names) == 0 {
		if l.err != nil {
			return nil, l.err
		}
		return nil, iterator.Done
	}
	next := l.names[0]
	l.names = l.names[1:]
	return &pkgsecrets.Secret{Name: next}, nil
}

type mockProvider struct {
	names     []string
	listErr   error
	payloads  map[string][]byte
	accessErr map[string]error

	listCalls int
	listedFor string
	accessed  []pkgsecrets.VersionName
}

func (m *mockProvider) ListSecrets(_ context.Context, projectID string) pkgsecrets.SecretIterator {
	m.listCalls++
	m.listedFor = projectID
	return &listing{names: append([]string(nil), m.names...), err: m.listErr}
}

func (m *mockProvider) AccessSecretVersion(_ context.Context, ref pkgsecrets.VersionName) ([]byte, error) {
	m.accessed = append(m.accessed, ref)
	if err, ok := m.accessErr[ref.Secret]; ok {
		return nil, err
	}
	data, ok := m.payloads[ref.Secret]
	if !ok {
		return nil, status.Error(codes.NotFound, "secret not found: "+ref.String())
	}
	return data, nil
}

func build(t *testing.T, p *mockProvider, projectID string, opts ...Option) (*PropertySource, error) {
	t.Helper()
	return NewPropertySource(context.Background(), "secret-manager", p, projectID, opts...)
}

// ─── End-to-end scenarios ─────────────────────────────────────────────────────

func TestNewPropertySource_SingleSecret(t *testing.T) {
	p := &mockProvider{
		names:    []string{"projects/p/secrets/db-password"},
		payloads: map[string][]byte{"db-password": []byte("s3cr3t")},
	}

	src, err := build(t, p, "p")
	require.NoError(t, err)

	assert.Equal(t, []string{"spring-cloud-gcp.secrets.db-password"}, src.PropertyNames())
	v, ok := src.Property("spring-cloud-gcp.secrets.db-password")
	assert.True(t, ok)
	assert.Equal(t, "s3cr3t", v)

	assert.Equal(t, "secret-manager", src.Name())
	assert.Equal(t, "p", src.ProjectID())
	assert.Same(t, p, src.Source())
}

func TestNewPropertySource_AccessFailureAbortsWholeBuild(t *testing.T) {
	notFound := status.Error(codes.NotFound, "b not found")
	p := &mockProvider{
		names:     []string{"projects/p/secrets/a", "projects/p/secrets/b"},
		payloads:  map[string][]byte{"a": []byte("va")},
		accessErr: map[string]error{"b": notFound},
	}

	src, err := build(t, p, "p")
	require.Error(t, err)
	assert.Nil(t, src, "no partial property source may be returned")
	assert.ErrorIs(t, err, notFound)
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Contains(t, err.Error(), `"b"`)
}

func TestNewPropertySource_EmptyNameSkipped(t *testing.T) {
	p := &mockProvider{names: []string{""}}

	src, err := build(t, p, "p")
	require.NoError(t, err)
	assert.Empty(t, src.PropertyNames())
	assert.Empty(t, p.accessed, "degenerate names must not trigger an access call")
}

// ─── Resolution rules ─────────────────────────────────────────────────────────

func TestNewPropertySource_KeysArePrefixedIdentifiers(t *testing.T) {
	p := &mockProvider{
		names: []string{
			"projects/p/secrets/a",
			"projects/p/secrets/b",
			"c",
			"///",
		},
		payloads: map[string][]byte{
			"a": []byte("1"),
			"b": []byte("2"),
			"c": []byte("3"),
		},
	}

	src, err := build(t, p, "p")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"spring-cloud-gcp.secrets.a",
		"spring-cloud-gcp.secrets.b",
		"spring-cloud-gcp.secrets.c",
	}, src.PropertyNames())

	for _, name := range src.PropertyNames() {
		_, ok := src.Property(name)
		assert.True(t, ok, name)
	}
	_, ok := src.Property("spring-cloud-gcp.secrets.")
	assert.False(t, ok)
	_, ok = src.Property("a")
	assert.False(t, ok)
}

func TestNewPropertySource_AlwaysRequestsLatestOncePerSecret(t *testing.T) {
	p := &mockProvider{
		names:    []string{"projects/p/secrets/a", "projects/p/secrets/b", ""},
		payloads: map[string][]byte{"a": []byte("1"), "b": []byte("2")},
	}

	_, err := build(t, p, "my-project")
	require.NoError(t, err)

	assert.Equal(t, 1, p.listCalls)
	assert.Equal(t, "my-project", p.listedFor)
	assert.Equal(t, []pkgsecrets.VersionName{
		{Project: "my-project", Secret: "a", Version: "latest"},
		{Project: "my-project", Secret: "b", Version: "latest"},
	}, p.accessed)
}

func TestNewPropertySource_DuplicateIDLastWriteWins(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	calls := 0
	p := &dupProvider{values: []string{"first", "second"}, calls: &calls}

	src, err := NewPropertySource(context.Background(), "sm", p, "p", WithLogger(zap.New(core)))
	require.NoError(t, err)

	v, _ := src.Property("spring-cloud-gcp.secrets.dup")
	assert.Equal(t, "second", v)
	assert.Equal(t, []string{"spring-cloud-gcp.secrets.dup"}, src.PropertyNames())
	assert.Equal(t, 1, logs.FilterMessage("secretmanager.duplicate_secret_id").Len())
}

// dupProvider lists the same secret ID twice with different payloads.
type dupProvider struct {
	values []string
	calls  *int
}

func (d *dupProvider) ListSecrets(context.Context, string) pkgsecrets.SecretIterator {
	return &listing{names: []string{"projects/p/secrets/dup", "projects/q/secrets/dup"}}
}

func (d *dupProvider) AccessSecretVersion(context.Context, pkgsecrets.VersionName) ([]byte, error) {
	v := d.values[*d.calls]
	*d.calls++
	return []byte(v), nil
}

// ─── Failure modes ────────────────────────────────────────────────────────────

func TestNewPropertySource_ListFailure(t *testing.T) {
	denied := status.Error(codes.PermissionDenied, "denied")
	p := &mockProvider{
		names:    []string{"projects/p/secrets/a"},
		payloads: map[string][]byte{"a": []byte("1")},
		listErr:  denied,
	}

	src, err := build(t, p, "p")
	require.Error(t, err)
	assert.Nil(t, src)
	assert.ErrorIs(t, err, denied)
	assert.Contains(t, err.Error(), `project "p"`)
}

func TestNewPropertySource_InvalidUTF8(t *testing.T) {
	p := &mockProvider{
		names:    []string{"projects/p/secrets/bin"},
		payloads: map[string][]byte{"bin": {0xff, 0xfe, 0xfd}},
	}

	src, err := build(t, p, "p")
	require.Error(t, err)
	assert.Nil(t, src)
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Contains(t, err.Error(), `"bin"`)
}

func TestNewPropertySource_MultiByteUTF8(t *testing.T) {
	p := &mockProvider{
		names:    []string{"projects/p/secrets/greeting"},
		payloads: map[string][]byte{"greeting": []byte("olá, 世界")},
	}

	src, err := build(t, p, "p")
	require.NoError(t, err)
	v, _ := src.Property("spring-cloud-gcp.secrets.greeting")
	assert.Equal(t, "olá, 世界", v)
}

func TestNewPropertySource_EmptyProjectID(t *testing.T) {
	p := &mockProvider{}

	_, err := build(t, p, "")
	require.ErrorIs(t, err, ErrEmptyProjectID)
	assert.Zero(t, p.listCalls)
}

// ─── Read contract ────────────────────────────────────────────────────────────

func TestPropertySource_ReadsAreIdempotent(t *testing.T) {
	p := &mockProvider{
		names:    []string{"projects/p/secrets/a", "projects/p/secrets/b"},
		payloads: map[string][]byte{"a": []byte("1"), "b": []byte("2")},
	}

	src, err := build(t, p, "p")
	require.NoError(t, err)
	accessCalls := len(p.accessed)

	first := src.PropertyNames()
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, src.PropertyNames())
		v, ok := src.Property("spring-cloud-gcp.secrets.a")
		assert.True(t, ok)
		assert.Equal(t, "1", v)
	}
	assert.Equal(t, accessCalls, len(p.accessed), "reads must not re-fetch")
	assert.Equal(t, 1, p.listCalls)
}

func TestPropertySource_NoDuplicateNames(t *testing.T) {
	p := &mockProvider{
		names:    []string{"projects/p/secrets/a", "projects/p/secrets/b", "projects/p/secrets/c"},
		payloads: map[string][]byte{"a": nil, "b": []byte(""), "c": []byte("x")},
	}

	src, err := build(t, p, "p")
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, name := range src.PropertyNames() {
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}
	assert.Len(t, seen, 3)

	v, ok := src.Property("spring-cloud-gcp.secrets.a")
	assert.True(t, ok, "empty payloads still produce a property")
	assert.Equal(t, "", v)
}

func TestDecodeUTF8(t *testing.T) {
	s, err := decodeUTF8([]byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, "plain", s)

	_, err = decodeUTF8([]byte{'o', 'k', 0xc3})
	assert.True(t, errors.Is(err, ErrInvalidPayload))
}
