package secrets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSecretsManager struct {
	secrets map[string]string
}

func (m *mockSecretsManager) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if v, ok := m.secrets[aws.ToString(params.SecretId)]; ok {
		return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
	}

	return nil, errors.New("ResourceNotFoundException")
}

func TestResolveLiteral(t *testing.T) {
	token, err := Resolve(context.Background(), " qwerty ")
	require.NoError(t, err)
	assert.Equal(t, "qwerty", token)
}

func TestResolveEnv(t *testing.T) {
	t.Setenv("WORDPRESS_TOKEN", "from-env")

	token, err := Resolve(context.Background(), "env:WORDPRESS_TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "from-env", token)

	_, err = Resolve(context.Background(), "env:WORDPRESS_TOKEN_MISSING")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(file, []byte("from-file\n"), 0600))

	token, err := Resolve(context.Background(), "file:"+file)
	require.NoError(t, err)
	assert.Equal(t, "from-file", token)

	_, err = Resolve(context.Background(), "file:"+filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestResolveSecretsManager(t *testing.T) {
	resolver := Resolver{
		SecretsManager: func(ctx context.Context) (SecretValueGetter, error) {
			return &mockSecretsManager{
				secrets: map[string]string{
					"wordpress/token": "from-aws",
					"wordpress/blank": " ",
				},
			}, nil
		},
	}

	token, err := resolver.Resolve(context.Background(), "aws-secretsmanager:wordpress/token")
	require.NoError(t, err)
	assert.Equal(t, "from-aws", token)

	_, err = resolver.Resolve(context.Background(), "aws-secretsmanager:wordpress/blank")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = resolver.Resolve(context.Background(), "aws-secretsmanager:wordpress/missing")
	assert.Error(t, err)
}
