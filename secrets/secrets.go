// Package secrets resolves the WordPress bearer token from a token reference.
//
// A reference is one of:
//
//   - env:NAME                     the value of the environment variable NAME
//   - file:/path/to/token          the trimmed contents of the file
//   - aws-secretsmanager:<id>      the string value of the AWS Secrets Manager secret
//   - anything else                the literal token
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

var ErrNotFound = errors.New("secret not found")

// SecretValueGetter is the subset of the AWS Secrets Manager client used to resolve tokens.
type SecretValueGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type Resolver struct {
	// SecretsManager creates the AWS client on demand. Defaults to a client using the AWS default
	// credentials chain.
	SecretsManager func(ctx context.Context) (SecretValueGetter, error)
}

// Resolve resolves a token reference with the default resolver.
func Resolve(ctx context.Context, reference string) (string, error) {
	return Resolver{}.Resolve(ctx, reference)
}

func (r Resolver) Resolve(ctx context.Context, reference string) (string, error) {
	reference = strings.TrimSpace(reference)

	switch {
	case strings.HasPrefix(reference, "env:"):
		name := strings.TrimPrefix(reference, "env:")
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, nil
		}

		return "", fmt.Errorf("environment variable %v: %w", name, ErrNotFound)

	case strings.HasPrefix(reference, "file:"):
		file := strings.TrimPrefix(reference, "file:")
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("error reading token file (%w)", err)
		}

		if v := strings.TrimSpace(string(b)); v != "" {
			return v, nil
		}

		return "", fmt.Errorf("token file %v: %w", file, ErrNotFound)

	case strings.HasPrefix(reference, "aws-secretsmanager:"):
		return r.aws(ctx, strings.TrimPrefix(reference, "aws-secretsmanager:"))

	default:
		return reference, nil
	}
}

func (r Resolver) aws(ctx context.Context, id string) (string, error) {
	f := r.SecretsManager
	if f == nil {
		f = defaultSecretsManager
	}

	client, err := f(ctx)
	if err != nil {
		return "", err
	}

	output, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})

	if err != nil {
		return "", fmt.Errorf("failed to retrieve secret %v (%w)", id, err)
	}

	if output.SecretString == nil || strings.TrimSpace(*output.SecretString) == "" {
		return "", fmt.Errorf("secret %v: %w", id, ErrNotFound)
	}

	return strings.TrimSpace(*output.SecretString), nil
}

func defaultSecretsManager(ctx context.Context) (SecretValueGetter, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config (%w)", err)
	}

	return secretsmanager.NewFromConfig(cfg), nil
}
