package aws

import (
	"context"
	"encoding/json"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsClient reads configuration secrets. The config loader performs a
// single read at startup, so there is no caching layer here.
type SecretsClient struct {
	client *secretsmanager.Client
}

func NewSecretsClient(cfg sdkaws.Config) *SecretsClient {
	return &SecretsClient{client: secretsmanager.NewFromConfig(cfg)}
}

// GetJSONSecret fetches the named secret and decodes its string value into
// out.
func (s *SecretsClient) GetJSONSecret(ctx context.Context, name string, out any) error {
	res, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: sdkaws.String(name),
	})
	if err != nil {
		return fmt.Errorf("get secret %s: %w", name, err)
	}
	if res.SecretString == nil {
		return fmt.Errorf("secret %s has no string value", name)
	}
	if err := json.Unmarshal([]byte(*res.SecretString), out); err != nil {
		return fmt.Errorf("decode secret %s: %w", name, err)
	}
	return nil
}
