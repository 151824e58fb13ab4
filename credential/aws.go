package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

var (
	awsCfg  aws.Config
	awsOnce sync.Once
	awsErr  error
)

// AWSConfig carrega a configuração da AWS (env vars, profile, IAM role) de forma lazy-singleton.
// A região da primeira chamada vale para todo o processo.
func AWSConfig(ctx context.Context, region string) (aws.Config, error) {
	awsOnce.Do(func() {
		opts := []func(*config.LoadOptions) error{}
		if region != "" {
			opts = append(opts, config.WithRegion(region))
		}
		awsCfg, awsErr = config.LoadDefaultConfig(ctx, opts...)
	})
	return awsCfg, awsErr
}

// Interfaces para abstrair o SDK da AWS (permite mocking).
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// errSource defers an initialization error to Resolve.
type errSource struct {
	name string
	err  error
}

func (s errSource) Resolve(context.Context) (string, error) { return "", s.err }
func (s errSource) String() string                          { return s.name }

type ssmSource struct {
	client SSMClient
	path   string
}

// SSM returns a Source reading a SecureString parameter with the real client.
func SSM(ctx context.Context, region, path string) Source {
	cfg, err := AWSConfig(ctx, region)
	if err != nil {
		return errSource{name: "ssm:" + path, err: fmt.Errorf("aws config: %w", err)}
	}
	return NewSSMSource(ssm.NewFromConfig(cfg), path)
}

// NewSSMSource returns a Source reading the parameter at path, decrypted.
func NewSSMSource(client SSMClient, path string) Source {
	return &ssmSource{client: client, path: path}
}

func (s *ssmSource) Resolve(ctx context.Context) (string, error) {
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(s.path),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("ssm GetParameter %s: %w", s.path, err)
	}
	if out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
		return "", fmt.Errorf("%w: ssm %s", ErrNotFound, s.path)
	}
	return aws.ToString(out.Parameter.Value), nil
}

func (s *ssmSource) String() string { return "ssm:" + s.path }

type secretSource struct {
	client SecretsClient
	id     string
	field  string
}

// Secret returns a Source reading a Secrets Manager secret with the real client.
func Secret(ctx context.Context, region, id, field string) Source {
	cfg, err := AWSConfig(ctx, region)
	if err != nil {
		return errSource{name: "secret:" + id, err: fmt.Errorf("aws config: %w", err)}
	}
	return NewSecretSource(secretsmanager.NewFromConfig(cfg), id, field)
}

// NewSecretSource returns a Source reading the secret id. When field is set,
// the secret must be a JSON object and the value is that field.
func NewSecretSource(client SecretsClient, id, field string) Source {
	return &secretSource{client: client, id: id, field: field}
}

func (s *secretSource) Resolve(ctx context.Context) (string, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.id),
	})
	if err != nil {
		return "", fmt.Errorf("secretsmanager GetSecretValue %s: %w", s.id, err)
	}
	val := aws.ToString(out.SecretString)
	if val == "" {
		return "", fmt.Errorf("%w: secret %s", ErrNotFound, s.id)
	}
	if s.field == "" {
		return val, nil
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return "", fmt.Errorf("secret %s is not a JSON object: %w", s.id, err)
	}
	v, ok := data[s.field]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: secret %s#%s", ErrNotFound, s.id, s.field)
	}
	if str, ok := v.(string); ok {
		return str, nil
	}
	return fmt.Sprintf("%v", v), nil
}

func (s *secretSource) String() string {
	if s.field != "" {
		return "secret:" + s.id + "#" + s.field
	}
	return "secret:" + s.id
}
