package config

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/raywall/deta-toolkit/pkg/config/injector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockS3Loader struct {
	GetObjectFunc func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

func (m *MockS3Loader) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return m.GetObjectFunc(ctx, params, optFns...)
}

type MockDynamoLoader struct {
	GetItemFunc func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

func (m *MockDynamoLoader) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return m.GetItemFunc(ctx, params, optFns...)
}

const localYAML = `
version: "1"
client:
  project_key: "${env.TEST_DETA_KEY}"
  base: users
  http:
    timeout: 5s
logging:
  level: debug
  format: console
emulator:
  addr: ":9000"
  shutdown_timeout: 3s
  storage:
    driver: redis
    redis:
      addr: "localhost:6379"
      db: 2
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deta.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// --- Testes ---

func TestUniversalLoader_Load_Local(t *testing.T) {
	t.Setenv("TEST_DETA_KEY", "abc123_s3cr3t")
	path := writeConfig(t, localYAML)

	for _, source := range []string{path, "file://" + path} {
		cfg, err := NewUniversalLoader().Load(context.Background(), source)
		require.NoError(t, err, source)

		assert.Equal(t, "abc123_s3cr3t", cfg.Client.ProjectKey)
		assert.Equal(t, "users", cfg.Client.Base)
		assert.Equal(t, 5*time.Second, cfg.Client.HTTP.Timeout)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.True(t, cfg.Logging.Enabled, "default mantido quando o YAML omite o campo")
		assert.Equal(t, ":9000", cfg.Emulator.Addr)
		assert.Equal(t, 3*time.Second, cfg.Emulator.ShutdownTimeout)
		assert.Equal(t, DriverRedis, cfg.Emulator.Storage.Driver)
		assert.Equal(t, 2, cfg.Emulator.Storage.Redis.DB)
		assert.Equal(t, "deta", cfg.Emulator.Storage.Redis.Prefix)
	}
}

func TestUniversalLoader_EnvOverridesFile(t *testing.T) {
	t.Setenv("TEST_DETA_KEY", "abc123_s3cr3t")
	t.Setenv("DETA_BASE_NAME", "orders")
	t.Setenv("EMULATOR_STORAGE", "memory")

	cfg, err := NewUniversalLoader().Load(context.Background(), writeConfig(t, localYAML))
	require.NoError(t, err)

	assert.Equal(t, "orders", cfg.Client.Base)
	assert.Equal(t, DriverMemory, cfg.Emulator.Storage.Driver)
}

func TestUniversalLoader_EmptySourceUsesDefaults(t *testing.T) {
	cfg, err := NewUniversalLoader().Load(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, ":4566", cfg.Emulator.Addr)
	assert.Equal(t, DriverMemory, cfg.Emulator.Storage.Driver)
}

func TestUniversalLoader_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewUniversalLoader().Load(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "falha leitura config")

	_, err = NewUniversalLoader().Load(ctx, writeConfig(t, "version: [unclosed"))
	assert.ErrorContains(t, err, "YAML malformado")

	_, err = NewUniversalLoader().Load(ctx, writeConfig(t, "version: \"1\"\nlogging:\n  level: loud\n"))
	assert.ErrorContains(t, err, "validação da configuração falhou")
}

func TestUniversalLoader_InjectionFailure(t *testing.T) {
	loader := NewUniversalLoader()
	loader.injector = injector.WithResolver(func(context.Context, string, string) (string, error) {
		return "", errors.New("ssm indisponível")
	})

	_, err := loader.Load(context.Background(), writeConfig(t, "version: \"1\"\nclient:\n  project_key: ${ssm./deta/key}\n"))
	assert.ErrorContains(t, err, "ssm indisponível")
}

func TestUniversalLoader_S3(t *testing.T) {
	mockYaml := "version: \"2\"\n"
	mockClient := &MockS3Loader{
		GetObjectFunc: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			assert.Equal(t, "my-bucket", *params.Bucket)
			assert.Equal(t, "configs/deta.yaml", *params.Key)
			return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(mockYaml))}, nil
		},
	}

	loader := NewUniversalLoader()
	data, err := loader.loadFromS3(context.Background(), mockClient, "s3://my-bucket/configs/deta.yaml")
	require.NoError(t, err)
	assert.Equal(t, mockYaml, string(data))

	// Load completo com a fábrica substituída
	loader.s3Client = func(context.Context) (S3Downloader, error) { return mockClient, nil }
	cfg, err := loader.Load(context.Background(), "s3://my-bucket/configs/deta.yaml")
	require.NoError(t, err)
	assert.Equal(t, "2", cfg.Version)
}

func TestUniversalLoader_S3_ClientError(t *testing.T) {
	loader := NewUniversalLoader()
	loader.s3Client = func(context.Context) (S3Downloader, error) { return nil, errors.New("sem credenciais") }

	_, err := loader.Load(context.Background(), "s3://bucket/key.yaml")
	assert.ErrorContains(t, err, "sem credenciais")
}

func TestUniversalLoader_DynamoDB(t *testing.T) {
	mockClient := &MockDynamoLoader{
		GetItemFunc: func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			assert.Equal(t, "ConfigTable", *params.TableName)
			key := params.Key["Name"].(*types.AttributeValueMemberS).Value
			assert.Equal(t, "deta", key)

			return &dynamodb.GetItemOutput{
				Item: map[string]types.AttributeValue{
					"yaml_body": &types.AttributeValueMemberS{Value: `version: "3"`},
				},
			}, nil
		},
	}

	loader := NewUniversalLoader()
	loader.dynamoClient = func(context.Context) (DynamoGetter, error) { return mockClient, nil }

	cfg, err := loader.Load(context.Background(), "dynamodb://ConfigTable/deta?pk=Name&col=yaml_body")
	require.NoError(t, err)
	assert.Equal(t, "3", cfg.Version)
}

func TestUniversalLoader_DynamoDB_Missing(t *testing.T) {
	mockClient := &MockDynamoLoader{
		GetItemFunc: func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			assert.Equal(t, "id", *keyName(params.Key))
			return &dynamodb.GetItemOutput{}, nil
		},
	}

	_, err := NewUniversalLoader().loadFromDynamoDB(context.Background(), mockClient, "dynamodb://ConfigTable/deta")
	assert.ErrorContains(t, err, "item não encontrado")
}

// keyName devolve o nome do único atributo da chave.
func keyName(key map[string]types.AttributeValue) *string {
	for k := range key {
		return &k
	}
	return nil
}
