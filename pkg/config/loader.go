package config

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/raywall/deta-toolkit/credential"
	"github.com/raywall/deta-toolkit/envloader"
	"github.com/raywall/deta-toolkit/pkg/config/injector"
	"gopkg.in/yaml.v3"
)

// --- Interfaces para Mocking ---

type S3Downloader interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type DynamoGetter interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Load é o atalho usado pelos binários: UniversalLoader com clientes reais.
func Load(ctx context.Context, source string) (*ToolkitConfig, error) {
	return NewUniversalLoader().Load(ctx, source)
}

// UniversalLoader suporta múltiplas fontes de configuração (local, S3, DynamoDB).
//
// Ordem de aplicação: Default(), arquivo YAML, variáveis de ambiente (tags env),
// placeholders ${...} e, por fim, validação.
type UniversalLoader struct {
	validator *ConfigValidator
	injector  *injector.Injector

	// fábricas dos clientes AWS; substituídas nos testes
	s3Client     func(ctx context.Context) (S3Downloader, error)
	dynamoClient func(ctx context.Context) (DynamoGetter, error)
}

// NewUniversalLoader cria uma nova instância.
func NewUniversalLoader() *UniversalLoader {
	return &UniversalLoader{
		validator: NewValidator(),
		injector:  injector.New(),
		s3Client: func(ctx context.Context) (S3Downloader, error) {
			cfg, err := credential.AWSConfig(ctx, os.Getenv("AWS_REGION"))
			if err != nil {
				return nil, err
			}
			return s3.NewFromConfig(cfg), nil
		},
		dynamoClient: func(ctx context.Context) (DynamoGetter, error) {
			cfg, err := credential.AWSConfig(ctx, os.Getenv("AWS_REGION"))
			if err != nil {
				return nil, err
			}
			return dynamodb.NewFromConfig(cfg), nil
		},
	}
}

// Load detecta o esquema da fonte e carrega a configuração. Fonte vazia
// significa apenas defaults e ambiente.
func (ul *UniversalLoader) Load(ctx context.Context, source string) (*ToolkitConfig, error) {
	var rawData []byte
	var err error

	switch {
	case source == "":
	case strings.HasPrefix(source, "s3://"):
		var client S3Downloader
		if client, err = ul.s3Client(ctx); err == nil {
			rawData, err = ul.loadFromS3(ctx, client, source)
		}
	case strings.HasPrefix(source, "dynamodb://"):
		var client DynamoGetter
		if client, err = ul.dynamoClient(ctx); err == nil {
			rawData, err = ul.loadFromDynamoDB(ctx, client, source)
		}
	default:
		rawData, err = ul.loadFromFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("falha leitura config (%s): %w", source, err)
	}

	return ul.parseAndValidate(ctx, rawData)
}

// --- Estratégias de carregamento ---

func (ul *UniversalLoader) loadFromFile(path string) ([]byte, error) {
	// Suporta tanto "file://config.yaml" quanto apenas "config.yaml"
	return os.ReadFile(strings.TrimPrefix(path, "file://"))
}

func (ul *UniversalLoader) loadFromS3(ctx context.Context, client S3Downloader, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("URL S3 inválida: %w", err)
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

// loadFromDynamoDB lê dynamodb://tabela/chave?col=config&pk=id
func (ul *UniversalLoader) loadFromDynamoDB(ctx context.Context, client DynamoGetter, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("URL DynamoDB inválida: %w", err)
	}

	tableName := u.Host
	pkValue := strings.TrimPrefix(u.Path, "/")

	colName := u.Query().Get("col")
	if colName == "" {
		colName = "config"
	}
	pkName := u.Query().Get("pk")
	if pkName == "" {
		pkName = "id"
	}

	out, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &tableName,
		Key: map[string]types.AttributeValue{
			pkName: &types.AttributeValueMemberS{Value: pkValue},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("item não encontrado no DynamoDB")
	}

	var itemMap map[string]any
	if err := attributevalue.UnmarshalMap(out.Item, &itemMap); err != nil {
		return nil, err
	}
	content, ok := itemMap[colName].(string)
	if !ok {
		return nil, fmt.Errorf("coluna '%s' inválida ou vazia no DynamoDB", colName)
	}
	return []byte(content), nil
}

func (ul *UniversalLoader) parseAndValidate(ctx context.Context, data []byte) (*ToolkitConfig, error) {
	cfg := Default()

	// 1. Unmarshal (YAML -> Struct)
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("YAML malformado: %w", err)
		}
	}

	// 2. Ambiente sobrescreve o arquivo
	if err := envloader.Load(cfg); err != nil {
		return nil, fmt.Errorf("falha ao ler variáveis de ambiente: %w", err)
	}

	// 3. Injection (${env.X}, ${ssm./path}, ${secret.id})
	if err := ul.injector.Inject(ctx, cfg); err != nil {
		return nil, fmt.Errorf("falha na injeção de variáveis: %w", err)
	}

	// 4. Validation
	if ul.validator != nil {
		if err := ul.validator.Validate(cfg); err != nil {
			return nil, fmt.Errorf("validação da configuração falhou: %w", err)
		}
	}

	return cfg, nil
}
