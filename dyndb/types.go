// dyndb/types.go
package dyndb

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

var (
	// ErrNotFound – erro padrão quando o item não existe
	ErrNotFound = errors.New("dyndb: item not found")
	// ErrExists é retornado por PutIfAbsent quando a chave já existe
	ErrExists = errors.New("dyndb: item already exists")
)

// MaxTransactItems é o limite do DynamoDB por TransactWriteItems
const MaxTransactItems = 100

// DynamoDBClient interface para abstrair o cliente DynamoDB
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store: interface principal (genérica)
type Store[T any] interface {
	Get(ctx context.Context, hashKey, sortKey any) (*T, error)
	// Put grava o item (upsert)
	Put(ctx context.Context, item T) error
	// PutIfAbsent grava o item apenas se a chave ainda não existir
	PutIfAbsent(ctx context.Context, item T) error
	Delete(ctx context.Context, hashKey, sortKey any) error

	// TransactPut grava todos os itens numa única transação: todos ou nenhum.
	// Aceita até MaxTransactItems itens.
	TransactPut(ctx context.Context, items []T) error
}

// TableConfig: configuração da tabela
type TableConfig[T any] struct {
	TableName    string `yaml:"table" env:"DYNAMODB_TABLE_NAME"`
	HashKey      string `yaml:"hash_key" env:"DYNAMODB_HASH_KEY"`
	SortKey      string `yaml:"sort_key" env:"DYNAMODB_SORT_KEY"`           // opcional
	TTLAttribute string `yaml:"ttl_attribute" env:"DYNAMODB_TTL_ATTRIBUTE"` // opcional
	// TTL aplicado quando TTLAttribute está definido e o item não traz valor
	TTL time.Duration `yaml:"ttl" env:"DYNAMODB_TTL" envDefault:"720h"`
}
