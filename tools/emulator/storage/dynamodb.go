package storage

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/raywall/deta-toolkit/credential"
	"github.com/raywall/deta-toolkit/dyndb"
	"github.com/raywall/deta-toolkit/pkg/config"
)

// Record é a linha gravada no DynamoDB: ns como hash key, key como sort key
// e o item serializado em JSON.
type Record struct {
	NS   string `dynamodbav:"ns"`
	Key  string `dynamodbav:"key"`
	Body string `dynamodbav:"body"`
}

// DynamoDB guarda os itens numa tabela com chave composta (ns, key).
//
// PutMany com mais de um item usa uma transação, então grava todos ou
// nenhum. Update é ler-modificar-gravar sem condição: escritas concorrentes na
// mesma chave seguem a regra "última vence".
type DynamoDB struct {
	store dyndb.Store[Record]
}

// NewDynamoDB cria o cliente a partir da configuração AWS padrão. Endpoint
// aponta para o DynamoDB Local ou LocalStack.
func NewDynamoDB(ctx context.Context, cfg config.DynamoDBConf) (*DynamoDB, error) {
	awsCfg, err := credential.AWSConfig(ctx, cfg.Region)
	if err != nil {
		return nil, err
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	store, err := dyndb.New(client, dyndb.TableConfig[Record]{
		TableName: cfg.Table,
		HashKey:   "ns",
		SortKey:   "key",
	})
	if err != nil {
		return nil, err
	}
	return NewDynamoDBWithStore(store), nil
}

// NewDynamoDBWithStore usa um dyndb.Store já criado.
func NewDynamoDBWithStore(store dyndb.Store[Record]) *DynamoDB {
	return &DynamoDB{store: store}
}

func (d *DynamoDB) Get(ctx context.Context, ns, key string) (Item, error) {
	rec, err := d.store.Get(ctx, ns, key)
	if errors.Is(err, dyndb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode([]byte(rec.Body))
}

func (d *DynamoDB) PutMany(ctx context.Context, ns string, items []Item) error {
	recs := make([]Record, len(items))
	for i, item := range items {
		rec, err := toRecord(ns, item)
		if err != nil {
			return err
		}
		recs[i] = rec
	}
	if len(recs) == 1 {
		return d.store.Put(ctx, recs[0])
	}
	return d.store.TransactPut(ctx, recs)
}

func (d *DynamoDB) Insert(ctx context.Context, ns string, item Item) error {
	rec, err := toRecord(ns, item)
	if err != nil {
		return err
	}
	err = d.store.PutIfAbsent(ctx, rec)
	if errors.Is(err, dyndb.ErrExists) {
		return ErrExists
	}
	return err
}

func (d *DynamoDB) Update(ctx context.Context, ns, key string, fn func(Item) error) (Item, error) {
	item, err := d.Get(ctx, ns, key)
	if err != nil {
		return nil, err
	}
	if err := fn(item); err != nil {
		return nil, err
	}
	rec, err := toRecord(ns, item)
	if err != nil {
		return nil, err
	}
	if err := d.store.Put(ctx, rec); err != nil {
		return nil, err
	}
	return item, nil
}

func (d *DynamoDB) Delete(ctx context.Context, ns, key string) error {
	return d.store.Delete(ctx, ns, key)
}

func (d *DynamoDB) Close() error { return nil }

func toRecord(ns string, item Item) (Record, error) {
	b, err := encode(item)
	if err != nil {
		return Record{}, err
	}
	return Record{NS: ns, Key: KeyOf(item), Body: string(b)}, nil
}
