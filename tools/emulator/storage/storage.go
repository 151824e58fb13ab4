// Package storage guarda os itens do emulador. Cada backend implementa
// Storage; New escolhe o backend pela configuração.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/raywall/deta-toolkit/pkg/config"
)

var (
	ErrNotFound = errors.New("storage: item not found")
	ErrExists   = errors.New("storage: item already exists")
)

// Item é um objeto JSON decodificado; o campo "key" é sempre uma string.
type Item = map[string]any

// Storage é o contrato dos backends. ns separa projetos e bases
// ("projeto/base"), key identifica o item dentro do namespace.
type Storage interface {
	Get(ctx context.Context, ns, key string) (Item, error)
	// PutMany grava (upsert) todos os itens ou nenhum.
	PutMany(ctx context.Context, ns string, items []Item) error
	// Insert grava o item apenas se a chave for nova; senão ErrExists.
	Insert(ctx context.Context, ns string, item Item) error
	// Update lê o item, aplica fn sobre uma cópia e grava o resultado.
	// Um erro de fn aborta a escrita e é devolvido sem alteração.
	Update(ctx context.Context, ns, key string, fn func(Item) error) (Item, error)
	// Delete remove o item; chave ausente não é erro.
	Delete(ctx context.Context, ns, key string) error
	Close() error
}

// New cria o backend configurado.
func New(ctx context.Context, cfg config.StorageConf) (Storage, error) {
	switch cfg.Driver {
	case "", config.DriverMemory:
		return NewMemory(), nil
	case config.DriverRedis:
		return nonNil(NewRedis(ctx, cfg.Redis))
	case config.DriverDynamoDB:
		return nonNil(NewDynamoDB(ctx, cfg.DynamoDB))
	case config.DriverPostgres:
		return nonNil(NewPostgres(ctx, cfg.Postgres))
	default:
		return nil, fmt.Errorf("storage: driver desconhecido %q", cfg.Driver)
	}
}

// nonNil evita devolver um ponteiro nil embrulhado na interface.
func nonNil[S Storage](s S, err error) (Storage, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// KeyOf devolve a chave do item, ou "" quando ausente ou não string.
func KeyOf(item Item) string {
	k, _ := item["key"].(string)
	return k
}

func encode(item Item) ([]byte, error) {
	b, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("storage: encode item: %w", err)
	}
	return b, nil
}

func decode(raw []byte) (Item, error) {
	var item Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("storage: decode item: %w", err)
	}
	return item, nil
}

// clone copia o item via JSON, isolando o chamador do valor armazenado.
func clone(item Item) (Item, error) {
	b, err := encode(item)
	if err != nil {
		return nil, err
	}
	return decode(b)
}
