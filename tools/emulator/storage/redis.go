package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/raywall/deta-toolkit/pkg/config"
	"github.com/redis/go-redis/v9"
)

// maxTxRetries limita as tentativas do WATCH/MULTI em Update.
const maxTxRetries = 100

// Redis guarda cada item como um valor JSON em "<prefix>:<ns>:<key>".
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis conecta e faz um PING antes de devolver o backend.
func NewRedis(ctx context.Context, cfg config.RedisConf) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("storage: redis ping %s: %w", cfg.Addr, err)
	}
	return NewRedisWithClient(client, cfg.Prefix), nil
}

// NewRedisWithClient usa um cliente já criado (cluster, sentinel, testes).
func NewRedisWithClient(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "deta"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(ns, key string) string {
	return r.prefix + ":" + ns + ":" + key
}

func (r *Redis) Get(ctx context.Context, ns, key string) (Item, error) {
	raw, err := r.client.Get(ctx, r.key(ns, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: redis get: %w", err)
	}
	return decode(raw)
}

func (r *Redis) PutMany(ctx context.Context, ns string, items []Item) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, item := range items {
			b, err := encode(item)
			if err != nil {
				return err
			}
			pipe.Set(ctx, r.key(ns, KeyOf(item)), b, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage: redis put: %w", err)
	}
	return nil
}

func (r *Redis) Insert(ctx context.Context, ns string, item Item) error {
	b, err := encode(item)
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, r.key(ns, KeyOf(item)), b, 0).Result()
	if err != nil {
		return fmt.Errorf("storage: redis insert: %w", err)
	}
	if !ok {
		return ErrExists
	}
	return nil
}

// Update usa WATCH para detectar escritas concorrentes e tenta de novo.
func (r *Redis) Update(ctx context.Context, ns, key string, fn func(Item) error) (Item, error) {
	k := r.key(ns, key)
	var updated Item

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		item, err := decode(raw)
		if err != nil {
			return err
		}
		if err := fn(item); err != nil {
			return err
		}
		b, err := encode(item)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, b, 0)
			return nil
		})
		if err == nil {
			updated = item
		}
		return err
	}

	for range make([]struct{}, maxTxRetries) {
		err := r.client.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return updated, err
	}
	return nil, fmt.Errorf("storage: redis update %s: too much contention", key)
}

func (r *Redis) Delete(ctx context.Context, ns, key string) error {
	if err := r.client.Del(ctx, r.key(ns, key)).Err(); err != nil {
		return fmt.Errorf("storage: redis delete: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
