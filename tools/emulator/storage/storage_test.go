package storage_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/raywall/deta-toolkit/dyndb"
	"github.com/raywall/deta-toolkit/pkg/config"
	"github.com/raywall/deta-toolkit/tools/emulator/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runSuite exercita o contrato de Storage. ns é único por execução para que
// backends externos possam ser reaproveitados entre testes.
func runSuite(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	ns := "proj/" + uuid.NewString()

	t.Run("Get Missing", func(t *testing.T) {
		_, err := s.Get(ctx, ns, "nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("PutMany Then Get", func(t *testing.T) {
		items := []storage.Item{
			{"key": "a", "name": "alpha", "n": 1.0},
			{"key": "b", "value": []any{1.0, "two"}},
		}
		require.NoError(t, s.PutMany(ctx, ns, items))

		got, err := s.Get(ctx, ns, "a")
		require.NoError(t, err)
		assert.Equal(t, storage.Item{"key": "a", "name": "alpha", "n": 1.0}, got)

		got, err = s.Get(ctx, ns, "b")
		require.NoError(t, err)
		assert.Equal(t, []any{1.0, "two"}, got["value"])
	})

	t.Run("PutMany Overwrites", func(t *testing.T) {
		require.NoError(t, s.PutMany(ctx, ns, []storage.Item{{"key": "a", "name": "again"}}))
		got, err := s.Get(ctx, ns, "a")
		require.NoError(t, err)
		assert.Equal(t, storage.Item{"key": "a", "name": "again"}, got)
	})

	t.Run("Insert Conflict", func(t *testing.T) {
		require.NoError(t, s.Insert(ctx, ns, storage.Item{"key": "c", "v": true}))
		err := s.Insert(ctx, ns, storage.Item{"key": "c", "v": false})
		assert.ErrorIs(t, err, storage.ErrExists)

		got, err := s.Get(ctx, ns, "c")
		require.NoError(t, err)
		assert.Equal(t, true, got["v"])
	})

	t.Run("Namespaces Are Isolated", func(t *testing.T) {
		_, err := s.Get(ctx, ns+"-other", "a")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		got, err := s.Update(ctx, ns, "c", func(item storage.Item) error {
			item["v"] = "changed"
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "changed", got["v"])

		stored, err := s.Get(ctx, ns, "c")
		require.NoError(t, err)
		assert.Equal(t, "changed", stored["v"])
	})

	t.Run("Update Error Aborts Write", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := s.Update(ctx, ns, "c", func(item storage.Item) error {
			item["v"] = "lost"
			return boom
		})
		assert.ErrorIs(t, err, boom)

		stored, err := s.Get(ctx, ns, "c")
		require.NoError(t, err)
		assert.Equal(t, "changed", stored["v"])
	})

	t.Run("Update Missing", func(t *testing.T) {
		_, err := s.Update(ctx, ns, "ghost", func(storage.Item) error { return nil })
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, ns, "a"))
		require.NoError(t, s.Delete(ctx, ns, "a"), "apagar duas vezes não é erro")
		_, err := s.Get(ctx, ns, "a")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Concurrent Updates", func(t *testing.T) {
		require.NoError(t, s.PutMany(ctx, ns, []storage.Item{{"key": "counter", "n": 0.0}}))

		var wg sync.WaitGroup
		for range make([]struct{}, 20) {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Update(ctx, ns, "counter", func(item storage.Item) error {
					item["n"] = item["n"].(float64) + 1
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := s.Get(ctx, ns, "counter")
		require.NoError(t, err)
		assert.Equal(t, 20.0, got["n"])
	})
}

func TestMemory(t *testing.T) {
	m := storage.NewMemory()
	runSuite(t, m)
	assert.NoError(t, m.Close())
}

func TestMemory_Len(t *testing.T) {
	m := storage.NewMemory()
	require.NoError(t, m.PutMany(context.Background(), "p/b", []storage.Item{{"key": "1"}, {"key": "2"}}))
	assert.Equal(t, 2, m.Len("p/b"))
	assert.Zero(t, m.Len("p/other"))
}

// fakeTable simula uma tabela DynamoDB com dyndb.MockStore sobre um mapa.
func fakeTable() (*dyndb.MockStore[storage.Record], *int) {
	var mu sync.Mutex
	rows := make(map[[2]string]storage.Record)
	batches := 0

	return &dyndb.MockStore[storage.Record]{
		GetFn: func(_ context.Context, hashKey, sortKey any) (*storage.Record, error) {
			mu.Lock()
			defer mu.Unlock()
			rec, ok := rows[[2]string{hashKey.(string), sortKey.(string)}]
			if !ok {
				return nil, dyndb.ErrNotFound
			}
			return &rec, nil
		},
		PutFn: func(_ context.Context, rec storage.Record) error {
			mu.Lock()
			defer mu.Unlock()
			rows[[2]string{rec.NS, rec.Key}] = rec
			return nil
		},
		PutIfAbsentFn: func(_ context.Context, rec storage.Record) error {
			mu.Lock()
			defer mu.Unlock()
			k := [2]string{rec.NS, rec.Key}
			if _, ok := rows[k]; ok {
				return dyndb.ErrExists
			}
			rows[k] = rec
			return nil
		},
		DeleteFn: func(_ context.Context, hashKey, sortKey any) error {
			mu.Lock()
			defer mu.Unlock()
			delete(rows, [2]string{hashKey.(string), sortKey.(string)})
			return nil
		},
		TransactPutFn: func(_ context.Context, recs []storage.Record) error {
			mu.Lock()
			defer mu.Unlock()
			batches++
			for _, rec := range recs {
				rows[[2]string{rec.NS, rec.Key}] = rec
			}
			return nil
		},
	}, &batches
}

// dynamoSerial serializa Update, que no DynamoDB não é atômico.
type dynamoSerial struct {
	*storage.DynamoDB
	mu sync.Mutex
}

func (d *dynamoSerial) Update(ctx context.Context, ns, key string, fn func(storage.Item) error) (storage.Item, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.DynamoDB.Update(ctx, ns, key, fn)
}

func TestDynamoDB(t *testing.T) {
	table, batches := fakeTable()
	runSuite(t, &dynamoSerial{DynamoDB: storage.NewDynamoDBWithStore(table)})
	assert.Positive(t, *batches, "PutMany com vários itens usa TransactPut")
}

func TestDynamoDB_StoreErrors(t *testing.T) {
	boom := errors.New("throttled")
	d := storage.NewDynamoDBWithStore(&dyndb.MockStore[storage.Record]{
		GetFn: func(context.Context, any, any) (*storage.Record, error) { return nil, boom },
		PutFn: func(context.Context, storage.Record) error { return boom },
	})
	ctx := context.Background()

	_, err := d.Get(ctx, "p/b", "k")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, d.PutMany(ctx, "p/b", []storage.Item{{"key": "k"}}), boom)
}

func TestDynamoDB_PutManyIsAllOrNothing(t *testing.T) {
	table, _ := fakeTable()
	canceled := errors.New("TransactionCanceledException")
	table.TransactPutFn = func(context.Context, []storage.Record) error { return canceled }
	d := storage.NewDynamoDBWithStore(table)
	ctx := context.Background()

	err := d.PutMany(ctx, "p/b", []storage.Item{{"key": "a"}, {"key": "b"}, {"key": "c"}})
	assert.ErrorIs(t, err, canceled)

	for _, k := range []string{"a", "b", "c"} {
		_, err := d.Get(ctx, "p/b", k)
		assert.ErrorIs(t, err, storage.ErrNotFound, k)
	}
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("DETA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DETA_TEST_REDIS_ADDR não definido")
	}
	r, err := storage.NewRedis(context.Background(), config.RedisConf{Addr: addr, Prefix: "deta-test"})
	require.NoError(t, err)
	defer r.Close()
	runSuite(t, r)
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("DETA_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DETA_TEST_POSTGRES_DSN não definido")
	}
	p, err := storage.NewPostgres(context.Background(), config.PostgresConf{DSN: dsn, Table: "deta_items_test"})
	require.NoError(t, err)
	defer p.Close()
	runSuite(t, p)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	s, err := storage.New(ctx, config.StorageConf{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &storage.Memory{}, s)

	s, err = storage.New(ctx, config.StorageConf{})
	require.NoError(t, err)
	assert.IsType(t, &storage.Memory{}, s)

	_, err = storage.New(ctx, config.StorageConf{Driver: "mongo"})
	assert.ErrorContains(t, err, "mongo")

	_, err = storage.New(ctx, config.StorageConf{
		Driver:   config.DriverPostgres,
		Postgres: config.PostgresConf{DSN: "postgres://localhost/x", Table: "bad name"},
	})
	assert.ErrorContains(t, err, "tabela inválido")
}

func TestRedis_Unreachable(t *testing.T) {
	_, err := storage.New(context.Background(), config.StorageConf{
		Driver: config.DriverRedis,
		Redis:  config.RedisConf{Addr: "127.0.0.1:1"},
	})
	assert.ErrorContains(t, err, "redis ping")
}

func TestKeyOf(t *testing.T) {
	assert.Equal(t, "k", storage.KeyOf(storage.Item{"key": "k"}))
	assert.Empty(t, storage.KeyOf(storage.Item{"key": 1.0}))
	assert.Empty(t, storage.KeyOf(storage.Item{}))
}
