package detabase

import "context"

// MockStore é um mock de Store[T] baseado em campos de função.
//
// Campos não definidos respondem como uma Base vazia: Get/GetItem retornam
// ErrItemNotFound, Update retorna ErrKeyNonexistent e as escritas devolvem
// a própria chave do item.
type MockStore[T any] struct {
	GetFn     func(ctx context.Context, key string) (T, error)
	GetItemFn func(ctx context.Context, key string) (Item[T], error)
	PutFn     func(ctx context.Context, item Item[T]) (string, error)
	PutManyFn func(ctx context.Context, items []Item[T]) (BatchResult[T], error)
	InsertFn  func(ctx context.Context, item Item[T]) (string, error)
	UpdateFn  func(ctx context.Context, key string, u *Update) error
	DeleteFn  func(ctx context.Context, key string) error
}

var _ Store[any] = (*MockStore[any])(nil)

func (m *MockStore[T]) Get(ctx context.Context, key string) (T, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	var zero T
	return zero, ErrItemNotFound
}

func (m *MockStore[T]) GetItem(ctx context.Context, key string) (Item[T], error) {
	if m.GetItemFn != nil {
		return m.GetItemFn(ctx, key)
	}
	return Item[T]{}, ErrItemNotFound
}

func (m *MockStore[T]) Put(ctx context.Context, item Item[T]) (string, error) {
	if m.PutFn != nil {
		return m.PutFn(ctx, item)
	}
	return item.Key, nil
}

func (m *MockStore[T]) PutMany(ctx context.Context, items []Item[T]) (BatchResult[T], error) {
	if m.PutManyFn != nil {
		return m.PutManyFn(ctx, items)
	}
	return BatchResult[T]{Processed: items, Failed: []Item[T]{}}, nil
}

func (m *MockStore[T]) Insert(ctx context.Context, item Item[T]) (string, error) {
	if m.InsertFn != nil {
		return m.InsertFn(ctx, item)
	}
	return item.Key, nil
}

func (m *MockStore[T]) Update(ctx context.Context, key string, u *Update) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, key, u)
	}
	return ErrKeyNonexistent
}

func (m *MockStore[T]) Delete(ctx context.Context, key string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, key)
	}
	return nil
}
