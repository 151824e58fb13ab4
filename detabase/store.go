package detabase

import "context"

// Store is a typed view over one Base, for callers that prefer an interface
// they can mock over the generic functions of this package.
type Store[T any] interface {
	Get(ctx context.Context, key string) (T, error)
	GetItem(ctx context.Context, key string) (Item[T], error)
	Put(ctx context.Context, item Item[T]) (string, error)
	PutMany(ctx context.Context, items []Item[T]) (BatchResult[T], error)
	Insert(ctx context.Context, item Item[T]) (string, error)
	Update(ctx context.Context, key string, u *Update) error
	Delete(ctx context.Context, key string) error
}

type clientStore[T any] struct {
	c *Client
}

// NewStore returns a Store[T] backed by c. c must be bound to a Base,
// otherwise every call fails with ErrCollectionNotBound.
func NewStore[T any](c *Client) Store[T] {
	return &clientStore[T]{c: c}
}

func (s *clientStore[T]) Get(ctx context.Context, key string) (T, error) {
	return Get[T](ctx, s.c, key)
}

func (s *clientStore[T]) GetItem(ctx context.Context, key string) (Item[T], error) {
	return GetItem[T](ctx, s.c, key)
}

func (s *clientStore[T]) Put(ctx context.Context, item Item[T]) (string, error) {
	return Put(ctx, s.c, item)
}

func (s *clientStore[T]) PutMany(ctx context.Context, items []Item[T]) (BatchResult[T], error) {
	return PutMany[T, T](ctx, s.c, items)
}

func (s *clientStore[T]) Insert(ctx context.Context, item Item[T]) (string, error) {
	return Insert(ctx, s.c, item)
}

func (s *clientStore[T]) Update(ctx context.Context, key string, u *Update) error {
	return s.c.Update(ctx, key, u)
}

func (s *clientStore[T]) Delete(ctx context.Context, key string) error {
	return s.c.Delete(ctx, key)
}
