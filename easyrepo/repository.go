package easyrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/raywall/deta-toolkit/detabase"
)

var (
	ErrNotFound      = errors.New("item not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrAlreadyExists = errors.New("item already exists")
)

// EasyRepository manages direct communication with the Base (detabase.Store).
// Its methods are internal to the package, encouraging use through EasyService
type EasyRepository[T any] struct {
	Store detabase.Store[T]
}

// NewRepository wraps an existing store
func NewRepository[T any](store detabase.Store[T]) *EasyRepository[T] {
	return &EasyRepository[T]{Store: store}
}

// NewRepositoryFromClient binds c to base and builds the store for T
func NewRepositoryFromClient[T any](c *detabase.Client, base string) *EasyRepository[T] {
	return NewRepository(detabase.NewStore[T](c.Base(base)))
}

// get searches for the value stored under key
func (r *EasyRepository[T]) get(ctx context.Context, key string) (*T, error) {
	v, err := r.Store.Get(ctx, key)
	if err != nil {
		return nil, mapErr(err)
	}
	return &v, nil
}

func (r *EasyRepository[T]) getItem(ctx context.Context, key string) (detabase.Item[T], error) {
	item, err := r.Store.GetItem(ctx, key)
	return item, mapErr(err)
}

// create uses Insert, so an existing key is an error
func (r *EasyRepository[T]) create(ctx context.Context, key string, item *T) (string, error) {
	k, err := r.Store.Insert(ctx, detabase.NewItemWithKey(key, *item))
	return k, mapErr(err)
}

// save overwrites the item stored under key (Put)
func (r *EasyRepository[T]) save(ctx context.Context, key string, item *T) (string, error) {
	k, err := r.Store.Put(ctx, detabase.NewItemWithKey(key, *item))
	return k, mapErr(err)
}

func (r *EasyRepository[T]) saveMany(ctx context.Context, items []detabase.Item[T]) (detabase.BatchResult[T], error) {
	res, err := r.Store.PutMany(ctx, items)
	return res, mapErr(err)
}

// patch applies a partial update without reading the item
func (r *EasyRepository[T]) patch(ctx context.Context, key string, u *detabase.Update) error {
	return mapErr(r.Store.Update(ctx, key, u))
}

// delete removes the item stored under key
func (r *EasyRepository[T]) delete(ctx context.Context, key string) error {
	return mapErr(r.Store.Delete(ctx, key))
}

// mapErr translates the store errors callers usually branch on, keeping
// the original error in the chain.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, detabase.ErrItemNotFound), errors.Is(err, detabase.ErrKeyNonexistent):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, detabase.ErrKeyConflict):
		return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	case errors.Is(err, detabase.ErrBatchTooLarge), errors.Is(err, detabase.ErrBadRequest):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	default:
		return err
	}
}
