package easyrepo

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/raywall/deta-toolkit/detabase"
)

type HookType int

const (
	BeforeCreate HookType = iota
	BeforeSave
)

var (
	ErrEmptyCustomMethodName = errors.New("empty custom service method name")
	ErrMethodNameNotFound    = errors.New("method name not found")
)

// EasyService centralizes business logic and data validation
// It encapsulates the repository and uses the validator to ensure data integrity
type EasyService[T any] struct {
	valid                *validator.Validate
	repo                 *EasyRepository[T]
	customServiceMethods map[string]CustomServiceMethod[T]
	hooks                *Hooks[T]
}

// Hooks stores the data validations and business logic registered for
// execution before creates and saves
type Hooks[T any] struct {
	BeforeCreate []BeforeSaveHook[T]
	BeforeSave   []BeforeSaveHook[T]
}

// BeforeSaveHook allows you to create custom validation and/or transformation functions
// which are applied before performing the save or create. existing is nil on
// creates and when the key is not stored yet.
type BeforeSaveHook[T any] func(ctx context.Context, item *T, existing *T) error

// CustomServiceMethod allows you to inject a custom method
type CustomServiceMethod[T any] func(ctx context.Context, args ...any) (*T, error)

// NewService creates a new EasyService instance with a default validator over store
func NewService[T any](store detabase.Store[T]) *EasyService[T] {
	return &EasyService[T]{
		valid:                validator.New(),
		repo:                 NewRepository(store),
		customServiceMethods: make(map[string]CustomServiceMethod[T]),
		hooks: &Hooks[T]{
			BeforeCreate: make([]BeforeSaveHook[T], 0),
			BeforeSave:   make([]BeforeSaveHook[T], 0),
		},
	}
}

// RegisterHook allows the injection of custom logic for validating and handling the request
func (s *EasyService[T]) RegisterHook(hookType HookType, fn BeforeSaveHook[T]) {
	switch hookType {
	case BeforeCreate:
		s.hooks.BeforeCreate = append(s.hooks.BeforeCreate, fn)
	case BeforeSave:
		s.hooks.BeforeSave = append(s.hooks.BeforeSave, fn)
	}
}

// RegisterCustomServiceMethod allows you to inject a custom method
func (s *EasyService[T]) RegisterCustomServiceMethod(name string, fn CustomServiceMethod[T]) {
	s.customServiceMethods[name] = fn
}

// RegisterValidation allows adding custom validation rules to validator
func (s *EasyService[T]) RegisterValidation(name string, fn validator.Func) error {
	return s.valid.RegisterValidation(name, fn)
}

// Get retrieves the value stored under key
// Returns ErrInvalidInput if key is empty
func (s *EasyService[T]) Get(ctx context.Context, key string) (*T, error) {
	if key == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.get(ctx, key)
}

// GetItem is Get keeping the key alongside the value
func (s *EasyService[T]) GetItem(ctx context.Context, key string) (detabase.Item[T], error) {
	if key == "" {
		return detabase.Item[T]{}, ErrInvalidInput
	}
	return s.repo.getItem(ctx, key)
}

// Create validates the value according to the `validate` tags and inserts it.
// An empty key lets the Base generate one; the stored key is returned.
func (s *EasyService[T]) Create(ctx context.Context, key string, item *T) (string, error) {
	if item == nil {
		return "", ErrInvalidInput
	}
	if err := s.validate(ctx, item); err != nil {
		return "", err
	}
	for _, hook := range s.hooks.BeforeCreate {
		if err := hook(ctx, item, nil); err != nil {
			return "", err
		}
	}
	return s.repo.create(ctx, key, item)
}

// Save validates the value and overwrites whatever is stored under key.
// BeforeSave hooks receive the current value when the key already exists.
func (s *EasyService[T]) Save(ctx context.Context, key string, item *T) (string, error) {
	if item == nil {
		return "", ErrInvalidInput
	}
	if err := s.validate(ctx, item); err != nil {
		return "", err
	}

	if len(s.hooks.BeforeSave) > 0 {
		var existing *T
		if key != "" {
			current, err := s.repo.get(ctx, key)
			switch {
			case err == nil:
				existing = current
			case !errors.Is(err, ErrNotFound):
				return "", err
			}
		}
		for _, hook := range s.hooks.BeforeSave {
			if err := hook(ctx, item, existing); err != nil {
				return "", err
			}
		}
	}
	return s.repo.save(ctx, key, item)
}

// SaveMany validates every value and writes them in one batch (up to
// detabase.MaxBatchSize). BeforeSave hooks run with existing set to nil.
func (s *EasyService[T]) SaveMany(ctx context.Context, items []detabase.Item[T]) (detabase.BatchResult[T], error) {
	for i := range items {
		if err := s.validate(ctx, &items[i].Value); err != nil {
			return detabase.BatchResult[T]{}, fmt.Errorf("item %d: %w", i, err)
		}
		for _, hook := range s.hooks.BeforeSave {
			if err := hook(ctx, &items[i].Value, nil); err != nil {
				return detabase.BatchResult[T]{}, fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	return s.repo.saveMany(ctx, items)
}

// Patch applies a partial update. Values changed this way skip validation and hooks.
func (s *EasyService[T]) Patch(ctx context.Context, key string, u *detabase.Update) error {
	if key == "" {
		return ErrInvalidInput
	}
	return s.repo.patch(ctx, key, u)
}

// Delete removes the item stored under key
func (s *EasyService[T]) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidInput
	}
	return s.repo.delete(ctx, key)
}

// RunCustomServiceMethod allows you to execute a custom service method
func (s *EasyService[T]) RunCustomServiceMethod(ctx context.Context, name string, args ...any) (*T, error) {
	if name == "" {
		return nil, ErrEmptyCustomMethodName
	}
	fn, ok := s.customServiceMethods[name]
	if !ok {
		return nil, ErrMethodNameNotFound
	}
	return fn(ctx, args...)
}

// validate only checks structs; scalar values have no tags to check.
func (s *EasyService[T]) validate(ctx context.Context, item *T) error {
	v := reflect.ValueOf(item).Elem()
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	if err := s.valid.StructCtx(ctx, v.Interface()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}
