package detabase

import "encoding/json"

// Item is a key + value pair, the unit of storage in a Base.
//
// An empty Key means "no key": the store generates one on write.
type Item[T any] struct {
	Key   string
	Value T
}

// NewItem makes an item without a key.
func NewItem[T any](value T) Item[T] {
	return Item[T]{Value: value}
}

// NewItemWithKey makes an item with a key and a value.
func NewItemWithKey[T any](key string, value T) Item[T] {
	return Item[T]{Key: key, Value: value}
}

// MarshalJSON encodes the item in its wire envelope. See Encode.
func (i Item[T]) MarshalJSON() ([]byte, error) {
	env, err := Encode(i)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// UnmarshalJSON decodes a wire envelope keeping the key. See DecodeItem.
func (i *Item[T]) UnmarshalJSON(data []byte) error {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil || env == nil {
		return ErrDeserializationFailed
	}
	item, err := DecodeItem[T](env)
	if err != nil {
		return err
	}
	*i = item
	return nil
}
