// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package detabase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

const (
	keyField   = "key"
	valueField = "value"
)

// Envelope is the wire shape of an item: always a JSON object.
type Envelope map[string]json.RawMessage

// Encode converts an item into its envelope.
//
// Values that do not serialize to a JSON object are wrapped as
// {"value": v}. A non-empty item key is then written to "key", replacing
// any "key" field the value itself carried.
func Encode[T any](item Item[T]) (Envelope, error) {
	raw, err := json.Marshal(item.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}

	env := Envelope{}
	if isObject(raw) {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
		}
	} else {
		env[valueField] = raw
	}

	if item.Key != "" {
		key, err := json.Marshal(item.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
		}
		env[keyField] = key
	}
	return env, nil
}

// DecodeSingle returns the bare value of a fetched item.
//
// The store answers scalar items in the compact {"key", "value"} shape and
// object items as the object itself plus "key". An envelope with exactly
// two fields is read as compact and its "value" field is decoded; any
// other envelope must carry "key", which is removed before decoding the
// remaining object as T.
//
// A genuine one-field object stored with a key also has two fields and is
// read as compact. That ambiguity belongs to the wire protocol.
func DecodeSingle[T any](env Envelope) (T, error) {
	var out T

	if len(env) == 2 {
		raw, ok := env[valueField]
		if !ok {
			return out, fmt.Errorf("%w: compact item without %q", ErrDeserializationFailed, valueField)
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return out, fmt.Errorf("%w: %v", ErrDeserializationFailed, err)
		}
		return out, nil
	}

	if _, ok := env[keyField]; !ok {
		return out, ErrKeyMissing
	}
	if err := decodeObject(without(env, keyField), &out); err != nil {
		return out, err
	}
	return out, nil
}

// DecodeItem decodes an envelope keeping the key alongside the value.
//
// The inverse of Encode: "key" goes to Item.Key, and the rest is either
// the wrapped {"value": v} form or the value object itself. Which one is
// decided by T: structs and maps always read the object, other kinds
// always read "value". Interfaces and types with their own JSON methods
// try "value" first.
func DecodeItem[T any](env Envelope) (Item[T], error) {
	var item Item[T]

	if raw, ok := env[keyField]; ok {
		if err := json.Unmarshal(raw, &item.Key); err != nil {
			return item, fmt.Errorf("%w: key is not a string", ErrDeserializationFailed)
		}
	}
	rest := without(env, keyField)

	raw, wrapped := rest[valueField]
	wrapped = wrapped && len(rest) == 1
	switch shapeOf(reflect.TypeOf((*T)(nil)).Elem()) {
	case shapeObject:
		// {"value": ...} aqui é um campo do próprio objeto
	case shapeScalar:
		if !wrapped {
			return item, fmt.Errorf("%w: item without %q", ErrDeserializationFailed, valueField)
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return item, fmt.Errorf("%w: %v", ErrDeserializationFailed, err)
		}
		item.Value = v
		return item, nil
	default:
		if wrapped {
			var v T
			if err := json.Unmarshal(raw, &v); err == nil {
				item.Value = v
				return item, nil
			}
		}
	}

	var v T
	if err := decodeObject(rest, &v); err != nil {
		return item, err
	}
	item.Value = v
	return item, nil
}

func decodeObject(env Envelope, out any) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeserializationFailed, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDeserializationFailed, err)
	}
	return nil
}

// without returns a shallow copy of env minus field.
func without(env Envelope, field string) Envelope {
	out := make(Envelope, len(env))
	for k, v := range env {
		if k != field {
			out[k] = v
		}
	}
	return out
}

func isObject(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

type shape int

const (
	shapeUnknown shape = iota
	shapeObject
	shapeScalar
)

var (
	marshalerType   = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	unmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
)

// shapeOf tells whether values of t serialize to a JSON object.
func shapeOf(t reflect.Type) shape {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Implements(marshalerType) || t.Implements(unmarshalerType) ||
		reflect.PointerTo(t).Implements(marshalerType) || reflect.PointerTo(t).Implements(unmarshalerType) {
		return shapeUnknown
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Map:
		return shapeObject
	case reflect.Interface:
		return shapeUnknown
	default:
		return shapeScalar
	}
}
