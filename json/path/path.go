// Package path lê e altera documentos JSON genéricos (map[string]any) por
// caminhos pontuados, como "profile.age" ou "courses[1].name".
//
// É o mesmo formato de caminho usado nas operações de update do Deta Base,
// e é usado pelo emulador para aplicar set, increment, append, prepend e
// delete sobre os itens armazenados.
package path

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNotFound is returned when a path does not resolve to a value.
	ErrNotFound = errors.New("path: not found")
	// ErrTypeMismatch is returned when a segment crosses a value of the wrong type.
	ErrTypeMismatch = errors.New("path: type mismatch")
	// ErrInvalidPath is returned for empty or malformed paths on writes.
	ErrInvalidPath = errors.New("path: invalid path")
)

// Document wraps a decoded JSON object.
type Document struct {
	data map[string]any
}

// New parses a JSON object.
func New(raw []byte) (*Document, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("path: parse json: %w", err)
	}
	if data == nil {
		data = make(map[string]any)
	}
	return &Document{data: data}, nil
}

// FromMap wraps m without copying it. Writes through the Document change m.
func FromMap(m map[string]any) *Document {
	if m == nil {
		m = make(map[string]any)
	}
	return &Document{data: m}
}

// Map returns the underlying object.
func (d *Document) Map() map[string]any {
	return d.data
}

// Get returns the value at path. An empty path returns the whole object.
//
//   - "name" -> top-level field
//   - "profile.employer" -> nested object field
//   - "courses[0]" -> array element
//   - "courses[1].name" -> field of an array element
func (d *Document) Get(p string) (any, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return d.data, nil
	}

	segs := parse(p)
	var cur any = d.data
	for i, s := range segs {
		next, err := step(cur, s)
		if err != nil {
			return nil, fmt.Errorf("%w at %q", err, render(segs[:i+1]))
		}
		cur = next
	}
	return cur, nil
}

// Exists reports whether path resolves to a value, null included.
func (d *Document) Exists(p string) bool {
	_, err := d.Get(p)
	return err == nil
}

// Set writes value at path, creating intermediate objects as needed.
// Array segments must point to existing elements.
func (d *Document) Set(p string, value any) error {
	segs := parse(strings.TrimSpace(p))
	if len(segs) == 0 {
		return ErrInvalidPath
	}
	parent, err := d.parentFor(segs, true)
	if err != nil {
		return err
	}
	return assign(parent, segs[len(segs)-1], value)
}

// Delete removes the value at path. Deleting a missing path is not an error.
func (d *Document) Delete(p string) error {
	segs := parse(strings.TrimSpace(p))
	if len(segs) == 0 {
		return ErrInvalidPath
	}
	parent, err := d.parentFor(segs, false)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	last := segs[len(segs)-1]
	if last.isIndex {
		return fmt.Errorf("%w: cannot delete array element %q", ErrInvalidPath, p)
	}
	obj, ok := parent.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: %q is not inside an object", ErrTypeMismatch, p)
	}
	delete(obj, last.field)
	return nil
}

// String returns the value at path as a string. Non-string scalars are formatted.
func (d *Document) String(p string) (string, error) {
	v, err := d.Get(p)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case nil:
		return "", fmt.Errorf("%w: %q is null", ErrTypeMismatch, p)
	default:
		return fmt.Sprintf("%v", t), nil
	}
}

// Int returns the value at path as an int.
func (d *Document) Int(p string) (int, error) {
	v, err := d.Get(p)
	if err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case float64:
		return int(t), nil
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case string:
		return strconv.Atoi(t)
	default:
		return 0, fmt.Errorf("%w: %T is not an int", ErrTypeMismatch, v)
	}
}

// Float returns the value at path as a float64.
func (d *Document) Float(p string) (float64, error) {
	v, err := d.Get(p)
	if err != nil {
		return 0, err
	}
	if f, ok := toFloat(v); ok {
		return f, nil
	}
	if s, ok := v.(string); ok {
		return strconv.ParseFloat(s, 64)
	}
	return 0, fmt.Errorf("%w: %T is not a number", ErrTypeMismatch, v)
}

// Bool returns the value at path as a bool.
func (d *Document) Bool(p string) (bool, error) {
	v, err := d.Get(p)
	if err != nil {
		return false, err
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return strconv.ParseBool(t)
	default:
		return false, fmt.Errorf("%w: %T is not a bool", ErrTypeMismatch, v)
	}
}

// Array returns the list at path.
func (d *Document) Array(p string) ([]any, error) {
	v, err := d.Get(p)
	if err != nil {
		return nil, err
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %T, not an array", ErrTypeMismatch, p, v)
	}
	return arr, nil
}

// Object returns the object at path.
func (d *Document) Object(p string) (map[string]any, error) {
	v, err := d.Get(p)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %T, not an object", ErrTypeMismatch, p, v)
	}
	return obj, nil
}

// Multiple resolves several paths at once and fails on the first missing one.
func (d *Document) Multiple(paths ...string) (map[string]any, error) {
	out := make(map[string]any, len(paths))
	for _, p := range paths {
		v, err := d.Get(p)
		if err != nil {
			return nil, err
		}
		out[p] = v
	}
	return out, nil
}

// JSON encodes the document.
func (d *Document) JSON() ([]byte, error) {
	return json.Marshal(d.data)
}

// ToJSONIndent encodes any value as indented JSON.
func ToJSONIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// Number normalizes numeric values to float64, the type json uses for numbers in any.
func Number(v any) (float64, bool) {
	return toFloat(v)
}

// --- parsing ---

type segment struct {
	field   string
	isIndex bool
	index   int
}

// parse splits "a.b[1].c" into segments. Malformed brackets are read as field names.
func parse(p string) []segment {
	var segs []segment
	for _, part := range strings.Split(p, ".") {
		if part == "" {
			continue
		}
		for part != "" {
			open := strings.IndexByte(part, '[')
			if open < 0 {
				segs = append(segs, segment{field: part})
				break
			}
			end := strings.IndexByte(part[open:], ']')
			if end < 0 {
				segs = append(segs, segment{field: part})
				break
			}
			end += open

			if open > 0 {
				segs = append(segs, segment{field: part[:open]})
			}
			idx, err := strconv.Atoi(part[open+1 : end])
			if err != nil {
				segs = append(segs, segment{field: part[open : end+1]})
			} else {
				segs = append(segs, segment{isIndex: true, index: idx})
			}
			part = part[end+1:]
		}
	}
	return segs
}

func render(segs []segment) string {
	var b strings.Builder
	for i, s := range segs {
		if s.isIndex {
			fmt.Fprintf(&b, "[%d]", s.index)
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.field)
	}
	return b.String()
}

func step(cur any, s segment) (any, error) {
	if s.isIndex {
		arr, ok := cur.([]any)
		if !ok {
			return nil, ErrTypeMismatch
		}
		if s.index < 0 || s.index >= len(arr) {
			return nil, ErrNotFound
		}
		return arr[s.index], nil
	}

	obj, ok := cur.(map[string]any)
	if !ok {
		return nil, ErrTypeMismatch
	}
	v, ok := obj[s.field]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

// parentFor walks to the container of the last segment. With create set,
// missing object fields along the way become empty objects.
func (d *Document) parentFor(segs []segment, create bool) (any, error) {
	var cur any = d.data
	for i, s := range segs[:len(segs)-1] {
		next, err := step(cur, s)
		if errors.Is(err, ErrNotFound) && create && !s.isIndex {
			child := make(map[string]any)
			cur.(map[string]any)[s.field] = child
			next, err = child, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w at %q", err, render(segs[:i+1]))
		}
		cur = next
	}
	return cur, nil
}

func assign(parent any, s segment, value any) error {
	if s.isIndex {
		arr, ok := parent.([]any)
		if !ok {
			return ErrTypeMismatch
		}
		if s.index < 0 || s.index >= len(arr) {
			return ErrNotFound
		}
		arr[s.index] = value
		return nil
	}

	obj, ok := parent.(map[string]any)
	if !ok {
		return ErrTypeMismatch
	}
	obj[s.field] = value
	return nil
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
