package detabase

import (
	"encoding/json"
	"fmt"
)

// Update accumulates partial mutations for a single item.
//
// Paths are dotted attribute paths ("profile.age"). Operands keep their JSON
// type: numbers stay numbers and booleans stay booleans. Using the same path
// in two operation kinds is not checked here; the store rejects it.
//
//	u := detabase.NewUpdate().
//		Set("profile.age", 33).
//		Set("profile.active", true).
//		Increment("purchases", 2).
//		Append("likes", "ramen").
//		Prepend("likes", "noodles").
//		Delete("profile.hometown")
type Update struct {
	set       map[string]any
	increment map[string]any
	append    map[string][]any
	prepend   map[string][]any
	delete    []string
}

// NewUpdate returns an empty Update.
func NewUpdate() *Update {
	return &Update{
		set:       make(map[string]any),
		increment: make(map[string]any),
		append:    make(map[string][]any),
		prepend:   make(map[string][]any),
		delete:    make([]string, 0),
	}
}

// Set replaces the attribute at path with value.
func (u *Update) Set(path string, value any) *Update {
	u.init()
	u.set[path] = value
	return u
}

// Increment adds delta to the numeric attribute at path. Negative deltas decrement.
func (u *Update) Increment(path string, delta any) *Update {
	u.init()
	u.increment[path] = delta
	return u
}

// Append pushes value to the end of the list at path.
func (u *Update) Append(path string, value any) *Update {
	u.init()
	u.append[path] = append(u.append[path], value)
	return u
}

// Prepend pushes value to the start of the list at path.
func (u *Update) Prepend(path string, value any) *Update {
	u.init()
	u.prepend[path] = append(u.prepend[path], value)
	return u
}

// Delete removes the attribute at path. Repeated paths are sent as given.
func (u *Update) Delete(path string) *Update {
	u.init()
	u.delete = append(u.delete, path)
	return u
}

// Build renders the wire document. All five fields are always present.
func (u *Update) Build() ([]byte, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return b, nil
}

type updateDocument struct {
	Set       map[string]any   `json:"set"`
	Increment map[string]any   `json:"increment"`
	Append    map[string][]any `json:"append"`
	Prepend   map[string][]any `json:"prepend"`
	Delete    []string         `json:"delete"`
}

// MarshalJSON implements json.Marshaler.
func (u *Update) MarshalJSON() ([]byte, error) {
	u.init()
	return json.Marshal(updateDocument{
		Set:       u.set,
		Increment: u.increment,
		Append:    u.append,
		Prepend:   u.prepend,
		Delete:    u.delete,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Used by the emulator and the CLI.
func (u *Update) UnmarshalJSON(data []byte) error {
	var doc updateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*u = Update{
		set:       doc.Set,
		increment: doc.Increment,
		append:    doc.Append,
		prepend:   doc.Prepend,
		delete:    doc.Delete,
	}
	u.init()
	return nil
}

// Sets returns the set operations. The returned map must not be modified.
func (u *Update) Sets() map[string]any { return u.set }

// Increments returns the increment operations.
func (u *Update) Increments() map[string]any { return u.increment }

// Appends returns the append operations, values in call order.
func (u *Update) Appends() map[string][]any { return u.append }

// Prepends returns the prepend operations, values in call order.
func (u *Update) Prepends() map[string][]any { return u.prepend }

// Deletes returns the paths to delete.
func (u *Update) Deletes() []string { return u.delete }

// IsEmpty reports whether no operation was added.
func (u *Update) IsEmpty() bool {
	return len(u.set) == 0 && len(u.increment) == 0 && len(u.append) == 0 &&
		len(u.prepend) == 0 && len(u.delete) == 0
}

// init makes the zero value usable.
func (u *Update) init() {
	if u.set == nil {
		u.set = make(map[string]any)
	}
	if u.increment == nil {
		u.increment = make(map[string]any)
	}
	if u.append == nil {
		u.append = make(map[string][]any)
	}
	if u.prepend == nil {
		u.prepend = make(map[string][]any)
	}
	if u.delete == nil {
		u.delete = make([]string, 0)
	}
}
