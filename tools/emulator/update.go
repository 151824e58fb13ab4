package emulator

import (
	"fmt"
	"strings"

	"github.com/raywall/deta-toolkit/detabase"
	"github.com/raywall/deta-toolkit/json/path"
	"github.com/raywall/deta-toolkit/tools/emulator/storage"
)

// checkUpdate recusa caminhos vazios, caminhos sobre "key" e caminhos
// usados em mais de um tipo de operação.
func checkUpdate(u *detabase.Update) error {
	seen := make(map[string]string)
	use := func(kind, p string) error {
		p = strings.TrimSpace(p)
		if p == "" {
			return fmt.Errorf("Empty path in %s", kind)
		}
		if p == "key" || strings.HasPrefix(p, "key.") || strings.HasPrefix(p, "key[") {
			return fmt.Errorf("Cannot update the key")
		}
		if prev, ok := seen[p]; ok && prev != kind {
			return fmt.Errorf("Path %q used in %s and %s", p, prev, kind)
		}
		seen[p] = kind
		return nil
	}

	for p := range u.Sets() {
		if err := use("set", p); err != nil {
			return err
		}
	}
	for p := range u.Increments() {
		if err := use("increment", p); err != nil {
			return err
		}
	}
	for p := range u.Appends() {
		if err := use("append", p); err != nil {
			return err
		}
	}
	for p := range u.Prepends() {
		if err := use("prepend", p); err != nil {
			return err
		}
	}
	for _, p := range u.Deletes() {
		if err := use("delete", p); err != nil {
			return err
		}
	}
	return nil
}

// applyUpdate aplica set, increment, append, prepend e delete, nessa ordem.
func applyUpdate(item storage.Item, u *detabase.Update) error {
	doc := path.FromMap(item)

	for p, v := range u.Sets() {
		if err := doc.Set(p, v); err != nil {
			return fmt.Errorf("Cannot set %q: %v", p, err)
		}
	}

	for p, delta := range u.Increments() {
		d, ok := path.Number(delta)
		if !ok {
			return fmt.Errorf("Increment of %q is not a number", p)
		}
		cur := 0.0
		if doc.Exists(p) {
			v, _ := doc.Get(p)
			if cur, ok = path.Number(v); !ok {
				return fmt.Errorf("Cannot increment %q: not a number", p)
			}
		}
		if err := doc.Set(p, cur+d); err != nil {
			return fmt.Errorf("Cannot increment %q: %v", p, err)
		}
	}

	for p, values := range u.Appends() {
		list, err := listAt(doc, p)
		if err != nil {
			return err
		}
		if err := doc.Set(p, append(list, values...)); err != nil {
			return fmt.Errorf("Cannot append to %q: %v", p, err)
		}
	}

	for p, values := range u.Prepends() {
		list, err := listAt(doc, p)
		if err != nil {
			return err
		}
		merged := make([]any, 0, len(values)+len(list))
		merged = append(append(merged, values...), list...)
		if err := doc.Set(p, merged); err != nil {
			return fmt.Errorf("Cannot prepend to %q: %v", p, err)
		}
	}

	for _, p := range u.Deletes() {
		if err := doc.Delete(p); err != nil {
			return fmt.Errorf("Cannot delete %q: %v", p, err)
		}
	}
	return nil
}

// listAt devolve a lista em p; ausente ou null vira lista vazia.
func listAt(doc *path.Document, p string) ([]any, error) {
	if !doc.Exists(p) {
		return nil, nil
	}
	v, _ := doc.Get(p)
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return list, nil
	default:
		return nil, fmt.Errorf("Cannot append to %q: not a list", p)
	}
}
