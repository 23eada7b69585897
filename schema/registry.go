package schema

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

var registry = struct {
	sync.RWMutex
	types map[string]*Type
}{types: map[string]*Type{}}

// Register compiles t and makes it available by name to Lookup.
func Register(t *Type) error {
	if t == nil {
		return fmt.Errorf("cannot register nil type")
	}
	if t.Name == "" {
		return fmt.Errorf("schema type must have a name")
	}
	if err := t.Compile(); err != nil {
		return fmt.Errorf("type %q: %w", t.Name, err)
	}
	registry.Lock()
	defer registry.Unlock()
	if prev, ok := registry.types[t.Name]; ok && prev != t {
		return fmt.Errorf("type %q already registered", t.Name)
	}
	registry.types[t.Name] = t
	return nil
}

// Lookup returns the registered type called name, or nil.
func Lookup(name string) *Type {
	registry.RLock()
	defer registry.RUnlock()
	return registry.types[name]
}

// Names lists the registered type names in sorted order.
func Names() []string {
	registry.RLock()
	defer registry.RUnlock()
	res := make([]string, 0, len(registry.types))
	for name := range registry.types {
		res = append(res, name)
	}
	slices.Sort(res)
	return res
}

// LoadDir loads every .yaml or .yml file of dir as a Type and registers
// it. It returns the names registered, in file order.
func LoadDir(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema dir: %w", err)
	}
	var names []string
	for _, ent := range ents {
		ext := strings.ToLower(filepath.Ext(ent.Name()))
		if ent.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		t, err := LoadType(filepath.Join(dir, ent.Name()))
		if err != nil {
			return names, err
		}
		if err := Register(t); err != nil {
			return names, fmt.Errorf("%s: %w", ent.Name(), err)
		}
		names = append(names, t.Name)
	}
	return names, nil
}

// Resolve returns the registered type called ref, or else loads ref as a
// schema file.
func Resolve(ref string) (*Type, error) {
	if t := Lookup(ref); t != nil {
		return t, nil
	}
	t, err := LoadType(ref)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no registered schema type or file %q (registered: %s)", ref, strings.Join(Names(), ", "))
		}
		return nil, err
	}
	return t, nil
}
