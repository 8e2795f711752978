package execctx

import (
	"reflect"
	"sync"
)

// Factory constructs a fixture instance from constructor arguments that
// have already had symbol substitution applied, but have not yet been
// converted to typed Go values — a fixture is responsible for parsing
// its own constructor arguments, the same way it parses call arguments.
type Factory func(args []interface{}) (interface{}, error)

// ClassEntry is a registered, constructible fixture class: its
// constructor plus the frozen set of its exported methods. The method
// set can't be known until something has actually been constructed
// (Go has no way to enumerate a type's methods before a value of that
// type exists), so aliases are computed lazily on first construction
// and then frozen for the lifetime of the entry.
type ClassEntry struct {
	Name      string
	Construct Factory

	mu      sync.Mutex
	aliases AliasMap
}

// NewClassEntry wraps a constructor under name.
func NewClassEntry(name string, construct Factory) *ClassEntry {
	return &ClassEntry{Name: name, Construct: construct}
}

// aliasesFor returns the class's AliasMap, computing it from instance's
// concrete type the first time it's called and reusing it afterward.
// instance's type must be the same on every call for a given entry,
// which holds as long as Construct always returns the same concrete
// type — true for every fixture registered through Fixtures().
func (c *ClassEntry) aliasesFor(instance interface{}) AliasMap {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.aliases != nil {
		return c.aliases
	}
	t := reflect.TypeOf(instance)
	names := make([]string, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		names = append(names, t.Method(i).Name)
	}
	c.aliases = BuildAliasMap(names)
	return c.aliases
}
