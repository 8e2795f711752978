// Package fixture loads fixture classes from Go source at runtime. Go
// has no import-by-string or dynamic-class-construction facility, so
// fixture source is evaluated with an embedded interpreter
// (github.com/traefik/yaegi) instead of being compiled into the
// server binary. Each fixture package exports one function:
//
//	func Fixtures() map[string]func(args []interface{}) (interface{}, error)
//
// The returned map's keys become class names and its values become
// constructors; method dispatch after construction uses ordinary Go
// reflection against whatever concrete type the constructor returns,
// so a fixture author writes plain exported methods and gets FitNesse's
// three-spelling aliasing for free.
package fixture

import (
	"fmt"
	"os"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/fitnesse-go/slimd/internal/execctx"
)

// Loader evaluates fixture source files and packages and turns their
// Fixtures() registration function into execctx.ClassEntry values.
//
// Fixture source may declare package-level state (a Python-style
// module global, the Go equivalent of which is a package-level var),
// and each session that imports a fixture path must see its own
// isolated copy of that state — two concurrent sessions constructing
// the same class must never observe each other's mutations. An
// interpreter's global scope is exactly where that state lives, so
// Load builds a brand new *interp.Interpreter on every call instead of
// reusing one across sessions. Only the raw source bytes for a
// single-file fixture are cached process-wide, since reading and
// reparsing a large standard-library symbol table is what's
// expensive, not rereading a small fixture file from disk.
type Loader struct {
	mu     sync.Mutex
	source map[string][]byte
}

// NewLoader returns a Loader with an empty source cache.
func NewLoader() *Loader {
	return &Loader{source: make(map[string][]byte)}
}

// Load evaluates the Go source or package at path and returns one
// ClassEntry per key in its Fixtures() map. path is either a single
// .go file or a directory containing a Go package; both are valid
// yaegi entry points. The fixture source must declare "package main" —
// yaegi qualifies top-level symbols by package name, and main is the
// one name Load doesn't need to be told.
//
// Every call gets a fresh interpreter and re-evaluates the source
// from scratch, so package-level state declared by the fixture starts
// over for each caller. Callers that need one shared class registry
// for a session's lifetime should call Load once and reuse the
// returned entries rather than calling Load again per instruction.
func (l *Loader) Load(path string) ([]*execctx.ClassEntry, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("fixture: load standard library symbols: %w", err)
	}

	if err := l.eval(i, path); err != nil {
		return nil, err
	}

	fixturesFn, err := i.Eval("main.Fixtures")
	if err != nil {
		return nil, fmt.Errorf("fixture: %s does not export Fixtures: %w", path, err)
	}

	results := fixturesFn.Call(nil)
	if len(results) != 1 {
		return nil, fmt.Errorf("fixture: %s Fixtures() must return exactly one value", path)
	}

	raw, ok := results[0].Interface().(map[string]func([]interface{}) (interface{}, error))
	if !ok {
		return nil, fmt.Errorf("fixture: %s Fixtures() has the wrong signature, want map[string]func([]interface{}) (interface{}, error)", path)
	}

	entries := make([]*execctx.ClassEntry, 0, len(raw))
	for name, construct := range raw {
		entries = append(entries, execctx.NewClassEntry(name, execctx.Factory(construct)))
	}
	return entries, nil
}

// eval feeds path's source into i. A directory is handed to yaegi's
// own EvalPath directly, since a multi-file package isn't a single
// byte slice worth caching; a single file's bytes are cached by path
// so repeated Load calls against the same fixture don't re-read disk.
func (l *Loader) eval(i *interp.Interpreter, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("fixture: stat %s: %w", path, err)
	}
	if info.IsDir() {
		if _, err := i.EvalPath(path); err != nil {
			return fmt.Errorf("fixture: evaluate %s: %w", path, err)
		}
		return nil
	}

	src, err := l.sourceFor(path)
	if err != nil {
		return err
	}
	if _, err := i.Eval(string(src)); err != nil {
		return fmt.Errorf("fixture: evaluate %s: %w", path, err)
	}
	return nil
}

func (l *Loader) sourceFor(path string) ([]byte, error) {
	l.mu.Lock()
	if src, ok := l.source[path]; ok {
		l.mu.Unlock()
		return src, nil
	}
	l.mu.Unlock()

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: read %s: %w", path, err)
	}

	l.mu.Lock()
	l.source[path] = src
	l.mu.Unlock()
	return src, nil
}

// Invalidate evicts the cached source bytes for path, if any, so the
// next Load rereads the file from disk. internal/fixturewatch calls
// this when an fsnotify event fires for a watched fixture path;
// Loader itself never watches anything.
func (l *Loader) Invalidate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.source, path)
}
