// Package execctx holds the per-connection state a SLIM session
// accumulates as it executes instructions: registered fixture classes,
// constructed instances, assigned symbols, and the import search path
// used to resolve unqualified class names. One ExecutionContext exists
// per session and is never shared across connections, so two clients
// running the same suite concurrently can't see each other's symbols
// or instances.
package execctx

import (
	"fmt"
	"reflect"
	"regexp"
	"sync"

	"github.com/fitnesse-go/slimd/internal/codec"
	slimerrors "github.com/fitnesse-go/slimd/internal/errors"
)

var symbolRef = regexp.MustCompile(`\$([A-Za-z]\w*)`)

type instanceHandle struct {
	value   interface{}
	aliases AliasMap
}

// ExecutionContext is the full state of one SLIM session.
type ExecutionContext struct {
	mu sync.RWMutex

	importPaths []string
	classes     map[string]*ClassEntry
	instances   map[string]instanceHandle
	symbols     map[string]string
}

// New returns an empty ExecutionContext ready to execute instructions.
func New() *ExecutionContext {
	return &ExecutionContext{
		classes:   make(map[string]*ClassEntry),
		instances: make(map[string]instanceHandle),
		symbols:   make(map[string]string),
	}
}

// AddImportPath records a fully-qualified prefix; GetType tries it
// after a bare lookup fails when resolving an unqualified class name,
// mirroring FitNesse's Import instruction semantics.
func (ctx *ExecutionContext) AddImportPath(path string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	for _, existing := range ctx.importPaths {
		if existing == path {
			return
		}
	}
	ctx.importPaths = append(ctx.importPaths, path)
}

// ImportPaths returns the recorded import search path, most recently
// added first (later imports take priority on a name collision).
func (ctx *ExecutionContext) ImportPaths() []string {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	out := make([]string, len(ctx.importPaths))
	for i, p := range ctx.importPaths {
		out[len(out)-1-i] = p
	}
	return out
}

// RegisterClass records entry under entry.Name. GetType finds it when
// asked for that exact name, or when entry.Name equals an import path
// plus "." plus the requested name.
func (ctx *ExecutionContext) RegisterClass(entry *ClassEntry) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.classes[entry.Name] = entry
}

// GetType resolves className, trying it as given first and then
// qualified by each import path in most-recently-added order.
func (ctx *ExecutionContext) GetType(className string) (*ClassEntry, bool) {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()

	if entry, ok := ctx.classes[className]; ok {
		return entry, true
	}
	for i := len(ctx.importPaths) - 1; i >= 0; i-- {
		qualified := ctx.importPaths[i] + "." + className
		if entry, ok := ctx.classes[qualified]; ok {
			return entry, true
		}
	}
	return nil, false
}

// StoreInstance records a constructed fixture under name, computing
// its AliasMap from entry on first use.
func (ctx *ExecutionContext) StoreInstance(name string, value interface{}, entry *ClassEntry) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.instances[name] = instanceHandle{value: value, aliases: entry.aliasesFor(value)}
}

// GetInstance returns the instance stored under name.
func (ctx *ExecutionContext) GetInstance(name string) (interface{}, bool) {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	h, ok := ctx.instances[name]
	return h.value, ok
}

// TargetFor resolves methodName against the instance stored under
// instanceName through its class's AliasMap, returning a reflect.Value
// ready to Call. It reports which of the three failure modes applies
// so the caller can choose the right SLIM exception tag.
func (ctx *ExecutionContext) TargetFor(instanceName, methodName string) (reflect.Value, error) {
	ctx.mu.RLock()
	h, ok := ctx.instances[instanceName]
	ctx.mu.RUnlock()
	if !ok {
		return reflect.Value{}, &slimerrors.ProtocolError{
			Cause:  "NO_INSTANCE",
			Detail: instanceName,
		}
	}

	canonical, ok := h.aliases.Resolve(methodName)
	if !ok {
		return reflect.Value{}, &slimerrors.ProtocolError{
			Cause:  "NO_METHOD_IN_CLASS",
			Detail: fmt.Sprintf("%s %s", methodName, reflect.TypeOf(h.value).String()),
		}
	}

	method := reflect.ValueOf(h.value).MethodByName(canonical)
	if !method.IsValid() {
		return reflect.Value{}, &slimerrors.ProtocolError{
			Cause:  "NO_METHOD_IN_CLASS",
			Detail: fmt.Sprintf("%s %s", methodName, reflect.TypeOf(h.value).String()),
		}
	}
	return method, nil
}

// StoreSymbol assigns value (already converted to its wire string
// form) to name, overwriting any previous assignment.
func (ctx *ExecutionContext) StoreSymbol(name, value string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.symbols[name] = value
}

// GetSymbol returns the wire string previously assigned to name.
func (ctx *ExecutionContext) GetSymbol(name string) (string, bool) {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	v, ok := ctx.symbols[name]
	return v, ok
}

// ToArgs resolves $symbol references inside params, recursing into
// nested lists so a Sequence or Mapping argument gets the same
// substitution its scalar elements would. A reference to a symbol
// that was never assigned is left as the literal "$name" text, per
// FitNesse's own behavior — an unresolved symbol is not an error.
func (ctx *ExecutionContext) ToArgs(params codec.List) []interface{} {
	out := make([]interface{}, len(params))
	for i, p := range params {
		out[i] = ctx.substitute(p)
	}
	return out
}

func (ctx *ExecutionContext) substitute(param interface{}) interface{} {
	switch v := param.(type) {
	case string:
		return symbolRef.ReplaceAllStringFunc(v, func(match string) string {
			name := match[1:]
			if val, ok := ctx.GetSymbol(name); ok {
				return val
			}
			return match
		})
	case codec.List:
		out := make([]interface{}, len(v))
		for i, elem := range v {
			out[i] = ctx.substitute(elem)
		}
		return out
	default:
		return v
	}
}
