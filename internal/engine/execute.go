package engine

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/fitnesse-go/slimd/internal/convert"
	slimerrors "github.com/fitnesse-go/slimd/internal/errors"
	"github.com/fitnesse-go/slimd/internal/execctx"
)

const (
	voidResult = "/__VOID__/"
	okResult   = "OK"
)

// Result is one instruction's outcome, ready to be packed into the
// response list: Value is either a string or a codec.List (for a
// Sequence return value).
type Result struct {
	ID    string
	Value interface{}
}

// FixtureLoader loads fixture classes from a filesystem path. It is
// satisfied by *fixture.Loader; Execute takes the narrow interface
// instead of the concrete type so the engine package never needs to
// import the yaegi-backed loader (and so tests can substitute a stub).
type FixtureLoader interface {
	Load(path string) ([]*execctx.ClassEntry, error)
}

// Execute runs one instruction against ctx and reg, appending exactly
// one row to c, and returns true when the batch must stop here (an
// ABORT_SLIM_TEST failure). Every instruction produces a result, even
// the ones that fail: a protocol-level failure is translated into the
// matching SLIM exception string rather than surfaced as a Go error.
func Execute(instr Instruction, ctx *execctx.ExecutionContext, reg *convert.Registry, loader FixtureLoader, c *Collector) bool {
	switch instr.Kind {
	case KindImport:
		// Import always reports OK, even when the path
		// can't be loaded — a bad import only becomes visible later,
		// as a NO_CLASS failure on the Make that needed it.
		executeImport(instr, ctx, loader)
		c.Completed(instr.ID)
		return false

	case KindMake:
		return executeMake(instr, ctx, c)

	case KindCall:
		return executeCall(instr, ctx, reg, c)

	case KindCallAndAssign:
		return executeCallAndAssign(instr, ctx, reg, c)

	default:
		return c.Failed(instr.ID, &slimerrors.ProtocolError{
			Cause:  "INVALID_STATEMENT",
			Detail: string(rawKind(instr)),
		}, false)
	}
}

// rawKind recovers the original instruction tag for an Unknown
// instruction's INVALID_STATEMENT message.
func rawKind(instr Instruction) Kind {
	if len(instr.Raw) >= 2 {
		if s, ok := instr.Raw[1].(string); ok {
			return Kind(s)
		}
	}
	return instr.Kind
}

// executeImport classifies the argument as a filesystem path (contains
// '/' or '\') or a module-like prefix. A filesystem path is handed to
// the FixtureLoader immediately — loading is lazy only in the sense
// that nothing is loaded until some Import names a path; a
// module-like prefix is recorded on the import search path GetType
// consults for qualified lookups. Load failures are swallowed here and
// surface later as NO_CLASS.
func executeImport(instr Instruction, ctx *execctx.ExecutionContext, loader FixtureLoader) {
	ctx.AddImportPath(instr.ImportPath)
	if loader == nil || !isFilesystemPath(instr.ImportPath) {
		return
	}
	entries, err := loader.Load(instr.ImportPath)
	if err != nil {
		return
	}
	for _, entry := range entries {
		ctx.RegisterClass(entry)
	}
}

func isFilesystemPath(path string) bool {
	return strings.ContainsAny(path, "/\\")
}

func executeMake(instr Instruction, ctx *execctx.ExecutionContext, c *Collector) bool {
	entry, ok := ctx.GetType(instr.ClassName)
	if !ok {
		return c.Failed(instr.ID, &slimerrors.ProtocolError{
			Cause:  "NO_CLASS",
			Detail: instr.ClassName,
		}, false)
	}

	args := ctx.ToArgs(instr.Args)
	instance, err := entry.Construct(args)
	if err != nil {
		return c.Failed(instr.ID, &slimerrors.ProtocolError{
			Cause:  "COULD_NOT_INVOKE_CONSTRUCTOR",
			Detail: fmt.Sprintf("%s %s", instr.ClassName, err.Error()),
			Err:    err,
		}, false)
	}

	ctx.StoreInstance(instr.InstanceName, instance, entry)
	c.Completed(instr.ID)
	return false
}

func executeCall(instr Instruction, ctx *execctx.ExecutionContext, reg *convert.Registry, c *Collector) bool {
	value, userErr, protoErr := invoke(instr, ctx, reg)
	if protoErr != nil {
		return c.Failed(instr.ID, protoErr, false)
	}
	if userErr != nil {
		return c.Failed(instr.ID, fmt.Errorf("%s.%s: %w", instr.TargetName, instr.MethodName, userErr), isStopTest(userErr))
	}
	c.CompletedValue(instr.ID, value)
	return false
}

func executeCallAndAssign(instr Instruction, ctx *execctx.ExecutionContext, reg *convert.Registry, c *Collector) bool {
	value, userErr, protoErr := invoke(instr, ctx, reg)
	if protoErr != nil {
		return c.Failed(instr.ID, protoErr, false)
	}
	if userErr != nil {
		return c.Failed(instr.ID, fmt.Errorf("%s.%s: %w", instr.TargetName, instr.MethodName, userErr), isStopTest(userErr))
	}

	if s, ok := value.(string); ok {
		ctx.StoreSymbol(instr.Symbol, s)
	} else {
		// A Sequence return value (a codec.List) isn't assignable as a
		// plain symbol; store its display form so later $symbol
		// substitution still produces something readable.
		ctx.StoreSymbol(instr.Symbol, fmt.Sprintf("%v", value))
	}
	c.CompletedValue(instr.ID, value)
	return false
}

// invoke resolves and calls the method shared by Call and
// CallAndAssign. protoErr is a protocol-level failure (unknown
// instance, unknown method, bad argument shape) that never aborts a
// batch; userErr is the raw error the fixture method itself returned,
// kept unwrapped so the caller can inspect its dynamic type for the
// StopTestException convention.
func invoke(instr Instruction, ctx *execctx.ExecutionContext, reg *convert.Registry) (value interface{}, userErr error, protoErr error) {
	method, err := ctx.TargetFor(instr.TargetName, instr.MethodName)
	if err != nil {
		return nil, nil, err
	}

	args := ctx.ToArgs(instr.Args)
	argValues, err := coerceArgs(method, args, reg)
	if err != nil {
		return nil, nil, fmt.Errorf("%s.%s: %w", instr.TargetName, instr.MethodName, err)
	}

	results := method.Call(argValues)
	retVal, callErr := splitReturn(results)
	if callErr != nil {
		return nil, callErr, nil
	}
	if retVal == nil {
		return voidResult, nil, nil
	}

	wire, err := reg.ToWire(retVal)
	if err != nil {
		return nil, nil, err
	}
	return convertedToWire(wire), nil, nil
}

// isStopTest implements the abort rule: a fixture
// failure aborts the current batch exactly when its Go error type's
// name contains "stoptest", case-insensitively — the Go analogue of
// "the exception's kind name contains StopTest".
func isStopTest(err error) bool {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	name := ""
	if t != nil {
		name = t.Name()
	}
	return strings.Contains(strings.ToLower(name), "stoptest") ||
		strings.Contains(strings.ToLower(err.Error()), "stoptest")
}

// exceptionString formats err as a SLIM exception row value:
//
//	__EXCEPTION__: message:<<M>>                   (recoverable)
//	__EXCEPTION__:ABORT_SLIM_TEST: message:<<M>>    (abort)
func exceptionString(err error, abort bool) string {
	if abort {
		return "__EXCEPTION__:ABORT_SLIM_TEST: message:<<" + err.Error() + ">>"
	}
	return "__EXCEPTION__: message:<<" + err.Error() + ">>"
}
