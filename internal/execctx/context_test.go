package execctx

import (
	"reflect"
	"testing"

	"github.com/fitnesse-go/slimd/internal/codec"
	slimerrors "github.com/fitnesse-go/slimd/internal/errors"
)

type greeter struct {
	greeting string
}

func (g *greeter) Greet() string { return g.greeting }

func (g *greeter) SetGreeting(s string) { g.greeting = s }

func TestRegisterClassAndGetTypeUnqualified(t *testing.T) {
	ctx := New()
	entry := NewClassEntry("Greeter", func(args []interface{}) (interface{}, error) {
		return &greeter{}, nil
	})
	ctx.RegisterClass(entry)

	got, ok := ctx.GetType("Greeter")
	if !ok || got != entry {
		t.Fatalf("GetType(Greeter) = (%v, %v), want (%v, true)", got, ok, entry)
	}
}

func TestGetTypeQualifiedByImportPath(t *testing.T) {
	ctx := New()
	ctx.AddImportPath("fixtures.greeting")
	entry := NewClassEntry("fixtures.greeting.Greeter", func(args []interface{}) (interface{}, error) {
		return &greeter{}, nil
	})
	ctx.RegisterClass(entry)

	got, ok := ctx.GetType("Greeter")
	if !ok || got != entry {
		t.Fatalf("GetType(Greeter) via import path = (%v, %v), want found", got, ok)
	}
}

func TestStoreAndGetInstance(t *testing.T) {
	ctx := New()
	entry := NewClassEntry("Greeter", nil)
	g := &greeter{greeting: "hi"}
	ctx.StoreInstance("greeter", g, entry)

	got, ok := ctx.GetInstance("greeter")
	if !ok || got.(*greeter) != g {
		t.Fatalf("GetInstance(greeter) = (%v, %v), want (%v, true)", got, ok, g)
	}
}

func TestTargetForResolvesAliasedMethodName(t *testing.T) {
	ctx := New()
	entry := NewClassEntry("Greeter", nil)
	g := &greeter{greeting: "hi"}
	ctx.StoreInstance("greeter", g, entry)

	method, err := ctx.TargetFor("greeter", "set_greeting")
	if err != nil {
		t.Fatalf("TargetFor(set_greeting) error: %v", err)
	}
	method.Call([]reflect.Value{reflect.ValueOf("hello")})

	if g.greeting != "hello" {
		t.Fatalf("SetGreeting via aliased name did not run, greeting = %q", g.greeting)
	}
}

func TestTargetForUnknownInstance(t *testing.T) {
	ctx := New()
	_, err := ctx.TargetFor("missing", "Greet")
	if err == nil {
		t.Fatal("TargetFor on unknown instance returned nil error")
	}
	if pe, ok := err.(*slimerrors.ProtocolError); !ok || pe.Cause != "NO_INSTANCE" {
		t.Fatalf("TargetFor on unknown instance = %v, want NO_INSTANCE ProtocolError", err)
	}
}

func TestTargetForUnknownMethod(t *testing.T) {
	ctx := New()
	entry := NewClassEntry("Greeter", nil)
	ctx.StoreInstance("greeter", &greeter{}, entry)

	_, err := ctx.TargetFor("greeter", "doesNotExist")
	if pe, ok := err.(*slimerrors.ProtocolError); !ok || pe.Cause != "NO_METHOD_IN_CLASS" {
		t.Fatalf("TargetFor on unknown method = %v, want NO_METHOD_IN_CLASS ProtocolError", err)
	}
}

func TestSymbolStoreAndSubstitution(t *testing.T) {
	ctx := New()
	ctx.StoreSymbol("name", "Bob")

	args := ctx.ToArgs(codec.List{"hello $name", "untouched"})
	if args[0] != "hello Bob" {
		t.Errorf("ToArgs substituted %q, want %q", args[0], "hello Bob")
	}
	if args[1] != "untouched" {
		t.Errorf("ToArgs modified non-referencing arg: %q", args[1])
	}
}

func TestUnresolvedSymbolLeftLiteral(t *testing.T) {
	ctx := New()
	args := ctx.ToArgs(codec.List{"value is $missing"})
	if args[0] != "value is $missing" {
		t.Errorf("ToArgs(%q) = %q, want literal passthrough", "$missing", args[0])
	}
}

func TestToArgsRecursesIntoNestedLists(t *testing.T) {
	ctx := New()
	ctx.StoreSymbol("x", "42")

	args := ctx.ToArgs(codec.List{codec.List{"$x", "literal"}})
	nested, ok := args[0].([]interface{})
	if !ok || len(nested) != 2 {
		t.Fatalf("ToArgs nested list = %#v", args[0])
	}
	if nested[0] != "42" {
		t.Errorf("nested substitution = %q, want 42", nested[0])
	}
}
