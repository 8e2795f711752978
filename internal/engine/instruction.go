// Package engine turns decoded SLIM instruction lists into effects on
// an execctx.ExecutionContext and collects their results back into
// wire-ready list form.
package engine

import (
	"fmt"

	"github.com/fitnesse-go/slimd/internal/codec"
)

// Kind identifies which of the five SLIM instruction forms an
// Instruction represents.
type Kind string

const (
	KindImport        Kind = "import"
	KindMake          Kind = "make"
	KindCall          Kind = "call"
	KindCallAndAssign Kind = "callAndAssign"
	KindUnknown       Kind = "unknown"
)

// Instruction is one parsed line of a SLIM instruction list. Only the
// fields relevant to Kind are populated; the rest are left zero.
type Instruction struct {
	ID   string
	Kind Kind

	ImportPath string

	InstanceName string
	ClassName    string

	Symbol     string
	TargetName string
	MethodName string
	Args       codec.List

	Raw codec.List
}

// Parse decodes one instruction entry — [id, type, ...] — from an
// already-unpacked SLIM list. An instruction type this server doesn't
// recognize is not a parse error: it becomes a KindUnknown instruction
// so the caller can report INVALID_STATEMENT per-instruction instead
// of failing the whole request.
func Parse(entry codec.List) (Instruction, error) {
	if len(entry) < 2 {
		return Instruction{}, fmt.Errorf("engine: instruction has %d elements, want at least 2", len(entry))
	}
	id, ok := entry[0].(string)
	if !ok {
		return Instruction{}, fmt.Errorf("engine: instruction id must be a string")
	}
	kind, ok := entry[1].(string)
	if !ok {
		return Instruction{}, fmt.Errorf("engine: instruction type must be a string")
	}

	switch kind {
	case "import":
		if len(entry) != 3 {
			return Instruction{ID: id, Kind: KindUnknown, Raw: entry}, nil
		}
		path, ok := entry[2].(string)
		if !ok {
			return Instruction{ID: id, Kind: KindUnknown, Raw: entry}, nil
		}
		return Instruction{ID: id, Kind: KindImport, ImportPath: path}, nil

	case "make":
		if len(entry) < 4 {
			return Instruction{ID: id, Kind: KindUnknown, Raw: entry}, nil
		}
		instanceName, ok1 := entry[2].(string)
		className, ok2 := entry[3].(string)
		if !ok1 || !ok2 {
			return Instruction{ID: id, Kind: KindUnknown, Raw: entry}, nil
		}
		return Instruction{
			ID:           id,
			Kind:         KindMake,
			InstanceName: instanceName,
			ClassName:    className,
			Args:         codec.List(entry[4:]),
		}, nil

	case "call":
		if len(entry) < 4 {
			return Instruction{ID: id, Kind: KindUnknown, Raw: entry}, nil
		}
		instance, ok1 := entry[2].(string)
		method, ok2 := entry[3].(string)
		if !ok1 || !ok2 {
			return Instruction{ID: id, Kind: KindUnknown, Raw: entry}, nil
		}
		return Instruction{
			ID:         id,
			Kind:       KindCall,
			TargetName: instance,
			MethodName: method,
			Args:       codec.List(entry[4:]),
		}, nil

	case "callAndAssign":
		if len(entry) < 5 {
			return Instruction{ID: id, Kind: KindUnknown, Raw: entry}, nil
		}
		symbol, ok1 := entry[2].(string)
		instance, ok2 := entry[3].(string)
		method, ok3 := entry[4].(string)
		if !ok1 || !ok2 || !ok3 {
			return Instruction{ID: id, Kind: KindUnknown, Raw: entry}, nil
		}
		return Instruction{
			ID:         id,
			Kind:       KindCallAndAssign,
			Symbol:     symbol,
			TargetName: instance,
			MethodName: method,
			Args:       codec.List(entry[5:]),
		}, nil

	default:
		return Instruction{ID: id, Kind: KindUnknown, Raw: entry}, nil
	}
}

// ParseList decodes every instruction in a full request list.
func ParseList(list codec.List) ([]Instruction, error) {
	out := make([]Instruction, 0, len(list))
	for i, elem := range list {
		entry, ok := elem.(codec.List)
		if !ok {
			return nil, fmt.Errorf("engine: request item %d is not a list", i)
		}
		instr, err := Parse(entry)
		if err != nil {
			return nil, fmt.Errorf("engine: request item %d: %w", i, err)
		}
		out = append(out, instr)
	}
	return out, nil
}
