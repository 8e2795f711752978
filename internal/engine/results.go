package engine

import (
	"github.com/fitnesse-go/slimd/internal/codec"
	"github.com/fitnesse-go/slimd/internal/convert"
	"github.com/fitnesse-go/slimd/internal/execctx"
)

// Collector accumulates one [id, outcome] row per executed
// instruction, in execution order. Unlike a bare slice, it knows how
// to render the three outcome shapes a SLIM result can take and
// reports whether a failure should abort the rest of the current
// batch.
type Collector struct {
	rows []Result
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Completed records a successful instruction that produced no value.
func (c *Collector) Completed(id string) {
	c.rows = append(c.rows, Result{ID: id, Value: okResult})
}

// CompletedValue records a successful instruction that produced value,
// already rendered to its wire form (voidResult for a void return, a
// string or codec.List otherwise) by the caller.
func (c *Collector) CompletedValue(id string, value interface{}) {
	c.rows = append(c.rows, Result{ID: id, Value: value})
}

// Failed records a recoverable or abort failure and returns true when
// the caller should stop executing the remainder of the current batch
// (an exception whose kind name contains "stoptest",
// case-insensitively, aborts the batch).
func (c *Collector) Failed(id string, err error, abort bool) bool {
	c.rows = append(c.rows, Result{ID: id, Value: exceptionString(err, abort)})
	return abort
}

// Results returns the accumulated rows in execution order.
func (c *Collector) Results() []Result {
	return c.rows
}

// ExecuteAll runs every instruction in order against ctx and reg,
// stopping early if an instruction's failure is an abort: the
// remaining instructions in the batch are skipped, but the rows
// produced so far — including the abort row itself — are still
// returned.
func ExecuteAll(instrs []Instruction, ctx *execctx.ExecutionContext, reg *convert.Registry, loader FixtureLoader) []Result {
	c := NewCollector()
	for _, instr := range instrs {
		if Execute(instr, ctx, reg, loader, c) {
			break
		}
	}
	return c.Results()
}

// Pack converts results into the SLIM response list: one [id, value]
// pair per result, in the order they were produced.
func Pack(results []Result) codec.List {
	list := make(codec.List, len(results))
	for i, r := range results {
		list[i] = codec.List{r.ID, r.Value}
	}
	return list
}
