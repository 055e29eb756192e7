package ir

// OperationName is the fully qualified "<dialect>.<local>" name of an
// operation kind.
type OperationName string

// OperationState is the set of fields needed to construct an Operation; it
// mirrors how the bytecode reader accumulates an operation's pieces before
// calling NewOperation (spec.md §4.6.3 builds an op incrementally as each
// mask bit is processed).
type OperationState struct {
	Name       OperationName
	Loc        Location
	Attributes DictionaryAttr
	ResultTypes []Type
	Operands   []Value
	Successors []*Block
	NumRegions int

	// IsTerminator marks an operation that ends the block it lives in
	// (e.g. a branch or return), the way an op definition's IsTerminator
	// trait does in a full IR framework. The bytecode reader never sets
	// this itself; it is a property of the host's op definitions.
	IsTerminator bool
}

// Operation is the basic IR node: a name, attributes, typed operands and
// results, successor blocks, and nested regions.
type Operation struct {
	Name       OperationName
	Loc        Location
	Attributes DictionaryAttr
	Operands   []Value
	Results    []*OpResult
	Successors []*Block
	Regions    []*Region

	IsTerminator bool

	Block *Block // the block this operation is appended to, if any
}

// NewOperation allocates an Operation from the given state. Results are
// created but not yet assigned value ids; the caller (the bytecode reader's
// Value/Forward-Reference Manager) does that via its defineValues.
func NewOperation(state OperationState) *Operation {
	op := &Operation{
		Name:         state.Name,
		Loc:          state.Loc,
		Attributes:   state.Attributes,
		Operands:     state.Operands,
		Successors:   state.Successors,
		IsTerminator: state.IsTerminator,
	}
	op.Results = make([]*OpResult, len(state.ResultTypes))
	for i, t := range state.ResultTypes {
		op.Results[i] = &OpResult{Owner: op, Index: i, Typ: t}
	}
	op.Regions = make([]*Region, state.NumRegions)
	for i := range op.Regions {
		op.Regions[i] = &Region{Owner: op}
	}
	return op
}

// NumRegions returns the number of regions attached to this operation.
func (op *Operation) NumRegions() int { return len(op.Regions) }

// NumResults returns the number of results this operation produces.
func (op *Operation) NumResults() int { return len(op.Results) }

// ResultValues returns the results as a Value slice, suitable for the
// bytecode reader's defineValues.
func (op *Operation) ResultValues() []Value {
	vs := make([]Value, len(op.Results))
	for i, r := range op.Results {
		vs[i] = r
	}
	return vs
}

// ReplaceAllUsesWith rewrites every operand across the whole operation that
// currently points at old to point at new instead. It only needs to walk
// operations reachable from within the same parse, since forward references
// never escape the module being read.
func ReplaceAllUsesWith(root *Operation, old, new Value) {
	var walk func(*Operation)
	walk = func(op *Operation) {
		for i, v := range op.Operands {
			if v == old {
				op.Operands[i] = new
			}
		}
		for _, r := range op.Regions {
			for _, b := range r.Blocks {
				for _, inner := range b.Operations {
					walk(inner)
				}
			}
		}
	}
	walk(root)
}
