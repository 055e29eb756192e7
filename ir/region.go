package ir

// Region is an ordered list of blocks owned by an operation.
type Region struct {
	Owner  *Operation
	Blocks []*Block
}

// Block is an ordered list of operations ending (conventionally) in a
// terminator; the entry point for control flow within a region.
type Block struct {
	Parent    *Region
	Arguments []*BlockArgument
	Operations []*Operation
}

// NewBlock allocates an empty block owned by no region yet.
func NewBlock() *Block {
	return &Block{}
}

// AddArguments appends new block arguments of the given types and
// locations, in order.
func (b *Block) AddArguments(types []Type, locs []Location) []*BlockArgument {
	args := make([]*BlockArgument, len(types))
	for i := range types {
		arg := &BlockArgument{Owner: b, Index: len(b.Arguments), Typ: types[i], Loc: locs[i]}
		b.Arguments = append(b.Arguments, arg)
		args[i] = arg
	}
	return args
}

// ArgumentValues returns the block's arguments as a Value slice, suitable
// for the bytecode reader's defineValues.
func (b *Block) ArgumentValues() []Value {
	vs := make([]Value, len(b.Arguments))
	for i, a := range b.Arguments {
		vs[i] = a
	}
	return vs
}

// PushBack appends op to the end of the block and sets its Block pointer.
func (b *Block) PushBack(op *Operation) {
	op.Block = b
	b.Operations = append(b.Operations, op)
}

// Terminator returns the block's terminator operation, or nil if the
// block is empty or its last operation isn't one.
func (b *Block) Terminator() *Operation {
	if len(b.Operations) == 0 {
		return nil
	}
	last := b.Operations[len(b.Operations)-1]
	if !last.IsTerminator {
		return nil
	}
	return last
}

// InsertBeforeTerminator appends ops to the block before its terminator,
// if it has one, else at the end.
func (b *Block) InsertBeforeTerminator(ops ...*Operation) {
	term := b.Terminator()
	if term == nil {
		for _, op := range ops {
			b.PushBack(op)
		}
		return
	}

	insertAt := len(b.Operations) - 1
	b.Operations = append(b.Operations, make([]*Operation, len(ops))...)
	copy(b.Operations[insertAt+len(ops):], b.Operations[insertAt:insertAt+1])
	for i, op := range ops {
		op.Block = b
		b.Operations[insertAt+i] = op
	}
}
