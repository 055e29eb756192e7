package bytecode

import "github.com/anvilir/bytecode/ir"

// valueScope is the "(values, next_value_ids)" stack frame from spec.md
// §3: densely indexed SSA value slots bounded by an isolated-from-above
// region. A scope is pushed on entry to such a region and popped on exit;
// operand references always target the top scope.
type valueScope struct {
	values       []ir.Value
	nextValueIDs []int
}

// push reserves readState.numValues new slots for the region readState is
// about to parse, recording where its ids begin.
func (s *valueScope) push(readState *regionReadState) {
	s.nextValueIDs = append(s.nextValueIDs, len(s.values))
	s.values = append(s.values, make([]ir.Value, readState.numValues)...)
}

// pop releases the slots reserved by the matching push.
func (s *valueScope) pop(readState *regionReadState) {
	s.values = s.values[:len(s.values)-readState.numValues]
	s.nextValueIDs = s.nextValueIDs[:len(s.nextValueIDs)-1]
}

// forwardRefPool is the "active"/"free" placeholder-operation pool from
// spec.md §4.7 and §9 ("forward references as placeholder ops"). A
// placeholder's sole result stands in for a value whose defining operation
// hasn't been parsed yet; once the real definition appears, every use of
// the placeholder's result is rewritten and the placeholder moves to free
// for reuse rather than being discarded.
type forwardRefPool struct {
	active  []*ir.Operation
	free    []*ir.Operation
	opState ir.OperationState
}

func newForwardRefPool() *forwardRefPool {
	return &forwardRefPool{
		opState: ir.OperationState{
			Name:        ir.BuiltinUnrealizedConversionCast,
			Loc:         ir.UnknownLoc{},
			Attributes:  ir.NewDictionaryAttr(nil),
			ResultTypes: []ir.Type{ir.NoneType{}},
		},
	}
}

// createForwardRef returns a fresh or recycled placeholder's result.
func (p *forwardRefPool) createForwardRef() *ir.OpResult {
	var op *ir.Operation
	if n := len(p.free); n > 0 {
		op = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		op = ir.NewOperation(p.opState)
	}
	p.active = append(p.active, op)
	return op.Results[0]
}

// resolve moves op from active to free once its value has a real
// definition.
func (p *forwardRefPool) resolve(op *ir.Operation) {
	for i, a := range p.active {
		if a == op {
			p.active = append(p.active[:i], p.active[i+1:]...)
			break
		}
	}
	p.free = append(p.free, op)
}

// parseOperand reads `varint idx` and resolves it against the current
// scope, creating a forward reference if the slot is not yet defined
// (spec.md §4.7).
func (r *Reader) parseOperand(c *cursor) (ir.Value, error) {
	idx, err := c.parseVarint()
	if err != nil {
		return nil, err
	}
	scope := r.valueScopes[len(r.valueScopes)-1]
	if idx >= uint64(len(scope.values)) {
		return nil, c.fail("value index range was outside of the expected range for the parent region")
	}
	if scope.values[idx] == nil {
		scope.values[idx] = r.fwdRefs.createForwardRef()
	}
	return scope.values[idx], nil
}

// defineValues sequentially assigns newValues the next ids in the current
// scope, rewriting any placeholder previously occupying a slot (spec.md
// §4.7's "Defining values").
func (r *Reader) defineValues(c *cursor, newValues []ir.Value, root *ir.Operation) error {
	scope := r.valueScopes[len(r.valueScopes)-1]
	valueID := &scope.nextValueIDs[len(scope.nextValueIDs)-1]
	idEnd := *valueID + len(newValues)
	if idEnd > len(scope.values) {
		return c.fail("value index range was outside of the expected range for the parent region")
	}

	for i, newValue := range newValues {
		slot := *valueID + i
		if old := scope.values[slot]; old != nil {
			oldResult, ok := old.(*ir.OpResult)
			if !ok {
				return c.fail("value index was already defined")
			}
			ir.ReplaceAllUsesWith(root, oldResult, newValue)
			r.fwdRefs.resolve(oldResult.Owner)
		}
		scope.values[slot] = newValue
	}
	*valueID = idEnd
	return nil
}
