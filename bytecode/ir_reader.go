package bytecode

import (
	"fmt"

	"github.com/anvilir/bytecode/ir"
)

// regionReadState is the per-operation stack frame from spec.md §3: an
// iterator pair over the operation's regions, the current region's blocks,
// a cursor into the current block, and the op-count remaining in it. The
// IR Section Reader drives a stack of these instead of recursing, so
// arbitrarily deep region nesting never overflows the native stack
// (spec.md §9).
type regionReadState struct {
	op *ir.Operation

	curRegion int
	endRegion int

	numValues int

	curBlocks []*ir.Block
	curBlock  int // -1 until the region's header has been parsed

	numOpsRemaining uint64

	isIsolatedFromAbove bool
}

func newRegionReadState(op *ir.Operation, isolated bool) *regionReadState {
	return &regionReadState{
		op:                  op,
		curRegion:           0,
		endRegion:           len(op.Regions),
		curBlock:            -1,
		isIsolatedFromAbove: isolated,
	}
}

// parseIRSection implements spec.md §4.6: the IR section holds a single
// implicit top-level region with exactly one block (the module body). A
// synthetic module operation receives the parsed top-level operations,
// which are spliced into targetBlock on success.
func (r *Reader) parseIRSection(payload []byte, targetBlock *ir.Block) error {
	c := newCursor(payload, r.loc)

	moduleOp := ir.NewOperation(ir.OperationState{
		Name:       ir.BuiltinModuleOp,
		Loc:        ir.FileLineColLoc{Filename: r.loc.filename},
		Attributes: ir.NewDictionaryAttr(nil),
		NumRegions: 1,
	})
	r.moduleOp = moduleOp

	var regionStack []*regionReadState
	top := newRegionReadState(moduleOp, true)
	body := ir.NewBlock()
	body.Parent = moduleOp.Regions[0]
	top.curBlocks = []*ir.Block{body}
	moduleOp.Regions[0].Blocks = top.curBlocks
	top.curBlock = 0
	regionStack = append(regionStack, top)

	r.valueScopes = append(r.valueScopes, &valueScope{})
	r.valueScopes[len(r.valueScopes)-1].push(top)

	if err := r.parseBlock(c, top); err != nil {
		return err
	}

	for len(regionStack) > 0 {
		if err := r.parseRegions(c, &regionStack, regionStack[len(regionStack)-1]); err != nil {
			return err
		}
	}

	if len(r.fwdRefs.active) > 0 {
		return c.fail("not all forward unresolved forward operand references")
	}

	if err := ir.Verify(moduleOp); err != nil {
		return err
	}

	parsedBody := moduleOp.Regions[0].Blocks[0]
	targetBlock.InsertBeforeTerminator(parsedBody.Operations...)
	return nil
}

// parseRegions advances the top frame until it either exhausts (and is
// popped) or an operation with child regions is encountered (in which case
// a new frame is pushed and control returns to the caller's loop so the
// child is processed first).
func (r *Reader) parseRegions(c *cursor, stack *[]*regionReadState, readState *regionReadState) error {
	for readState.curRegion < readState.endRegion {
		region := readState.op.Regions[readState.curRegion]

		if readState.curBlock < 0 {
			if err := r.parseRegion(c, readState); err != nil {
				return err
			}
			if len(region.Blocks) == 0 {
				readState.curRegion++
				continue
			}
		}

		for {
			for readState.numOpsRemaining > 0 {
				readState.numOpsRemaining--
				op, isolated, err := r.parseOpWithoutRegions(c, readState)
				if err != nil {
					return err
				}
				if op.NumRegions() > 0 {
					child := newRegionReadState(op, isolated)
					*stack = append(*stack, child)
					if isolated {
						r.valueScopes = append(r.valueScopes, &valueScope{})
					}
					return nil
				}
			}

			readState.curBlock++
			if readState.curBlock == len(readState.curBlocks) {
				break
			}
			if err := r.parseBlock(c, readState); err != nil {
				return err
			}
		}

		readState.curBlock = -1
		r.valueScopes[len(r.valueScopes)-1].pop(readState)
		readState.curRegion++
	}

	if readState.isIsolatedFromAbove {
		r.valueScopes = r.valueScopes[:len(r.valueScopes)-1]
	}
	*stack = (*stack)[:len(*stack)-1]
	return nil
}

// parseRegion implements spec.md §4.6.1: varint num_blocks; if zero the
// region is empty, otherwise varint num_values, allocate the blocks, then
// begin parsing the entry block's header.
func (r *Reader) parseRegion(c *cursor, readState *regionReadState) error {
	numBlocks, err := c.parseVarint()
	if err != nil {
		return err
	}
	if numBlocks == 0 {
		return nil
	}

	numValues, err := c.parseVarint()
	if err != nil {
		return err
	}
	readState.numValues = int(numValues)

	region := readState.op.Regions[readState.curRegion]
	readState.curBlocks = make([]*ir.Block, numBlocks)
	for i := range readState.curBlocks {
		b := ir.NewBlock()
		b.Parent = region
		readState.curBlocks[i] = b
	}
	region.Blocks = readState.curBlocks

	r.valueScopes[len(r.valueScopes)-1].push(readState)

	readState.curBlock = 0
	return r.parseBlock(c, readState)
}

// parseBlock implements spec.md §4.6.2: parse_varint_with_flag() ->
// (num_ops_remaining, has_args); if has_args, parse and define the block's
// arguments.
func (r *Reader) parseBlock(c *cursor, readState *regionReadState) error {
	numOps, hasArgs, err := c.parseVarintWithFlag()
	if err != nil {
		return err
	}
	readState.numOpsRemaining = numOps

	if hasArgs {
		block := readState.curBlocks[readState.curBlock]
		if err := r.parseBlockArguments(c, block); err != nil {
			return err
		}
	}
	return nil
}

// parseBlockArguments reads varint num_args, then for each a type index
// and a location-attribute index, defining them as the next sequential
// values in the current region.
func (r *Reader) parseBlockArguments(c *cursor, block *ir.Block) error {
	numArgs, err := c.parseVarint()
	if err != nil {
		return err
	}

	types := make([]ir.Type, numArgs)
	locs := make([]ir.Location, numArgs)
	for i := uint64(0); i < numArgs; i++ {
		typ, err := r.parseTypeRef(c)
		if err != nil {
			return err
		}
		loc, err := r.parseLocationRef(c)
		if err != nil {
			return err
		}
		types[i] = typ
		locs[i] = loc
	}
	block.AddArguments(types, locs)

	return r.defineValues(c, block.ArgumentValues(), r.moduleOp)
}

// parseOpWithoutRegions implements spec.md §4.6.3.
func (r *Reader) parseOpWithoutRegions(c *cursor, readState *regionReadState) (*ir.Operation, bool, error) {
	opName, err := r.parseOpNameRef(c)
	if err != nil {
		return nil, false, err
	}

	mask, err := c.parseByte()
	if err != nil {
		return nil, false, err
	}

	loc, err := r.parseLocationRef(c)
	if err != nil {
		return nil, false, err
	}

	state := ir.OperationState{Name: opName, Loc: loc, Attributes: ir.NewDictionaryAttr(nil)}

	if mask&opMaskHasAttrs != 0 {
		dict, err := r.parseDictionaryRef(c)
		if err != nil {
			return nil, false, err
		}
		state.Attributes = dict
	}

	if mask&opMaskHasResults != 0 {
		numResults, err := c.parseVarint()
		if err != nil {
			return nil, false, err
		}
		state.ResultTypes = make([]ir.Type, numResults)
		for i := uint64(0); i < numResults; i++ {
			t, err := r.parseTypeRef(c)
			if err != nil {
				return nil, false, err
			}
			state.ResultTypes[i] = t
		}
	}

	if mask&opMaskHasOperands != 0 {
		numOperands, err := c.parseVarint()
		if err != nil {
			return nil, false, err
		}
		state.Operands = make([]ir.Value, numOperands)
		for i := uint64(0); i < numOperands; i++ {
			v, err := r.parseOperand(c)
			if err != nil {
				return nil, false, err
			}
			state.Operands[i] = v
		}
	}

	if mask&opMaskHasSuccessors != 0 {
		numSuccs, err := c.parseVarint()
		if err != nil {
			return nil, false, err
		}
		state.Successors = make([]*ir.Block, numSuccs)
		for i := uint64(0); i < numSuccs; i++ {
			idx, err := c.parseVarint()
			if err != nil {
				return nil, false, err
			}
			if idx >= uint64(len(readState.curBlocks)) {
				return nil, false, c.fail(fmt.Sprintf("successor index %d is out of range of the current region's block vector (size %d)", idx, len(readState.curBlocks)))
			}
			state.Successors[i] = readState.curBlocks[idx]
		}
	}

	isolated := false
	if mask&opMaskHasInlineRegions != 0 {
		numRegions, iso, err := c.parseVarintWithFlag()
		if err != nil {
			return nil, false, err
		}
		state.NumRegions = int(numRegions)
		isolated = iso
	}

	op := ir.NewOperation(state)
	readState.curBlocks[readState.curBlock].PushBack(op)

	if op.NumResults() > 0 {
		if err := r.defineValues(c, op.ResultValues(), r.moduleOp); err != nil {
			return nil, false, err
		}
	}

	return op, isolated, nil
}
