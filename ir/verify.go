package ir

import "fmt"

// Verify performs the minimal structural check spec.md's "Structural"
// error kind refers to ("verifier rejects the constructed module"). The
// real MLIR verifier is an external collaborator out of scope for this
// module; this checks only what the reader itself must guarantee: every
// operand is non-nil, and every region/block is internally consistent.
func Verify(root *Operation) error {
	var walk func(*Operation) error
	walk = func(op *Operation) error {
		for i, v := range op.Operands {
			if v == nil {
				return fmt.Errorf("operation %q has a nil operand at index %d", op.Name, i)
			}
		}
		for ri, r := range op.Regions {
			for bi, b := range r.Blocks {
				for _, inner := range b.Operations {
					if inner.Block != b {
						return fmt.Errorf("operation %q in region %d block %d has inconsistent block back-pointer", op.Name, ri, bi)
					}
					if err := walk(inner); err != nil {
						return err
					}
				}
			}
		}
		return nil
	}
	return walk(root)
}
