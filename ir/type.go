package ir

import "fmt"

// Type is a compile-time type attached to a value.
type Type interface {
	isType()
	String() string
}

// NoneType is the type of a value carrying no useful payload, used for
// forward-reference placeholder results.
type NoneType struct{}

func (NoneType) isType()        {}
func (NoneType) String() string { return "none" }

// IntegerType is a fixed-width integer type, signed or unsigned.
type IntegerType struct {
	Width    uint32
	Unsigned bool
}

func (IntegerType) isType() {}
func (t IntegerType) String() string {
	if t.Unsigned {
		return fmt.Sprintf("ui%d", t.Width)
	}
	return fmt.Sprintf("i%d", t.Width)
}
