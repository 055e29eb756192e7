package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/anvilir/bytecode/ir"
)

// Codec decodes the raw bytes of a custom-encoded attribute or type entry
// (spec.md §4.5's hasCustomEncoding == true path, left undefined by the
// original spec and resolved here via a per-dialect codec registry — see
// DESIGN.md). A Codec never sees the entry's trailing bytes check; the
// caller enforces "unexpected trailing bytes after entry" the same way it
// does for the textual fallback.
type Codec interface {
	DecodeAttribute(data []byte, ctx *ir.Context) (ir.Attribute, int, error)
	DecodeType(data []byte, ctx *ir.Context) (ir.Type, int, error)
}

// codecRegistry maps a codec name (as configured per-dialect) to its
// implementation. Only codecs named in the parser configuration's
// allowlist are consulted.
type codecRegistry struct {
	codecs map[string]Codec
}

func newCodecRegistry() *codecRegistry {
	return &codecRegistry{codecs: map[string]Codec{
		"cbor": cborCodec{},
	}}
}

func (r *codecRegistry) get(name string) (Codec, bool) {
	c, ok := r.codecs[name]
	return c, ok
}

// cborCodec decodes custom attribute/type entries encoded as CBOR maps,
// using fxamacker/cbor/v2. It is the one built-in codec this module ships.
type cborCodec struct{}

// cborAttrWire is the CBOR wire shape for a custom-encoded attribute. Kind
// selects which of the other fields is populated; Dict entries nest
// recursively.
type cborAttrWire struct {
	Kind string                  `cbor:"kind"`
	Str  string                  `cbor:"str,omitempty"`
	Int  int64                   `cbor:"int,omitempty"`
	Dict map[string]cborAttrWire `cbor:"dict,omitempty"`
}

// cborTypeWire is the CBOR wire shape for a custom-encoded type.
type cborTypeWire struct {
	Kind     string `cbor:"kind"`
	Width    uint32 `cbor:"width,omitempty"`
	Unsigned bool   `cbor:"unsigned,omitempty"`
}

func (cborCodec) DecodeAttribute(data []byte, ctx *ir.Context) (ir.Attribute, int, error) {
	var wire cborAttrWire
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return nil, 0, fmt.Errorf("cbor: invalid attribute encoding: %w", err)
	}
	attr, err := decodeAttrWire(wire)
	if err != nil {
		return nil, 0, err
	}
	return attr, len(data), nil
}

func decodeAttrWire(wire cborAttrWire) (ir.Attribute, error) {
	switch wire.Kind {
	case "string":
		return ir.StringAttr(wire.Str), nil
	case "integer":
		return ir.IntegerAttr{Value: wire.Int}, nil
	case "dict":
		entries := make(map[string]ir.Attribute, len(wire.Dict))
		for k, v := range wire.Dict {
			attr, err := decodeAttrWire(v)
			if err != nil {
				return nil, err
			}
			entries[k] = attr
		}
		return ir.NewDictionaryAttr(entries), nil
	default:
		return nil, fmt.Errorf("cbor: unknown attribute kind %q", wire.Kind)
	}
}

func (cborCodec) DecodeType(data []byte, ctx *ir.Context) (ir.Type, int, error) {
	var wire cborTypeWire
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return nil, 0, fmt.Errorf("cbor: invalid type encoding: %w", err)
	}
	switch wire.Kind {
	case "none":
		return ir.NoneType{}, len(data), nil
	case "integer":
		return ir.IntegerType{Width: wire.Width, Unsigned: wire.Unsigned}, len(data), nil
	default:
		return nil, 0, fmt.Errorf("cbor: unknown type kind %q", wire.Kind)
	}
}
