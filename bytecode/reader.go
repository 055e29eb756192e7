package bytecode

import (
	"fmt"

	"github.com/anvilir/bytecode/config"
	"github.com/anvilir/bytecode/ir"
)

// Reader is the bytecode reader state from spec.md §3: it owns the parsed
// string, dialect and attribute/type tables plus the value-scope and forward-reference state
// the IR Section Reader threads through a single parse. A Reader is built
// fresh for every call to ReadBytecodeFile and discarded afterward.
type Reader struct {
	ctx *ir.Context
	cfg *config.ParserConfig
	loc *fileLoc

	versionKnown bool
	version      uint64
	producer     string

	strs      *stringTable
	dialects  *dialectTable
	attrTypes *attrTypeTable
	codecs    *codecRegistry

	valueScopes []*valueScope
	fwdRefs     *forwardRefPool

	moduleOp *ir.Operation
}

// parseTypeRef reads a varint Type-table index and resolves it.
func (r *Reader) parseTypeRef(c *cursor) (ir.Type, error) {
	idx, err := c.parseVarint()
	if err != nil {
		return nil, err
	}
	return r.attrTypes.resolveType(idx, r.ctx, r.cfg)
}

// parseAttrRef reads a varint Attribute-table index and resolves it.
func (r *Reader) parseAttrRef(c *cursor) (ir.Attribute, error) {
	idx, err := c.parseVarint()
	if err != nil {
		return nil, err
	}
	return r.attrTypes.resolveAttribute(idx, r.ctx, r.cfg)
}

// parseLocationRef resolves an attribute reference and requires it to be a
// Location, per spec.md §4.6.3.
func (r *Reader) parseLocationRef(c *cursor) (ir.Location, error) {
	attr, err := r.parseAttrRef(c)
	if err != nil {
		return nil, err
	}
	loc, ok := ir.AsLocation(attr)
	if !ok {
		return nil, c.fail("expected a location attribute")
	}
	return loc, nil
}

// parseDictionaryRef resolves an attribute reference and requires it to be
// a DictionaryAttr, per spec.md §4.6.3's operation attribute dictionary.
func (r *Reader) parseDictionaryRef(c *cursor) (ir.DictionaryAttr, error) {
	attr, err := r.parseAttrRef(c)
	if err != nil {
		return ir.DictionaryAttr{}, err
	}
	dict, ok := ir.AsDictionary(attr)
	if !ok {
		return ir.DictionaryAttr{}, c.fail("expected the attribute to be a dictionary")
	}
	return dict, nil
}

// parseOpNameRef reads a varint opname-table index and resolves it to a
// fully qualified operation name, lazily loading its owning dialect.
func (r *Reader) parseOpNameRef(c *cursor) (ir.OperationName, error) {
	idx, err := c.parseVarint()
	if err != nil {
		return "", err
	}
	return r.dialects.resolveOpName(idx, r.ctx, r.cfg, r.loc)
}

// parseVersion reads the varint version and enforces spec.md §4.2's
// version check: exactly one version is accepted.
func parseVersion(c *cursor) (uint64, error) {
	version, err := c.parseVarint()
	if err != nil {
		return 0, err
	}
	if version < supportedVersion {
		return 0, c.fail(fmt.Sprintf("bytecode version %d is older than the current version %d, and upgrading is not supported", version, supportedVersion))
	}
	if version > supportedVersion {
		return 0, c.fail(fmt.Sprintf("bytecode version %d is newer than the current version %d", version, supportedVersion))
	}
	return version, nil
}
