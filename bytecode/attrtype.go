package bytecode

import (
	"fmt"

	"github.com/anvilir/bytecode/config"
	"github.com/anvilir/bytecode/ir"
	"github.com/anvilir/bytecode/ir/asm"
)

// attrTypeEntry is the "(owning_dialect_index, has_custom_encoding,
// raw_bytes, resolved)" record from spec.md §3, generic over the resolved
// kind (ir.Attribute or ir.Type).
type attrTypeEntry[T any] struct {
	dialectIdx        int
	hasCustomEncoding bool
	raw               []byte
	resolved          T
	isResolved        bool
}

// attrTypeTable is the lazy attribute/type table (spec.md §4.5): an
// offset/size index over the AttrType section's concatenated entry bytes,
// materialized on first access and memoized thereafter.
type attrTypeTable struct {
	attrs    []attrTypeEntry[ir.Attribute]
	types    []attrTypeEntry[ir.Type]
	dialects *dialectTable
	codecs   *codecRegistry
	loc      *fileLoc
}

// parseAttrTypeTable parses the AttrTypeOffset section to build the index,
// slicing entry byte ranges out of the already-loaded AttrType section
// payload. The offset section lists attribute dialect-groupings first,
// then type dialect-groupings; each grouping entry is
// parse_varint_with_flag() -> (entrySize, hasCustomEncoding). Offsets are
// implicit: entries lay out contiguously in declaration order.
func parseAttrTypeTable(attrTypeData, offsetData []byte, dialects *dialectTable, codecs *codecRegistry, loc *fileLoc) (*attrTypeTable, error) {
	c := newCursor(offsetData, loc)

	numAttrs, err := c.parseVarint()
	if err != nil {
		return nil, err
	}
	numTypes, err := c.parseVarint()
	if err != nil {
		return nil, err
	}

	t := &attrTypeTable{
		attrs:    make([]attrTypeEntry[ir.Attribute], numAttrs),
		types:    make([]attrTypeEntry[ir.Type], numTypes),
		dialects: dialects,
		codecs:   codecs,
		loc:      loc,
	}

	var currentOffset uint64
	nextAttr := 0
	fillAttrs := func(dialectIdx int, count uint64) error {
		for i := uint64(0); i < count; i++ {
			if nextAttr >= len(t.attrs) {
				return c.fail("Attribute or Type entry offset points past the end of section")
			}
			size, hasCustom, err := c.parseVarintWithFlag()
			if err != nil {
				return err
			}
			if currentOffset+size > uint64(len(attrTypeData)) {
				return c.fail("Attribute or Type entry offset points past the end of section")
			}
			t.attrs[nextAttr] = attrTypeEntry[ir.Attribute]{
				dialectIdx:        dialectIdx,
				hasCustomEncoding: hasCustom,
				raw:               attrTypeData[currentOffset : currentOffset+size],
			}
			nextAttr++
			currentOffset += size
		}
		return nil
	}
	nextType := 0
	fillTypes := func(dialectIdx int, count uint64) error {
		for i := uint64(0); i < count; i++ {
			if nextType >= len(t.types) {
				return c.fail("Attribute or Type entry offset points past the end of section")
			}
			size, hasCustom, err := c.parseVarintWithFlag()
			if err != nil {
				return err
			}
			if currentOffset+size > uint64(len(attrTypeData)) {
				return c.fail("Attribute or Type entry offset points past the end of section")
			}
			t.types[nextType] = attrTypeEntry[ir.Type]{
				dialectIdx:        dialectIdx,
				hasCustomEncoding: hasCustom,
				raw:               attrTypeData[currentOffset : currentOffset+size],
			}
			nextType++
			currentOffset += size
		}
		return nil
	}

	for uint64(nextAttr) < numAttrs {
		dialectIdx, err := c.parseVarint()
		if err != nil {
			return nil, err
		}
		if dialectIdx >= uint64(len(dialects.dialects)) {
			return nil, c.fail(fmt.Sprintf("dialect index %d is out of range of the dialect table (size %d)", dialectIdx, len(dialects.dialects)))
		}
		count, err := c.parseVarint()
		if err != nil {
			return nil, err
		}
		if err := fillAttrs(int(dialectIdx), count); err != nil {
			return nil, err
		}
	}
	for uint64(nextType) < numTypes {
		dialectIdx, err := c.parseVarint()
		if err != nil {
			return nil, err
		}
		if dialectIdx >= uint64(len(dialects.dialects)) {
			return nil, c.fail(fmt.Sprintf("dialect index %d is out of range of the dialect table (size %d)", dialectIdx, len(dialects.dialects)))
		}
		count, err := c.parseVarint()
		if err != nil {
			return nil, err
		}
		if err := fillTypes(int(dialectIdx), count); err != nil {
			return nil, err
		}
	}

	if !c.empty() {
		return nil, c.fail("unexpected trailing data in the Attribute/Type offset section")
	}
	return t, nil
}

// resolveAttribute materializes attribute entry i, memoizing the result.
func (t *attrTypeTable) resolveAttribute(i uint64, ctx *ir.Context, cfg *config.ParserConfig) (ir.Attribute, error) {
	if i >= uint64(len(t.attrs)) {
		return nil, &readError{loc: t.loc, msg: fmt.Sprintf("invalid Attribute index: %d", i)}
	}
	entry := &t.attrs[i]
	if entry.isResolved {
		return entry.resolved, nil
	}

	sub := newCursor(entry.raw, t.loc)
	attr, err := t.decodeAttribute(sub, entry.hasCustomEncoding, t.dialects.dialectName(entry.dialectIdx), ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !sub.empty() {
		return nil, sub.fail("unexpected trailing bytes after Attribute entry")
	}
	entry.resolved = attr
	entry.isResolved = true
	return attr, nil
}

// resolveType materializes type entry i, memoizing the result.
func (t *attrTypeTable) resolveType(i uint64, ctx *ir.Context, cfg *config.ParserConfig) (ir.Type, error) {
	if i >= uint64(len(t.types)) {
		return nil, &readError{loc: t.loc, msg: fmt.Sprintf("invalid Type index: %d", i)}
	}
	entry := &t.types[i]
	if entry.isResolved {
		return entry.resolved, nil
	}

	sub := newCursor(entry.raw, t.loc)
	typ, err := t.decodeType(sub, entry.hasCustomEncoding, t.dialects.dialectName(entry.dialectIdx), ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !sub.empty() {
		return nil, sub.fail("unexpected trailing bytes after Type entry")
	}
	entry.resolved = typ
	entry.isResolved = true
	return typ, nil
}

func (t *attrTypeTable) decodeAttribute(sub *cursor, hasCustom bool, dialect string, ctx *ir.Context, cfg *config.ParserConfig) (ir.Attribute, error) {
	if !hasCustom {
		text, err := sub.parseNullTerminatedString()
		if err != nil {
			return nil, err
		}
		attr, numRead, err := asm.ParseAttribute(text, ctx)
		if err != nil {
			return nil, sub.fail(fmt.Sprintf("invalid Attribute assembly format: %v", err))
		}
		if numRead != len(text) {
			return nil, sub.fail(fmt.Sprintf("trailing characters found after Attribute assembly format: %q", text[numRead:]))
		}
		return attr, nil
	}

	codecName, ok := codecNameFor(cfg, dialect)
	if !ok {
		return nil, sub.fail("unexpected Attribute encoding")
	}
	codec, ok := t.codecs.get(codecName)
	if !ok {
		return nil, sub.fail("unexpected Attribute encoding")
	}
	attr, consumed, err := codec.DecodeAttribute(sub.buf[sub.pos:], ctx)
	if err != nil {
		return nil, sub.fail(err.Error())
	}
	if err := sub.skip(consumed); err != nil {
		return nil, err
	}
	return attr, nil
}

func (t *attrTypeTable) decodeType(sub *cursor, hasCustom bool, dialect string, ctx *ir.Context, cfg *config.ParserConfig) (ir.Type, error) {
	if !hasCustom {
		text, err := sub.parseNullTerminatedString()
		if err != nil {
			return nil, err
		}
		typ, numRead, err := asm.ParseType(text, ctx)
		if err != nil {
			return nil, sub.fail(fmt.Sprintf("invalid Type assembly format: %v", err))
		}
		if numRead != len(text) {
			return nil, sub.fail(fmt.Sprintf("trailing characters found after Type assembly format: %q", text[numRead:]))
		}
		return typ, nil
	}

	codecName, ok := codecNameFor(cfg, dialect)
	if !ok {
		return nil, sub.fail("unexpected Type encoding")
	}
	codec, ok := t.codecs.get(codecName)
	if !ok {
		return nil, sub.fail("unexpected Type encoding")
	}
	typ, consumed, err := codec.DecodeType(sub.buf[sub.pos:], ctx)
	if err != nil {
		return nil, sub.fail(err.Error())
	}
	if err := sub.skip(consumed); err != nil {
		return nil, err
	}
	return typ, nil
}

// codecNameFor returns the codec to use for a custom-encoded entry owned
// by dialect, consulting that dialect's own codec allowlist before the
// parser-wide one (config.ParserConfig.CodecAllowedForDialect). Today the
// only codec this module ships is "cbor"; spec.md's default behavior
// (fail with "unexpected encoding") still applies when neither allowlist
// names it.
func codecNameFor(cfg *config.ParserConfig, dialect string) (string, bool) {
	if cfg == nil || !cfg.CodecAllowedForDialect(dialect, "cbor") {
		return "", false
	}
	return "cbor", true
}
