package bytecode

// Test-only bytecode encoder. Production code never writes bytecode
// (spec.md's Non-goals); this exists solely to build fixtures these tests
// read back.

type builder struct {
	buf []byte
}

func (b *builder) bytes() []byte { return b.buf }

func (b *builder) raw(p []byte) *builder {
	b.buf = append(b.buf, p...)
	return b
}

func (b *builder) byte(v byte) *builder {
	b.buf = append(b.buf, v)
	return b
}

// varint always uses the 9-byte "k==8" form: a zero marker byte followed
// by the value as 8 little-endian bytes. Valid per the decoder (spec.md
// §4.1), just never the most compact encoding a real writer would choose.
func (b *builder) varint(v uint64) *builder {
	b.buf = append(b.buf, 0)
	for i := 0; i < 8; i++ {
		b.buf = append(b.buf, byte(v>>(8*i)))
	}
	return b
}

func (b *builder) varintFlag(v uint64, flag bool) *builder {
	raw := v << 1
	if flag {
		raw |= 1
	}
	return b.varint(raw)
}

func (b *builder) cstring(s string) *builder {
	b.buf = append(b.buf, s...)
	b.buf = append(b.buf, 0)
	return b
}

// section wraps payload with its id and a varint length prefix.
func (b *builder) section(id byte, payload []byte) *builder {
	b.byte(id)
	b.varint(uint64(len(payload)))
	b.raw(payload)
	return b
}

// stringSectionPayload packs strs (in index order) per spec.md §4.3's
// reverse layout: sizes are emitted high-index-first, data is packed
// low-index-first.
func stringSectionPayload(strs []string) []byte {
	b := &builder{}
	b.varint(uint64(len(strs)))
	for i := len(strs) - 1; i >= 0; i-- {
		b.varint(uint64(len(strs[i]) + 1))
	}
	for _, s := range strs {
		b.cstring(s)
	}
	return b.bytes()
}

// dialectEntryDesc groups one dialect's local operation names for the
// dialect section encoder below.
type dialectEntryDesc struct {
	dialectIdx int
	localNames []int // string-table indices
}

// dialectSectionPayload encodes the Dialect section: a varint count,
// that many dialect-name string indices, then groupings until the
// payload is exhausted.
func dialectSectionPayload(dialectNameIdx []int, groups []dialectEntryDesc) []byte {
	b := &builder{}
	b.varint(uint64(len(dialectNameIdx)))
	for _, idx := range dialectNameIdx {
		b.varint(uint64(idx))
	}
	for _, g := range groups {
		b.varint(uint64(g.dialectIdx))
		b.varint(uint64(len(g.localNames)))
		for _, idx := range g.localNames {
			b.varint(uint64(idx))
		}
	}
	return b.bytes()
}

// attrTypeEntryDesc is one entry of the AttrType/AttrTypeOffset sections:
// its raw encoded bytes (textual-fallback cstring or a codec payload) and
// whether it is custom-encoded.
type attrTypeEntryDesc struct {
	raw        []byte
	hasCustom  bool
	dialectIdx int
}

// attrTypePayloads builds the AttrType (concatenated raw bytes) and
// AttrTypeOffset (index) section payloads for a list of attribute entries
// followed by a list of type entries. Each run of consecutive entries
// sharing a dialectIdx is emitted as one dialect grouping.
func attrTypePayloads(attrs, types []attrTypeEntryDesc) (data, offsets []byte) {
	d := &builder{}
	o := &builder{}
	o.varint(uint64(len(attrs)))
	o.varint(uint64(len(types)))

	encodeGroup := func(entries []attrTypeEntryDesc) {
		i := 0
		for i < len(entries) {
			dialectIdx := entries[i].dialectIdx
			j := i
			for j < len(entries) && entries[j].dialectIdx == dialectIdx {
				j++
			}
			o.varint(uint64(dialectIdx))
			o.varint(uint64(j - i))
			for k := i; k < j; k++ {
				d.raw(entries[k].raw)
				o.varintFlag(uint64(len(entries[k].raw)), entries[k].hasCustom)
			}
			i = j
		}
	}
	encodeGroup(attrs)
	encodeGroup(types)

	return d.bytes(), o.bytes()
}

// textEntry builds a textual-fallback attribute/type entry: a
// null-terminated assembly-format string.
func textEntry(dialectIdx int, text string) attrTypeEntryDesc {
	return attrTypeEntryDesc{raw: append([]byte(text), 0), hasCustom: false, dialectIdx: dialectIdx}
}

// opMaskByte combines the HAS_* bits an operation record sets.
func opMaskByte(hasAttrs, hasResults, hasOperands, hasSuccessors, hasRegions bool) byte {
	var m byte
	if hasAttrs {
		m |= opMaskHasAttrs
	}
	if hasResults {
		m |= opMaskHasResults
	}
	if hasOperands {
		m |= opMaskHasOperands
	}
	if hasSuccessors {
		m |= opMaskHasSuccessors
	}
	if hasRegions {
		m |= opMaskHasInlineRegions
	}
	return m
}

// header writes the magic, version, and producer string common to every
// fixture.
func header(version uint64, producer string) *builder {
	b := &builder{}
	b.raw(magic[:])
	b.varint(version)
	b.cstring(producer)
	return b
}
