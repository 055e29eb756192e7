package bytecode

import (
	"strings"
	"testing"

	"github.com/anvilir/bytecode/config"
	"github.com/anvilir/bytecode/ir"
)

// minimalModule builds a fixture with one dialect ("builtin"), one
// operation name ("foo", so "builtin.foo"), one textual-fallback location
// attribute, and a single top-level operation using that name and
// location, with no attrs/results/operands/successors/regions.
func minimalModule(t *testing.T) []byte {
	t.Helper()

	strs := stringSectionPayload([]string{"builtin", "foo"})
	dialects := dialectSectionPayload([]int{0}, []dialectEntryDesc{{dialectIdx: 0, localNames: []int{1}}})
	attrData, attrOffsets := attrTypePayloads([]attrTypeEntryDesc{textEntry(0, "loc(unknown)")}, nil)

	irPayload := (&builder{}).
		varintFlag(1, false). // block header: 1 op, no args
		varint(0).             // opname index 0 -> builtin.foo
		byte(opMaskByte(false, false, false, false, false)).
		varint(0). // location attr index 0 -> loc(unknown)
		bytes()

	b := header(supportedVersion, "test")
	b.section(sectionString, strs)
	b.section(sectionDialect, dialects)
	b.section(sectionAttrType, attrData)
	b.section(sectionAttrTypeOffset, attrOffsets)
	b.section(sectionIR, irPayload)
	return b.bytes()
}

func TestReadMinimalModule(t *testing.T) {
	buf := minimalModule(t)
	target := ir.NewBlock()
	info, err := ReadBytecodeFile(buf, "test.mlirbc", target, config.Default())
	if err != nil {
		t.Fatalf("ReadBytecodeFile: %v", err)
	}
	if info.Version != supportedVersion {
		t.Fatalf("version = %d, want %d", info.Version, supportedVersion)
	}
	if info.Producer != "test" {
		t.Fatalf("producer = %q, want %q", info.Producer, "test")
	}
	if len(target.Operations) != 1 {
		t.Fatalf("got %d operations, want 1", len(target.Operations))
	}
	if target.Operations[0].Name != "builtin.foo" {
		t.Fatalf("op name = %q, want builtin.foo", target.Operations[0].Name)
	}
	if _, ok := target.Operations[0].Loc.(ir.UnknownLoc); !ok {
		t.Fatalf("op location = %#v, want ir.UnknownLoc", target.Operations[0].Loc)
	}
}

func TestReadBadMagic(t *testing.T) {
	buf := minimalModule(t)
	buf[0] = 0x00
	_, err := ReadBytecodeFile(buf, "test.mlirbc", ir.NewBlock(), config.Default())
	if err == nil {
		t.Fatal("expected an error for bad magic")
	}
}

func TestReadVersionMismatch(t *testing.T) {
	b := header(supportedVersion+1, "test")
	b.section(sectionString, stringSectionPayload(nil))
	b.section(sectionDialect, dialectSectionPayload(nil, nil))
	data, offsets := attrTypePayloads(nil, nil)
	b.section(sectionAttrType, data)
	b.section(sectionAttrTypeOffset, offsets)
	b.section(sectionIR, (&builder{}).varintFlag(0, false).bytes())

	_, err := ReadBytecodeFile(b.bytes(), "test.mlirbc", ir.NewBlock(), config.Default())
	if err == nil || !strings.Contains(err.Error(), "newer than the current version") {
		t.Fatalf("got %v, want a version-mismatch error", err)
	}
}

func TestReadDuplicateSection(t *testing.T) {
	b := header(supportedVersion, "test")
	empty := stringSectionPayload(nil)
	b.section(sectionString, empty)
	b.section(sectionString, empty)

	_, err := ReadBytecodeFile(b.bytes(), "test.mlirbc", ir.NewBlock(), config.Default())
	if err == nil || !strings.Contains(err.Error(), "duplicate top-level section") {
		t.Fatalf("got %v, want a duplicate-section error", err)
	}
}

func TestReadMissingSection(t *testing.T) {
	b := header(supportedVersion, "test")
	b.section(sectionString, stringSectionPayload(nil))

	_, err := ReadBytecodeFile(b.bytes(), "test.mlirbc", ir.NewBlock(), config.Default())
	if err == nil || !strings.Contains(err.Error(), "missing data for top-level section") {
		t.Fatalf("got %v, want a missing-section error", err)
	}
}

// TestReadForwardReference covers spec.md §8's forward-reference scenario:
// inside a nested region, the first op consumes a value the second op
// defines. The module's top-level region never declares value slots (it
// has no encoded num_values, mirroring original_source/mlir: the top-level
// RegionReadState's numValues is always zero), so the forward reference is
// exercised inside a single top-level "builtin.container" op that owns one
// inline, non-isolated region declaring the 1 value its 2 ops need.
func TestReadForwardReference(t *testing.T) {
	strs := stringSectionPayload([]string{"builtin", "container", "user", "def"})
	dialects := dialectSectionPayload([]int{0}, []dialectEntryDesc{{dialectIdx: 0, localNames: []int{1, 2, 3}}})

	locEntry := textEntry(0, "loc(unknown)")
	typeEntry := textEntry(0, "none")
	attrData, attrOffsets := attrTypePayloads([]attrTypeEntryDesc{locEntry}, []attrTypeEntryDesc{typeEntry})

	// Inner region: 1 block, 1 value, 2 ops.
	//   op0 = builtin.user, operand = value id 0 (not yet defined -> forward ref)
	//   op1 = builtin.def, 1 result -> the only definable value in this
	//   scope, so it claims id 0 (the next sequential id), resolving op0's
	//   forward reference.
	innerBlock := (&builder{}).
		varintFlag(2, false). // block header: 2 ops, no args
		varint(1).            // opname idx 1 -> builtin.user
		byte(opMaskByte(false, false, true, false, false)).
		varint(0). // location: loc(unknown)
		varint(1). // 1 operand
		varint(0). // operand value id 0 (forward reference)
		varint(2). // opname idx 2 -> builtin.def
		byte(opMaskByte(false, true, false, false, false)).
		varint(0). // location: loc(unknown)
		varint(1). // 1 result
		varint(0). // result type index 0 -> none
		bytes()
	innerRegion := (&builder{}).
		varint(1). // num_blocks = 1
		varint(1). // num_values = 1
		raw(innerBlock).
		bytes()

	// Top-level block: 1 op (builtin.container), no args, with 1 inline
	// non-isolated region (the innerRegion above).
	irPayload := (&builder{}).
		varintFlag(1, false). // block header: 1 op, no args
		varint(0).            // opname idx 0 -> builtin.container
		byte(opMaskByte(false, false, false, false, true)).
		varint(0).          // location: loc(unknown)
		varintFlag(1, false). // 1 region, not isolated from above
		raw(innerRegion).
		bytes()

	b := header(supportedVersion, "test")
	b.section(sectionString, strs)
	b.section(sectionDialect, dialects)
	b.section(sectionAttrType, attrData)
	b.section(sectionAttrTypeOffset, attrOffsets)
	b.section(sectionIR, irPayload)

	target := ir.NewBlock()
	if _, err := ReadBytecodeFile(b.bytes(), "test.mlirbc", target, config.Default()); err != nil {
		t.Fatalf("ReadBytecodeFile: %v", err)
	}

	if len(target.Operations) != 1 {
		t.Fatalf("got %d top-level operations, want 1", len(target.Operations))
	}
	container := target.Operations[0]
	if container.Name != "builtin.container" {
		t.Fatalf("op name = %q, want builtin.container", container.Name)
	}
	inner := container.Regions[0].Blocks[0]
	if len(inner.Operations) != 2 {
		t.Fatalf("got %d inner operations, want 2", len(inner.Operations))
	}
	user, def := inner.Operations[0], inner.Operations[1]
	if user.Operands[0] != def.Results[0] {
		t.Fatal("expected op0's operand to be rewritten to op1's result once defined")
	}
}

// TestReadInsertsBeforeExistingTerminator covers spec.md §6: parsed
// top-level operations are inserted before targetBlock's terminator, if it
// already has one, rather than appended after it.
func TestReadInsertsBeforeExistingTerminator(t *testing.T) {
	target := ir.NewBlock()
	terminator := ir.NewOperation(ir.OperationState{
		Name:         "builtin.return",
		Loc:          ir.UnknownLoc{},
		Attributes:   ir.NewDictionaryAttr(nil),
		IsTerminator: true,
	})
	target.PushBack(terminator)

	buf := minimalModule(t)
	if _, err := ReadBytecodeFile(buf, "test.mlirbc", target, config.Default()); err != nil {
		t.Fatalf("ReadBytecodeFile: %v", err)
	}

	if len(target.Operations) != 2 {
		t.Fatalf("got %d operations, want 2", len(target.Operations))
	}
	if target.Operations[0].Name != "builtin.foo" {
		t.Fatalf("op[0] = %q, want builtin.foo", target.Operations[0].Name)
	}
	if target.Operations[1] != terminator {
		t.Fatal("expected the terminator to remain the block's last operation")
	}
}

func TestReadUnregisteredDialectRejected(t *testing.T) {
	strs := stringSectionPayload([]string{"widget", "foo"})
	dialects := dialectSectionPayload([]int{0}, []dialectEntryDesc{{dialectIdx: 0, localNames: []int{1}}})
	attrData, attrOffsets := attrTypePayloads([]attrTypeEntryDesc{textEntry(0, "loc(unknown)")}, nil)
	irPayload := (&builder{}).
		varintFlag(1, false).
		varint(0).
		byte(opMaskByte(false, false, false, false, false)).
		varint(0).
		bytes()

	b := header(supportedVersion, "test")
	b.section(sectionString, strs)
	b.section(sectionDialect, dialects)
	b.section(sectionAttrType, attrData)
	b.section(sectionAttrTypeOffset, attrOffsets)
	b.section(sectionIR, irPayload)

	cfg := config.Default()
	cfg.AllowUnregisteredDialects = false
	_, err := ReadBytecodeFile(b.bytes(), "test.mlirbc", ir.NewBlock(), cfg)
	if err == nil || !strings.Contains(err.Error(), "unknown") {
		t.Fatalf("got %v, want an unregistered-dialect error", err)
	}

	cfg.AllowUnregisteredDialects = true
	target := ir.NewBlock()
	if _, err := ReadBytecodeFile(b.bytes(), "test.mlirbc", target, cfg); err != nil {
		t.Fatalf("ReadBytecodeFile with AllowUnregisteredDialects: %v", err)
	}
	if target.Operations[0].Name != "widget.foo" {
		t.Fatalf("op name = %q, want widget.foo", target.Operations[0].Name)
	}
}
