package bytecode

import (
	"errors"
	"fmt"

	"github.com/anvilir/bytecode/ir"
)

// sectionSlot holds one top-level section's payload once gathered; seen
// stays false until the section has been read.
type sectionSlot struct {
	seen    bool
	payload []byte
}

// read drives the Section Splitter (spec.md §4.2): magic, version,
// producer string, then section records gathered into fixed slots and
// dispatched String → Dialect → AttrType → IR, in that order, regardless
// of their order on the wire.
func (r *Reader) read(buf []byte, targetBlock *ir.Block) error {
	if err := r.readInner(buf, targetBlock); err != nil {
		var re *readError
		if !errors.As(err, &re) {
			err = fmt.Errorf("%s: %w", r.loc, err)
		}
		return r.noteVersionProducer(err)
	}
	return nil
}

func (r *Reader) readInner(buf []byte, targetBlock *ir.Block) error {
	c := newCursor(buf, r.loc)

	magicBytes, err := c.parseBytes(len(magic))
	if err != nil {
		return err
	}
	for i, b := range magic {
		if magicBytes[i] != b {
			return c.fail("input buffer is not an MLIR bytecode file")
		}
	}

	version, err := parseVersion(c)
	if err != nil {
		return err
	}
	r.version = version

	producer, err := c.parseNullTerminatedString()
	if err != nil {
		return err
	}
	r.producer = producer
	r.versionKnown = true

	var slots [numSections]sectionSlot
	for !c.empty() {
		id, payload, err := c.parseSection()
		if err != nil {
			return err
		}
		if slots[id].seen {
			return c.fail(fmt.Sprintf("duplicate top-level section: %d", id))
		}
		slots[id] = sectionSlot{seen: true, payload: payload}
	}
	for id := byte(0); id < numSections; id++ {
		if !slots[id].seen {
			return c.fail(fmt.Sprintf("missing data for top-level section: %d", id))
		}
	}

	strs, err := parseStringSection(slots[sectionString].payload, r.loc)
	if err != nil {
		return err
	}
	r.strs = strs

	dialects, err := parseDialectSection(slots[sectionDialect].payload, strs, r.loc)
	if err != nil {
		return err
	}
	r.dialects = dialects

	attrTypes, err := parseAttrTypeTable(slots[sectionAttrType].payload, slots[sectionAttrTypeOffset].payload, dialects, r.codecs, r.loc)
	if err != nil {
		return err
	}
	r.attrTypes = attrTypes

	return r.parseIRSection(slots[sectionIR].payload, targetBlock)
}
