package bytecode

import "fmt"

// magic is the 4-byte prefix every bytecode file must start with:
// "ML\xefR".
var magic = [4]byte{0x4D, 0x4C, 0xEF, 0x52}

// supportedVersion is the single bytecode version this reader accepts.
// Any other value is rejected outright; there is no schema-evolution path
// across major versions.
const supportedVersion = 1

// Section ids, in the order spec.md §4.2 requires them to be processed
// once gathered (String, Dialect, AttrType, IR) plus AttrTypeOffset, which
// is read alongside AttrType but has no independent processing step.
const (
	sectionString         byte = 0
	sectionDialect        byte = 1
	sectionAttrType       byte = 2
	sectionAttrTypeOffset byte = 3
	sectionIR             byte = 4
	numSections                = 5
)

// Operation mask bits, exact wire values per spec.md §4.6.3 — these must
// agree bit-for-bit with the writer.
const (
	opMaskHasAttrs         byte = 0x01
	opMaskHasResults       byte = 0x02
	opMaskHasOperands      byte = 0x04
	opMaskHasSuccessors    byte = 0x08
	opMaskHasInlineRegions byte = 0x10
)

// fileLoc is the source-file location handle a cursor carries for error
// attribution: the buffer's identifier plus line 0, column 0 per spec.md
// §6 ("used as the source-file location with line 0 column 0").
type fileLoc struct {
	filename string
}

func (l *fileLoc) String() string {
	if l == nil {
		return "<unknown>"
	}
	return l.filename
}

// readError is the concrete error type every parsing primitive returns.
// It carries the buffer's source location so the Error & Diagnostic
// Adapter (diagnostics.go) can attach the version/producer note uniformly.
type readError struct {
	loc *fileLoc
	msg string
}

func (e *readError) Error() string {
	return fmt.Sprintf("%s: %s", e.loc, e.msg)
}

func isBytecodeBytes(buf []byte) bool {
	if len(buf) < len(magic) {
		return false
	}
	for i, b := range magic {
		if buf[i] != b {
			return false
		}
	}
	return true
}
