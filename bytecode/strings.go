package bytecode

import "fmt"

// stringTable is the ordered, indexable sequence of borrowed strings
// produced by parseStringSection (spec.md §4.3). Every returned string
// borrows from the section payload, which in turn borrows from the
// caller's input buffer.
type stringTable struct {
	strings []string
}

func (t *stringTable) get(i uint64) (string, error) {
	if i >= uint64(len(t.strings)) {
		return "", fmt.Errorf("string index %d is out of range of the string table (size %d)", i, len(t.strings))
	}
	return t.strings[i], nil
}

// parseStringSection parses the String section payload: a varint count,
// then that many varint sizes, then the strings packed at the tail of the
// payload. The size read first corresponds to the string occupying the
// final bytes of the payload and is assigned to the highest table index;
// the size read last corresponds to the string at offset 0 of the packed
// data and is assigned to table index 0. This mirrors the writer's
// convention bit-for-bit (spec.md §4.3, §9 "String table reverse layout").
func parseStringSection(payload []byte, loc *fileLoc) (*stringTable, error) {
	c := newCursor(payload, loc)
	numStrings, err := c.parseVarint()
	if err != nil {
		return nil, err
	}

	strs := make([]string, numStrings)
	dataEnd := len(payload)
	totalDataSize := uint64(0)
	for i := uint64(0); i < numStrings; i++ {
		size, err := c.parseVarint()
		if err != nil {
			return nil, err
		}
		if size == 0 || uint64(dataEnd) < size {
			return nil, c.fail("string size exceeds the available data size")
		}
		offset := dataEnd - int(size)
		// size includes the trailing null byte, which is dropped here.
		strs[numStrings-1-i] = string(payload[offset : offset+int(size)-1])
		dataEnd = offset
		totalDataSize += size
	}

	if uint64(c.size()) != totalDataSize {
		return nil, c.fail("unexpected trailing data between the offsets for strings and their data")
	}
	return &stringTable{strings: strs}, nil
}
