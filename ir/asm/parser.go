// Package asm is the textual (assembly) fallback parser the bytecode
// reader's lazy attribute/type table uses when an entry has no custom
// encoding. It is a small recursive-descent parser for a generic textual
// form, not a full IR assembly grammar — real dialects would register their
// own parsers with the host context, which is out of scope here.
package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/anvilir/bytecode/ir"
)

// scanner walks a string left to right, tracking how many bytes have been
// consumed so callers can enforce spec.md §4.5's "consume exactly all
// bytes" rule.
type scanner struct {
	s   string
	pos int
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.s) && (s.s[s.pos] == ' ' || s.s[s.pos] == '\t') {
		s.pos++
	}
}

func (s *scanner) peek() byte {
	if s.pos >= len(s.s) {
		return 0
	}
	return s.s[s.pos]
}

// ParseType parses a type from the given string, returning the type and the
// number of bytes consumed.
func ParseType(text string, ctx *ir.Context) (ir.Type, int, error) {
	sc := &scanner{s: text}
	t, err := sc.parseType()
	if err != nil {
		return nil, 0, err
	}
	return t, sc.pos, nil
}

// ParseAttribute parses an attribute from the given string, returning the
// attribute and the number of bytes consumed.
func ParseAttribute(text string, ctx *ir.Context) (ir.Attribute, int, error) {
	sc := &scanner{s: text}
	a, err := sc.parseAttribute()
	if err != nil {
		return nil, 0, err
	}
	return a, sc.pos, nil
}

func (s *scanner) parseType() (ir.Type, error) {
	s.skipSpace()
	start := s.pos
	if strings.HasPrefix(s.s[s.pos:], "none") {
		s.pos += len("none")
		return ir.NoneType{}, nil
	}
	unsigned := false
	if s.peek() == 'u' && s.pos+1 < len(s.s) && s.s[s.pos+1] == 'i' {
		unsigned = true
		s.pos++ // consume 'u', leave 'i' for below
	}
	if s.peek() != 'i' {
		return nil, fmt.Errorf("asm: unrecognized type at %q", s.s[start:])
	}
	s.pos++ // consume 'i'
	digitsStart := s.pos
	for s.pos < len(s.s) && s.s[s.pos] >= '0' && s.s[s.pos] <= '9' {
		s.pos++
	}
	if s.pos == digitsStart {
		return nil, fmt.Errorf("asm: expected integer width at %q", s.s[start:])
	}
	width, err := strconv.ParseUint(s.s[digitsStart:s.pos], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("asm: invalid integer width: %w", err)
	}
	return ir.IntegerType{Width: uint32(width), Unsigned: unsigned}, nil
}

func (s *scanner) parseAttribute() (ir.Attribute, error) {
	s.skipSpace()
	switch {
	case s.peek() == '"':
		return s.parseStringAttr()
	case s.peek() == '{':
		return s.parseDictionaryAttr()
	case strings.HasPrefix(s.s[s.pos:], "loc("):
		return s.parseLocation()
	case s.peek() == '-' || (s.peek() >= '0' && s.peek() <= '9'):
		return s.parseIntegerAttr()
	default:
		return nil, fmt.Errorf("asm: unrecognized attribute at %q", s.s[s.pos:])
	}
}

func (s *scanner) parseStringAttr() (ir.Attribute, error) {
	raw, err := s.parseQuotedString()
	if err != nil {
		return nil, err
	}
	return ir.StringAttr(raw), nil
}

func (s *scanner) parseQuotedString() (string, error) {
	if s.peek() != '"' {
		return "", fmt.Errorf("asm: expected '\"' at %q", s.s[s.pos:])
	}
	s.pos++
	start := s.pos
	for s.pos < len(s.s) && s.s[s.pos] != '"' {
		if s.s[s.pos] == '\\' {
			s.pos++
		}
		s.pos++
	}
	if s.pos >= len(s.s) {
		return "", fmt.Errorf("asm: unterminated string literal")
	}
	raw := s.s[start:s.pos]
	s.pos++ // closing quote
	unquoted, err := strconv.Unquote(`"` + raw + `"`)
	if err != nil {
		return raw, nil
	}
	return unquoted, nil
}

func (s *scanner) parseIntegerAttr() (ir.Attribute, error) {
	start := s.pos
	if s.peek() == '-' {
		s.pos++
	}
	for s.pos < len(s.s) && s.s[s.pos] >= '0' && s.s[s.pos] <= '9' {
		s.pos++
	}
	v, err := strconv.ParseInt(s.s[start:s.pos], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("asm: invalid integer literal: %w", err)
	}
	attr := ir.IntegerAttr{Value: v}
	s.skipSpace()
	if strings.HasPrefix(s.s[s.pos:], ":") {
		s.pos++
		t, err := s.parseType()
		if err != nil {
			return nil, err
		}
		attr.Type = t
	}
	return attr, nil
}

func (s *scanner) parseDictionaryAttr() (ir.Attribute, error) {
	s.pos++ // consume '{'
	entries := make(map[string]ir.Attribute)
	s.skipSpace()
	if s.peek() == '}' {
		s.pos++
		return ir.NewDictionaryAttr(entries), nil
	}
	for {
		s.skipSpace()
		keyStart := s.pos
		for s.pos < len(s.s) && isIdentByte(s.s[s.pos]) {
			s.pos++
		}
		if s.pos == keyStart {
			return nil, fmt.Errorf("asm: expected dictionary key at %q", s.s[s.pos:])
		}
		key := s.s[keyStart:s.pos]
		s.skipSpace()
		if s.peek() != '=' {
			return nil, fmt.Errorf("asm: expected '=' after key %q", key)
		}
		s.pos++
		val, err := s.parseAttribute()
		if err != nil {
			return nil, err
		}
		entries[key] = val
		s.skipSpace()
		if s.peek() == ',' {
			s.pos++
			continue
		}
		if s.peek() == '}' {
			s.pos++
			break
		}
		return nil, fmt.Errorf("asm: expected ',' or '}' in dictionary at %q", s.s[s.pos:])
	}
	return ir.NewDictionaryAttr(entries), nil
}

// parseLocation parses a loc(...) form. NameLoc's nested child is itself a
// full loc(...) form (see Location.String()'s formatting), so a single
// recursive call handles it.
func (s *scanner) parseLocation() (ir.Attribute, error) {
	s.pos += len("loc(")
	s.skipSpace()
	if strings.HasPrefix(s.s[s.pos:], "unknown") {
		s.pos += len("unknown")
		s.skipSpace()
		if s.peek() != ')' {
			return nil, fmt.Errorf("asm: expected ')' closing loc(unknown")
		}
		s.pos++
		return ir.UnknownLoc{}, nil
	}
	if s.peek() != '"' {
		return nil, fmt.Errorf("asm: unrecognized location form at %q", s.s[s.pos:])
	}
	name, err := s.parseQuotedString()
	if err != nil {
		return nil, err
	}
	s.skipSpace()
	if s.peek() == '(' {
		s.pos++
		s.skipSpace()
		if !strings.HasPrefix(s.s[s.pos:], "loc(") {
			return nil, fmt.Errorf("asm: expected nested loc(...) at %q", s.s[s.pos:])
		}
		childAttr, err := s.parseLocation()
		if err != nil {
			return nil, err
		}
		child, ok := childAttr.(ir.Location)
		if !ok {
			return nil, fmt.Errorf("asm: expected a location inside NameLoc")
		}
		s.skipSpace()
		if s.peek() != ')' {
			return nil, fmt.Errorf("asm: expected ')' closing NameLoc child")
		}
		s.pos++
		s.skipSpace()
		if s.peek() != ')' {
			return nil, fmt.Errorf("asm: expected ')' closing loc(...)")
		}
		s.pos++
		return ir.NameLoc{Name: name, Child: child}, nil
	}
	if s.peek() != ':' {
		return nil, fmt.Errorf("asm: expected ':' in file location")
	}
	s.pos++
	line, err := s.parseUint()
	if err != nil {
		return nil, err
	}
	if s.peek() != ':' {
		return nil, fmt.Errorf("asm: expected ':' between line and column")
	}
	s.pos++
	col, err := s.parseUint()
	if err != nil {
		return nil, err
	}
	s.skipSpace()
	if s.peek() != ')' {
		return nil, fmt.Errorf("asm: expected ')' closing loc(...)")
	}
	s.pos++
	return ir.FileLineColLoc{Filename: name, Line: uint32(line), Column: uint32(col)}, nil
}

func (s *scanner) parseUint() (uint64, error) {
	start := s.pos
	for s.pos < len(s.s) && s.s[s.pos] >= '0' && s.s[s.pos] <= '9' {
		s.pos++
	}
	if s.pos == start {
		return 0, fmt.Errorf("asm: expected digits at %q", s.s[s.pos:])
	}
	return strconv.ParseUint(s.s[start:s.pos], 10, 64)
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
