package ir

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Attribute is a compile-time constant datum attached to an operation:
// a name, a dictionary, a location, an integer, and so on.
type Attribute interface {
	// isAttribute is unexported so only this package's types can satisfy
	// Attribute, mirroring a closed sum type.
	isAttribute()
	String() string
}

// StringAttr wraps a bare string constant.
type StringAttr string

func (StringAttr) isAttribute()    {}
func (s StringAttr) String() string { return strconv.Quote(string(s)) }

// IntegerAttr wraps a signed 64-bit integer constant, optionally typed.
type IntegerAttr struct {
	Value int64
	Type  Type
}

func (IntegerAttr) isAttribute() {}
func (a IntegerAttr) String() string {
	if a.Type != nil {
		return fmt.Sprintf("%d : %s", a.Value, a.Type)
	}
	return strconv.FormatInt(a.Value, 10)
}

// DictionaryAttr is a sorted, named collection of attributes. It is the
// kind required for an operation's attribute dictionary (spec.md §4.6.3).
type DictionaryAttr struct {
	entries map[string]Attribute
}

func (DictionaryAttr) isAttribute() {}

// NewDictionaryAttr builds a DictionaryAttr from the given entries.
func NewDictionaryAttr(entries map[string]Attribute) DictionaryAttr {
	return DictionaryAttr{entries: entries}
}

// Get returns the attribute named key, and whether it was present.
func (d DictionaryAttr) Get(key string) (Attribute, bool) {
	a, ok := d.entries[key]
	return a, ok
}

// Len returns the number of entries in the dictionary.
func (d DictionaryAttr) Len() int { return len(d.entries) }

func (d DictionaryAttr) String() string {
	keys := make([]string, 0, len(d.entries))
	for k := range d.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k)
		sb.WriteString(" = ")
		sb.WriteString(d.entries[k].String())
	}
	sb.WriteByte('}')
	return sb.String()
}

// AsDictionary type-asserts an Attribute to DictionaryAttr, the check
// spec.md §4.6.3 requires ("wrong attribute kind is a failure").
func AsDictionary(a Attribute) (DictionaryAttr, bool) {
	d, ok := a.(DictionaryAttr)
	return d, ok
}

// AsLocation type-asserts an Attribute to Location, the check spec.md
// §4.6.3 requires for an operation's location entry.
func AsLocation(a Attribute) (Location, bool) {
	l, ok := a.(Location)
	return l, ok
}
