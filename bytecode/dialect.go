package bytecode

import (
	"fmt"

	"github.com/anvilir/bytecode/config"
	"github.com/anvilir/bytecode/ir"
)

type dialectLoadState int

const (
	dialectNotLoaded dialectLoadState = iota
	dialectLoaded
	dialectFailed
)

// dialectEntry is the "(name: string-index, loaded: none | resolved(handle)
// | failed)" record from spec.md §3. A dialect transitions from
// dialectNotLoaded to either dialectLoaded or dialectFailed at most once;
// the recorded err is replayed on any later lookup rather than retrying.
type dialectEntry struct {
	name   string
	state  dialectLoadState
	handle ir.Dialect
	err    error
}

// opNameEntry is the "(owning_dialect_index, local_name, cached_full_name)"
// record from spec.md §3.
type opNameEntry struct {
	dialectIdx int
	localName  string
	fullName   string // cached, empty until resolved
}

// dialectTable owns the dialect list and the flattened global list of
// operation-name entries parsed from the Dialect section (spec.md §4.4).
type dialectTable struct {
	dialects []dialectEntry
	opNames  []opNameEntry
}

// parseDialectSection parses the Dialect section payload: a varint dialect
// count, that many string-table indices naming dialects, then dialect
// groupings until the payload is exhausted. A grouping is
// (dialect-index, varint count, count × string-table index naming a local
// operation name).
func parseDialectSection(payload []byte, strs *stringTable, loc *fileLoc) (*dialectTable, error) {
	c := newCursor(payload, loc)

	numDialects, err := c.parseVarint()
	if err != nil {
		return nil, err
	}
	dialects := make([]dialectEntry, numDialects)
	for i := range dialects {
		idx, err := c.parseVarint()
		if err != nil {
			return nil, err
		}
		name, err := strs.get(idx)
		if err != nil {
			return nil, err
		}
		dialects[i] = dialectEntry{name: name}
	}

	var opNames []opNameEntry
	for !c.empty() {
		dialectIdx, err := c.parseVarint()
		if err != nil {
			return nil, err
		}
		if dialectIdx >= uint64(len(dialects)) {
			return nil, c.fail(fmt.Sprintf("dialect index %d is out of range of the dialect table (size %d)", dialectIdx, len(dialects)))
		}
		numEntries, err := c.parseVarint()
		if err != nil {
			return nil, err
		}
		for i := uint64(0); i < numEntries; i++ {
			idx, err := c.parseVarint()
			if err != nil {
				return nil, err
			}
			name, err := strs.get(idx)
			if err != nil {
				return nil, err
			}
			opNames = append(opNames, opNameEntry{dialectIdx: int(dialectIdx), localName: name})
		}
	}

	return &dialectTable{dialects: dialects, opNames: opNames}, nil
}

// dialectName returns the raw (unqualified) name of dialect i.
func (t *dialectTable) dialectName(i int) string {
	return t.dialects[i].name
}

// localNames returns the local operation names grouped under dialect i, in
// the order they were declared, for passing to config.ValidateDialectOps.
func (t *dialectTable) localNames(i int) []string {
	var names []string
	for _, e := range t.opNames {
		if e.dialectIdx == i {
			names = append(names, e.localName)
		}
	}
	return names
}

// load resolves dialect i against the host context, consulting the given
// parser configuration for unregistered-dialect policy and an optional
// op-schema file (spec.md §4.4's "lazy dialect loading"; first use wins,
// never retried).
func (t *dialectTable) load(i int, ctx *ir.Context, cfg *config.ParserConfig) (ir.Dialect, error) {
	d := &t.dialects[i]
	switch d.state {
	case dialectLoaded:
		return d.handle, nil
	case dialectFailed:
		return nil, d.err
	}

	handle, ok := ctx.GetOrLoadDialect(d.name)
	if !ok {
		d.state = dialectFailed
		d.err = fmt.Errorf("dialect '%s' is unknown. If this is intended, enable AllowUnregisteredDialects in the parser configuration", d.name)
		return nil, d.err
	}

	if cfg != nil {
		if err := config.ValidateDialectOps(cfg.SchemaPath(d.name), t.localNames(i)); err != nil {
			d.state = dialectFailed
			d.err = err
			return nil, d.err
		}
	}

	d.state = dialectLoaded
	d.handle = handle
	return handle, nil
}

// resolveOpName builds and memoizes the "<dialect>.<local>" qualified name
// for opname index i (spec.md §4.4's "Operation-name resolution").
func (t *dialectTable) resolveOpName(i uint64, ctx *ir.Context, cfg *config.ParserConfig, loc *fileLoc) (ir.OperationName, error) {
	if i >= uint64(len(t.opNames)) {
		return "", &readError{loc: loc, msg: fmt.Sprintf("operation name index %d is out of range of the operation name table (size %d)", i, len(t.opNames))}
	}
	entry := &t.opNames[i]
	if entry.fullName != "" {
		return ir.OperationName(entry.fullName), nil
	}
	if _, err := t.load(entry.dialectIdx, ctx, cfg); err != nil {
		return "", err
	}
	entry.fullName = t.dialects[entry.dialectIdx].name + "." + entry.localName
	return ir.OperationName(entry.fullName), nil
}
