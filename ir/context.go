package ir

import "sync"

// BuiltinModuleOp is the synthetic top-level module operation's full name.
const BuiltinModuleOp = "builtin.module"

// BuiltinUnrealizedConversionCast is the placeholder operation kind used
// for forward-referenced values (see bytecode's Value/Forward-Reference
// Manager).
const BuiltinUnrealizedConversionCast = "builtin.unrealized_conversion_cast"

// Context owns the set of dialects registered or loaded for a parse, plus
// the policy for whether unknown dialects are tolerated. It is the "host
// context" spec.md §4.4 refers to.
type Context struct {
	mu                        sync.Mutex
	registered                map[string]Dialect
	loaded                    map[string]Dialect
	AllowUnregisteredDialects bool
}

// NewContext creates a context with the builtin dialect pre-registered.
func NewContext() *Context {
	c := &Context{
		registered: make(map[string]Dialect),
		loaded:     make(map[string]Dialect),
	}
	c.RegisterDialect(GenericDialect{name: "builtin"})
	return c
}

// RegisterDialect makes a dialect available for loading by name.
func (c *Context) RegisterDialect(d Dialect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registered[d.Name()] = d
}

// GetOrLoadDialect returns the dialect of the given name, loading it from
// the registered set on first use. It returns nil, false if the dialect is
// neither registered nor allowed to be synthesized.
func (c *Context) GetOrLoadDialect(name string) (Dialect, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.loaded[name]; ok {
		return d, true
	}
	if d, ok := c.registered[name]; ok {
		c.loaded[name] = d
		return d, true
	}
	if !c.AllowUnregisteredDialects {
		return nil, false
	}
	d := GenericDialect{name: name}
	c.loaded[name] = d
	return d, true
}
