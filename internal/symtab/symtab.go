// Package symtab implements Blend65's global symbol table (spec §4.10):
// aggregation of each module's locally analyzed symbols, with cross-module
// lookup restricted to exported symbols from other modules.
package symtab

import (
	"sort"
	"sync"

	"github.com/blendsdk/blend65/internal/scope"
)

// Entry is one symbol aggregated into the global table.
type Entry struct {
	Module     string
	Symbol     *scope.Symbol
	registered int // registration order, for tie-breaking lookups
}

// Table aggregates per-module symbols after local semantic analysis,
// mirroring the teacher's per-module Iface aggregation but flattened: no
// type schemes or ADT constructors, since Blend65 has no generics.
type Table struct {
	mu sync.RWMutex

	// perModule[module][name] holds every local symbol (exported or not).
	perModule map[string]map[string]*Entry

	// moduleOrder records registration order for lookup tie-breaking.
	moduleOrder []string

	totalSymbols int
	totalExports int

	seq int
}

// New creates an empty global symbol table.
func New() *Table {
	return &Table{perModule: make(map[string]map[string]*Entry)}
}

// Register adds every symbol from a module's local scope into the global
// table. Symbols is the flattened set of module-level declarations (the
// analyzer passes its Module scope's direct Symbols map).
func (t *Table) Register(module string, symbols map[string]*scope.Symbol) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.perModule[module]; !ok {
		t.moduleOrder = append(t.moduleOrder, module)
	}
	bucket := make(map[string]*Entry, len(symbols))
	for name, sym := range symbols {
		t.seq++
		bucket[name] = &Entry{Module: module, Symbol: sym, registered: t.seq}
		t.totalSymbols++
		if sym.IsExported {
			t.totalExports++
		}
	}
	t.perModule[module] = bucket
}

// LookupInModule finds any symbol (exported or not) declared directly in
// module.
func (t *Table) LookupInModule(name, module string) *scope.Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()
	bucket, ok := t.perModule[module]
	if !ok {
		return nil
	}
	if e, ok := bucket[name]; ok {
		return e.Symbol
	}
	return nil
}

// Lookup finds an exported symbol named `name` from any module other than
// requestingModule. Same-module requests always return nil — callers must
// use LookupInModule for those (spec §4.10, §8 property 13). Ties (two
// other modules exporting the same name) are broken by module registration
// order.
func (t *Table) Lookup(name, requestingModule string) *scope.Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var best *Entry
	for _, module := range t.moduleOrder {
		if module == requestingModule {
			continue
		}
		bucket := t.perModule[module]
		e, ok := bucket[name]
		if !ok || !e.Symbol.IsExported {
			continue
		}
		if best == nil || e.registered < best.registered {
			best = e
		}
	}
	if best == nil {
		return nil
	}
	return best.Symbol
}

// TotalSymbols returns the number of symbols registered across all modules.
func (t *Table) TotalSymbols() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalSymbols
}

// TotalExports returns the number of exported symbols registered across all
// modules.
func (t *Table) TotalExports() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalExports
}

// Reset clears all state.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.perModule = make(map[string]map[string]*Entry)
	t.moduleOrder = nil
	t.totalSymbols = 0
	t.totalExports = 0
	t.seq = 0
}

// Modules returns the registered module names, sorted by name.
func (t *Table) Modules() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := append([]string(nil), t.moduleOrder...)
	sort.Strings(out) // deterministic for callers that don't care about order
	return out
}
