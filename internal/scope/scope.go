// Package scope implements Blend65's symbol and scope model (spec §3, §4.2):
// a lexical scope tree where every local variable is declared into exactly
// one owning scope, and lookups walk the parent chain to implement
// shadowing.
//
// Scopes are stored by index into a per-module arena (spec §9's design
// note on cyclic parent/child pointers): a scope's parent is an index, not
// an owning pointer, so the arena can be copied or serialized without
// reference-counting.
package scope

import (
	"github.com/blendsdk/blend65/internal/ast"
	"github.com/blendsdk/blend65/internal/types"
)

// SymbolKind classifies a declared name.
type SymbolKind int

const (
	KindVariable SymbolKind = iota
	KindParameter
	KindFunction
	KindConstant
	KindMapVariable
	KindZPVariable
)

// Symbol is a single declared name (spec §3, Symbol).
type Symbol struct {
	Name       string
	Kind       SymbolKind
	Decl       ast.Node
	Type       *types.Type
	IsExported bool
	IsConst    bool
	ScopeID    ID
	Loc        ast.Span
}

// ID is a stable index into an Arena's scope slice.
type ID int

// NoScope is the zero value indicating "no parent" / "not found".
const NoScope ID = -1

// ScopeKind classifies a Scope's role.
type ScopeKind int

const (
	Module ScopeKind = iota
	Function
	Block
	Loop
	Switch
)

// Scope is one node of the lexical scope tree (spec §3, Scope).
type Scope struct {
	ID       ID
	Kind     ScopeKind
	Parent   ID // NoScope if none
	Children []ID

	Symbols map[string]*Symbol

	ASTNode ast.Node // nil for the synthetic module scope

	LoopDepth   int // 0 outside loops; reset to 0 on entering a Function scope
	SwitchDepth int // 0 outside switch/match; reset to 0 on entering a Function scope

	// FunctionSymbol is set for Function scopes and inherited for lookup
	// purposes by their descendant Block/Loop scopes.
	FunctionSymbol *Symbol
}

// Arena owns every scope created for a single module's analysis. Arenas are
// not safe for concurrent mutation; concurrent *read* access after
// construction is fine.
type Arena struct {
	scopes []*Scope
}

// NewArena creates an empty arena with no scopes.
func NewArena() *Arena {
	return &Arena{}
}

// NewModuleScope creates the arena's unique, parentless Module scope. It is
// an error (by construction misuse, not a user diagnostic) to call this
// more than once on one Arena.
func (a *Arena) NewModuleScope(node ast.Node) ID {
	s := &Scope{
		Kind:    Module,
		Parent:  NoScope,
		Symbols: make(map[string]*Symbol),
		ASTNode: node,
	}
	return a.add(s)
}

// NewChildScope creates a new scope nested under parent, inheriting
// LoopDepth, SwitchDepth and FunctionSymbol per spec §3's Scope invariants:
// Function scopes reset both depths to 0 (their FunctionSymbol is set
// afterwards with SetFunctionSymbol); Loop scopes increment LoopDepth and
// Switch scopes increment SwitchDepth from the parent; plain Block scopes
// inherit all three unchanged.
func (a *Arena) NewChildScope(parent ID, kind ScopeKind, node ast.Node) ID {
	p := a.Get(parent)
	s := &Scope{
		Kind:           kind,
		Parent:         parent,
		Symbols:        make(map[string]*Symbol),
		ASTNode:        node,
		LoopDepth:      p.LoopDepth,
		SwitchDepth:    p.SwitchDepth,
		FunctionSymbol: p.FunctionSymbol,
	}
	switch kind {
	case Function:
		s.LoopDepth = 0
		s.SwitchDepth = 0
	case Loop:
		s.LoopDepth = p.LoopDepth + 1
	case Switch:
		s.SwitchDepth = p.SwitchDepth + 1
	}
	id := a.add(s)
	p.Children = append(p.Children, id)
	return id
}

// SetFunctionSymbol records the owning function symbol for a Function
// scope, called once the enclosing FunctionDecl's symbol has been built.
func (a *Arena) SetFunctionSymbol(id ID, sym *Symbol) {
	a.Get(id).FunctionSymbol = sym
}

func (a *Arena) add(s *Scope) ID {
	s.ID = ID(len(a.scopes))
	a.scopes = append(a.scopes, s)
	return s.ID
}

// Get returns the scope for id. Panics on an out-of-range id: that is an
// internal invariant violation (spec §7), not a user-facing error.
func (a *Arena) Get(id ID) *Scope {
	if id == NoScope || int(id) >= len(a.scopes) {
		panic("scope: invalid scope id")
	}
	return a.scopes[id]
}

// Len returns the number of scopes in the arena.
func (a *Arena) Len() int { return len(a.scopes) }

// --- operations (spec §4.2) ---------------------------------------------

// Declare adds sym to scope s. Returns false (and leaves s unchanged) if a
// symbol with the same name is already declared in s directly; duplicate
// reporting is the analyzer's job, not this package's (spec §4.2).
func (a *Arena) Declare(id ID, sym *Symbol) bool {
	s := a.Get(id)
	if _, exists := s.Symbols[sym.Name]; exists {
		return false
	}
	sym.ScopeID = id
	s.Symbols[sym.Name] = sym
	return true
}

// LookupLocal looks up name directly in scope id, with no parent walk.
func (a *Arena) LookupLocal(id ID, name string) *Symbol {
	return a.Get(id).Symbols[name]
}

// LookupChain walks from scope id up through parents and returns the
// nearest match, implementing shadowing (spec §4.2, §8 property 2).
func (a *Arena) LookupChain(id ID, name string) *Symbol {
	for cur := id; cur != NoScope; cur = a.Get(cur).Parent {
		if sym, ok := a.Get(cur).Symbols[name]; ok {
			return sym
		}
	}
	return nil
}

// IsInsideLoop reports whether scope id has LoopDepth > 0.
func (a *Arena) IsInsideLoop(id ID) bool { return a.Get(id).LoopDepth > 0 }

// IsInsideSwitch reports whether scope id has SwitchDepth > 0.
func (a *Arena) IsInsideSwitch(id ID) bool { return a.Get(id).SwitchDepth > 0 }

// IsInsideFunction reports whether scope id has a reachable FunctionSymbol.
func (a *Arena) IsInsideFunction(id ID) bool { return a.Get(id).FunctionSymbol != nil }

// EnclosingFunctionScope walks up from id to the nearest Function scope, or
// NoScope if none exists (top-level module scope).
func (a *Arena) EnclosingFunctionScope(id ID) ID {
	for cur := id; cur != NoScope; cur = a.Get(cur).Parent {
		if a.Get(cur).Kind == Function {
			return cur
		}
	}
	return NoScope
}

// EnclosingFunctionSymbol returns the Symbol of the function enclosing id,
// or nil at module scope.
func (a *Arena) EnclosingFunctionSymbol(id ID) *Symbol {
	return a.Get(id).FunctionSymbol
}

// ModuleScope walks up from id to the unique Module scope (every scope
// chain terminates there).
func (a *Arena) ModuleScope(id ID) ID {
	cur := id
	for a.Get(cur).Parent != NoScope {
		cur = a.Get(cur).Parent
	}
	return cur
}

// IsDescendantOf reports whether x is a strict descendant of y;
// IsDescendantOf(x, x) is always false (spec §4.2).
func (a *Arena) IsDescendantOf(x, y ID) bool {
	if x == y {
		return false
	}
	for cur := a.Get(x).Parent; cur != NoScope; cur = a.Get(cur).Parent {
		if cur == y {
			return true
		}
	}
	return false
}

// AllVisibleSymbols returns every symbol visible from scope id, iterating
// parent-first so child symbols override same-named parent symbols in the
// returned map (spec §4.2).
func (a *Arena) AllVisibleSymbols(id ID) map[string]*Symbol {
	var chain []ID
	for cur := id; cur != NoScope; cur = a.Get(cur).Parent {
		chain = append(chain, cur)
	}
	result := make(map[string]*Symbol)
	for i := len(chain) - 1; i >= 0; i-- {
		for name, sym := range a.Get(chain[i]).Symbols {
			result[name] = sym
		}
	}
	return result
}

// ScopeDepth returns the nesting depth of id, with the module scope at 0.
func (a *Arena) ScopeDepth(id ID) int {
	depth := 0
	for cur := a.Get(id).Parent; cur != NoScope; cur = a.Get(cur).Parent {
		depth++
	}
	return depth
}
