// Package modgraph implements Blend65's module registry and inter-module
// dependency graph (spec §4.3): registration of parsed module ASTs, import
// edges, cycle detection, and topological compile ordering.
package modgraph

import (
	"fmt"
	"sync"

	"github.com/blendsdk/blend65/internal/ast"
)

// ModuleRecord is the registry's record of one registered module (spec §3,
// Module record).
type ModuleRecord struct {
	Name         string
	AST          *ast.Module
	FilePath     string
	Dependencies []string
}

// Registry maps module names to their records. The core never reads source
// files itself (spec §1: lexer/parser are external collaborators) — callers
// register already-parsed ASTs.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]*ModuleRecord
}

// NewRegistry creates an empty module registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*ModuleRecord)}
}

// Register adds a module record. Returns an error referencing both file
// paths if name is already registered (spec §4.3).
func (r *Registry) Register(name string, mod *ast.Module, filePath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.modules[name]; ok {
		return fmt.Errorf("module %q already registered (first at %q, again at %q)", name, existing.FilePath, filePath)
	}
	r.modules[name] = &ModuleRecord{Name: name, AST: mod, FilePath: filePath}
	return nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[name]
	return ok
}

// Get returns the live record for name, or nil if not registered. Callers
// that need to mutate Dependencies should use AddDependency instead of
// mutating the returned record directly.
func (r *Registry) Get(name string) *ModuleRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.modules[name]
}

// GetInfo returns a defensive copy of the record for name, or nil.
func (r *Registry) GetInfo(name string) *ModuleRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	if !ok {
		return nil
	}
	cp := *m
	cp.Dependencies = append([]string(nil), m.Dependencies...)
	return &cp
}

// AllNames returns every registered module name, in no particular order.
func (r *Registry) AllNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for n := range r.modules {
		names = append(names, n)
	}
	return names
}

// AddDependency idempotently records that `from` depends on `to`.
func (r *Registry) AddDependency(from, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.modules[from]
	if !ok {
		return
	}
	for _, dep := range m.Dependencies {
		if dep == to {
			return
		}
	}
	m.Dependencies = append(m.Dependencies, to)
}

// Clear removes every registered module.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = make(map[string]*ModuleRecord)
}
