package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blendsdk/blend65/internal/types"
)

func TestScopeTreeWellFormed(t *testing.T) {
	a := NewArena()
	mod := a.NewModuleScope(nil)
	fn := a.NewChildScope(mod, Function, nil)
	blk := a.NewChildScope(fn, Block, nil)

	assert.Equal(t, NoScope, a.Get(mod).Parent)
	assert.Equal(t, 0, a.ScopeDepth(mod))
	assert.Equal(t, 1, a.ScopeDepth(fn))
	assert.Equal(t, 2, a.ScopeDepth(blk))
	require.Contains(t, a.Get(mod).Children, fn)
	require.Contains(t, a.Get(fn).Children, blk)
}

func TestLoopDepthResetsAtFunction(t *testing.T) {
	a := NewArena()
	mod := a.NewModuleScope(nil)
	loop := a.NewChildScope(mod, Loop, nil)
	assert.Equal(t, 1, a.Get(loop).LoopDepth)

	fn := a.NewChildScope(loop, Function, nil)
	assert.Equal(t, 0, a.Get(fn).LoopDepth, "function scope resets loop depth")

	innerLoop := a.NewChildScope(fn, Loop, nil)
	assert.Equal(t, 1, a.Get(innerLoop).LoopDepth)
}

func TestLookupShadowing(t *testing.T) {
	a := NewArena()
	mod := a.NewModuleScope(nil)
	outer := &Symbol{Name: "x", Kind: KindVariable, Type: types.Byte()}
	require.True(t, a.Declare(mod, outer))

	fn := a.NewChildScope(mod, Function, nil)
	inner := &Symbol{Name: "x", Kind: KindVariable, Type: types.Word()}
	require.True(t, a.Declare(fn, inner))

	assert.Same(t, inner, a.LookupChain(fn, "x"))
	assert.Same(t, outer, a.LookupChain(mod, "x"))
}

func TestDuplicateDeclareReturnsFalse(t *testing.T) {
	a := NewArena()
	mod := a.NewModuleScope(nil)
	symA := &Symbol{Name: "f", Kind: KindFunction}
	symB := &Symbol{Name: "f", Kind: KindFunction}

	require.True(t, a.Declare(mod, symA))
	require.False(t, a.Declare(mod, symB))
	assert.Same(t, symA, a.LookupLocal(mod, "f"))
}

func TestIsDescendantOf(t *testing.T) {
	a := NewArena()
	mod := a.NewModuleScope(nil)
	fn := a.NewChildScope(mod, Function, nil)
	blk := a.NewChildScope(fn, Block, nil)

	assert.True(t, a.IsDescendantOf(blk, mod))
	assert.True(t, a.IsDescendantOf(fn, mod))
	assert.False(t, a.IsDescendantOf(mod, mod))
	assert.False(t, a.IsDescendantOf(mod, blk))
}

func TestAllVisibleSymbolsChildOverrides(t *testing.T) {
	a := NewArena()
	mod := a.NewModuleScope(nil)
	require.True(t, a.Declare(mod, &Symbol{Name: "x", Kind: KindVariable, Type: types.Byte()}))
	require.True(t, a.Declare(mod, &Symbol{Name: "y", Kind: KindVariable, Type: types.Byte()}))

	fn := a.NewChildScope(mod, Function, nil)
	require.True(t, a.Declare(fn, &Symbol{Name: "x", Kind: KindVariable, Type: types.Word()}))

	visible := a.AllVisibleSymbols(fn)
	require.Len(t, visible, 2)
	assert.Equal(t, types.KindWord, visible["x"].Type.Kind)
	assert.Equal(t, types.KindByte, visible["y"].Type.Kind)
}

func TestEnclosingFunctionScope(t *testing.T) {
	a := NewArena()
	mod := a.NewModuleScope(nil)
	fnSym := &Symbol{Name: "main", Kind: KindFunction}
	fn := a.NewChildScope(mod, Function, nil)
	a.SetFunctionSymbol(fn, fnSym)
	blk := a.NewChildScope(fn, Block, nil)

	assert.Equal(t, fn, a.EnclosingFunctionScope(blk))
	assert.Same(t, fnSym, a.EnclosingFunctionSymbol(blk))
	assert.Equal(t, NoScope, a.EnclosingFunctionScope(mod))
}
