package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blendsdk/blend65/internal/scope"
)

func TestCrossModuleVisibility(t *testing.T) {
	tbl := New()
	tbl.Register("A", map[string]*scope.Symbol{
		"foo":    {Name: "foo", Kind: scope.KindFunction, IsExported: true},
		"helper": {Name: "helper", Kind: scope.KindFunction, IsExported: false},
	})

	fooFromB := tbl.Lookup("foo", "B")
	require.NotNil(t, fooFromB)
	assert.Equal(t, "foo", fooFromB.Name)

	assert.Nil(t, tbl.Lookup("helper", "B"))
	assert.Nil(t, tbl.Lookup("foo", "A"), "same-module lookup must return nil")
}

func TestLookupInModuleSeesPrivateSymbols(t *testing.T) {
	tbl := New()
	tbl.Register("A", map[string]*scope.Symbol{
		"helper": {Name: "helper", Kind: scope.KindFunction, IsExported: false},
	})
	sym := tbl.LookupInModule("helper", "A")
	require.NotNil(t, sym)
	assert.Equal(t, "helper", sym.Name)
}

func TestTotals(t *testing.T) {
	tbl := New()
	tbl.Register("A", map[string]*scope.Symbol{
		"foo": {Name: "foo", IsExported: true},
		"bar": {Name: "bar", IsExported: false},
	})
	assert.Equal(t, 2, tbl.TotalSymbols())
	assert.Equal(t, 1, tbl.TotalExports())

	tbl.Reset()
	assert.Equal(t, 0, tbl.TotalSymbols())
	assert.Nil(t, tbl.Lookup("foo", "B"))
}

func TestLookupTieBreakByRegistrationOrder(t *testing.T) {
	tbl := New()
	tbl.Register("A", map[string]*scope.Symbol{"dup": {Name: "dup", IsExported: true}})
	tbl.Register("B", map[string]*scope.Symbol{"dup": {Name: "dup", IsExported: true}})

	sym := tbl.Lookup("dup", "C")
	require.NotNil(t, sym)
	// A registered first, so its export wins the tie.
	firstFromA := tbl.LookupInModule("dup", "A")
	assert.Same(t, firstFromA, sym)
}
