package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blendsdk/blend65/internal/ast"
)

func ident(name string) *ast.IdentifierExpr { return &ast.IdentifierExpr{Name: name} }
func lit(v int64) *ast.LiteralExpr          { return &ast.LiteralExpr{Kind: ast.LitInt, Int: v} }

// buildLoopFunction builds the AST for:
//   let i:byte = 0;
//   while (i < 10) {
//       let j:byte = i * 4;
//       i = i + 1;
//   }
func buildLoopFunction() *ast.FunctionDecl {
	initDecl := &ast.VarDeclStmt{Decl: &ast.VariableDecl{Name: "i", Init: lit(0)}}

	jDecl := &ast.VarDeclStmt{Decl: &ast.VariableDecl{
		Name: "j",
		Init: &ast.BinaryExpr{Op: ast.OpMul, Left: ident("i"), Right: lit(4)},
	}}
	incr := &ast.ExpressionStmt{Expr: &ast.AssignmentExpr{
		Target: ident("i"),
		Value:  &ast.BinaryExpr{Op: ast.OpAdd, Left: ident("i"), Right: lit(1)},
	}}

	whileStmt := &ast.WhileStmt{
		Cond: &ast.BinaryExpr{Op: ast.OpLt, Left: ident("i"), Right: lit(10)},
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{jDecl, incr}},
	}

	return &ast.FunctionDecl{
		Name: "loopy",
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{initDecl, whileStmt}},
	}
}

func TestEveryBlockHasExactlyOneConsistentTerminator(t *testing.T) {
	fn := Build(buildLoopFunction())
	for _, id := range fn.BlockOrder() {
		blk := fn.Blocks[id]
		switch blk.Term.Kind {
		case TermBranch:
			assert.Len(t, blk.Succs, 2, "block %s: branch terminator needs 2 successors", blk.Label)
		case TermReturn:
			assert.Empty(t, blk.Succs, "block %s: return terminator must have no successors", blk.Label)
		case TermFallthrough:
			assert.LessOrEqual(t, len(blk.Succs), 1, "block %s: fallthrough terminator needs at most 1 successor", blk.Label)
		}
	}
}

func TestDominatorTreeBasic(t *testing.T) {
	fn := Build(buildLoopFunction())
	dt := ComputeDominators(fn)

	assert.True(t, dt.Dominates(fn.Entry, fn.Entry))
	for _, id := range fn.BlockOrder() {
		assert.True(t, dt.Dominates(fn.Entry, id), "entry must dominate every reachable block")
	}
}

func TestNaturalLoopAndInductionVariables(t *testing.T) {
	fn := Build(buildLoopFunction())
	dt := ComputeDominators(fn)
	loops := FindNaturalLoops(fn, dt)

	require.Len(t, loops, 1)
	l := loops[0]

	require.Contains(t, l.BasicIVs, "i")
	iv := l.BasicIVs["i"]
	assert.True(t, iv.HasConstInitial)
	assert.Equal(t, int64(0), iv.Initial)
	assert.Equal(t, int64(1), iv.Stride)

	require.Contains(t, l.DerivedIVs, "j")
	div := l.DerivedIVs["j"]
	assert.Equal(t, "i", div.Base)
	assert.Equal(t, int64(4), div.Stride)
	assert.Equal(t, int64(0), div.Offset)
}

func TestLoopInvariantClosure(t *testing.T) {
	// let k:byte = 5;
	// while (i < 10) {
	//     let m:byte = k;   // invariant: k is defined outside the loop
	//     i = i + 1;
	// }
	kDecl := &ast.VarDeclStmt{Decl: &ast.VariableDecl{Name: "k", Init: lit(5)}}
	iDecl := &ast.VarDeclStmt{Decl: &ast.VariableDecl{Name: "i", Init: lit(0)}}
	mDecl := &ast.VarDeclStmt{Decl: &ast.VariableDecl{Name: "m", Init: ident("k")}}
	incr := &ast.ExpressionStmt{Expr: &ast.AssignmentExpr{
		Target: ident("i"),
		Value:  &ast.BinaryExpr{Op: ast.OpAdd, Left: ident("i"), Right: lit(1)},
	}}
	whileStmt := &ast.WhileStmt{
		Cond: &ast.BinaryExpr{Op: ast.OpLt, Left: ident("i"), Right: lit(10)},
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{mDecl, incr}},
	}
	fn := Build(&ast.FunctionDecl{
		Name: "f",
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{kDecl, iDecl, whileStmt}},
	})

	dt := ComputeDominators(fn)
	loops := FindNaturalLoops(fn, dt)
	require.Len(t, loops, 1)
	l := loops[0]

	var mInstr *Instruction
	for id := range l.Body {
		for _, instr := range fn.Blocks[id].Instructions {
			if instr.Result == "m" {
				mInstr = instr
			}
		}
	}
	require.NotNil(t, mInstr)
	assert.True(t, l.Invariants[mInstr], "m := k must be invariant since k is defined outside the loop")
}

func TestCallsAreNeverInvariant(t *testing.T) {
	call := &ast.ExpressionStmt{Expr: &ast.CallExpr{Callee: ident("sideEffect")}}
	iDecl := &ast.VarDeclStmt{Decl: &ast.VariableDecl{Name: "i", Init: lit(0)}}
	incr := &ast.ExpressionStmt{Expr: &ast.AssignmentExpr{
		Target: ident("i"),
		Value:  &ast.BinaryExpr{Op: ast.OpAdd, Left: ident("i"), Right: lit(1)},
	}}
	whileStmt := &ast.WhileStmt{
		Cond: &ast.BinaryExpr{Op: ast.OpLt, Left: ident("i"), Right: lit(10)},
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{call, incr}},
	}
	fn := Build(&ast.FunctionDecl{Name: "f", Body: &ast.BlockStmt{Stmts: []ast.Stmt{iDecl, whileStmt}}})
	dt := ComputeDominators(fn)
	loops := FindNaturalLoops(fn, dt)
	require.Len(t, loops, 1)

	for id := range loops[0].Body {
		for _, instr := range fn.Blocks[id].Instructions {
			if instr.Kind == InstrCall {
				assert.False(t, loops[0].Invariants[instr])
			}
		}
	}
}
