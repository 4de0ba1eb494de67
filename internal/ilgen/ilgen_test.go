package ilgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blendsdk/blend65/internal/ast"
	"github.com/blendsdk/blend65/internal/il"
)

func ident(name string) *ast.IdentifierExpr { return &ast.IdentifierExpr{Name: name} }
func intLit(v int64) *ast.LiteralExpr       { return &ast.LiteralExpr{Kind: ast.LitInt, Int: v} }

// TestTernaryLowersToPhiMerge mirrors scenario S3: a ternary expression
// lowers to predecessor/then/else/merge blocks with a PHI in the merge
// block.
func TestTernaryLowersToPhiMerge(t *testing.T) {
	decl := &ast.FunctionDecl{
		Name: "pick",
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.VarDeclStmt{Decl: &ast.VariableDecl{
				Name: "r",
				Init: &ast.TernaryExpr{
					Cond: &ast.BinaryExpr{Op: ast.OpGt, Left: ident("x"), Right: intLit(0)},
					Then: intLit(1),
					Else: intLit(2),
				},
			}},
			&ast.ReturnStmt{Value: ident("r")},
		}},
	}
	g := NewGenerator(&TypeInfo{})
	fn := g.GenerateFunction(decl)

	errs := il.Verify(fn)
	assert.Empty(t, errs)

	var foundPhi bool
	for _, b := range fn.Blocks {
		for _, instr := range b.Instructions {
			if instr.Opcode == il.OpPhi {
				foundPhi = true
				assert.Len(t, instr.PhiEdges, 2)
			}
		}
	}
	assert.True(t, foundPhi, "ternary must lower through a PHI merge block")
}

// TestWhileLoopHeaderGetsPhiForCounter checks that a while loop reassigning
// an outer variable produces a header PHI with an entry edge and a
// backedge, and that the IL still passes SSA verification.
func TestWhileLoopHeaderGetsPhiForCounter(t *testing.T) {
	decl := &ast.FunctionDecl{
		Name: "loopy",
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.VarDeclStmt{Decl: &ast.VariableDecl{Name: "i", Init: intLit(0)}},
			&ast.WhileStmt{
				Cond: &ast.BinaryExpr{Op: ast.OpLt, Left: ident("i"), Right: intLit(10)},
				Body: &ast.BlockStmt{Stmts: []ast.Stmt{
					&ast.ExpressionStmt{Expr: &ast.AssignmentExpr{
						Target: ident("i"),
						Value:  &ast.BinaryExpr{Op: ast.OpAdd, Left: ident("i"), Right: intLit(1)},
					}},
				}},
			},
			&ast.ReturnStmt{},
		}},
	}
	g := NewGenerator(&TypeInfo{})
	fn := g.GenerateFunction(decl)

	errs := il.Verify(fn)
	assert.Empty(t, errs)

	var headerPhi *il.Instruction
	for _, b := range fn.Blocks {
		if b.Label == "while.header" {
			for _, instr := range b.Instructions {
				if instr.Opcode == il.OpPhi {
					headerPhi = instr
				}
			}
		}
	}
	require.NotNil(t, headerPhi, "while header must carry a PHI for the loop-carried counter")
	assert.Len(t, headerPhi.PhiEdges, 2)
}

func TestFunctionAlwaysTerminated(t *testing.T) {
	decl := &ast.FunctionDecl{Name: "noop", Body: &ast.BlockStmt{}}
	g := NewGenerator(&TypeInfo{})
	fn := g.GenerateFunction(decl)

	for _, b := range fn.Blocks {
		require.NotNil(t, b.Terminator(), "block %s must have a terminator", b.Label)
	}
}

func TestIfElseMergesDivergentAssignments(t *testing.T) {
	decl := &ast.FunctionDecl{
		Name: "branchy",
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.VarDeclStmt{Decl: &ast.VariableDecl{Name: "v", Init: intLit(0)}},
			&ast.IfStmt{
				Cond: ident("cond"),
				Then: &ast.BlockStmt{Stmts: []ast.Stmt{
					&ast.ExpressionStmt{Expr: &ast.AssignmentExpr{Target: ident("v"), Value: intLit(1)}},
				}},
				Else: &ast.BlockStmt{Stmts: []ast.Stmt{
					&ast.ExpressionStmt{Expr: &ast.AssignmentExpr{Target: ident("v"), Value: intLit(2)}},
				}},
			},
			&ast.ReturnStmt{Value: ident("v")},
		}},
	}
	g := NewGenerator(&TypeInfo{})
	fn := g.GenerateFunction(decl)

	assert.Empty(t, il.Verify(fn))

	var joinPhi *il.Instruction
	for _, b := range fn.Blocks {
		if b.Label == "if.join" {
			for _, instr := range b.Instructions {
				if instr.Opcode == il.OpPhi {
					joinPhi = instr
				}
			}
		}
	}
	require.NotNil(t, joinPhi, "divergent assignments to v in each arm must merge via PHI at the join block")
}
