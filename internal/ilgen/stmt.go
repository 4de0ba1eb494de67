package ilgen

import (
	"github.com/blendsdk/blend65/internal/ast"
	"github.com/blendsdk/blend65/internal/il"
)

func (g *Generator) lowerStmt(s ast.Stmt) {
	if s == nil || g.cur.Terminator() != nil {
		return
	}
	switch n := s.(type) {
	case *ast.BlockStmt:
		for _, inner := range n.Stmts {
			g.lowerStmt(inner)
			if g.cur.Terminator() != nil {
				return
			}
		}
	case *ast.VarDeclStmt:
		g.lowerVarDecl(n.Decl)
	case *ast.ExpressionStmt:
		g.lowerExpr(n.Expr)
	case *ast.IfStmt:
		g.lowerIf(n)
	case *ast.WhileStmt:
		g.lowerWhile(n)
	case *ast.DoWhileStmt:
		g.lowerDoWhile(n)
	case *ast.ForStmt:
		g.lowerFor(n)
	case *ast.SwitchStmt, *ast.MatchStmt:
		g.lowerSwitchLike(n)
	case *ast.ReturnStmt:
		g.lowerReturn(n)
	case *ast.BreakStmt:
		g.lowerBreak()
	case *ast.ContinueStmt:
		g.lowerContinue()
	}
}

func (g *Generator) lowerVarDecl(decl *ast.VariableDecl) {
	var val il.Value
	if decl.Init != nil {
		val = g.lowerExpr(decl.Init)
	} else {
		val = il.ConstValue(il.Byte, 0)
	}
	reg := g.fn.NewReg(val.Type, decl.Name)
	g.emit(&il.Instruction{Opcode: il.OpConst, Result: &reg, Operands: []il.Value{val}})
	g.locals[decl.Name] = reg
}

func (g *Generator) lowerReturn(n *ast.ReturnStmt) {
	if n.Value != nil {
		val := g.lowerExpr(n.Value)
		g.emit(&il.Instruction{Opcode: il.OpReturn, Operands: []il.Value{val}})
	} else {
		g.emit(&il.Instruction{Opcode: il.OpReturnVoid})
	}
}

func (g *Generator) lowerBreak() {
	if len(g.loops) == 0 {
		return
	}
	top := g.loops[len(g.loops)-1]
	g.emit(&il.Instruction{Opcode: il.OpJump, Target: top.breakTarget.ID})
	g.fn.AddEdge(g.cur.ID, top.breakTarget.ID)
}

func (g *Generator) lowerContinue() {
	if len(g.loops) == 0 {
		return
	}
	top := g.loops[len(g.loops)-1]
	g.emit(&il.Instruction{Opcode: il.OpJump, Target: top.continueTarget.ID})
	g.fn.AddEdge(g.cur.ID, top.continueTarget.ID)
}

func (g *Generator) lowerIf(n *ast.IfStmt) {
	cond := g.lowerExpr(n.Cond)
	condBlock := g.cur
	outer := cloneLocals(g.locals)

	thenBlock := g.fn.NewBlock("if.then")
	var elseBlock *il.Block
	joinBlock := g.fn.NewBlock("if.join")

	if n.Else != nil {
		elseBlock = g.fn.NewBlock("if.else")
		g.emit(&il.Instruction{Opcode: il.OpBranch, ThenBlock: thenBlock.ID, ElseBlock: elseBlock.ID, Operands: []il.Value{cond}})
		g.fn.AddEdge(condBlock.ID, elseBlock.ID)
	} else {
		g.emit(&il.Instruction{Opcode: il.OpBranch, ThenBlock: thenBlock.ID, ElseBlock: joinBlock.ID, Operands: []il.Value{cond}})
		g.fn.AddEdge(condBlock.ID, joinBlock.ID)
	}
	g.fn.AddEdge(condBlock.ID, thenBlock.ID)

	g.switchTo(thenBlock)
	g.locals = cloneLocals(outer)
	g.lowerStmt(n.Then)
	thenReachable := g.cur.Terminator() == nil
	if thenReachable {
		g.emit(&il.Instruction{Opcode: il.OpJump, Target: joinBlock.ID})
		g.fn.AddEdge(g.cur.ID, joinBlock.ID)
	}
	thenBranch := branchResult{endBlock: g.cur, locals: g.locals, reachable: thenReachable}

	var elseBranch branchResult
	if n.Else != nil {
		g.switchTo(elseBlock)
		g.locals = cloneLocals(outer)
		g.lowerStmt(n.Else)
		elseReachable := g.cur.Terminator() == nil
		if elseReachable {
			g.emit(&il.Instruction{Opcode: il.OpJump, Target: joinBlock.ID})
			g.fn.AddEdge(g.cur.ID, joinBlock.ID)
		}
		elseBranch = branchResult{endBlock: g.cur, locals: g.locals, reachable: elseReachable}
	} else {
		elseBranch = branchResult{endBlock: condBlock, locals: outer, reachable: true}
	}

	g.switchTo(joinBlock)
	g.locals = g.mergeBranches(outer, []branchResult{thenBranch, elseBranch}, joinBlock)
}

func (g *Generator) lowerSwitchLike(n ast.Stmt) {
	cases, dflt, value, ok := ast.CaseValues(n)
	if !ok {
		return
	}
	val := g.lowerExpr(value)
	outer := cloneLocals(g.locals)
	joinBlock := g.fn.NewBlock("switch.join")

	var branches []branchResult
	condBlock := g.cur

	for _, c := range cases {
		caseVal := g.lowerExpr(c.Value)
		eqReg := g.fn.NewReg(il.Bool, "")
		g.emit(&il.Instruction{Opcode: il.OpCmpEq, Result: &eqReg, Operands: []il.Value{val, caseVal}})

		caseBlock := g.fn.NewBlock("switch.case")
		nextCheck := g.fn.NewBlock("switch.check")
		g.emit(&il.Instruction{Opcode: il.OpBranch, ThenBlock: caseBlock.ID, ElseBlock: nextCheck.ID, Operands: []il.Value{il.RegValue(eqReg)}})
		g.fn.AddEdge(g.cur.ID, caseBlock.ID)
		g.fn.AddEdge(g.cur.ID, nextCheck.ID)

		g.switchTo(caseBlock)
		g.locals = cloneLocals(outer)
		for _, s := range c.Body {
			g.lowerStmt(s)
		}
		reachable := g.cur.Terminator() == nil
		if reachable {
			g.emit(&il.Instruction{Opcode: il.OpJump, Target: joinBlock.ID})
			g.fn.AddEdge(g.cur.ID, joinBlock.ID)
		}
		branches = append(branches, branchResult{endBlock: g.cur, locals: g.locals, reachable: reachable})

		g.switchTo(nextCheck)
	}

	g.locals = cloneLocals(outer)
	if dflt != nil {
		for _, s := range dflt {
			g.lowerStmt(s)
		}
		reachable := g.cur.Terminator() == nil
		if reachable {
			g.emit(&il.Instruction{Opcode: il.OpJump, Target: joinBlock.ID})
			g.fn.AddEdge(g.cur.ID, joinBlock.ID)
		}
		branches = append(branches, branchResult{endBlock: g.cur, locals: g.locals, reachable: reachable})
	} else {
		g.emit(&il.Instruction{Opcode: il.OpJump, Target: joinBlock.ID})
		g.fn.AddEdge(g.cur.ID, joinBlock.ID)
		branches = append(branches, branchResult{endBlock: g.cur, locals: outer, reachable: true})
	}
	_ = condBlock

	g.switchTo(joinBlock)
	g.locals = g.mergeBranches(outer, branches, joinBlock)
}

// assignedNames collects every identifier directly assigned (via `x = ...`
// or as a `for` loop's counter) anywhere within n, used to decide which
// outer variables need a placeholder PHI at a loop header (spec §4.8).
func assignedNames(n ast.Node) map[string]bool {
	out := make(map[string]bool)
	ast.Inspect(n, func(node ast.Node) bool {
		switch v := node.(type) {
		case *ast.AssignmentExpr:
			if id, ok := v.Target.(*ast.IdentifierExpr); ok {
				out[id.Name] = true
			}
		case *ast.ForStmt:
			out[v.Counter] = true
		}
		return true
	})
	return out
}

// openLoopHeader pre-declares a placeholder PHI in header for every outer
// variable the loop body reassigns, wires the entry edge from pred using
// its current register, and rebinds locals to the PHI registers so the
// header condition and the body both read the merged value.
func (g *Generator) openLoopHeader(header *il.Block, pred *il.Block, body ast.Node) map[string]*il.Instruction {
	candidates := assignedNames(body)
	phis := make(map[string]*il.Instruction)
	for name := range candidates {
		reg, ok := g.locals[name]
		if !ok {
			continue
		}
		phiReg := g.fn.NewReg(reg.Type, name)
		phi := &il.Instruction{Opcode: il.OpPhi, Result: &phiReg, PhiEdges: []il.PhiEdge{
			{Pred: pred.ID, Value: il.RegValue(reg)},
		}}
		g.fn.Emit(header, phi)
		phis[name] = phi
		g.locals[name] = phiReg
	}
	return phis
}

// closeLoopHeader backfills each header PHI's second edge with the
// register the loop body computed for that variable, once known.
func (g *Generator) closeLoopHeader(phis map[string]*il.Instruction, latch *il.Block) {
	for name, phi := range phis {
		reg, ok := g.locals[name]
		if !ok {
			continue
		}
		phi.PhiEdges = append(phi.PhiEdges, il.PhiEdge{Pred: latch.ID, Value: il.RegValue(reg)})
	}
}

func (g *Generator) lowerWhile(n *ast.WhileStmt) {
	pred := g.cur
	header := g.fn.NewBlock("while.header")
	g.emit(&il.Instruction{Opcode: il.OpJump, Target: header.ID})
	g.fn.AddEdge(pred.ID, header.ID)

	g.switchTo(header)
	phis := g.openLoopHeader(header, pred, n.Body)

	cond := g.lowerExpr(n.Cond)
	body := g.fn.NewBlock("while.body")
	exit := g.fn.NewBlock("while.exit")
	g.emit(&il.Instruction{Opcode: il.OpBranch, ThenBlock: body.ID, ElseBlock: exit.ID, Operands: []il.Value{cond}})
	g.fn.AddEdge(header.ID, body.ID)
	g.fn.AddEdge(header.ID, exit.ID)

	g.loops = append(g.loops, loopFrame{continueTarget: header, breakTarget: exit, headerPhis: phis})
	g.switchTo(body)
	g.lowerStmt(n.Body)
	if g.cur.Terminator() == nil {
		g.emit(&il.Instruction{Opcode: il.OpJump, Target: header.ID})
		g.fn.AddEdge(g.cur.ID, header.ID)
		g.closeLoopHeader(phis, g.cur)
	}
	g.loops = g.loops[:len(g.loops)-1]

	g.switchTo(exit)
}

func (g *Generator) lowerDoWhile(n *ast.DoWhileStmt) {
	pred := g.cur
	body := g.fn.NewBlock("dowhile.body")
	g.emit(&il.Instruction{Opcode: il.OpJump, Target: body.ID})
	g.fn.AddEdge(pred.ID, body.ID)

	g.switchTo(body)
	phis := g.openLoopHeader(body, pred, n.Body)

	latch := g.fn.NewBlock("dowhile.latch")
	exit := g.fn.NewBlock("dowhile.exit")

	g.loops = append(g.loops, loopFrame{continueTarget: latch, breakTarget: exit, headerPhis: phis})
	g.lowerStmt(n.Body)
	if g.cur.Terminator() == nil {
		g.emit(&il.Instruction{Opcode: il.OpJump, Target: latch.ID})
		g.fn.AddEdge(g.cur.ID, latch.ID)
	}
	g.loops = g.loops[:len(g.loops)-1]

	g.switchTo(latch)
	cond := g.lowerExpr(n.Cond)
	g.emit(&il.Instruction{Opcode: il.OpBranch, ThenBlock: body.ID, ElseBlock: exit.ID, Operands: []il.Value{cond}})
	g.fn.AddEdge(latch.ID, body.ID)
	g.fn.AddEdge(latch.ID, exit.ID)
	g.closeLoopHeader(phis, latch)

	g.switchTo(exit)
}

// lowerFor lowers to a while loop with an initialization prefix and an
// increment suffix in the body, per spec §4.8.
func (g *Generator) lowerFor(n *ast.ForStmt) {
	var start il.Value
	if n.Start != nil {
		start = g.lowerExpr(n.Start)
	} else {
		start = il.ConstValue(il.Byte, 0)
	}
	counterReg := g.fn.NewReg(start.Type, n.Counter)
	g.emit(&il.Instruction{Opcode: il.OpConst, Result: &counterReg, Operands: []il.Value{start}})
	g.locals[n.Counter] = counterReg

	pred := g.cur
	header := g.fn.NewBlock("for.header")
	g.emit(&il.Instruction{Opcode: il.OpJump, Target: header.ID})
	g.fn.AddEdge(pred.ID, header.ID)

	g.switchTo(header)
	phis := g.openLoopHeader(header, pred, n)

	end := g.lowerExpr(n.End)
	counterVal := il.RegValue(g.locals[n.Counter])
	cmpReg := g.fn.NewReg(il.Bool, "")
	g.emit(&il.Instruction{Opcode: il.OpCmpLt, Result: &cmpReg, Operands: []il.Value{counterVal, end}})

	body := g.fn.NewBlock("for.body")
	exit := g.fn.NewBlock("for.exit")
	g.emit(&il.Instruction{Opcode: il.OpBranch, ThenBlock: body.ID, ElseBlock: exit.ID, Operands: []il.Value{il.RegValue(cmpReg)}})
	g.fn.AddEdge(header.ID, body.ID)
	g.fn.AddEdge(header.ID, exit.ID)

	latch := g.fn.NewBlock("for.latch")
	g.loops = append(g.loops, loopFrame{continueTarget: latch, breakTarget: exit, headerPhis: phis})
	g.switchTo(body)
	g.lowerStmt(n.Body)
	if g.cur.Terminator() == nil {
		g.emit(&il.Instruction{Opcode: il.OpJump, Target: latch.ID})
		g.fn.AddEdge(g.cur.ID, latch.ID)
	}
	g.loops = g.loops[:len(g.loops)-1]

	g.switchTo(latch)
	var step il.Value
	if n.Step != nil {
		step = g.lowerExpr(n.Step)
	} else {
		step = il.ConstValue(start.Type, 1)
	}
	nextReg := g.fn.NewReg(start.Type, n.Counter)
	g.emit(&il.Instruction{Opcode: il.OpAdd, Result: &nextReg, Operands: []il.Value{il.RegValue(g.locals[n.Counter]), step}})
	g.locals[n.Counter] = nextReg
	g.emit(&il.Instruction{Opcode: il.OpJump, Target: header.ID})
	g.fn.AddEdge(latch.ID, header.ID)
	g.closeLoopHeader(phis, latch)

	g.switchTo(exit)
}
