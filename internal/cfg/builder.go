package cfg

import "github.com/blendsdk/blend65/internal/ast"

// loopCtx tracks the break/continue targets for the innermost enclosing
// loop, mirroring the loop-context stack the IL generator also needs
// (spec §4.8) but kept local to CFG construction here.
type loopCtx struct {
	continueTarget BlockID
	breakTarget    BlockID
}

type builder struct {
	fn      *Function
	cur     *BasicBlock
	nextID  int
	loops   []loopCtx
	unreach bool // true once the current block is known to never fall through
}

// Build constructs the CFG for one function body (spec §4.6, CFG).
func Build(decl *ast.FunctionDecl) *Function {
	fn := newFunction(decl.Name)
	for _, p := range decl.Params {
		fn.Params = append(fn.Params, p.Name)
	}
	b := &builder{fn: fn}
	entry := fn.newBlock("entry")
	fn.Entry = entry.ID
	b.cur = entry

	if decl.Body != nil {
		b.stmt(decl.Body)
	}
	if !b.unreach {
		b.cur.Term = Terminator{Kind: TermReturn}
	}
	return fn
}

func (b *builder) emit(instr *Instruction) {
	instr.ID = b.nextID
	b.nextID++
	b.cur.Instructions = append(b.cur.Instructions, instr)
}

func (b *builder) startBlock(label string) *BasicBlock {
	return b.fn.newBlock(label)
}

func (b *builder) setCur(blk *BasicBlock) {
	b.cur = blk
	b.unreach = false
}

func (b *builder) stmt(s ast.Stmt) {
	if b.unreach {
		return
	}
	switch n := s.(type) {
	case *ast.BlockStmt:
		for _, inner := range n.Stmts {
			b.stmt(inner)
			if b.unreach {
				return
			}
		}

	case *ast.VarDeclStmt:
		b.varDecl(n.Decl)

	case *ast.ExpressionStmt:
		b.expr(n.Expr)

	case *ast.IfStmt:
		b.ifStmt(n)

	case *ast.WhileStmt:
		b.whileStmt(n)

	case *ast.DoWhileStmt:
		b.doWhileStmt(n)

	case *ast.ForStmt:
		b.forStmt(n)

	case *ast.SwitchStmt, *ast.MatchStmt:
		b.switchLike(n)

	case *ast.ReturnStmt:
		if n.Value != nil {
			b.expr(n.Value)
		}
		b.cur.Term = Terminator{Kind: TermReturn, Loc: n.Span()}
		b.unreach = true

	case *ast.BreakStmt:
		if len(b.loops) > 0 {
			target := b.loops[len(b.loops)-1].breakTarget
			b.cur.Term = Terminator{Kind: TermFallthrough, Loc: n.Span()}
			b.fn.addEdge(b.cur.ID, target)
		}
		b.unreach = true

	case *ast.ContinueStmt:
		if len(b.loops) > 0 {
			target := b.loops[len(b.loops)-1].continueTarget
			b.cur.Term = Terminator{Kind: TermFallthrough, Loc: n.Span()}
			b.fn.addEdge(b.cur.ID, target)
		}
		b.unreach = true
	}
}

func (b *builder) varDecl(decl *ast.VariableDecl) {
	instr := &Instruction{Kind: InstrAssign, Result: decl.Name, Loc: decl.Span()}
	if decl.Init != nil {
		instr.Uses = collectUses(decl.Init)
		instr.Shape = assignShapeOf(decl.Init)
	}
	b.emit(instr)
}

func (b *builder) expr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.AssignmentExpr:
		target, ok := n.Target.(*ast.IdentifierExpr)
		instr := &Instruction{Kind: InstrAssign, Uses: collectUses(n.Value), Loc: n.Span()}
		if ok {
			instr.Result = target.Name
			instr.Shape = assignShapeOf(n.Value)
		} else {
			// Non-identifier lvalue (index/member): treated as a volatile
			// write, per spec's memory model for @map/array stores.
			instr.Kind = InstrVolatile
			instr.Uses = append(instr.Uses, collectUses(n.Target)...)
		}
		b.emit(instr)
	case *ast.CallExpr:
		instr := &Instruction{Kind: InstrCall, Uses: collectUses(n), Loc: n.Span()}
		b.emit(instr)
	default:
		instr := &Instruction{Kind: InstrOther, Uses: collectUses(n), Loc: e.Span()}
		b.emit(instr)
	}
}

func (b *builder) ifStmt(n *ast.IfStmt) {
	b.emit(&Instruction{Kind: InstrOther, Uses: collectUses(n.Cond), Loc: n.Span()})
	condBlock := b.cur

	thenBlock := b.startBlock("if.then")
	b.fn.addEdge(condBlock.ID, thenBlock.ID)
	b.setCur(thenBlock)
	b.stmt(n.Then)
	thenEnd, thenUnreach := b.cur, b.unreach

	var elseBlock *BasicBlock
	var elseEnd *BasicBlock
	elseUnreach := false
	if n.Else != nil {
		elseBlock = b.startBlock("if.else")
		b.fn.addEdge(condBlock.ID, elseBlock.ID)
		b.setCur(elseBlock)
		b.stmt(n.Else)
		elseEnd, elseUnreach = b.cur, b.unreach
	}

	condBlock.Term = Terminator{Kind: TermBranch, Loc: n.Span()}

	join := b.startBlock("if.join")
	if !thenUnreach {
		thenEnd.Term = Terminator{Kind: TermFallthrough}
		b.fn.addEdge(thenEnd.ID, join.ID)
	}
	if n.Else != nil {
		if !elseUnreach {
			elseEnd.Term = Terminator{Kind: TermFallthrough}
			b.fn.addEdge(elseEnd.ID, join.ID)
		}
	} else {
		b.fn.addEdge(condBlock.ID, join.ID)
	}
	b.setCur(join)
}

func (b *builder) whileStmt(n *ast.WhileStmt) {
	header := b.startBlock("while.header")
	b.cur.Term = Terminator{Kind: TermFallthrough}
	b.fn.addEdge(b.cur.ID, header.ID)
	b.setCur(header)
	b.emit(&Instruction{Kind: InstrOther, Uses: collectUses(n.Cond), Loc: n.Span()})

	body := b.startBlock("while.body")
	exit := b.startBlock("while.exit")
	header.Term = Terminator{Kind: TermBranch, Loc: n.Span()}
	b.fn.addEdge(header.ID, body.ID)
	b.fn.addEdge(header.ID, exit.ID)

	b.loops = append(b.loops, loopCtx{continueTarget: header.ID, breakTarget: exit.ID})
	b.setCur(body)
	b.stmt(n.Body)
	if !b.unreach {
		b.cur.Term = Terminator{Kind: TermFallthrough}
		b.fn.addEdge(b.cur.ID, header.ID)
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.setCur(exit)
}

func (b *builder) doWhileStmt(n *ast.DoWhileStmt) {
	body := b.startBlock("dowhile.body")
	b.cur.Term = Terminator{Kind: TermFallthrough}
	b.fn.addEdge(b.cur.ID, body.ID)

	latch := b.startBlock("dowhile.latch")
	exit := b.startBlock("dowhile.exit")

	b.loops = append(b.loops, loopCtx{continueTarget: latch.ID, breakTarget: exit.ID})
	b.setCur(body)
	b.stmt(n.Body)
	if !b.unreach {
		b.cur.Term = Terminator{Kind: TermFallthrough}
		b.fn.addEdge(b.cur.ID, latch.ID)
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.setCur(latch)
	b.emit(&Instruction{Kind: InstrOther, Uses: collectUses(n.Cond), Loc: n.Span()})
	latch.Term = Terminator{Kind: TermBranch, Loc: n.Span()}
	b.fn.addEdge(latch.ID, body.ID)
	b.fn.addEdge(latch.ID, exit.ID)

	b.setCur(exit)
}

func (b *builder) forStmt(n *ast.ForStmt) {
	initUses := []string{}
	if n.Start != nil {
		initUses = collectUses(n.Start)
	}
	b.emit(&Instruction{Kind: InstrAssign, Result: n.Counter, Uses: initUses, Loc: n.Span()})

	header := b.startBlock("for.header")
	b.cur.Term = Terminator{Kind: TermFallthrough}
	b.fn.addEdge(b.cur.ID, header.ID)
	b.setCur(header)
	b.emit(&Instruction{Kind: InstrOther, Uses: append([]string{n.Counter}, collectUses(n.End)...), Loc: n.Span()})

	body := b.startBlock("for.body")
	latch := b.startBlock("for.latch")
	exit := b.startBlock("for.exit")
	header.Term = Terminator{Kind: TermBranch, Loc: n.Span()}
	b.fn.addEdge(header.ID, body.ID)
	b.fn.addEdge(header.ID, exit.ID)

	b.loops = append(b.loops, loopCtx{continueTarget: latch.ID, breakTarget: exit.ID})
	b.setCur(body)
	b.stmt(n.Body)
	if !b.unreach {
		b.cur.Term = Terminator{Kind: TermFallthrough}
		b.fn.addEdge(b.cur.ID, latch.ID)
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.setCur(latch)
	stepShape := &AssignShape{Op: "+", LeftVar: n.Counter, RightIsConst: true, RightConst: 1}
	if n.Step != nil {
		stepShape = assignShapeOf(n.Step)
		if stepShape == nil {
			stepShape = &AssignShape{Op: "+", LeftVar: n.Counter}
		}
	}
	b.emit(&Instruction{Kind: InstrAssign, Result: n.Counter, Uses: []string{n.Counter}, Shape: stepShape, Loc: n.Span()})
	latch.Term = Terminator{Kind: TermFallthrough}
	b.fn.addEdge(latch.ID, header.ID)

	b.setCur(exit)
}

func (b *builder) switchLike(n ast.Stmt) {
	cases, dflt, value, ok := ast.CaseValues(n)
	if !ok {
		return
	}
	b.emit(&Instruction{Kind: InstrOther, Uses: collectUses(value), Loc: n.Span()})
	condBlock := b.cur
	condBlock.Term = Terminator{Kind: TermBranch, Loc: n.Span()}

	join := b.startBlock("switch.join")
	for i, c := range cases {
		caseBlock := b.startBlock("switch.case")
		b.fn.addEdge(condBlock.ID, caseBlock.ID)
		b.setCur(caseBlock)
		for _, s := range c.Body {
			b.stmt(s)
		}
		if !b.unreach {
			b.cur.Term = Terminator{Kind: TermFallthrough}
			b.fn.addEdge(b.cur.ID, join.ID)
		}
		_ = i
	}
	if dflt != nil {
		defBlock := b.startBlock("switch.default")
		b.fn.addEdge(condBlock.ID, defBlock.ID)
		b.setCur(defBlock)
		for _, s := range dflt {
			b.stmt(s)
		}
		if !b.unreach {
			b.cur.Term = Terminator{Kind: TermFallthrough}
			b.fn.addEdge(b.cur.ID, join.ID)
		}
	} else {
		b.fn.addEdge(condBlock.ID, join.ID)
	}
	b.setCur(join)
}

// collectUses flattens every identifier referenced by e, in left-to-right
// order, duplicates included (callers that need a set can dedupe).
func collectUses(e ast.Expr) []string {
	if e == nil {
		return nil
	}
	var out []string
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		switch n := e.(type) {
		case *ast.IdentifierExpr:
			out = append(out, n.Name)
		case *ast.LiteralExpr:
		case *ast.BinaryExpr:
			walk(n.Left)
			walk(n.Right)
		case *ast.UnaryExpr:
			walk(n.Operand)
		case *ast.CallExpr:
			walk(n.Callee)
			for _, a := range n.Args {
				walk(a)
			}
		case *ast.MemberExpr:
			walk(n.Base)
		case *ast.IndexExpr:
			walk(n.Base)
			walk(n.Index)
		case *ast.ArrayLiteralExpr:
			for _, el := range n.Elements {
				walk(el)
			}
		case *ast.TernaryExpr:
			walk(n.Cond)
			walk(n.Then)
			walk(n.Else)
		case *ast.AssignmentExpr:
			walk(n.Target)
			walk(n.Value)
		}
	}
	walk(e)
	return out
}

// assignShapeOf pattern-matches e against the shapes spec §4.6 steps 4-5
// need for induction-variable recognition: a bare identifier, a bare
// constant, or a single binary op between a variable and a constant (in
// either order).
func assignShapeOf(e ast.Expr) *AssignShape {
	switch n := e.(type) {
	case *ast.IdentifierExpr:
		return &AssignShape{LeftVar: n.Name}
	case *ast.LiteralExpr:
		if n.Kind == ast.LitInt {
			return &AssignShape{LeftIsConst: true, LeftConst: n.Int}
		}
		return nil
	case *ast.BinaryExpr:
		op := binOpSymbol(n.Op)
		if op == "" {
			return nil
		}
		shape := &AssignShape{Op: op}
		if id, ok := n.Left.(*ast.IdentifierExpr); ok {
			shape.LeftVar = id.Name
		} else if lit, ok := n.Left.(*ast.LiteralExpr); ok && lit.Kind == ast.LitInt {
			shape.LeftIsConst = true
			shape.LeftConst = lit.Int
		} else {
			return nil
		}
		if id, ok := n.Right.(*ast.IdentifierExpr); ok {
			shape.RightVar = id.Name
		} else if lit, ok := n.Right.(*ast.LiteralExpr); ok && lit.Kind == ast.LitInt {
			shape.RightIsConst = true
			shape.RightConst = lit.Int
		} else {
			return nil
		}
		return shape
	default:
		return nil
	}
}

func binOpSymbol(op ast.BinaryOp) string {
	switch op {
	case ast.OpAdd:
		return "+"
	case ast.OpSub:
		return "-"
	case ast.OpMul:
		return "*"
	default:
		return ""
	}
}
