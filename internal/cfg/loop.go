package cfg

// BasicIV is a basic induction variable: one whose only in-loop update is
// `i <- i + c`, `i <- c + i`, or `i <- i - c` for a loop-invariant
// constant c (spec §4.6 step 4).
type BasicIV struct {
	HasConstInitial bool
	Initial         int64
	Stride          int64
}

// DerivedIV is a variable defined once per iteration as a linear function
// of a basic IV (spec §4.6 step 5).
type DerivedIV struct {
	Base   string
	Stride int64
	Offset int64
}

// Loop is one natural loop (spec §3, Loop).
type Loop struct {
	Header           BlockID
	BackEdgeSources  []BlockID
	Body             map[BlockID]bool
	Preheader        *BlockID
	BasicIVs         map[string]BasicIV
	DerivedIVs       map[string]DerivedIV
	Invariants       map[*Instruction]bool
}

// FindNaturalLoops finds every natural loop in f using the dominator tree
// dt: a back edge is any CFG edge t -> h where h dominates t (spec §4.6
// step 2). Loops sharing a header (multiple back edges into the same
// loop) are merged into a single Loop with a unioned body.
func FindNaturalLoops(f *Function, dt *DomTree) []*Loop {
	byHeader := make(map[BlockID]*Loop)
	var order []BlockID

	for _, id := range f.BlockOrder() {
		blk := f.Blocks[id]
		for _, s := range blk.Succs {
			if dt.Dominates(s, id) {
				l, ok := byHeader[s]
				if !ok {
					l = &Loop{Header: s, Body: map[BlockID]bool{s: true}}
					byHeader[s] = l
					order = append(order, s)
				}
				l.BackEdgeSources = append(l.BackEdgeSources, id)
				growLoopBody(f, l, id)
			}
		}
	}

	loops := make([]*Loop, 0, len(order))
	for _, h := range order {
		l := byHeader[h]
		analyzeInvariants(f, l)
		analyzeInductionVars(f, l)
		loops = append(loops, l)
	}
	return loops
}

// growLoopBody expands l.Body to include every block that can reach the
// back-edge source without crossing the header, walking predecessors
// (spec §4.6 step 2: "reachable(t, without crossing h) against reverse
// graph").
func growLoopBody(f *Function, l *Loop, backEdgeSource BlockID) {
	stack := []BlockID{backEdgeSource}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if l.Body[n] {
			continue
		}
		l.Body[n] = true
		for _, p := range f.Blocks[n].Preds {
			stack = append(stack, p)
		}
	}
}

// defCounts returns, for every variable defined by an InstrAssign inside
// l.Body, the number of distinct defining instructions and the last one
// seen (used when the count is exactly one).
func defCounts(f *Function, l *Loop) (map[string]int, map[string]*Instruction) {
	counts := make(map[string]int)
	sites := make(map[string]*Instruction)
	for id := range l.Body {
		for _, instr := range f.Blocks[id].Instructions {
			if instr.Kind == InstrAssign && instr.Result != "" {
				counts[instr.Result]++
				sites[instr.Result] = instr
			}
		}
	}
	return counts, sites
}

func analyzeInvariants(f *Function, l *Loop) {
	counts, sites := defCounts(f, l)
	invariant := make(map[*Instruction]bool)

	operandInvariant := func(isConst bool, varName string) bool {
		if isConst {
			return true
		}
		switch counts[varName] {
		case 0:
			return true // defined outside the loop
		case 1:
			return invariant[sites[varName]]
		default:
			return false // more than one in-loop def: conservatively varying
		}
	}

	changed := true
	for changed {
		changed = false
		for id := range l.Body {
			for _, instr := range f.Blocks[id].Instructions {
				if instr.Kind != InstrAssign || instr.Shape == nil {
					continue
				}
				ok := operandInvariant(instr.Shape.LeftIsConst, instr.Shape.LeftVar) &&
					(instr.Shape.Op == "" && instr.Shape.RightVar == "" && !instr.Shape.RightIsConst ||
						operandInvariant(instr.Shape.RightIsConst, instr.Shape.RightVar))
				if invariant[instr] != ok {
					invariant[instr] = ok
					changed = true
				}
			}
		}
	}
	l.Invariants = invariant
}

func analyzeInductionVars(f *Function, l *Loop) {
	counts, sites := defCounts(f, l)
	basics := make(map[string]BasicIV)

	for name, n := range counts {
		if n != 1 {
			continue
		}
		instr := sites[name]
		if instr.Kind != InstrAssign || instr.Shape == nil {
			continue
		}
		sh := instr.Shape
		var stride int64
		switch {
		case sh.Op == "+" && sh.LeftVar == name && sh.RightIsConst:
			stride = sh.RightConst
		case sh.Op == "+" && sh.RightVar == name && sh.LeftIsConst:
			stride = sh.LeftConst
		case sh.Op == "-" && sh.LeftVar == name && sh.RightIsConst:
			stride = -sh.RightConst
		default:
			continue
		}
		iv := BasicIV{Stride: stride}
		if initial, ok := findInitialConst(f, l, name); ok {
			iv.HasConstInitial = true
			iv.Initial = initial
		}
		basics[name] = iv
	}
	l.BasicIVs = basics

	derived := make(map[string]DerivedIV)
	for name, n := range counts {
		if n != 1 {
			continue
		}
		if _, isBasic := basics[name]; isBasic {
			continue
		}
		instr := sites[name]
		if instr.Kind != InstrAssign || instr.Shape == nil {
			continue
		}
		sh := instr.Shape
		if sh.Op == "" && sh.LeftVar != "" {
			if _, ok := basics[sh.LeftVar]; ok {
				derived[name] = DerivedIV{Base: sh.LeftVar, Stride: 1, Offset: 0}
			}
			continue
		}
		switch sh.Op {
		case "*":
			if sh.LeftVar != "" && sh.RightIsConst {
				if _, ok := basics[sh.LeftVar]; ok {
					derived[name] = DerivedIV{Base: sh.LeftVar, Stride: sh.RightConst, Offset: 0}
				}
			} else if sh.RightVar != "" && sh.LeftIsConst {
				if _, ok := basics[sh.RightVar]; ok {
					derived[name] = DerivedIV{Base: sh.RightVar, Stride: sh.LeftConst, Offset: 0}
				}
			}
		case "+":
			if sh.LeftVar != "" && sh.RightIsConst {
				if _, ok := basics[sh.LeftVar]; ok {
					derived[name] = DerivedIV{Base: sh.LeftVar, Stride: 1, Offset: sh.RightConst}
				}
			} else if sh.RightVar != "" && sh.LeftIsConst {
				if _, ok := basics[sh.RightVar]; ok {
					derived[name] = DerivedIV{Base: sh.RightVar, Stride: 1, Offset: sh.LeftConst}
				}
			}
		case "-":
			if sh.LeftVar != "" && sh.RightIsConst {
				if _, ok := basics[sh.LeftVar]; ok {
					derived[name] = DerivedIV{Base: sh.LeftVar, Stride: 1, Offset: -sh.RightConst}
				}
			}
		}
	}
	l.DerivedIVs = derived
}

// findInitialConst looks for the constant initializing definition of name
// that reaches the loop header from outside the loop body, scanning
// blocks in creation order (which follows control-flow order for
// straight-line code leading into the loop, since the builder emits
// blocks in the order control flow constructs them).
func findInitialConst(f *Function, l *Loop, name string) (int64, bool) {
	var last *Instruction
	for _, id := range f.BlockOrder() {
		if l.Body[id] {
			continue
		}
		if id > l.Header {
			break
		}
		for _, instr := range f.Blocks[id].Instructions {
			if instr.Kind == InstrAssign && instr.Result == name {
				last = instr
			}
		}
	}
	if last == nil || last.Shape == nil || !last.Shape.LeftIsConst || last.Shape.Op != "" {
		return 0, false
	}
	return last.Shape.LeftConst, true
}
