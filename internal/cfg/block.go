// Package cfg builds per-function control-flow graphs directly from the
// AST (spec §4.6) and analyzes them: dominator trees, natural loops,
// loop-invariant instructions, and basic/derived induction variables. It
// runs ahead of SSA IL construction, as an informational pass (spec §2:
// "LoopAnalyzer (informational)") that never blocks compilation. The
// pipeline keeps only per-function loop and induction-variable counts;
// neither the IL generator nor the code generator reads these results.
package cfg

import "github.com/blendsdk/blend65/internal/ast"

// BlockID identifies a basic block within a single function's CFG.
type BlockID int

// TermKind is the shape of a basic block's single terminator.
type TermKind int

const (
	TermFallthrough TermKind = iota // falls into Succs[0]
	TermBranch                     // conditional: Succs[0]=then, Succs[1]=else
	TermReturn
	TermUnreachable
)

// Terminator ends every BasicBlock; every block has exactly one (spec
// §3, CFG invariant).
type Terminator struct {
	Kind     TermKind
	CondVar  string // for TermBranch: the variable or temp holding the condition
	Loc      ast.Span
}

// AssignShape classifies the right-hand side of a simple assignment so
// induction-variable recognition (spec §4.6 steps 4-5) can pattern-match
// it without re-walking the AST.
type AssignShape struct {
	// Op is "" for a bare copy (j = i), or one of "+", "-", "*".
	Op string

	LeftVar      string
	LeftIsConst  bool
	LeftConst    int64

	RightVar     string
	RightIsConst bool
	RightConst   int64
}

// InstrKind distinguishes the handful of shapes loop analysis cares
// about; every other expression statement is InstrOther.
type InstrKind int

const (
	InstrAssign InstrKind = iota // Result := simple variable/constant expression
	InstrCall                   // a call expression, possibly assigned
	InstrVolatile                // a volatile memory read or write
	InstrOther
)

// Instruction is a simplified, flow-analysis-only view of one statement's
// effect: what it defines (Result) and what it reads (Uses). It is NOT
// the SSA IL (see internal/il) — this model exists purely to let
// dominance and loop analysis run ahead of IL generation, the way the
// spec's pipeline requires (LoopAnalyzer precedes ILGenerator).
type Instruction struct {
	ID     int
	Kind   InstrKind
	Result string // defined variable name, "" if none
	Uses   []string
	Shape  *AssignShape // non-nil when Kind == InstrAssign and the RHS matched a recognizable shape
	Loc    ast.Span
}

// BasicBlock is a maximal straight-line sequence of instructions ending
// in exactly one terminator.
type BasicBlock struct {
	ID           BlockID
	Label        string
	Instructions []*Instruction
	Term         Terminator
	Preds        []BlockID
	Succs        []BlockID
}

// Function is one function's CFG: its blocks, entry, and parameter
// names (parameters are treated as defined before the entry block for
// def-use purposes).
type Function struct {
	Name       string
	Entry      BlockID
	Blocks     map[BlockID]*BasicBlock
	Params     []string
	blockOrder []BlockID // insertion order, for deterministic iteration
}

func newFunction(name string) *Function {
	return &Function{Name: name, Blocks: make(map[BlockID]*BasicBlock)}
}

func (f *Function) newBlock(label string) *BasicBlock {
	id := BlockID(len(f.blockOrder))
	b := &BasicBlock{ID: id, Label: label}
	f.Blocks[id] = b
	f.blockOrder = append(f.blockOrder, id)
	return b
}

// BlockOrder returns block IDs in creation order, which is also a valid
// reverse-postorder seed for the entry-first traversal dominance
// analysis requires.
func (f *Function) BlockOrder() []BlockID {
	out := make([]BlockID, len(f.blockOrder))
	copy(out, f.blockOrder)
	return out
}

func (f *Function) addEdge(from, to BlockID) {
	fb, tb := f.Blocks[from], f.Blocks[to]
	fb.Succs = append(fb.Succs, to)
	tb.Preds = append(tb.Preds, from)
}
