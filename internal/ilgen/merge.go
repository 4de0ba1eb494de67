package ilgen

import "github.com/blendsdk/blend65/internal/il"

// branchResult captures the exit state of one branch of a structured
// control-flow construct (an if-arm or a switch/match case), so the join
// point can decide, per variable, whether every reachable branch agrees
// on the same register (no PHI needed) or a PHI must merge them.
type branchResult struct {
	endBlock  *il.Block
	locals    map[string]il.Reg
	reachable bool
}

func cloneLocals(m map[string]il.Reg) map[string]il.Reg {
	out := make(map[string]il.Reg, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// mergeBranches joins the locals maps of every reachable branch into
// join, inserting a PHI for any variable whose register differs across
// branches. join must be empty of instructions so PHI nodes can be
// emitted first (spec §4.7: "PHI instructions precede all other
// instructions in their block").
func (g *Generator) mergeBranches(outer map[string]il.Reg, branches []branchResult, join *il.Block) map[string]il.Reg {
	result := cloneLocals(outer)

	for name := range outer {
		var edges []il.PhiEdge
		var first il.Reg
		firstSet := false
		allSame := true

		for _, br := range branches {
			if !br.reachable {
				continue
			}
			reg := br.locals[name]
			edges = append(edges, il.PhiEdge{Pred: br.endBlock.ID, Value: il.RegValue(reg)})
			if !firstSet {
				first = reg
				firstSet = true
			} else if reg.ID != first.ID {
				allSame = false
			}
		}

		if !firstSet {
			continue // no reachable branch: join is unreachable on this path
		}
		if allSame {
			result[name] = first
			continue
		}

		phiReg := g.fn.NewReg(first.Type, name)
		g.fn.Emit(join, &il.Instruction{Opcode: il.OpPhi, Result: &phiReg, PhiEdges: edges})
		result[name] = phiReg
	}

	return result
}
