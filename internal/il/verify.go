package il

import "fmt"

// Verify checks the SSA and block-shape invariants spec §4.7 and §8
// (properties 4-5) require, returning every violation found rather than
// stopping at the first. A non-empty result indicates a compiler bug in
// the IL generator, not a user-facing diagnostic (spec §7: "Panics are
// reserved for internal invariant violations").
func Verify(fn *Function) []error {
	var errs []error
	defCount := make(map[RegID]int)

	for _, b := range fn.Blocks {
		for i, instr := range b.Instructions {
			isLast := i == len(b.Instructions)-1
			if instr.IsTerminator() && !isLast {
				errs = append(errs, fmt.Errorf("function %s: block %s has a terminator before its final instruction", fn.Name, b.Label))
			}
			if instr.Opcode == OpPhi {
				for j := 0; j < i; j++ {
					if b.Instructions[j].Opcode != OpPhi {
						errs = append(errs, fmt.Errorf("function %s: block %s has a PHI after a non-PHI instruction", fn.Name, b.Label))
						break
					}
				}
			}
			if instr.Result != nil {
				defCount[instr.Result.ID]++
			}
		}
		if term := b.Terminator(); term == nil {
			errs = append(errs, fmt.Errorf("function %s: block %s has no terminator", fn.Name, b.Label))
		}
	}

	for id, n := range defCount {
		if n > 1 {
			errs = append(errs, fmt.Errorf("function %s: register %%r%d defined %d times, SSA requires exactly one", fn.Name, id, n))
		}
	}

	return errs
}
