package cfg

// DomTree is a per-function immediate-dominator mapping, computed to
// fixpoint by the iterative Cooper-Harvey-Kennedy algorithm (spec §3,
// Dominator tree; §4.6 step 1).
type DomTree struct {
	Idom map[BlockID]BlockID
	rpo  []BlockID
	rpoIndex map[BlockID]int
}

// ComputeDominators computes the dominator tree of f.
func ComputeDominators(f *Function) *DomTree {
	rpo := reversePostorder(f)
	rpoIndex := make(map[BlockID]int, len(rpo))
	for i, id := range rpo {
		rpoIndex[id] = i
	}

	idom := make(map[BlockID]BlockID)
	idom[f.Entry] = f.Entry

	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == f.Entry {
				continue
			}
			var newIdom BlockID
			found := false
			for _, p := range f.Blocks[b].Preds {
				if _, ok := idom[p]; !ok {
					continue
				}
				if !found {
					newIdom = p
					found = true
					continue
				}
				newIdom = intersect(newIdom, p, idom, rpoIndex)
			}
			if !found {
				continue
			}
			if prev, ok := idom[b]; !ok || prev != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}

	return &DomTree{Idom: idom, rpo: rpo, rpoIndex: rpoIndex}
}

func intersect(a, b BlockID, idom map[BlockID]BlockID, rpoIndex map[BlockID]int) BlockID {
	for a != b {
		for rpoIndex[a] > rpoIndex[b] {
			a = idom[a]
		}
		for rpoIndex[b] > rpoIndex[a] {
			b = idom[b]
		}
	}
	return a
}

// Dominates reports whether a dominates b (reflexively: a dominates a).
func (d *DomTree) Dominates(a, b BlockID) bool {
	if a == b {
		return true
	}
	cur := b
	for {
		parent, ok := d.Idom[cur]
		if !ok {
			return false
		}
		if parent == cur {
			return false // reached entry without finding a
		}
		if parent == a {
			return true
		}
		cur = parent
	}
}

// reversePostorder computes a DFS postorder over successors starting at
// f.Entry, then reverses it, giving the traversal order the dominance
// fixpoint iteration needs to converge quickly (spec §4.6 step 1: "iterate
// in reverse-post-order until fixpoint").
func reversePostorder(f *Function) []BlockID {
	visited := make(map[BlockID]bool)
	var post []BlockID

	var dfs func(BlockID)
	dfs = func(b BlockID) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range f.Blocks[b].Succs {
			dfs(s)
		}
		post = append(post, b)
	}
	dfs(f.Entry)

	rpo := make([]BlockID, len(post))
	for i, b := range post {
		rpo[len(post)-1-i] = b
	}
	return rpo
}
