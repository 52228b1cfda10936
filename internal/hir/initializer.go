package hir

// Initialize recomputes predecessor sets from scratch, prunes blocks no
// longer reachable from Entry, and assigns a deterministic reverse-
// postorder traversal to fn.Order (spec 4.F). It is idempotent: running it
// twice in a row on an unchanged function produces the same Order and the
// same block set.
func Initialize(fn *Function) {
	reachable := map[int]bool{}
	var postorder []int
	visited := map[int]bool{}

	var visit func(id int)
	visit = func(id int) {
		if visited[id] {
			return
		}
		visited[id] = true
		reachable[id] = true
		block := fn.Blocks[id]
		EachTerminalSuccessor(block.Terminal.Value, func(succ int) {
			visit(succ)
		})
		postorder = append(postorder, id)
	}
	visit(fn.Entry)

	for id := range fn.Blocks {
		if !reachable[id] {
			delete(fn.Blocks, id)
		}
	}
	for _, b := range fn.Blocks {
		b.Predecessors = make(map[int]bool)
	}
	for _, id := range postorder {
		block := fn.Blocks[id]
		EachTerminalSuccessor(block.Terminal.Value, func(succ int) {
			if s, ok := fn.Blocks[succ]; ok {
				s.addPredecessor(id)
			}
		})
	}

	order := make([]int, len(postorder))
	for i, id := range postorder {
		order[len(postorder)-1-i] = id
	}
	fn.Order = order

	// Pruned phis referencing a now-unreachable predecessor are cleaned up by
	// the constant-propagation pass's phi-pruning step, not here: Initialize
	// only recomputes reachability/ordering, matching the upstream pass split
	// ("re-initialize ... then prune phi operands" in 4.J).
}
