package hir

// RewriteAction is the result a BlockRewriter callback returns for a block:
// keep it untouched, or replace it with a different terminal/instruction
// set. A callback may reserve new blocks through fn.ReserveBlock before
// returning the action; Run does not walk those blocks (see Run).
type RewriteAction int

const (
	RewriteKeep RewriteAction = iota
	RewriteReplaced
)

// BlockRewriter walks fn's blocks in RPO order, per spec 4.H, for
// block-by-block mutation. SSA construction and the useMemo inliner walk
// blocks on their own and do not use it.
type BlockRewriter struct {
	fn *Function
	// Visit is called once per block, in RPO order. It may mutate block's
	// instructions/phis/terminal in place and must return the action that
	// occurred; Run reports whether any block was replaced, and re-running
	// Initialize afterward is left to the caller.
	Visit func(block *BasicBlock) RewriteAction
}

// NewBlockRewriter constructs a rewriter over fn. fn.Order must be current
// (run Initialize first).
func NewBlockRewriter(fn *Function, visit func(block *BasicBlock) RewriteAction) *BlockRewriter {
	return &BlockRewriter{fn: fn, Visit: visit}
}

// Run walks every block fn.Order names at the time Run is called, in order.
// Because Visit may reserve new blocks via fn.ReserveBlock, Run snapshots
// fn.Order up front — newly added blocks are picked up on the caller's next
// Initialize + Run cycle, matching spec 4.H's "mid-iteration block addition
// is visible on the next pass, not retroactively mid-walk" contract.
func (r *BlockRewriter) Run() (changed bool) {
	order := append([]int(nil), r.fn.Order...)
	for _, id := range order {
		block, ok := r.fn.Blocks[id]
		if !ok {
			continue // pruned by a prior step in this same pass
		}
		if r.Visit(block) == RewriteReplaced {
			changed = true
		}
	}
	return changed
}
