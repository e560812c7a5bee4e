package comic

// Page turn resolution.
//
// Positions are 1-based at the API boundary and 0-based inside. A backward
// turn clamps at the first page. A forward turn clamps at the final page: in
// dual-page mode a turn that would run past the end is held on the final
// page rather than leaving the registry, and further forward turns from the
// final page stay there. The final page of an odd-length book is shown on
// its own after the last full spread, so the last page is always reachable.
// Physical left/right map onto forward/backward by reading direction, so the
// two resolvers are mirror images of each other.

// ResolveStepLeft returns the position a "left" page turn lands on, or 0 for
// an empty book.
func ResolveStepLeft(count, position int, dir Direction, spread SpreadMode) int {
	if dir == RightToLeft {
		return resolveForward(count, position, spread)
	}
	return resolveBackward(count, position, spread)
}

// ResolveStepRight returns the position a "right" page turn lands on, or 0
// for an empty book.
func ResolveStepRight(count, position int, dir Direction, spread SpreadMode) int {
	if dir == RightToLeft {
		return resolveBackward(count, position, spread)
	}
	return resolveForward(count, position, spread)
}

func resolveForward(count, position int, spread SpreadMode) int {
	if count <= 0 {
		return 0
	}
	idx := clampIndex(count, position-1)
	next := idx + spread.Step()
	if next > count-1 {
		// hold on the final page
		next = count - 1
	}
	return next + 1
}

func resolveBackward(count, position int, spread SpreadMode) int {
	if count <= 0 {
		return 0
	}
	idx := clampIndex(count, position-1)
	return max(0, idx-spread.Step()) + 1
}

// clampIndex keeps a stale or foreign position inside the registry
func clampIndex(count, idx int) int {
	return min(max(idx, 0), count-1)
}
