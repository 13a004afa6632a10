package schedule

import "github.com/stridekit/stride/core"

// Group is an ordered list of calls plus a barrier flag. Barrier groups
// execute one call at a time in list order; non-barrier groups execute all
// calls concurrently. Groups are created fresh per scheduling pass and never
// mutated afterward.
type Group struct {
	Calls   []core.ToolCall
	Barrier bool
}

// Schedule partitions calls into ordered execution groups honoring two
// dependency channels: tool-level capabilities (Sequential, DependsOn by
// tool name) and call-level Follows lists (by call id).
//
// The algorithm is a round-based topological sort. Satisfaction flips at
// scheduling time, not execution completion, so correctness depends on the
// caller executing groups strictly in the returned order. A call referencing
// an unknown tool name simply has no tool-level dependencies.
//
// When a round contains a ready call whose tool is declared Sequential,
// every ready call of that round is emitted as its own single-call group in
// round order; only the sequential calls carry the barrier flag. This
// coupling (one sequential tool forcing co-ready calls into singleton
// groups) is a load-bearing behavioral contract, covered explicitly by
// tests; do not collapse the non-sequential singletons back into one group.
//
// If no remaining call is ready (a dependency cycle), all remaining calls
// are emitted as one final non-barrier group in their original order. This
// guarantees termination but honors no dependency for those calls.
func Schedule(calls []core.ToolCall, caps map[string]core.Capability) []Group {
	if len(calls) == 0 {
		return nil
	}

	var groups []Group

	satisfiedCalls := make(map[string]bool, len(calls))
	satisfiedTools := make(map[string]bool, len(calls))

	remaining := make([]core.ToolCall, len(calls))
	copy(remaining, calls)

	for len(remaining) > 0 {
		ready, blocked := partition(remaining, caps, satisfiedCalls, satisfiedTools)

		if len(ready) == 0 {
			// Dependency cycle: escape valve, not a correctness guarantee.
			groups = append(groups, Group{Calls: remaining})
			break
		}

		if hasSequential(ready, caps) {
			for _, call := range ready {
				groups = append(groups, Group{
					Calls:   []core.ToolCall{call},
					Barrier: caps[call.Name].Sequential,
				})
			}
		} else {
			groups = append(groups, Group{Calls: ready})
		}

		for _, call := range ready {
			satisfiedCalls[call.ID] = true
			satisfiedTools[call.Name] = true
		}
		remaining = blocked
	}

	return groups
}

// partition splits calls into ready and not-ready, preserving original
// relative order within both halves.
func partition(
	calls []core.ToolCall,
	caps map[string]core.Capability,
	satisfiedCalls, satisfiedTools map[string]bool,
) (ready, blocked []core.ToolCall) {
	for _, call := range calls {
		if isReady(call, caps, satisfiedCalls, satisfiedTools) {
			ready = append(ready, call)
		} else {
			blocked = append(blocked, call)
		}
	}
	return ready, blocked
}

func isReady(
	call core.ToolCall,
	caps map[string]core.Capability,
	satisfiedCalls, satisfiedTools map[string]bool,
) bool {
	for _, dep := range caps[call.Name].DependsOn {
		if !satisfiedTools[dep] {
			return false
		}
	}
	for _, id := range call.Follows {
		if !satisfiedCalls[id] {
			return false
		}
	}
	return true
}

func hasSequential(calls []core.ToolCall, caps map[string]core.Capability) bool {
	for _, call := range calls {
		if caps[call.Name].Sequential {
			return true
		}
	}
	return false
}
