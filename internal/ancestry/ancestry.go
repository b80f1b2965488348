// Package ancestry finds common ancestors in trees that are only navigable
// upwards, through a parent function.
package ancestry

import "slices"

// ParentFunc returns the parent of a node, or false for a root.
type ParentFunc[N comparable] func(N) (N, bool)

// Chain returns the strict ancestors of node, nearest first. A parent that was
// already visited ends the chain, so malformed trees with cycles terminate.
func Chain[N comparable](node N, parent ParentFunc[N]) []N {
	chain := make([]N, 0)
	seen := map[N]struct{}{node: {}}

	for {
		p, ok := parent(node)
		if !ok {
			return chain
		}
		if _, loop := seen[p]; loop {
			return chain
		}
		seen[p] = struct{}{}
		chain = append(chain, p)
		node = p
	}
}

// NearestCommon returns the deepest node that is a strict ancestor of every
// given node. It intersects the ordered ancestor chains, keeping the order of
// the first chain, so the first survivor is the nearest one. It reports false
// for an empty input or nodes from disjoint trees.
func NearestCommon[N comparable](nodes []N, parent ParentFunc[N]) (N, bool) {
	var zero N
	if len(nodes) == 0 {
		return zero, false
	}

	common := Chain(nodes[0], parent)
	for _, node := range nodes[1:] {
		if len(common) == 0 {
			break
		}

		ancestors := make(map[N]struct{})
		for _, a := range Chain(node, parent) {
			ancestors[a] = struct{}{}
		}

		common = slices.DeleteFunc(common, func(a N) bool {
			_, ok := ancestors[a]
			return !ok
		})
	}

	if len(common) == 0 {
		return zero, false
	}
	return common[0], true
}
