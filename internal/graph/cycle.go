package graph

import "slices"

// classifyCycles excludes the leftover nodes of Kahn's algorithm.
//
// Nodes inside a strongly connected component of size > 1, or with a self
// loop, get a CycleError. The others only reach a cycle and are excluded as
// upstream failures by propagate.
func classifyCycles(nodes []*node, leftover []int) {
	in := make(map[int]bool, len(leftover))
	for _, i := range leftover {
		in[i] = true
	}

	var onCycle []int
	for _, scc := range tarjanSCC(nodes, leftover, in) {
		if len(scc) == 1 && !slices.Contains(nodes[scc[0]].deps, scc[0]) {
			continue
		}
		member := make(map[int]bool, len(scc))
		for _, i := range scc {
			member[i] = true
		}
		for _, i := range scc {
			nodes[i].excluded = &CycleError{
				Script: nodes[i].desc.ID(),
				Path:   cyclePath(nodes, i, member),
			}
			onCycle = append(onCycle, i)
		}
	}
	slices.Sort(onCycle)
	propagate(nodes, onCycle)
}

// tarjanSCC finds strongly connected components among the given nodes.
func tarjanSCC(nodes []*node, within []int, in map[int]bool) [][]int {
	var (
		index   = 0
		stack   []int
		indices = make(map[int]int)
		lowlink = make(map[int]int)
		onStack = make(map[int]bool)
		sccs    [][]int
	)

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range nodes[v].deps {
			if !in[w] {
				continue
			}
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, v := range within {
		if _, visited := indices[v]; !visited {
			strongConnect(v)
		}
	}
	return sccs
}

// cyclePath returns the shortest path start -> ... -> start inside the component.
func cyclePath(nodes []*node, start int, member map[int]bool) []string {
	parent := map[int]int{}
	queue := []int{start}
	seen := map[int]bool{start: true}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range nodes[v].deps {
			if !member[w] {
				continue
			}
			if w == start {
				path := []string{nodes[start].desc.ID()}
				var back []string
				for u := v; u != start; u = parent[u] {
					back = append(back, nodes[u].desc.ID())
				}
				slices.Reverse(back)
				path = append(path, back...)
				return append(path, nodes[start].desc.ID())
			}
			if !seen[w] {
				seen[w] = true
				parent[w] = v
				queue = append(queue, w)
			}
		}
	}
	return []string{nodes[start].desc.ID()}
}
