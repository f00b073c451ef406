// Package graph turns declared script dependencies into a start order.
//
// Resolve never fails as a whole: scripts with a missing dependency, scripts on
// a cycle and everything that depends on either are excluded individually and
// reported, while the rest are ordered so that every script starts after all
// of its dependencies. Independent scripts keep their discovery order.
package graph

import (
	"container/heap"

	"github.com/aretw0/scripthost/pkg/domain"
)

// Exclusion is a script that must not start this session, and why.
type Exclusion struct {
	Descriptor domain.Descriptor
	Err        error
}

// Plan is the outcome of Resolve.
type Plan struct {
	Order    []domain.Descriptor
	Excluded []Exclusion
}

// node is one declaration; the same identity declared by two modules yields two nodes.
type node struct {
	desc       domain.Descriptor
	deps       []int // edges script -> dependency
	dependents []int
	excluded   error
}

// Resolve computes the start order of descs, given in discovery order.
func Resolve(descs []domain.Descriptor) Plan {
	nodes := make([]*node, len(descs))
	byID := make(map[string][]int, len(descs))
	for i, d := range descs {
		nodes[i] = &node{desc: d}
		byID[d.ID()] = append(byID[d.ID()], i)
	}

	// Edges, and local failures for unknown identities.
	for i, n := range nodes {
		for _, dep := range n.desc.Requires() {
			targets, ok := byID[dep]
			if !ok {
				if n.excluded == nil {
					n.excluded = &MissingDependencyError{Script: n.desc.ID(), Dependency: dep}
				}
				continue
			}
			for _, j := range targets {
				n.deps = append(n.deps, j)
				nodes[j].dependents = append(nodes[j].dependents, i)
			}
		}
	}

	var roots []int
	for i, n := range nodes {
		if n.excluded != nil {
			roots = append(roots, i)
		}
	}
	propagate(nodes, roots)

	order := kahn(nodes)

	// Whatever Kahn could not emit is on a cycle or reaches one.
	placed := make([]bool, len(nodes))
	for _, i := range order {
		placed[i] = true
	}
	var leftover []int
	for i, n := range nodes {
		if !placed[i] && n.excluded == nil {
			leftover = append(leftover, i)
		}
	}
	if len(leftover) > 0 {
		classifyCycles(nodes, leftover)
	}

	plan := Plan{Order: make([]domain.Descriptor, 0, len(order))}
	for _, i := range order {
		plan.Order = append(plan.Order, nodes[i].desc)
	}
	for _, n := range nodes {
		if n.excluded != nil {
			plan.Excluded = append(plan.Excluded, Exclusion{Descriptor: n.desc, Err: n.excluded})
		}
	}
	return plan
}

// propagate excludes, transitively, every dependent of the given excluded nodes.
func propagate(nodes []*node, excluded []int) {
	queue := append([]int(nil), excluded...)
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		for _, d := range nodes[i].dependents {
			if nodes[d].excluded != nil {
				continue
			}
			nodes[d].excluded = &UpstreamExcludedError{
				Script:     nodes[d].desc.ID(),
				Dependency: nodes[i].desc.ID(),
				Cause:      nodes[i].excluded,
			}
			queue = append(queue, d)
		}
	}
}

// kahn emits non-excluded nodes in topological order, smallest discovery index first.
func kahn(nodes []*node) []int {
	indegree := make([]int, len(nodes))
	ready := &indexHeap{}
	for i, n := range nodes {
		if n.excluded != nil {
			continue
		}
		indegree[i] = len(n.deps)
		if indegree[i] == 0 {
			heap.Push(ready, i)
		}
	}

	var order []int
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		order = append(order, i)
		for _, d := range nodes[i].dependents {
			if nodes[d].excluded != nil {
				continue
			}
			indegree[d]--
			if indegree[d] == 0 {
				heap.Push(ready, d)
			}
		}
	}
	return order
}

type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
