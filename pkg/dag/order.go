package dag

import "slices"

// OverallOrder returns every node with dependencies before their
// dependents. Among nodes that are ready at the same time, the one inserted
// first comes first.
//
// OverallOrder uses Kahn's algorithm over the reversed edges. If the graph
// has a cycle it returns the *errors.DependencyError from [DAG.Validate].
func (d *DAG) OverallOrder() ([]string, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	remaining := make(map[string]int, len(d.nodes))
	var ready []int // insertion positions, kept sorted
	for i, id := range d.nodes {
		remaining[id] = len(d.outgoing[id])
		if remaining[id] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]string, 0, len(d.nodes))
	for len(ready) > 0 {
		curr := d.nodes[ready[0]]
		ready = ready[1:]
		order = append(order, curr)

		for _, parent := range d.incoming[curr] {
			remaining[parent]--
			if remaining[parent] == 0 {
				pos := d.index[parent]
				i, _ := slices.BinarySearch(ready, pos)
				ready = slices.Insert(ready, i, pos)
			}
		}
	}
	return order, nil
}

// Batches groups nodes into waves: wave 0 holds nodes without
// dependencies, and every other node sits one wave after its deepest
// dependency. Nodes within a wave are in insertion order.
//
// Each node is placed at one plus the maximum wave of its dependencies,
// computed with a longest-path pass over the order from [DAG.OverallOrder].
func (d *DAG) Batches() ([][]string, error) {
	order, err := d.OverallOrder()
	if err != nil {
		return nil, err
	}

	wave := make(map[string]int, len(order))
	depth := 0
	for _, id := range order {
		w := 0
		for _, dep := range d.outgoing[id] {
			if wave[dep]+1 > w {
				w = wave[dep] + 1
			}
		}
		wave[id] = w
		depth = max(depth, w+1)
	}

	batches := make([][]string, depth)
	for _, id := range d.nodes {
		batches[wave[id]] = append(batches[wave[id]], id)
	}
	return batches, nil
}
