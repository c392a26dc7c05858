package dag

import (
	"strings"

	"github.com/liquid-labs/plugable-express-sub000/pkg/errors"
)

// FindCycle searches the whole graph and returns the first cycle found, or
// nil. The cycle starts and ends with the same node: [a b c a].
//
// The search is a depth-first walk over nodes and children in insertion
// order, keeping an on-stack set and a done set.
func (d *DAG) FindCycle() []string {
	c := d.newCycleSearch()
	for _, id := range d.nodes {
		if cycle := c.visit(id); cycle != nil {
			return cycle
		}
	}
	return nil
}

// FindCycleFrom searches only the part of the graph reachable from id.
// After inserting the edge from→to into an acyclic graph, FindCycleFrom(to)
// finds any cycle the edge closed, reported as [to ... from to].
func (d *DAG) FindCycleFrom(id string) []string {
	if !d.HasNode(id) {
		return nil
	}
	return d.newCycleSearch().visit(id)
}

// Validate checks the whole graph for cycles. It returns a
// *errors.DependencyError naming the cycle and the package whose edge
// closes it, or nil for an acyclic graph.
func (d *DAG) Validate() error {
	if cycle := d.FindCycle(); cycle != nil {
		return &errors.DependencyError{Package: cycle[len(cycle)-2], Cycle: cycle}
	}
	return nil
}

// FormatCycle renders a cycle as "a → b → a".
func FormatCycle(cycle []string) string {
	return strings.Join(cycle, errors.CycleSeparator)
}

type cycleSearch struct {
	g       *DAG
	onStack map[string]int // nodeID -> position in stack
	done    map[string]bool
	stack   []string
}

func (d *DAG) newCycleSearch() *cycleSearch {
	return &cycleSearch{
		g:       d,
		onStack: make(map[string]int),
		done:    make(map[string]bool),
	}
}

func (c *cycleSearch) visit(id string) []string {
	if c.done[id] {
		return nil
	}
	if pos, ok := c.onStack[id]; ok {
		cycle := make([]string, 0, len(c.stack)-pos+1)
		cycle = append(cycle, c.stack[pos:]...)
		return append(cycle, id)
	}

	c.onStack[id] = len(c.stack)
	c.stack = append(c.stack, id)
	for _, child := range c.g.outgoing[id] {
		if cycle := c.visit(child); cycle != nil {
			return cycle
		}
	}
	c.stack = c.stack[:len(c.stack)-1]
	delete(c.onStack, id)
	c.done[id] = true
	return nil
}
