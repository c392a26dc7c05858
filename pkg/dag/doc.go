// Package dag provides the dependency graph built during plugin
// resolution.
//
// # Overview
//
// Nodes are package names and an edge A→B means "A's plugin manifest
// declares B". The resolver adds nodes and edges as discovery proceeds and
// checks for cycles after every edge so a cyclic manifest chain is rejected
// before further network lookups.
//
// # Basic Usage
//
//	g := dag.New()
//	g.AddNode("plugin-a")
//	g.AddNode("plugin-b")
//	g.AddEdge("plugin-a", "plugin-b")
//	if cycle := g.FindCycleFrom("plugin-b"); cycle != nil {
//	    // the edge just added closed a cycle
//	}
//
// Once discovery is complete, [DAG.Validate] re-checks the whole graph and
// [DAG.OverallOrder] linearizes it with dependencies first.
//
// # Determinism
//
// Nodes, edges and children keep insertion order. Cycle search and
// ordering follow it, so the same sequence of insertions always yields the
// same cycle path and the same order.
//
// # Install Waves
//
// [DAG.Batches] groups nodes into waves that could be installed together.
// The resolver uses them for validation and reporting only; the installer
// receives a single flat list.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Callers must synchronize
// access if multiple goroutines read or modify the same graph.
package dag
