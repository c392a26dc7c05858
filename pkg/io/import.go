package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/liquid-labs/plugable-express-sub000/pkg/dag"
)

// ReadJSON decodes a graph written by [WriteJSON]. It returns the graph and
// the set of nodes flagged as installed. Waves are recomputed from the
// edges, not read back.
//
// ReadJSON fails on malformed JSON, duplicate node IDs, edges that name an
// unknown node and cycles (a *errors.DependencyError).
func ReadJSON(r io.Reader) (*dag.DAG, map[string]bool, error) {
	var data graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, nil, fmt.Errorf("decode: %w", err)
	}

	g := dag.New()
	installed := make(map[string]bool)
	for _, n := range data.Nodes {
		added, err := g.AddNode(n.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		if !added {
			return nil, nil, fmt.Errorf("node %q: duplicate id", n.ID)
		}
		if n.Installed {
			installed[n.ID] = true
		}
	}
	for _, e := range data.Edges {
		if _, err := g.AddEdge(e.From, e.To); err != nil {
			return nil, nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
	}
	if err := g.Validate(); err != nil {
		return nil, nil, err
	}
	return g, installed, nil
}

// ImportJSON reads a JSON graph file at path.
func ImportJSON(path string) (*dag.DAG, map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
