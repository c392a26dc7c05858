package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/liquid-labs/plugable-express-sub000/pkg/dag"
)

type graph struct {
	Nodes []node `json:"nodes"`
	Edges []edge `json:"edges"`
}

type node struct {
	ID        string `json:"id"`
	Wave      int    `json:"wave"`
	Installed bool   `json:"installed,omitempty"`
}

type edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// WriteJSON encodes g as indented JSON. Nodes named in installed are
// flagged as installed. Nodes keep their insertion order.
func WriteJSON(g *dag.DAG, installed map[string]bool, w io.Writer) error {
	waves, err := g.Batches()
	if err != nil {
		return err
	}
	wave := make(map[string]int, g.NodeCount())
	for i, ids := range waves {
		for _, id := range ids {
			wave[id] = i
		}
	}

	out := graph{
		Nodes: make([]node, 0, g.NodeCount()),
		Edges: make([]edge, 0, g.EdgeCount()),
	}
	for _, id := range g.Nodes() {
		out.Nodes = append(out.Nodes, node{ID: id, Wave: wave[id], Installed: installed[id]})
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, edge{From: e.From, To: e.To})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes g to a JSON file at path.
func ExportJSON(g *dag.DAG, installed map[string]bool, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(g, installed, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
