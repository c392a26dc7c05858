package dag

import (
	stderrors "errors"
	"slices"
	"testing"

	"github.com/liquid-labs/plugable-express-sub000/pkg/errors"
)

func build(t *testing.T, nodes []string, edges [][2]string) *DAG {
	t.Helper()
	g := New()
	for _, n := range nodes {
		if _, err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%q): %v", n, err)
		}
	}
	for _, e := range edges {
		if _, err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("AddEdge(%q, %q): %v", e[0], e[1], err)
		}
	}
	return g
}

func TestAddNodeIdempotent(t *testing.T) {
	g := New()
	added, err := g.AddNode("a")
	if err != nil || !added {
		t.Fatalf("AddNode(a) = %v, %v; want true, nil", added, err)
	}
	added, err = g.AddNode("a")
	if err != nil || added {
		t.Fatalf("second AddNode(a) = %v, %v; want false, nil", added, err)
	}
	if g.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d, want 1", g.NodeCount())
	}
	if _, err := g.AddNode(""); !stderrors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(\"\") error = %v, want ErrInvalidNodeID", err)
	}
}

func TestAddEdge(t *testing.T) {
	g := build(t, []string{"a", "b"}, nil)

	if _, err := g.AddEdge("x", "b"); !stderrors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge(x, b) error = %v, want ErrUnknownSourceNode", err)
	}
	if _, err := g.AddEdge("a", "x"); !stderrors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge(a, x) error = %v, want ErrUnknownTargetNode", err)
	}

	added, _ := g.AddEdge("a", "b")
	again, _ := g.AddEdge("a", "b")
	if !added || again {
		t.Errorf("AddEdge added = %v, repeat = %v; want true, false", added, again)
	}
	if g.EdgeCount() != 1 || !g.HasEdge("a", "b") || g.HasEdge("b", "a") {
		t.Errorf("unexpected edges %v", g.Edges())
	}
	if got := g.Parents("b"); !slices.Equal(got, []string{"a"}) {
		t.Errorf("Parents(b) = %v", got)
	}
}

func TestSourcesAndSinks(t *testing.T) {
	g := build(t, []string{"app", "cli", "shared"}, [][2]string{{"app", "shared"}, {"cli", "shared"}})
	if got := g.Sources(); !slices.Equal(got, []string{"app", "cli"}) {
		t.Errorf("Sources() = %v", got)
	}
	if got := g.Sinks(); !slices.Equal(got, []string{"shared"}) {
		t.Errorf("Sinks() = %v", got)
	}
}

func TestFindCycle(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		edges [][2]string
		want  []string
	}{
		{"empty", nil, nil, nil},
		{"chain", []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}}, nil},
		{"diamond", []string{"a", "b", "c", "d"}, [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}}, nil},
		{"two cycle", []string{"x", "y"}, [][2]string{{"x", "y"}, {"y", "x"}}, []string{"x", "y", "x"}},
		{"self loop", []string{"a"}, [][2]string{{"a", "a"}}, []string{"a", "a"}},
		{
			"three cycle below root",
			[]string{"root", "a", "b", "c"},
			[][2]string{{"root", "a"}, {"a", "b"}, {"b", "c"}, {"c", "a"}},
			[]string{"a", "b", "c", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.nodes, tt.edges)
			if got := g.FindCycle(); !slices.Equal(got, tt.want) {
				t.Errorf("FindCycle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindCycleFromNewEdge(t *testing.T) {
	g := build(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
	if got := g.FindCycleFrom("b"); got != nil {
		t.Fatalf("FindCycleFrom(b) = %v before closing edge", got)
	}

	_, _ = g.AddEdge("c", "a")
	want := []string{"a", "b", "c", "a"}
	if got := g.FindCycleFrom("a"); !slices.Equal(got, want) {
		t.Errorf("FindCycleFrom(a) = %v, want %v", got, want)
	}
	if got := g.FindCycleFrom("missing"); got != nil {
		t.Errorf("FindCycleFrom(missing) = %v", got)
	}
}

func TestValidate(t *testing.T) {
	g := build(t, []string{"x", "y"}, [][2]string{{"x", "y"}})
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate() on acyclic graph: %v", err)
	}

	_, _ = g.AddEdge("y", "x")
	err := g.Validate()
	var de *errors.DependencyError
	if !stderrors.As(err, &de) {
		t.Fatalf("Validate() error = %v, want DependencyError", err)
	}
	if !slices.Equal(de.Cycle, []string{"x", "y", "x"}) || de.Package != "y" {
		t.Errorf("DependencyError = %+v", de)
	}
	if err.Error() != "circular dependency detected: x → y → x (introduced by y)" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, errors.ErrCodeDependency) {
		t.Errorf("code = %q", errors.GetCode(err))
	}
}

func TestOverallOrder(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		edges [][2]string
		want  []string
	}{
		{"independent keeps insertion order", []string{"c", "a", "b"}, nil, []string{"c", "a", "b"}},
		{"chain", []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}}, []string{"c", "b", "a"}},
		{
			"ties by insertion",
			[]string{"plugin-a", "plugin-b", "plugin-c", "plugin-d"},
			[][2]string{{"plugin-a", "plugin-c"}, {"plugin-b", "plugin-d"}},
			[]string{"plugin-c", "plugin-a", "plugin-d", "plugin-b"},
		},
		{
			"late ready node sorts by insertion",
			[]string{"a", "b", "c", "d"},
			[][2]string{{"a", "d"}, {"c", "d"}},
			[]string{"b", "d", "a", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.nodes, tt.edges)
			got, err := g.OverallOrder()
			if err != nil {
				t.Fatalf("OverallOrder() error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("OverallOrder() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverallOrderDependenciesFirst(t *testing.T) {
	g := build(t,
		[]string{"a", "b", "c", "d", "e"},
		[][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}, {"d", "e"}, {"a", "e"}},
	)
	order, err := g.OverallOrder()
	if err != nil {
		t.Fatal(err)
	}
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, e := range g.Edges() {
		if pos[e.To] > pos[e.From] {
			t.Errorf("dependency %s ordered after dependent %s in %v", e.To, e.From, order)
		}
	}
}

func TestOverallOrderCycle(t *testing.T) {
	g := build(t, []string{"x", "y"}, [][2]string{{"x", "y"}, {"y", "x"}})
	if _, err := g.OverallOrder(); !errors.Is(err, errors.ErrCodeDependency) {
		t.Errorf("OverallOrder() error = %v, want DEPENDENCY_ERROR", err)
	}
	if _, err := g.Batches(); !errors.Is(err, errors.ErrCodeDependency) {
		t.Errorf("Batches() error = %v, want DEPENDENCY_ERROR", err)
	}
}

func TestBatches(t *testing.T) {
	g := build(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"a", "d"}, {"b", "c"}},
	)
	got, err := g.Batches()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"c", "d"}, {"b"}, {"a"}}
	if len(got) != len(want) {
		t.Fatalf("Batches() = %v, want %v", got, want)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Errorf("Batches()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFormatCycle(t *testing.T) {
	if got := FormatCycle([]string{"a", "b", "c", "a"}); got != "a → b → c → a" {
		t.Errorf("FormatCycle() = %q", got)
	}
}
