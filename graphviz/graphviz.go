// Package graphviz renders a function's analysis as a GraphViz DOT file
// for the CLI's --graphviz_file flag (spec §6): one node per Point, one
// edge per cfg_edge, annotated with the facts and errors that mention
// each point. It is the one package in this repo built on the standard
// library alone: nothing in the retrieval pack wires a graphviz client,
// and text/template is exactly the tool the teacher reaches for
// whenever it needs templated text output.
package graphviz

import (
	"fmt"
	"io"
	"sort"
	"text/template"

	"github.com/go-polonius/polonius/atom"
	"github.com/go-polonius/polonius/facts"
	"github.com/go-polonius/polonius/loan"
)

// Graph is the rendering model handed to the DOT template: plain data,
// no behavior, so the template stays a pure view.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

type Node struct {
	ID     string
	Labels []string
}

type Edge struct {
	From, Dst string
}

// Build assembles a Graph from a function's facts and its solved Output.
// pointName renders a Point as the string it should appear as in the
// diagram; callers that loaded facts from .facts files already have the
// original "Start(b0[0])"-style names in their interner and should pass
// a closure over it, while callers using bare atoms can pass
// atom.Point.String.
func Build(f *facts.AllFacts, out *loan.Output, pointName func(atom.Point) string) *Graph {
	labels := map[atom.Point][]string{}
	add := func(p atom.Point, label string) { labels[p] = append(labels[p], label) }

	f.LoanIssuedAt.Each(func(t facts.LoanIssuedAt) {
		add(t.Point, fmt.Sprintf("loan_issued_at(%s, %s)", t.Origin, t.Loan))
	})
	f.LoanKilledAt.Each(func(t facts.LoanKilledAt) {
		add(t.Point, fmt.Sprintf("loan_killed_at(%s)", t.Loan))
	})
	f.LoanInvalidatedAt.Each(func(t facts.LoanInvalidatedAt) {
		add(t.Point, fmt.Sprintf("loan_invalidated_at(%s)", t.Loan))
	})
	f.SubsetBase.Each(func(t facts.SubsetBase) {
		add(t.Point, fmt.Sprintf("subset_base(%s, %s)", t.O1, t.O2))
	})

	if out != nil {
		for _, e := range out.Errors {
			add(e.Point, fmt.Sprintf("ERROR: invalid access to %s", e.Loan))
		}
		for _, e := range out.SubsetErrors {
			add(e.Point, fmt.Sprintf("ERROR: illegal subset %s: %s", e.O1, e.O2))
		}
	}

	nodeSet := map[atom.Point]struct{}{}
	f.CFGEdge.Each(func(e facts.CFGEdge) {
		nodeSet[e.Src] = struct{}{}
		nodeSet[e.Dst] = struct{}{}
	})
	for p := range labels {
		nodeSet[p] = struct{}{}
	}

	points := make([]atom.Point, 0, len(nodeSet))
	for p := range nodeSet {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })

	if pointName == nil {
		pointName = func(p atom.Point) string { return p.String() }
	}

	g := &Graph{}
	for _, p := range points {
		g.Nodes = append(g.Nodes, Node{ID: pointName(p), Labels: labels[p]})
	}
	f.CFGEdge.Each(func(e facts.CFGEdge) {
		g.Edges = append(g.Edges, Edge{From: pointName(e.Src), Dst: pointName(e.Dst)})
	})

	return g
}

func join(labels []string, id string) string {
	out := id
	for _, l := range labels {
		out += "\n" + l
	}
	return out
}

var dotTemplate = template.Must(template.New("graph").Funcs(template.FuncMap{"join": join}).Parse(`digraph cfg {
  node [shape=box, fontname="monospace"];
{{- range .Nodes }}
  {{ printf "%q" .ID }} [label={{ printf "%q" (join .Labels .ID) }}];
{{- end }}
{{- range .Edges }}
  {{ printf "%q" .From }} -> {{ printf "%q" .Dst }};
{{- end }}
}
`))

// Write renders g as DOT text to w.
func Write(w io.Writer, g *Graph) error {
	return dotTemplate.Execute(w, g)
}
