// Package graph resolves indexed units into a directed dependency graph.
// Edges always point from dependent to dependency.
package graph

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/ritzau/migration-analyzer/pkg/model"
)

// Graph is the unit-level dependency graph. Node identifiers are assigned in
// input unit order, which keeps every downstream traversal deterministic.
type Graph struct {
	units  []model.Unit
	byID   map[string]int // unit ID -> index into units
	ids    map[string]int64
	byNode map[int64]string
	g      *simple.DirectedGraph

	edges   []model.DependencyEdge
	edgeSet map[model.DependencyEdge]bool

	Unresolved []model.UnresolvedReference
	Warnings   []string

	unresolvedCount map[string]int
}

// New creates an empty graph over the given units (in input order)
func New(units []model.Unit) *Graph {
	g := &Graph{
		units:           units,
		byID:            make(map[string]int, len(units)),
		ids:             make(map[string]int64, len(units)),
		byNode:          make(map[int64]string, len(units)),
		g:               simple.NewDirectedGraph(),
		edgeSet:         make(map[model.DependencyEdge]bool),
		unresolvedCount: make(map[string]int),
	}
	for i, u := range units {
		g.byID[u.ID] = i
		id := int64(i)
		g.ids[u.ID] = id
		g.byNode[id] = u.ID
		g.g.AddNode(simple.Node(id))
	}
	return g
}

// AddEdge records a typed dependency edge. Self-edges and duplicates are
// dropped; both endpoints must be indexed units.
func (g *Graph) AddEdge(from, to string, kind model.EdgeKind) bool {
	if from == to {
		return false
	}
	fromID, okF := g.ids[from]
	toID, okT := g.ids[to]
	if !okF || !okT {
		return false
	}
	e := model.DependencyEdge{From: from, To: to, Kind: kind}
	if g.edgeSet[e] {
		return false
	}
	g.edgeSet[e] = true
	g.edges = append(g.edges, e)
	if !g.g.HasEdgeFromTo(fromID, toID) {
		g.g.SetEdge(g.g.NewEdge(g.g.Node(fromID), g.g.Node(toID)))
	}
	return true
}

// AddUnresolved records a reference no indexed unit owns
func (g *Graph) AddUnresolved(ref model.UnresolvedReference) {
	g.Unresolved = append(g.Unresolved, ref)
	g.unresolvedCount[ref.From]++
}

// Units returns the nodes in input order
func (g *Graph) Units() []model.Unit {
	return g.units
}

// Unit returns the unit with the given ID
func (g *Graph) Unit(unitID string) (*model.Unit, bool) {
	i, ok := g.byID[unitID]
	if !ok {
		return nil, false
	}
	return &g.units[i], true
}

// Edges returns all dependency edges in resolution order
func (g *Graph) Edges() []model.DependencyEdge {
	return g.edges
}

// NodeCount returns the number of units in the graph
func (g *Graph) NodeCount() int {
	return len(g.units)
}

// NodeID returns the gonum node ID for a unit
func (g *Graph) NodeID(unitID string) (int64, bool) {
	id, ok := g.ids[unitID]
	return id, ok
}

// UnitIDForNode maps a gonum node ID back to the unit ID
func (g *Graph) UnitIDForNode(id int64) string {
	return g.byNode[id]
}

// Successors returns the node IDs this node depends on, ascending. The sort
// makes Tarjan and the topo schedule reproducible; gonum's own iterators
// follow map order.
func (g *Graph) Successors(id int64) []int64 {
	var out []int64
	it := g.g.From(id)
	for it.Next() {
		out = append(out, it.Node().ID())
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// UnresolvedCountFor returns how many references of a unit failed to resolve
func (g *Graph) UnresolvedCountFor(unitID string) int {
	return g.unresolvedCount[unitID]
}
