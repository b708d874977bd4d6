// Package cycles detects strongly connected components in the unit
// dependency graph. Cycles are never broken here; they are surfaced as
// atomic migration clusters for the planner.
package cycles

import (
	"sort"

	"github.com/ritzau/migration-analyzer/pkg/graph"
	"github.com/ritzau/migration-analyzer/pkg/model"
)

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes and successors are visited in ascending ID order (IDs follow input
// unit order), so two runs over the same graph produce identical output.
type tarjanSCC struct {
	g       *graph.Graph
	index   int
	stack   []int64
	onStack map[int64]bool
	indices map[int64]int
	lowLink map[int64]int
	sccs    [][]int64
}

func newTarjanSCC(g *graph.Graph) *tarjanSCC {
	return &tarjanSCC{
		g:       g,
		onStack: make(map[int64]bool),
		indices: make(map[int64]int),
		lowLink: make(map[int64]int),
	}
}

// findSCCs returns all components with more than one node
func (t *tarjanSCC) findSCCs() [][]int64 {
	for id := int64(0); id < int64(t.g.NodeCount()); id++ {
		if _, visited := t.indices[id]; !visited {
			t.strongConnect(id)
		}
	}
	return t.sccs
}

func (t *tarjanSCC) strongConnect(nodeID int64) {
	t.indices[nodeID] = t.index
	t.lowLink[nodeID] = t.index
	t.index++

	t.stack = append(t.stack, nodeID)
	t.onStack[nodeID] = true

	for _, succ := range t.g.Successors(nodeID) {
		if _, visited := t.indices[succ]; !visited {
			t.strongConnect(succ)
			t.lowLink[nodeID] = min(t.lowLink[nodeID], t.lowLink[succ])
		} else if t.onStack[succ] {
			t.lowLink[nodeID] = min(t.lowLink[nodeID], t.indices[succ])
		}
	}

	// Root of a component: pop the stack down to this node
	if t.lowLink[nodeID] == t.indices[nodeID] {
		var scc []int64
		for {
			w := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == nodeID {
				break
			}
		}
		// Single nodes are not cycles
		if len(scc) > 1 {
			t.sccs = append(t.sccs, scc)
		}
	}
}

// FindClusters returns every cycle in the graph as a MigrationCluster with
// sorted member unit IDs. Clusters themselves are ordered by their smallest
// member.
func FindClusters(g *graph.Graph) []model.MigrationCluster {
	sccs := newTarjanSCC(g).findSCCs()

	clusters := make([]model.MigrationCluster, 0, len(sccs))
	for _, scc := range sccs {
		units := make([]string, 0, len(scc))
		for _, nodeID := range scc {
			units = append(units, g.UnitIDForNode(nodeID))
		}
		sort.Strings(units)
		clusters = append(clusters, model.MigrationCluster{Units: units})
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Units[0] < clusters[j].Units[0]
	})
	return clusters
}
