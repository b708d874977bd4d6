package cycles

import (
	"testing"

	"github.com/ritzau/migration-analyzer/pkg/graph"
	"github.com/ritzau/migration-analyzer/pkg/model"
)

func buildGraph(t *testing.T, n int, edges [][2]int) *graph.Graph {
	t.Helper()
	units := make([]model.Unit, n)
	for i := range units {
		path := string(rune('a'+i)) + ".bas"
		units[i] = model.Unit{
			ID:     model.UnitID(path),
			Source: model.SourceFile{Path: path},
		}
	}
	g := graph.New(units)
	for _, e := range edges {
		if !g.AddEdge(units[e[0]].ID, units[e[1]].ID, model.EdgeReference) {
			t.Fatalf("failed to add edge %v", e)
		}
	}
	return g
}

func TestFindClustersNoCycles(t *testing.T) {
	// A -> B -> C is acyclic
	g := buildGraph(t, 3, [][2]int{{0, 1}, {1, 2}})

	clusters := FindClusters(g)
	if len(clusters) != 0 {
		t.Errorf("Expected no clusters, found %d", len(clusters))
	}
}

func TestFindClustersSimpleCycle(t *testing.T) {
	// A -> B -> A
	g := buildGraph(t, 2, [][2]int{{0, 1}, {1, 0}})

	clusters := FindClusters(g)
	if len(clusters) != 1 {
		t.Fatalf("Expected 1 cluster, found %d", len(clusters))
	}
	if len(clusters[0].Units) != 2 {
		t.Errorf("Expected cluster of size 2, got %d", len(clusters[0].Units))
	}
}

func TestFindClustersThreeNodeCycle(t *testing.T) {
	// A -> B -> C -> A
	g := buildGraph(t, 3, [][2]int{{0, 1}, {1, 2}, {2, 0}})

	clusters := FindClusters(g)
	if len(clusters) != 1 {
		t.Fatalf("Expected 1 cluster, found %d", len(clusters))
	}
	cluster := clusters[0]
	if len(cluster.Units) != 3 {
		t.Errorf("Expected cluster of size 3, got %d", len(cluster.Units))
	}

	// Members are sorted and cover exactly the three units
	seen := make(map[string]bool)
	for _, id := range cluster.Units {
		seen[id] = true
	}
	for _, p := range []string{"a.bas", "b.bas", "c.bas"} {
		if !seen[model.UnitID(p)] {
			t.Errorf("Cluster is missing %s", p)
		}
	}
	for i := 1; i < len(cluster.Units); i++ {
		if cluster.Units[i-1] >= cluster.Units[i] {
			t.Errorf("Cluster members must be sorted, got %v", cluster.Units)
		}
	}
}

func TestFindClustersMultipleCycles(t *testing.T) {
	// Two disjoint cycles: A <-> B, C <-> D; E dangles off the first
	g := buildGraph(t, 5, [][2]int{{0, 1}, {1, 0}, {2, 3}, {3, 2}, {4, 0}})

	clusters := FindClusters(g)
	if len(clusters) != 2 {
		t.Fatalf("Expected 2 clusters, found %d", len(clusters))
	}
	for _, c := range clusters {
		if len(c.Units) != 2 {
			t.Errorf("Expected clusters of size 2, got %v", c.Units)
		}
	}
}

func TestFindClustersDeterministicOrder(t *testing.T) {
	mk := func() []model.MigrationCluster {
		g := buildGraph(t, 4, [][2]int{{0, 1}, {1, 0}, {2, 3}, {3, 2}})
		return FindClusters(g)
	}
	first, second := mk(), mk()
	if len(first) != len(second) {
		t.Fatalf("Cluster count changed between runs")
	}
	for i := range first {
		if first[i].Units[0] != second[i].Units[0] {
			t.Errorf("Cluster order must be reproducible")
		}
	}
}
