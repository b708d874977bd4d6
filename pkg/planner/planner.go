// Package planner merges graph and scores into the MigrationReport,
// including the dependency-respecting migration order.
package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ritzau/migration-analyzer/pkg/graph"
	"github.com/ritzau/migration-analyzer/pkg/logging"
	"github.com/ritzau/migration-analyzer/pkg/model"
)

// Options carries the report-level tunables
type Options struct {
	SourceRoot    string
	AutoThreshold float64 // Units with risk below this count as auto-migratable
	HighRiskFloor float64 // Units at or above this land in the ranking
	BaseRate      float64 // Days per 1000 risk-weighted lines
	DailyRate     float64 // Cost per estimated day
}

// Aggregate builds the final report. An empty unit set is a valid,
// reportable outcome, not an error.
func Aggregate(g *graph.Graph, scores map[string]model.ComponentScore,
	findings []model.RiskFinding, clusters []model.MigrationCluster, opts Options) *model.MigrationReport {

	units := g.Units()

	report := &model.MigrationReport{
		SchemaVersion: model.SchemaVersion,
		SourceRoot:    opts.SourceRoot,
		Conventions: model.Conventions{
			// Fixed convention: higher risk score = less automatable. The
			// threshold comparison below is strictly "risk < threshold".
			RiskDirection: "higher-is-riskier",
			AutoThreshold: opts.AutoThreshold,
		},
		UnitCount:          len(units),
		EstimateDisclaimer: model.EstimateDisclaimer,
		Unresolved:         g.Unresolved,
		Clusters:           clusters,
		Warnings:           append([]string{}, g.Warnings...),
	}

	if len(units) == 0 {
		report.Warnings = append(report.Warnings, "no units indexed: source root contained no matching files")
		report.HighRiskUnits = []model.RankedUnit{}
		report.MigrationOrder = []model.MigrationGroup{}
		return report
	}

	autoCount := 0
	var weightedLines float64
	for _, u := range units {
		s := scores[u.ID]
		if s.RiskScore < opts.AutoThreshold {
			autoCount++
		}
		weightedLines += float64(u.LineCount) * (1 + s.RiskScore)
	}
	report.AutoMigrationPercentage = 100 * float64(autoCount) / float64(len(units))
	report.EstimatedDurationDays = opts.BaseRate * weightedLines / 1000
	report.EstimatedCost = report.EstimatedDurationDays * opts.DailyRate

	report.HighRiskUnits = rankHighRisk(units, scores, opts.HighRiskFloor)
	report.RequiredManualWork = manualWork(units, findings)
	report.MigrationOrder = migrationOrder(g, scores, clusters, &report.Warnings)

	report.Scores = sortedScores(scores)
	report.Findings = sortedFindings(findings)
	return report
}

// rankHighRisk sorts by risk descending, ties broken by unit ID for
// determinism
func rankHighRisk(units []model.Unit, scores map[string]model.ComponentScore, floor float64) []model.RankedUnit {
	ranked := make([]model.RankedUnit, 0)
	for _, u := range units {
		s := scores[u.ID]
		if s.RiskScore < floor {
			continue
		}
		ranked = append(ranked, model.RankedUnit{
			UnitID:     u.ID,
			Path:       u.Source.Path,
			RiskScore:  s.RiskScore,
			Complexity: s.Complexity,
			DebtTags:   s.TechnicalDebtTags,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].RiskScore != ranked[j].RiskScore {
			return ranked[i].RiskScore > ranked[j].RiskScore
		}
		return ranked[i].UnitID < ranked[j].UnitID
	})
	return ranked
}

// manualWork assembles a per-unit rationale from high-severity findings
func manualWork(units []model.Unit, findings []model.RiskFinding) map[string]string {
	reasons := make(map[string][]string)
	for _, f := range findings {
		if f.Severity != model.SeverityHigh {
			continue
		}
		reasons[f.UnitID] = append(reasons[f.UnitID], f.Message)
	}
	if len(reasons) == 0 {
		return nil
	}
	out := make(map[string]string, len(reasons))
	for id, msgs := range reasons {
		sort.Strings(msgs)
		out[id] = strings.Join(msgs, "; ")
	}
	return out
}

// migrationOrder produces a topologically valid schedule over the cycle
// condensation. Among ready groups the lowest-risk one goes first: retiring
// easy units early builds confidence and surfaces integration issues sooner.
func migrationOrder(g *graph.Graph, scores map[string]model.ComponentScore,
	clusters []model.MigrationCluster, warnings *[]string) []model.MigrationGroup {

	units := g.Units()

	// Collapse each cluster to one group; everything else is a singleton.
	// Group indices follow input unit order of the first member seen.
	groupOf := make(map[string]int, len(units))
	var groups []model.MigrationGroup
	inCluster := make(map[string]*model.MigrationCluster)
	for i := range clusters {
		for _, id := range clusters[i].Units {
			inCluster[id] = &clusters[i]
		}
	}
	for _, u := range units {
		if _, done := groupOf[u.ID]; done {
			continue
		}
		if c, ok := inCluster[u.ID]; ok {
			idx := len(groups)
			groups = append(groups, model.MigrationGroup{Units: c.Units, Cluster: true})
			for _, id := range c.Units {
				groupOf[id] = idx
			}
			continue
		}
		groupOf[u.ID] = len(groups)
		groups = append(groups, model.MigrationGroup{Units: []string{u.ID}})
	}

	// Cross-group dependencies: group(a) waits for group(b) for every edge
	// a -> b
	dependsOn := make([]map[int]bool, len(groups))
	for i := range dependsOn {
		dependsOn[i] = make(map[int]bool)
	}
	for _, e := range g.Edges() {
		ga, gb := groupOf[e.From], groupOf[e.To]
		if ga != gb {
			dependsOn[ga][gb] = true
		}
	}

	// Group risk is the worst member's risk; ties break on the smallest
	// member unit ID (members are sorted already).
	risk := make([]float64, len(groups))
	for i, grp := range groups {
		for _, id := range grp.Units {
			if s := scores[id].RiskScore; s > risk[i] {
				risk[i] = s
			}
		}
	}

	scheduled := make([]bool, len(groups))
	var order []model.MigrationGroup
	for len(order) < len(groups) {
		best := -1
		for i := range groups {
			if scheduled[i] {
				continue
			}
			ready := true
			for dep := range dependsOn[i] {
				if !scheduled[dep] {
					ready = false
					break
				}
			}
			if !ready {
				continue
			}
			if best == -1 || risk[i] < risk[best] ||
				(risk[i] == risk[best] && groups[i].Units[0] < groups[best].Units[0]) {
				best = i
			}
		}
		if best == -1 {
			// Cannot happen on a proper condensation; bail out rather than
			// spin
			*warnings = append(*warnings, fmt.Sprintf(
				"migration order incomplete: %d group(s) stuck in unresolved cycle", len(groups)-len(order)))
			logging.Warn("topological schedule stalled", "remaining", len(groups)-len(order))
			break
		}
		scheduled[best] = true
		order = append(order, groups[best])
	}
	return order
}

func sortedScores(scores map[string]model.ComponentScore) []model.ComponentScore {
	out := make([]model.ComponentScore, 0, len(scores))
	for _, s := range scores {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitID < out[j].UnitID })
	return out
}

func sortedFindings(findings []model.RiskFinding) []model.RiskFinding {
	out := make([]model.RiskFinding, len(findings))
	copy(out, findings)
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnitID != out[j].UnitID {
			return out[i].UnitID < out[j].UnitID
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out
}
