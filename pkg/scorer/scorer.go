// Package scorer computes per-unit complexity and risk from the rule
// catalog. Rules are independent and additive; the sum is clamped to [0,1]
// at the end, so evaluation order carries no semantics and must stay that
// way.
package scorer

import (
	"fmt"
	"sort"

	"github.com/ritzau/migration-analyzer/pkg/model"
	"github.com/ritzau/migration-analyzer/pkg/rules"
)

// Complexity estimates cyclomatic complexity as 1 + branch-token count. Not
// control-flow-graph-exact, but monotonic and stable across reruns.
func Complexity(unit *model.Unit) int {
	return 1 + unit.BranchTokens
}

// Score evaluates the catalog against one unit. unresolvedRefs is the
// unit's unresolved-reference count from the graph builder; it reaches the
// scorer as an ordinary fact so the rule machinery needs no special case.
func Score(unit *model.Unit, unresolvedRefs int, cat *rules.Catalog) (model.ComponentScore, []model.RiskFinding) {
	facts := rules.UnitFacts{
		Complexity:     Complexity(unit),
		UnresolvedRefs: unresolvedRefs,
	}

	var (
		total    float64
		tags     []string
		findings []model.RiskFinding
	)
	for _, rule := range cat.SortedRules() {
		if !rule.Matches(unit, facts) {
			continue
		}
		total += rule.Weight
		tags = append(tags, rule.ID)
		findings = append(findings, model.RiskFinding{
			UnitID:     unit.ID,
			RuleID:     rule.ID,
			Severity:   rule.Severity,
			Message:    findingMessage(&rule, unit),
			Mitigation: rule.Mitigation,
		})
	}

	if total > 1 {
		total = 1
	}
	sort.Strings(tags)

	return model.ComponentScore{
		UnitID:            unit.ID,
		Complexity:        facts.Complexity,
		RiskScore:         total,
		TechnicalDebtTags: tags,
	}, findings
}

// ScoreAll scores every unit of the graph's input set, keyed by unit ID
func ScoreAll(units []model.Unit, unresolvedFor func(unitID string) int,
	cat *rules.Catalog) (map[string]model.ComponentScore, []model.RiskFinding) {

	scores := make(map[string]model.ComponentScore, len(units))
	var findings []model.RiskFinding
	for i := range units {
		u := &units[i]
		score, f := Score(u, unresolvedFor(u.ID), cat)
		scores[u.ID] = score
		findings = append(findings, f...)
	}
	return scores, findings
}

func findingMessage(rule *rules.Rule, unit *model.Unit) string {
	if rule.Description != "" {
		return fmt.Sprintf("%s: %s", unit.Source.Path, rule.Description)
	}
	return fmt.Sprintf("%s: rule %s matched", unit.Source.Path, rule.ID)
}
