package rules

import (
	"strings"

	"github.com/ritzau/migration-analyzer/pkg/model"
)

// UnitFacts carries per-unit signals that are derived outside the unit
// itself, currently only the unresolved-reference count from the graph
// builder.
type UnitFacts struct {
	Complexity     int
	UnresolvedRefs int
}

// Matches evaluates the rule's predicate against a unit. Predicates are pure
// and independent of each other.
func (r *Rule) Matches(unit *model.Unit, facts UnitFacts) bool {
	switch r.Predicate {
	case PredHasNativeRefs:
		return len(unit.NativeRefs) > 0

	case PredAPICallMatches:
		for _, call := range unit.APICalls {
			if matchesAny(call.Name, r.Patterns) || matchesAny(call.Library, r.Patterns) {
				return true
			}
		}
		return false

	case PredDeclaresVariant:
		return unit.HasVariantSymbols()

	case PredThirdPartyControl:
		for _, ref := range unit.NativeRefs {
			if matchesAny(ref.Identifier, r.Patterns) {
				return true
			}
		}
		return false

	case PredComplexityAbove:
		return facts.Complexity > r.Threshold

	case PredLineCountAbove:
		return unit.LineCount > r.Threshold

	case PredUnresolvedAbove:
		return facts.UnresolvedRefs > r.Threshold

	default:
		// Unknown predicates are rejected at load time
		return false
	}
}

// matchesAny reports a case-insensitive substring match against any pattern.
// Legacy identifiers are case-insensitive, so the comparison is too.
func matchesAny(name string, patterns []string) bool {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
