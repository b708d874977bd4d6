// Package rules holds the weighted risk-rule catalog. Weights and predicates
// are configuration, not code, so a catalog can be tuned per target platform
// without touching the scorer.
package rules

import (
	"fmt"
	"sort"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ritzau/migration-analyzer/pkg/model"
)

// Predicate names a structural signal a rule can test for
type Predicate string

const (
	PredHasNativeRefs     Predicate = "has-native-refs"
	PredAPICallMatches    Predicate = "api-call-matches"
	PredDeclaresVariant   Predicate = "declares-variant"
	PredThirdPartyControl Predicate = "third-party-control"
	PredComplexityAbove   Predicate = "complexity-above"
	PredLineCountAbove    Predicate = "line-count-above"
	PredUnresolvedAbove   Predicate = "unresolved-refs-above"
)

var validPredicates = map[Predicate]bool{
	PredHasNativeRefs:     true,
	PredAPICallMatches:    true,
	PredDeclaresVariant:   true,
	PredThirdPartyControl: true,
	PredComplexityAbove:   true,
	PredLineCountAbove:    true,
	PredUnresolvedAbove:   true,
}

// Rule is one weighted, independent risk signal. Rules are additive and
// orderless; the scorer clamps the sum at the end.
type Rule struct {
	ID          string         `koanf:"id"`
	Description string         `koanf:"description"`
	Severity    model.Severity `koanf:"severity"`
	Weight      float64        `koanf:"weight"`
	Predicate   Predicate      `koanf:"predicate"`
	Patterns    []string       `koanf:"patterns"`  // api-call-matches, third-party-control
	Threshold   int            `koanf:"threshold"` // complexity-above, line-count-above, unresolved-refs-above
	Mitigation  string         `koanf:"mitigation"`
}

// Catalog is the full rule set plus auxiliary symbol tables shared by the
// graph builder (data-access edge classification). Read-only after load.
type Catalog struct {
	Rules             []Rule   `koanf:"rules"`
	DataAccessSymbols []string `koanf:"data_access_symbols"`
}

// Load reads a TOML catalog from path and validates it
func Load(path string) (*Catalog, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load rule catalog %s: %w", path, err)
	}
	var cat Catalog
	if err := k.Unmarshal("", &cat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rule catalog %s: %w", path, err)
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule catalog %s: %w", path, err)
	}
	return &cat, nil
}

// Validate checks rule IDs, predicates, and weights
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Rules))
	for i, r := range c.Rules {
		if r.ID == "" {
			return fmt.Errorf("rule %d has no id", i)
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate rule id %q", r.ID)
		}
		seen[r.ID] = true
		if !validPredicates[r.Predicate] {
			return fmt.Errorf("rule %q: unknown predicate %q", r.ID, r.Predicate)
		}
		if r.Weight < 0 || r.Weight > 1 {
			return fmt.Errorf("rule %q: weight must be in [0,1], got %g", r.ID, r.Weight)
		}
		switch r.Severity {
		case model.SeverityInfo, model.SeverityWarning, model.SeverityHigh:
		case "":
			return fmt.Errorf("rule %q: severity missing", r.ID)
		default:
			return fmt.Errorf("rule %q: unknown severity %q", r.ID, r.Severity)
		}
	}
	return nil
}

// SortedRules returns the rules ordered by ID. Evaluation order does not
// affect scores, but deterministic output (findings, debt tags) wants a
// fixed order anyway.
func (c *Catalog) SortedRules() []Rule {
	out := make([]Rule, len(c.Rules))
	copy(out, c.Rules)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
