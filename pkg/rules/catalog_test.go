package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ritzau/migration-analyzer/pkg/model"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default catalog must validate, got: %v", err)
	}
}

func TestValidateRejectsUnknownPredicate(t *testing.T) {
	cat := &Catalog{Rules: []Rule{{
		ID:        "bogus",
		Severity:  model.SeverityInfo,
		Weight:    0.1,
		Predicate: "phase-of-the-moon",
	}}}
	if err := cat.Validate(); err == nil {
		t.Fatal("Expected an error for an unknown predicate")
	}
}

func TestValidateRejectsDuplicateIDs(t *testing.T) {
	cat := &Catalog{Rules: []Rule{
		{ID: "dup", Severity: model.SeverityInfo, Weight: 0.1, Predicate: PredHasNativeRefs},
		{ID: "dup", Severity: model.SeverityInfo, Weight: 0.1, Predicate: PredDeclaresVariant},
	}}
	if err := cat.Validate(); err == nil {
		t.Fatal("Expected an error for duplicate rule IDs")
	}
}

func TestValidateRejectsBadWeight(t *testing.T) {
	cat := &Catalog{Rules: []Rule{{
		ID: "heavy", Severity: model.SeverityHigh, Weight: 1.5, Predicate: PredHasNativeRefs,
	}}}
	if err := cat.Validate(); err == nil {
		t.Fatal("Expected an error for weight outside [0,1]")
	}

	cat.Rules[0].Weight = -0.1
	if err := cat.Validate(); err == nil {
		t.Fatal("Expected an error for a negative weight")
	}
}

func TestLoadCatalogFile(t *testing.T) {
	content := `
data_access_symbols = ["OpenRecordset"]

[[rules]]
id = "native-interop"
description = "COM reference"
severity = "high"
weight = 0.4
predicate = "has-native-refs"
mitigation = "wrap it"

[[rules]]
id = "big-unit"
severity = "warning"
weight = 0.2
predicate = "line-count-above"
threshold = 1000
`
	path := filepath.Join(t.TempDir(), "catalog.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cat.Rules) != 2 {
		t.Fatalf("Expected 2 rules, got %d", len(cat.Rules))
	}
	if cat.Rules[1].Threshold != 1000 {
		t.Errorf("Expected threshold 1000, got %d", cat.Rules[1].Threshold)
	}
	if len(cat.DataAccessSymbols) != 1 {
		t.Errorf("Expected one data-access symbol, got %v", cat.DataAccessSymbols)
	}
}

func TestLoadCatalogRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	content := `
[[rules]]
id = "x"
severity = "high"
weight = 0.3
predicate = "not-a-predicate"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Expected load to fail on an unknown predicate")
	}
}

func TestPredicates(t *testing.T) {
	unit := &model.Unit{
		ID:     "u1",
		Source: model.SourceFile{Path: "a.bas"},
		Symbols: []model.Symbol{
			{Name: "cache", Kind: model.SymbolVariable, Variant: true},
		},
		APICalls: []model.APICall{
			{Name: "CopyMemory", Library: "kernel32"},
		},
		NativeRefs: []model.NativeRef{
			{Identifier: "Crystal.Report"},
		},
		LineCount: 1200,
	}
	facts := UnitFacts{Complexity: 60, UnresolvedRefs: 2}

	cases := []struct {
		rule Rule
		want bool
	}{
		{Rule{Predicate: PredHasNativeRefs}, true},
		{Rule{Predicate: PredDeclaresVariant}, true},
		{Rule{Predicate: PredAPICallMatches, Patterns: []string{"copymemory"}}, true},
		{Rule{Predicate: PredAPICallMatches, Patterns: []string{"GetProcAddress"}}, false},
		{Rule{Predicate: PredThirdPartyControl, Patterns: []string{"crystal"}}, true},
		{Rule{Predicate: PredComplexityAbove, Threshold: 50}, true},
		{Rule{Predicate: PredComplexityAbove, Threshold: 60}, false},
		{Rule{Predicate: PredLineCountAbove, Threshold: 1000}, true},
		{Rule{Predicate: PredUnresolvedAbove, Threshold: 5}, false},
		{Rule{Predicate: PredUnresolvedAbove, Threshold: 1}, true},
	}
	for _, c := range cases {
		if got := c.rule.Matches(unit, facts); got != c.want {
			t.Errorf("%s (patterns %v, threshold %d): expected %v, got %v",
				c.rule.Predicate, c.rule.Patterns, c.rule.Threshold, c.want, got)
		}
	}
}
