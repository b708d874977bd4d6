package rules

import "github.com/ritzau/migration-analyzer/pkg/model"

// Default returns the built-in catalog used when no catalog file is
// configured. The weights mirror the informal triage practice for classic
// desktop codebases: native interop and third-party controls dominate,
// structural size signals nudge.
func Default() *Catalog {
	return &Catalog{
		DataAccessSymbols: []string{
			"OpenDatabase", "OpenRecordset", "OpenConnection",
			"ADODB.Connection", "ADODB.Recordset", "Execute",
		},
		Rules: []Rule{
			{
				ID:          "native-interop",
				Description: "unit references registered COM/ActiveX components",
				Severity:    model.SeverityHigh,
				Weight:      0.4,
				Predicate:   PredHasNativeRefs,
				Mitigation:  "generate an interop wrapper or replace the component before porting",
			},
			{
				ID:          "deprecated-api",
				Description: "unit calls deprecated or unportable library entry points",
				Severity:    model.SeverityWarning,
				Weight:      0.3,
				Predicate:   PredAPICallMatches,
				Patterns: []string{
					"VarPtr", "StrPtr", "ObjPtr", "CopyMemory",
					"GetWindowLong", "SetWindowLong", "winmm", "ole32",
				},
				Mitigation: "replace direct API usage with managed equivalents",
			},
			{
				ID:          "third-party-control",
				Description: "unit depends on a third-party visual control",
				Severity:    model.SeverityHigh,
				Weight:      0.5,
				Predicate:   PredThirdPartyControl,
				Patterns:    []string{"ocx", "crystal", "sheridan", "threed", "comctl"},
				Mitigation:  "source a modern control with equivalent behavior; plan a manual UI port",
			},
			{
				ID:          "dynamic-typing",
				Description: "unit declares variant or untyped symbols",
				Severity:    model.SeverityWarning,
				Weight:      0.2,
				Predicate:   PredDeclaresVariant,
				Mitigation:  "tighten declarations to concrete types before automated conversion",
			},
			{
				ID:          "high-complexity",
				Description: "branch-token complexity exceeds the triage threshold",
				Severity:    model.SeverityWarning,
				Weight:      0.2,
				Predicate:   PredComplexityAbove,
				Threshold:   50,
				Mitigation:  "decompose the unit before migration",
			},
			{
				ID:          "unresolved-references",
				Description: "unit references symbols no indexed unit declares",
				Severity:    model.SeverityInfo,
				Weight:      0.1,
				Predicate:   PredUnresolvedAbove,
				Threshold:   5,
				Mitigation:  "locate the missing sources or confirm the references are dead",
			},
		},
	}
}
