package model

import (
	"bytes"
	"encoding/json"
)

// SchemaVersion identifies the MigrationReport wire format. Bump on any
// incompatible change so downstream rendering tooling can detect it.
const SchemaVersion = "1"

// EstimateDisclaimer is attached verbatim to every report. The effort formula
// is uncalibrated and must never be read as a committed plan.
const EstimateDisclaimer = "duration and cost are heuristic estimates derived from " +
	"line counts and risk scores; they are not a committed plan"

// Conventions documents the score direction and threshold the report was
// produced under, so a consumer never has to guess which convention applies.
type Conventions struct {
	RiskDirection string  `json:"riskDirection"` // "higher-is-riskier"
	AutoThreshold float64 `json:"autoThreshold"` // Units below this risk score count as auto-migratable
}

// RankedUnit is one entry of the high-risk ranking
type RankedUnit struct {
	UnitID     string   `json:"unitId"`
	Path       string   `json:"path"`
	RiskScore  float64  `json:"riskScore"`
	Complexity int      `json:"complexity"`
	DebtTags   []string `json:"debtTags,omitempty"`
}

// MigrationGroup is one step of the migration order: a single unit, or a
// cycle-collapsed cluster that must move atomically.
type MigrationGroup struct {
	Units   []string `json:"units"` // Unit IDs, sorted
	Cluster bool     `json:"cluster,omitempty"`
}

// MigrationReport is the analyzer's end product. It is recomputed wholesale
// on every run and carries no timestamps or random identifiers, so that two
// runs over identical input serialize byte-identically.
type MigrationReport struct {
	SchemaVersion string      `json:"schemaVersion"`
	SourceRoot    string      `json:"sourceRoot"`
	Conventions   Conventions `json:"conventions"`

	UnitCount               int     `json:"unitCount"`
	AutoMigrationPercentage float64 `json:"autoMigrationPercentage"`

	HighRiskUnits      []RankedUnit      `json:"highRiskUnits"`
	RequiredManualWork map[string]string `json:"requiredManualWork,omitempty"` // Unit ID -> rationale

	EstimatedDurationDays float64 `json:"estimatedDurationDays"`
	EstimatedCost         float64 `json:"estimatedCost"`
	EstimateDisclaimer    string  `json:"estimateDisclaimer"`

	MigrationOrder []MigrationGroup   `json:"migrationOrder"`
	Clusters       []MigrationCluster `json:"clusters,omitempty"`

	Scores     []ComponentScore      `json:"scores,omitempty"`   // Sorted by unit ID
	Findings   []RiskFinding         `json:"findings,omitempty"` // Unit ID, then rule ID
	Unresolved []UnresolvedReference `json:"unresolvedReferences,omitempty"`

	Trouble  IndexTrouble `json:"indexTrouble"`
	Warnings []string     `json:"warnings,omitempty"`
}

// Marshal serializes the report as indented JSON. Map keys are emitted in
// sorted order by encoding/json and every slice field is pre-sorted by the
// planner, so the output is deterministic.
func (r *MigrationReport) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
