package model

// UnitKind represents the kind of analyzable source granule
type UnitKind string

const (
	UnitKindModule   UnitKind = "module"           // .bas procedural module
	UnitKindClass    UnitKind = "class"            // .cls class module
	UnitKindForm     UnitKind = "form"             // .frm form or .ctl user control
	UnitKindManifest UnitKind = "project-manifest" // .vbp project file
)

// EdgeKind represents the kind of dependency between units
type EdgeKind string

const (
	EdgeReference    EdgeKind = "reference"     // Ordinary source-level call or symbol use
	EdgeNativeBridge EdgeKind = "native-bridge" // Call into a registered COM/ActiveX component
	EdgeDataAccess   EdgeKind = "data-access"   // Database/recordset access path
)

// Severity classifies a risk finding
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityHigh    Severity = "high"
)

// SymbolKind represents the kind of a declared symbol
type SymbolKind string

const (
	SymbolProcedure SymbolKind = "procedure"
	SymbolProperty  SymbolKind = "property"
	SymbolConstant  SymbolKind = "constant"
	SymbolVariable  SymbolKind = "variable"
	SymbolUnitName  SymbolKind = "unit-name" // The unit's own VB_Name; resolves manifest rows
)

// SourceFile describes the on-disk origin of a unit. Immutable once read.
type SourceFile struct {
	Path     string `json:"path"`     // Slash-separated path relative to the source root
	ByteSize int64  `json:"byteSize"` // Raw length before decoding
	Encoding string `json:"encoding"` // Codec the file was decoded with (e.g. "windows-1252")
}

// Symbol is a declared name inside a unit
type Symbol struct {
	Name    string     `json:"name"`
	Kind    SymbolKind `json:"kind"`
	Variant bool       `json:"variant,omitempty"` // Declared without a type, or As Variant/Object
}

// CallSite records an invocation of a named symbol
type CallSite struct {
	Symbol   string `json:"symbol"`
	External bool   `json:"external,omitempty"` // Not declared in the calling unit itself
}

// APICall records a call routed through a declared external library entry point
type APICall struct {
	Name      string `json:"name"`
	Library   string `json:"library"`   // e.g. "kernel32", "odbc32"
	Signature string `json:"signature"` // Raw declaration line, verbatim
}

// NativeRef records a registered COM/ActiveX component reference
type NativeRef struct {
	Identifier           string `json:"identifier"` // ProgID or library name
	GUID                 string `json:"guid,omitempty"`
	Version              string `json:"version,omitempty"`
	RegistrationRequired bool   `json:"registrationRequired"`
}

// Unit is the analyzable granule: one module, class, form, or project
// manifest. Units are created once per run by the indexer and never mutated
// afterwards.
type Unit struct {
	ID            string      `json:"id"` // Stable hash of Source.Path
	Kind          UnitKind    `json:"kind"`
	Source        SourceFile  `json:"source"`
	Symbols       []Symbol    `json:"symbols,omitempty"`
	CallSites     []CallSite  `json:"callSites,omitempty"`
	APICalls      []APICall   `json:"apiCalls,omitempty"`
	NativeRefs    []NativeRef `json:"nativeRefs,omitempty"`
	LineCount     int         `json:"lineCount"`
	BranchTokens  int         `json:"branchTokens"` // Conditional/loop/case keyword count
	ParseWarnings []string    `json:"parseWarnings,omitempty"`
}

// HasVariantSymbols reports whether any declared symbol is dynamically typed
func (u *Unit) HasVariantSymbols() bool {
	for _, s := range u.Symbols {
		if s.Variant {
			return true
		}
	}
	return false
}

// DependencyEdge is a directed edge from a dependent unit to its dependency
type DependencyEdge struct {
	From string   `json:"from"` // Dependent unit ID
	To   string   `json:"to"`   // Dependency unit ID
	Kind EdgeKind `json:"kind"`
}

// UnresolvedReference records a call or component reference that no indexed
// unit owns. Never silently dropped; a unit with many of these typically also
// scores as high-risk through the rule catalog, which is the intended signal
// path.
type UnresolvedReference struct {
	From   string   `json:"from"`   // Referencing unit ID
	Symbol string   `json:"symbol"` // Name or component identifier that failed to resolve
	Kind   EdgeKind `json:"kind"`
	Detail string   `json:"detail,omitempty"` // e.g. GUID/version of an unregistered component
}

// MigrationCluster is a strongly connected component of size > 1. Its units
// must migrate atomically; the analyzer surfaces it and never breaks it.
type MigrationCluster struct {
	Units []string `json:"units"` // Unit IDs, sorted
}

// RiskFinding is a single rule-catalog hit against a unit
type RiskFinding struct {
	UnitID     string   `json:"unitId"`
	RuleID     string   `json:"ruleId"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Mitigation string   `json:"suggestedMitigation,omitempty"`
}

// ComponentScore is the per-unit scoring result
type ComponentScore struct {
	UnitID            string   `json:"unitId"`
	Complexity        int      `json:"complexity"`
	RiskScore         float64  `json:"riskScore"`         // [0,1], 1 = fully blocked from automated migration
	TechnicalDebtTags []string `json:"technicalDebtTags"` // Rule IDs that fired, sorted
}

// FileTrouble records a file the indexer could not analyze
type FileTrouble struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// IndexTrouble collects the recoverable problems of an index pass. All lists
// are additive; nothing here aborts a run.
type IndexTrouble struct {
	UnreadableFiles []FileTrouble `json:"unreadableFiles,omitempty"`
	OversizeFiles   []FileTrouble `json:"oversizeFiles,omitempty"`
	WalkWarnings    []string      `json:"walkWarnings,omitempty"`
}

// Merge appends another trouble set onto this one
func (t *IndexTrouble) Merge(other IndexTrouble) {
	t.UnreadableFiles = append(t.UnreadableFiles, other.UnreadableFiles...)
	t.OversizeFiles = append(t.OversizeFiles, other.OversizeFiles...)
	t.WalkWarnings = append(t.WalkWarnings, other.WalkWarnings...)
}
