package analyzer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/ritzau/migration-analyzer/pkg/config"
	"github.com/ritzau/migration-analyzer/pkg/model"
)

func testConfig() *config.Config {
	return &config.Config{
		SourceRoot:       "/legacy/app",
		AutoThreshold:    0.2,
		HighRiskFloor:    0.5,
		EffortBaseRate:   1.5,
		EffortDayRate:    800,
		FileSizeCapBytes: 1 << 20,
		WorkerCount:      2,
		FileSuffixes:     []string{".bas", ".cls", ".frm", ".vbp"},
		ExcludeDirs:      []string{".git"},
		Encoding:         "windows-1252",
	}
}

// Three modules in a reference cycle; only ModB instantiates a COM object.
func cycleTree() fstest.MapFS {
	return fstest.MapFS{
		"ModA.bas": {Data: []byte("Attribute VB_Name = \"ModA\"\r\n" +
			"Public Sub AlphaMain()\r\n" +
			"    Call BetaStep\r\n" +
			"End Sub\r\n")},
		"ModB.bas": {Data: []byte("Attribute VB_Name = \"ModB\"\r\n" +
			"Public Sub BetaStep()\r\n" +
			"    Set conn = CreateObject(\"ADODB.Connection\")\r\n" +
			"    Call GammaStep\r\n" +
			"End Sub\r\n")},
		"ModC.bas": {Data: []byte("Attribute VB_Name = \"ModC\"\r\n" +
			"Public Sub GammaStep()\r\n" +
			"    Call AlphaMain\r\n" +
			"End Sub\r\n")},
	}
}

func writeCatalog(t *testing.T) string {
	t.Helper()
	content := `
[[rules]]
id = "native-interop"
description = "COM component reference"
severity = "high"
weight = 0.5
predicate = "has-native-refs"
mitigation = "replace with a managed equivalent"
`
	path := filepath.Join(t.TempDir(), "catalog.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAnalyzeCycleScenario(t *testing.T) {
	cfg := testConfig()
	cfg.RuleCatalog = writeCatalog(t)

	report, err := AnalyzeFS(context.Background(), cycleTree(), cfg)
	if err != nil {
		t.Fatalf("AnalyzeFS() error = %v", err)
	}

	if report.UnitCount != 3 {
		t.Fatalf("Expected 3 units, got %d", report.UnitCount)
	}

	// The reference cycle collapses to a single cluster covering all units
	if len(report.Clusters) != 1 {
		t.Fatalf("Expected 1 cluster, got %d", len(report.Clusters))
	}
	if len(report.Clusters[0].Units) != 3 {
		t.Errorf("Expected all 3 units in the cluster, got %v", report.Clusters[0].Units)
	}
	if len(report.MigrationOrder) != 1 || !report.MigrationOrder[0].Cluster {
		t.Errorf("Expected a single cluster group in the order, got %+v", report.MigrationOrder)
	}

	// Only ModB matches the single 0.5-weight rule
	bID := model.UnitID("ModB.bas")
	for _, s := range report.Scores {
		want := 0.0
		if s.UnitID == bID {
			want = 0.5
		}
		if s.RiskScore != want {
			t.Errorf("Unit %s: expected risk %g, got %g", s.UnitID, want, s.RiskScore)
		}
	}

	if len(report.HighRiskUnits) != 1 || report.HighRiskUnits[0].Path != "ModB.bas" {
		t.Errorf("Expected ModB.bas as the only high-risk unit, got %+v", report.HighRiskUnits)
	}
	if _, ok := report.RequiredManualWork[bID]; !ok {
		t.Error("Expected a manual work entry for ModB")
	}

	// ModA and ModC sit below the 0.2 threshold
	if report.AutoMigrationPercentage < 66.6 || report.AutoMigrationPercentage > 66.7 {
		t.Errorf("Expected ~66.7%% auto migration, got %g", report.AutoMigrationPercentage)
	}

	// The COM reference resolves to no indexed unit
	foundRef := false
	for _, u := range report.Unresolved {
		if u.Symbol == "ADODB.Connection" {
			foundRef = true
		}
	}
	if !foundRef {
		t.Errorf("Expected ADODB.Connection among unresolved references, got %+v", report.Unresolved)
	}
}

func TestAnalyzeDeterministicOutput(t *testing.T) {
	cfg := testConfig()
	cfg.RuleCatalog = writeCatalog(t)

	first, err := AnalyzeFS(context.Background(), cycleTree(), cfg)
	if err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	second, err := AnalyzeFS(context.Background(), cycleTree(), cfg)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	a, err := first.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	b, err := second.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("Two runs over identical input must serialize byte-identically")
	}
}

func TestAnalyzeDefaultCatalog(t *testing.T) {
	cfg := testConfig()

	report, err := AnalyzeFS(context.Background(), cycleTree(), cfg)
	if err != nil {
		t.Fatalf("AnalyzeFS() error = %v", err)
	}
	bID := model.UnitID("ModB.bas")
	var bScore model.ComponentScore
	for _, s := range report.Scores {
		if s.UnitID == bID {
			bScore = s
		}
	}
	if bScore.RiskScore <= 0 {
		t.Errorf("Built-in rules should flag the COM reference, got risk %g", bScore.RiskScore)
	}
}

func TestAnalyzeEmptyTree(t *testing.T) {
	cfg := testConfig()

	report, err := AnalyzeFS(context.Background(), fstest.MapFS{
		"README.txt": {Data: []byte("nothing to migrate here")},
	}, cfg)
	if err != nil {
		t.Fatalf("AnalyzeFS() error = %v", err)
	}
	if report.UnitCount != 0 {
		t.Errorf("Expected 0 units, got %d", report.UnitCount)
	}
	if report.AutoMigrationPercentage != 0 {
		t.Errorf("Expected 0%% auto migration, got %g", report.AutoMigrationPercentage)
	}
	if len(report.Warnings) == 0 {
		t.Error("Expected an empty-input warning")
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	cfg := testConfig()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := AnalyzeFS(ctx, cycleTree(), cfg)
	if err == nil {
		t.Fatal("Expected an error from a cancelled context")
	}
	var cerr *model.CancelledError
	if !errors.As(err, &cerr) {
		t.Errorf("Expected a CancelledError, got %T: %v", err, err)
	}
}

func TestAnalyzeUnreadableFileIsReported(t *testing.T) {
	cfg := testConfig()
	fsys := cycleTree()
	// 0x81 has no assignment in windows-1252
	fsys["Broken.bas"] = &fstest.MapFile{Data: []byte{'D', 'i', 'm', ' ', 0x81}}

	report, err := AnalyzeFS(context.Background(), fsys, cfg)
	if err != nil {
		t.Fatalf("AnalyzeFS() error = %v", err)
	}
	if report.UnitCount != 3 {
		t.Errorf("The unreadable file must not become a unit, got %d units", report.UnitCount)
	}
	if len(report.Trouble.UnreadableFiles) != 1 {
		t.Fatalf("Expected 1 unreadable file, got %+v", report.Trouble)
	}
	if report.Trouble.UnreadableFiles[0].Path != "Broken.bas" {
		t.Errorf("Unexpected unreadable path %q", report.Trouble.UnreadableFiles[0].Path)
	}
}
