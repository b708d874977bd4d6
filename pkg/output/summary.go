package output

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/ritzau/migration-analyzer/pkg/model"
)

// PrintSummary prints a one-screen colorized digest of a report. The full
// rendering layer lives in a separate tool; this is just enough for a
// terminal sanity check.
func PrintSummary(report *model.MigrationReport) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Println("Migration-Risk Analyzer - Assessment Summary")
	bold.Println("============================================")
	fmt.Printf("Source root: %s\n", report.SourceRoot)
	fmt.Printf("Units analyzed: %d\n", report.UnitCount)

	autoColor := green
	if report.AutoMigrationPercentage < 80 {
		autoColor = yellow
	}
	if report.AutoMigrationPercentage < 50 {
		autoColor = red
	}
	autoColor.Printf("Auto-migratable: %.1f%% (risk < %.2f)\n",
		report.AutoMigrationPercentage, report.Conventions.AutoThreshold)

	if len(report.Clusters) > 0 {
		yellow.Printf("Cyclic clusters: %d (must migrate atomically)\n", len(report.Clusters))
	} else {
		green.Println("Cyclic clusters: none")
	}
	fmt.Println()

	if len(report.HighRiskUnits) > 0 {
		red.Println("HIGH-RISK UNITS:")
		limit := len(report.HighRiskUnits)
		if limit > 5 {
			limit = 5
		}
		for _, u := range report.HighRiskUnits[:limit] {
			yellow.Printf("  %s", u.Path)
			fmt.Printf("  risk=%.2f complexity=%d\n", u.RiskScore, u.Complexity)
			if len(u.DebtTags) > 0 {
				cyan.Printf("    tags: %v\n", u.DebtTags)
			}
		}
		if len(report.HighRiskUnits) > limit {
			fmt.Printf("  ... and %d more\n", len(report.HighRiskUnits)-limit)
		}
		fmt.Println()
	}

	fmt.Printf("Migration order: %d group(s)\n", len(report.MigrationOrder))
	fmt.Printf("Estimated effort: %.1f days (~%.0f)\n",
		report.EstimatedDurationDays, report.EstimatedCost)
	cyan.Println("  (heuristic estimate, not a committed plan)")

	for _, w := range report.Warnings {
		yellow.Printf("Warning: %s\n", w)
	}
	if n := len(report.Trouble.UnreadableFiles); n > 0 {
		yellow.Printf("Unreadable files: %d (see report for paths)\n", n)
	}
	if n := len(report.Trouble.OversizeFiles); n > 0 {
		yellow.Printf("Oversize files skipped: %d\n", n)
	}
}
