// Package analyzer orchestrates the four-stage pipeline: index, graph,
// score, plan. Every stage allocates fresh output; nothing is mutated in
// place, so a rerun from scratch is the only state model.
package analyzer

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/uuid"

	"github.com/ritzau/migration-analyzer/pkg/config"
	"github.com/ritzau/migration-analyzer/pkg/cycles"
	"github.com/ritzau/migration-analyzer/pkg/graph"
	"github.com/ritzau/migration-analyzer/pkg/indexer"
	"github.com/ritzau/migration-analyzer/pkg/logging"
	"github.com/ritzau/migration-analyzer/pkg/model"
	"github.com/ritzau/migration-analyzer/pkg/planner"
	"github.com/ritzau/migration-analyzer/pkg/rules"
	"github.com/ritzau/migration-analyzer/pkg/scorer"
)

// Analyze runs the full pipeline over cfg.SourceRoot on the real
// filesystem.
func Analyze(ctx context.Context, cfg *config.Config) (*model.MigrationReport, error) {
	return AnalyzeFS(ctx, os.DirFS(cfg.SourceRoot), cfg)
}

// AnalyzeFS runs the pipeline over an arbitrary fs.FS so tests can
// substitute an in-memory tree. The returned report serializes
// byte-identically for identical input and config.
func AnalyzeFS(ctx context.Context, fsys fs.FS, cfg *config.Config) (*model.MigrationReport, error) {
	ctx = logging.WithRunID(ctx, uuid.NewString())

	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	logging.InfoContext(ctx, "[1/4] indexing source tree", "root", cfg.SourceRoot)
	units, trouble, err := indexer.Index(ctx, fsys, indexer.Options{
		Suffixes:    cfg.FileSuffixes,
		ExcludeDirs: cfg.ExcludeDirs,
		Encoding:    cfg.Encoding,
		SizeCap:     cfg.FileSizeCapBytes,
		Workers:     cfg.WorkerCount,
	})
	if err != nil {
		return nil, err
	}
	logging.InfoContext(ctx, "[1/4] indexed", "units", len(units),
		"unreadable", len(trouble.UnreadableFiles), "oversize", len(trouble.OversizeFiles))

	logging.InfoContext(ctx, "[2/4] building dependency graph")
	g := graph.Build(units, graph.BuildOptions{DataAccessSymbols: cat.DataAccessSymbols})
	clusters := cycles.FindClusters(g)
	logging.InfoContext(ctx, "[2/4] graph complete", "edges", len(g.Edges()),
		"unresolved", len(g.Unresolved), "clusters", len(clusters))

	logging.InfoContext(ctx, "[3/4] scoring units", "rules", len(cat.Rules))
	scores, findings := scorer.ScoreAll(units, g.UnresolvedCountFor, cat)

	logging.InfoContext(ctx, "[4/4] aggregating report")
	report := planner.Aggregate(g, scores, findings, clusters, planner.Options{
		SourceRoot:    cfg.SourceRoot,
		AutoThreshold: cfg.AutoThreshold,
		HighRiskFloor: cfg.HighRiskFloor,
		BaseRate:      cfg.EffortBaseRate,
		DailyRate:     cfg.EffortDayRate,
	})
	report.Trouble = trouble

	logging.InfoContext(ctx, "analysis complete",
		"units", report.UnitCount,
		"autoPct", fmt.Sprintf("%.1f", report.AutoMigrationPercentage),
		"orderGroups", len(report.MigrationOrder))
	return report, nil
}

func loadCatalog(cfg *config.Config) (*rules.Catalog, error) {
	if cfg.RuleCatalog == "" {
		return rules.Default(), nil
	}
	return rules.Load(cfg.RuleCatalog)
}
