// Package indexer walks a legacy source tree and lexes each matching file
// into an immutable Unit record. No cross-module resolution happens here;
// that is the graph builder's job.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ritzau/migration-analyzer/pkg/logging"
	"github.com/ritzau/migration-analyzer/pkg/model"
)

// Options configures an index pass
type Options struct {
	Suffixes    []string // Files outside this set are ignored, not errored
	ExcludeDirs []string // Directory names skipped during the walk
	Encoding    string   // Codepage for files without a BOM
	SizeCap     int64    // Files above this many bytes are skipped
	Workers     int      // Worker pool size
}

// Index scans fsys and returns one Unit per readable matching file, sorted by
// path. File-level problems land in the trouble set; only filesystem-level
// errors (missing root, permission denied) or cancellation fail the call.
func Index(ctx context.Context, fsys fs.FS, opts Options) ([]model.Unit, model.IndexTrouble, error) {
	var trouble model.IndexTrouble

	if !KnownEncoding(opts.Encoding) {
		return nil, trouble, fmt.Errorf("unsupported encoding %q", opts.Encoding)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	if _, err := fs.Stat(fsys, "."); err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, trouble, model.ErrRootNotFound
		case errors.Is(err, fs.ErrPermission):
			return nil, trouble, model.ErrPermissionDenied
		default:
			return nil, trouble, fmt.Errorf("stat source root: %w", err)
		}
	}

	files, trouble, err := collectFiles(fsys, opts, trouble)
	if err != nil {
		return nil, trouble, err
	}
	logging.DebugContext(ctx, "index pass starting", "files", len(files), "workers", opts.Workers)

	var (
		mu        sync.Mutex
		units     []model.Unit
		cancelled bool
	)

	g := new(errgroup.Group)
	g.SetLimit(opts.Workers)

	for _, f := range files {
		// Cancellation is cooperative at file granularity: stop dispatching,
		// let in-flight scans finish.
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		g.Go(func() error {
			unit, ft := indexFile(fsys, f, opts)
			mu.Lock()
			defer mu.Unlock()
			if ft != nil {
				trouble.UnreadableFiles = append(trouble.UnreadableFiles, *ft)
				return nil
			}
			units = append(units, *unit)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; troubles are data

	// Completion order is nondeterministic; the path sort restores it
	sort.Slice(units, func(i, j int) bool { return units[i].Source.Path < units[j].Source.Path })
	sort.Slice(trouble.UnreadableFiles, func(i, j int) bool {
		return trouble.UnreadableFiles[i].Path < trouble.UnreadableFiles[j].Path
	})

	if cancelled || ctx.Err() != nil {
		return nil, trouble, &model.CancelledError{Partial: units}
	}
	return units, trouble, nil
}

type candidate struct {
	path string
	size int64
}

// collectFiles walks the tree and gathers allowlisted files, recording
// oversize skips and unwalkable subtrees as trouble.
func collectFiles(fsys fs.FS, opts Options, trouble model.IndexTrouble) ([]candidate, model.IndexTrouble, error) {
	excluded := make(map[string]bool, len(opts.ExcludeDirs))
	for _, d := range opts.ExcludeDirs {
		excluded[d] = true
	}

	var files []candidate
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == "." {
				return err
			}
			// A subtree we cannot enter is a warning, not a run failure
			trouble.WalkWarnings = append(trouble.WalkWarnings, fmt.Sprintf("skipping %s: %v", p, err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if excluded[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if !matchesSuffix(p, opts.Suffixes) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			trouble.WalkWarnings = append(trouble.WalkWarnings, fmt.Sprintf("stat %s: %v", p, err))
			return nil
		}
		if opts.SizeCap > 0 && info.Size() > opts.SizeCap {
			trouble.OversizeFiles = append(trouble.OversizeFiles, model.FileTrouble{
				Path:   p,
				Reason: fmt.Sprintf("size %d exceeds cap %d", info.Size(), opts.SizeCap),
			})
			return nil
		}
		files = append(files, candidate{path: p, size: info.Size()})
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, trouble, model.ErrRootNotFound
		case errors.Is(err, fs.ErrPermission):
			return nil, trouble, model.ErrPermissionDenied
		default:
			return nil, trouble, fmt.Errorf("walking source root: %w", err)
		}
	}
	return files, trouble, nil
}

// indexFile reads, decodes, and lexes one file. A nil FileTrouble means the
// unit is usable (possibly with parse warnings attached).
func indexFile(fsys fs.FS, f candidate, opts Options) (*model.Unit, *model.FileTrouble) {
	raw, err := fs.ReadFile(fsys, f.path)
	if err != nil {
		return nil, &model.FileTrouble{Path: f.path, Reason: fmt.Sprintf("read failed: %v", err)}
	}

	text, enc, err := decodeFile(raw, opts.Encoding)
	if err != nil {
		// Never partially index a file the codec cannot decode
		return nil, &model.FileTrouble{Path: f.path, Reason: fmt.Sprintf("undecodable as %s: %v", enc, err)}
	}

	kind := kindForPath(f.path)
	symbols, calls, apiCalls, nativeRefs, branches, warnings := lexUnit(text, kind)

	unit := &model.Unit{
		ID:   model.UnitID(f.path),
		Kind: kind,
		Source: model.SourceFile{
			Path:     f.path,
			ByteSize: int64(len(raw)),
			Encoding: enc,
		},
		Symbols:       symbols,
		CallSites:     calls,
		APICalls:      apiCalls,
		NativeRefs:    nativeRefs,
		LineCount:     countLines(text),
		BranchTokens:  branches,
		ParseWarnings: warnings,
	}

	// Fall back to the file stem when no VB_Name attribute named the unit
	if !hasUnitName(symbols) && kind != model.UnitKindManifest {
		stem := strings.TrimSuffix(path.Base(f.path), path.Ext(f.path))
		unit.Symbols = append(unit.Symbols, model.Symbol{Name: stem, Kind: model.SymbolUnitName})
	}
	return unit, nil
}

func hasUnitName(symbols []model.Symbol) bool {
	for _, s := range symbols {
		if s.Kind == model.SymbolUnitName {
			return true
		}
	}
	return false
}

func matchesSuffix(p string, suffixes []string) bool {
	lower := strings.ToLower(p)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

func kindForPath(p string) model.UnitKind {
	switch strings.ToLower(path.Ext(p)) {
	case ".cls":
		return model.UnitKindClass
	case ".frm", ".ctl":
		return model.UnitKindForm
	case ".vbp":
		return model.UnitKindManifest
	default:
		return model.UnitKindModule
	}
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
