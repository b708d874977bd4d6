package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ritzau/migration-analyzer/pkg/model"
)

// BuildOptions tunes reference classification
type BuildOptions struct {
	// DataAccessSymbols marks call targets that represent database access;
	// edges through them get the data-access kind.
	DataAccessSymbols []string
}

// Build resolves every call site, API call, and native reference of every
// unit against a global symbol table and returns the dependency graph.
// Iteration is input unit order, then alphabetical symbol name, so identical
// input always yields an identical graph.
func Build(units []model.Unit, opts BuildOptions) *Graph {
	g := New(units)

	dataAccess := make(map[string]bool, len(opts.DataAccessSymbols))
	for _, s := range opts.DataAccessSymbols {
		dataAccess[strings.ToLower(s)] = true
	}

	// Global symbol table: lowercased name -> owning unit ID. Legacy symbol
	// lookup is case-insensitive. First declarer in input order wins;
	// collisions are recorded, not resolved.
	owners := make(map[string]string)
	for _, u := range units {
		for _, sym := range u.Symbols {
			key := strings.ToLower(sym.Name)
			if prev, ok := owners[key]; ok {
				if prev != u.ID {
					g.Warnings = append(g.Warnings, fmt.Sprintf(
						"symbol %q declared by both %s and %s; first declarer wins", sym.Name, prev, u.ID))
				}
				continue
			}
			owners[key] = u.ID
		}
	}

	for _, u := range units {
		for _, call := range sortedCalls(u.CallSites) {
			key := strings.ToLower(call.Symbol)
			owner, ok := owners[key]
			if !ok {
				if call.External {
					g.AddUnresolved(model.UnresolvedReference{
						From:   u.ID,
						Symbol: call.Symbol,
						Kind:   model.EdgeReference,
					})
				}
				continue
			}
			kind := model.EdgeReference
			if dataAccess[key] {
				kind = model.EdgeDataAccess
			}
			g.AddEdge(u.ID, owner, kind)
		}

		// A Declare shared from another module resolves like any symbol, but
		// the edge is an interop bridge, not a direct code port.
		for _, api := range sortedAPICalls(u.APICalls) {
			owner, ok := owners[strings.ToLower(api.Name)]
			if ok {
				g.AddEdge(u.ID, owner, model.EdgeNativeBridge)
			}
		}

		for _, ref := range sortedNativeRefs(u.NativeRefs) {
			owner, ok := owners[strings.ToLower(ref.Identifier)]
			if ok {
				g.AddEdge(u.ID, owner, model.EdgeNativeBridge)
				continue
			}
			detail := ref.GUID
			if ref.Version != "" {
				detail = detail + "#" + ref.Version
			}
			g.AddUnresolved(model.UnresolvedReference{
				From:   u.ID,
				Symbol: ref.Identifier,
				Kind:   model.EdgeNativeBridge,
				Detail: detail,
			})
		}
	}

	sort.Slice(g.Unresolved, func(i, j int) bool {
		a, b := g.Unresolved[i], g.Unresolved[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		return a.Kind < b.Kind
	})
	return g
}

func sortedCalls(calls []model.CallSite) []model.CallSite {
	out := make([]model.CallSite, len(calls))
	copy(out, calls)
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Symbol) < strings.ToLower(out[j].Symbol)
	})
	return out
}

func sortedAPICalls(calls []model.APICall) []model.APICall {
	out := make([]model.APICall, len(calls))
	copy(out, calls)
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func sortedNativeRefs(refs []model.NativeRef) []model.NativeRef {
	out := make([]model.NativeRef, len(refs))
	copy(out, refs)
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Identifier) < strings.ToLower(out[j].Identifier)
	})
	return out
}
