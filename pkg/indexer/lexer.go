package indexer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ritzau/migration-analyzer/pkg/model"
)

// The scan is lexical, not grammatical: declaration headers by keyword
// matching, call expressions by identifier-before-paren, external references
// by a pattern table. Broken lines degrade to parse warnings, never to a
// failed unit.

var (
	reDeclare = regexp.MustCompile(`(?i)^\s*(?:public\s+|private\s+)?declare\s+(?:ptrsafe\s+)?(?:sub|function)\s+(\w+)\s+lib\s+"([^"]+)"`)
	reProc    = regexp.MustCompile(`(?i)^\s*(?:public\s+|private\s+|friend\s+)?(?:static\s+)?(sub|function)\s+(\w+)\s*\(`)
	reProp    = regexp.MustCompile(`(?i)^\s*(?:public\s+|private\s+|friend\s+)?property\s+(?:get|let|set)\s+(\w+)`)
	reConst   = regexp.MustCompile(`(?i)^\s*(?:public\s+|private\s+|global\s+)?const\s+(\w+)`)
	reVar     = regexp.MustCompile(`(?i)^\s*(?:dim|public|private|global)\s+(?:withevents\s+)?(\w+)(\s+as\s+(\w+(?:\.\w+)?))?\s*$`)
	reVBName  = regexp.MustCompile(`(?i)^\s*attribute\s+vb_name\s*=\s*"([^"]+)"`)
	reCall    = regexp.MustCompile(`(?i)(?:^|[^\w.])(?:(\w+)\.)?(\w+)\s*\(`)
	reCallStm = regexp.MustCompile(`(?i)^\s*call\s+(?:(\w+)\.)?(\w+)`)

	// .frm/.ctl embedded component references
	reObjectLine = regexp.MustCompile(`(?i)^\s*object\s*=\s*"\{([0-9a-f-]+)\}#([\d.]+)#\d+"(?:\s*;\s*"?([^";]+)"?)?`)
	reBeginCtrl  = regexp.MustCompile(`(?i)^\s*begin\s+(\w+)\.(\w+)\s+\w+`)

	// Late-bound COM instantiation from code
	reCreateObject = regexp.MustCompile(`(?i)\b(?:createobject|getobject)\s*\(\s*"([^"]+)"`)

	// .vbp manifest rows
	reVbpObject    = regexp.MustCompile(`(?i)^object\s*=\s*\{([0-9a-f-]+)\}#([\d.]+)#\d+;\s*(.+)$`)
	reVbpReference = regexp.MustCompile(`(?i)^reference\s*=\s*\*\\g\{([0-9a-f-]+)\}#([\d.]+)#[^#]*#?(.*)$`)
	reVbpMember    = regexp.MustCompile(`(?i)^(module|class)\s*=\s*(\w+);`)
	reVbpForm      = regexp.MustCompile(`(?i)^form\s*=\s*(.+?)\.frm\s*$`)
)

// Keywords that look like calls when followed by a paren
var callKeywords = map[string]bool{
	"if": true, "elseif": true, "while": true, "until": true, "for": true,
	"select": true, "case": true, "do": true, "then": true, "else": true,
	"and": true, "or": true, "not": true, "to": true, "step": true,
	"sub": true, "function": true, "property": true, "declare": true,
	"dim": true, "redim": true, "const": true, "as": true, "set": true,
	"let": true, "print": true,
	// Runtime builtins; calls to these never resolve to a unit
	"len": true, "ubound": true, "lbound": true, "createobject": true,
	"getobject": true, "msgbox": true, "format": true, "mid": true,
	"left": true, "right": true, "trim": true, "chr": true, "asc": true,
	"cstr": true, "cint": true, "clng": true, "cdbl": true, "val": true,
	"str": true, "instr": true, "replace": true, "split": true, "join": true,
	"isnull": true, "isempty": true, "abs": true, "int": true, "rnd": true,
	"space": true, "string": true, "array": true, "iif": true,
}

var variantTypes = map[string]bool{"variant": true, "object": true, "any": true}

// lexUnit scans decoded source text into a Unit. kind drives which pattern
// tables apply; manifests never contain executable code.
func lexUnit(text string, kind model.UnitKind) (symbols []model.Symbol, calls []model.CallSite,
	apiCalls []model.APICall, nativeRefs []model.NativeRef, branchTokens int, warnings []string) {

	if kind == model.UnitKindManifest {
		symbols, calls, nativeRefs, warnings = lexManifest(text)
		return
	}

	declared := make(map[string]bool)
	seenCall := make(map[string]bool)
	seenRef := make(map[string]bool)
	inHeader := kind == model.UnitKindForm // .frm/.ctl open with a layout block

	for lineNo, rawLine := range strings.Split(text, "\n") {
		line := stripComment(rawLine)
		if strings.TrimSpace(line) == "" {
			continue
		}

		if inHeader {
			if m := reObjectLine.FindStringSubmatch(line); m != nil {
				id := strings.TrimSpace(strings.Trim(m[3], `" `))
				if id == "" {
					id = m[1]
				}
				if !seenRef[id] {
					seenRef[id] = true
					nativeRefs = append(nativeRefs, model.NativeRef{
						Identifier:           id,
						GUID:                 strings.ToUpper(m[1]),
						Version:              m[2],
						RegistrationRequired: true,
					})
				}
				continue
			}
			if m := reBeginCtrl.FindStringSubmatch(line); m != nil {
				lib := m[1]
				if !strings.EqualFold(lib, "vb") {
					id := lib + "." + m[2]
					if !seenRef[id] {
						seenRef[id] = true
						nativeRefs = append(nativeRefs, model.NativeRef{
							Identifier:           id,
							RegistrationRequired: true,
						})
					}
				}
				continue
			}
			if reVBName.MatchString(line) {
				inHeader = false
				// fall through so the name is recorded below
			} else {
				continue
			}
		}

		if m := reVBName.FindStringSubmatch(line); m != nil {
			symbols = append(symbols, model.Symbol{Name: m[1], Kind: model.SymbolUnitName})
			declared[strings.ToLower(m[1])] = true
			continue
		}

		if m := reDeclare.FindStringSubmatch(line); m != nil {
			apiCalls = append(apiCalls, model.APICall{
				Name:      m[1],
				Library:   strings.ToLower(m[2]),
				Signature: strings.TrimSpace(line),
			})
			declared[strings.ToLower(m[1])] = true
			continue
		}

		if m := reProc.FindStringSubmatch(line); m != nil {
			symbols = append(symbols, model.Symbol{Name: m[2], Kind: model.SymbolProcedure})
			declared[strings.ToLower(m[2])] = true
			continue
		}
		if m := reProp.FindStringSubmatch(line); m != nil {
			if !declared[strings.ToLower(m[1])] {
				symbols = append(symbols, model.Symbol{Name: m[1], Kind: model.SymbolProperty})
				declared[strings.ToLower(m[1])] = true
			}
			continue
		}
		if m := reConst.FindStringSubmatch(line); m != nil {
			symbols = append(symbols, model.Symbol{Name: m[1], Kind: model.SymbolConstant})
			declared[strings.ToLower(m[1])] = true
			continue
		}
		if m := reVar.FindStringSubmatch(line); m != nil {
			name := m[1]
			if callKeywords[strings.ToLower(name)] {
				warnings = append(warnings, fmt.Sprintf("line %d: declaration shadows keyword %q", lineNo+1, name))
				continue
			}
			variant := m[2] == "" || variantTypes[strings.ToLower(m[3])]
			symbols = append(symbols, model.Symbol{Name: name, Kind: model.SymbolVariable, Variant: variant})
			declared[strings.ToLower(name)] = true
			continue
		}

		branchTokens += countBranchTokens(line)

		for _, m := range reCreateObject.FindAllStringSubmatch(line, -1) {
			id := m[1]
			if !seenRef[id] {
				seenRef[id] = true
				nativeRefs = append(nativeRefs, model.NativeRef{
					Identifier:           id,
					RegistrationRequired: true,
				})
			}
		}

		if m := reCallStm.FindStringSubmatch(line); m != nil {
			name := m[2]
			key := strings.ToLower(name)
			if !seenCall[key] {
				seenCall[key] = true
				calls = append(calls, model.CallSite{Symbol: name})
			}
		}
		for _, m := range reCall.FindAllStringSubmatch(line, -1) {
			name := m[2]
			key := strings.ToLower(name)
			if callKeywords[key] || seenCall[key] {
				continue
			}
			seenCall[key] = true
			calls = append(calls, model.CallSite{Symbol: name})
		}
	}

	// A call is external when the unit does not declare the symbol itself
	for i := range calls {
		calls[i].External = !declared[strings.ToLower(calls[i].Symbol)]
	}
	return
}

// lexManifest scans a .vbp project file. Member rows become external call
// sites on the member's unit name; Object/Reference rows become native refs.
func lexManifest(text string) (symbols []model.Symbol, calls []model.CallSite,
	nativeRefs []model.NativeRef, warnings []string) {

	for lineNo, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		switch {
		case line == "" || strings.HasPrefix(line, ";"):

		case reVbpObject.MatchString(line):
			m := reVbpObject.FindStringSubmatch(line)
			nativeRefs = append(nativeRefs, model.NativeRef{
				Identifier:           strings.TrimSpace(m[3]),
				GUID:                 strings.ToUpper(m[1]),
				Version:              m[2],
				RegistrationRequired: true,
			})

		case reVbpReference.MatchString(line):
			m := reVbpReference.FindStringSubmatch(line)
			id := strings.TrimSpace(m[3])
			if id == "" {
				id = m[1]
			}
			nativeRefs = append(nativeRefs, model.NativeRef{
				Identifier:           id,
				GUID:                 strings.ToUpper(m[1]),
				Version:              m[2],
				RegistrationRequired: true,
			})

		case reVbpMember.MatchString(line):
			m := reVbpMember.FindStringSubmatch(line)
			calls = append(calls, model.CallSite{Symbol: m[2], External: true})

		case reVbpForm.MatchString(line):
			m := reVbpForm.FindStringSubmatch(line)
			name := m[1]
			if i := strings.LastIndexAny(name, `\/`); i >= 0 {
				name = name[i+1:]
			}
			calls = append(calls, model.CallSite{Symbol: name, External: true})

		case strings.Contains(line, "="):
			// Ordinary project settings (Title, Command32, ...) are ignored

		default:
			warnings = append(warnings, fmt.Sprintf("line %d: unrecognized manifest row", lineNo+1))
		}
	}
	return
}

// stripComment removes a trailing apostrophe comment, respecting string
// literals, and drops Rem lines entirely.
func stripComment(line string) string {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) >= 4 && strings.EqualFold(trimmed[:4], "rem ") || strings.EqualFold(trimmed, "rem") {
		return ""
	}
	inString := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inString = !inString
		case '\'':
			if !inString {
				return line[:i]
			}
		}
	}
	return line
}

// Branch tokens approximate cyclomatic complexity: each decision keyword
// counts once. "End If", "Select Case" and "Do While"/"Loop While" pairs are
// de-duplicated so a construct is not counted twice.
func countBranchTokens(line string) int {
	words := strings.Fields(strings.ToLower(line))
	count := 0
	for i, w := range words {
		w = strings.Trim(w, "():,")
		prev := ""
		if i > 0 {
			prev = strings.Trim(words[i-1], "():,")
		}
		switch w {
		case "if":
			if prev != "end" {
				count++
			}
		case "elseif":
			count++
		case "for", "do":
			if prev != "exit" {
				count++
			}
		case "while":
			if prev != "do" && prev != "loop" {
				count++
			}
		case "case":
			if prev != "select" {
				count++
			}
		}
	}
	return count
}
