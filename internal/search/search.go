// Package search implements program search: `<variable> == <int-literal>`
// queries evaluated across every step of the trace, grounded on
// original_source/src/db-backend/src/program_search_tool.rs — spec §4.9.
package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/codetracer/db-backend/internal/database"
	"github.com/codetracer/db-backend/internal/exprloader"
	"github.com/codetracer/db-backend/internal/ids"
	"github.com/codetracer/db-backend/internal/value"
)

// CodeSnippet is the matching source line shown alongside a result.
type CodeSnippet struct {
	Line   int64  `json:"line"`
	Source string `json:"source"`
}

// CommandPanelResult is one row of a program-search response.
type CommandPanelResult struct {
	Value    string             `json:"value"`
	Snippet  CodeSnippet        `json:"snippet,omitempty"`
	Location database.Location `json:"location,omitempty"`
	Error    string             `json:"error,omitempty"`
}

func errorResult(msg string) CommandPanelResult { return CommandPanelResult{Error: msg} }

// query is the parsed form of `<variable> == <int-literal>` — the only
// grammar spec §4.9 specifies; "[other commands are stubbed; honour only
// what §4 specifies]" (spec §9 open question (c)).
type query struct {
	variable string
	literal  int64
}

// parse accepts exactly `<left> == <right>` with an int literal on the
// right, matching the original tool's naive split("==") — spec §4.9.
func parse(src string) (query, error) {
	parts := strings.SplitN(src, "==", 2)
	if len(parts) != 2 {
		return query{}, fmt.Errorf("expected <variable> == <int-literal>, got %q", src)
	}
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return query{}, fmt.Errorf("missing variable name before '=='")
	}
	lit, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return query{}, fmt.Errorf("right-hand side must be an int literal: %w", err)
	}
	return query{variable: name, literal: lit}, nil
}

// Search runs query src over every step of db, per spec §4.9: "for each
// step id 0..N, evaluates left and right within the step's scope". A parse
// failure surfaces a single error result; a per-step evaluation miss is
// simply not a match (not logged as an error — the original only warns).
func Search(db *database.Database, exprs *exprloader.Loader, src string) []CommandPanelResult {
	q, err := parse(src)
	if err != nil {
		return []CommandPanelResult{errorResult(err.Error())}
	}

	lastStep := db.LastStepID()
	if lastStep < 0 {
		return nil
	}

	var results []CommandPanelResult
	for s := ids.StepId(0); s <= lastStep; s++ {
		v, ok := currentValue(db, s, q.variable)
		if !ok || v.Kind != value.KindInt {
			continue
		}
		i, err := strconv.ParseInt(v.I, 10, 64)
		if err != nil || i != q.literal {
			continue
		}
		results = append(results, buildResult(db, exprs, s, v))
	}
	return results
}

// currentValue resolves variable's value visible at step s: the most
// recent write to it in s's call or an ancestor call, at or before s.
func currentValue(db *database.Database, s ids.StepId, variable string) (value.Value, bool) {
	step, ok := db.StepAt(s)
	if !ok {
		return value.Value{}, false
	}
	for cur := s; cur >= 0; cur-- {
		writeStep, ok := db.StepAt(cur)
		if !ok {
			break
		}
		if !db.AncestorOrSelf(step.CallKey, writeStep.CallKey) {
			continue
		}
		for _, w := range db.WritesAt(cur) {
			if name, ok := db.VariableNameAt(w.VariableID); ok && name == variable {
				return w.Value, true
			}
		}
	}
	return value.Value{}, false
}

func buildResult(db *database.Database, exprs *exprloader.Loader, s ids.StepId, v value.Value) CommandPanelResult {
	loc := db.LoadLocation(s, ids.NoCall)
	source := ""
	if exprs != nil {
		source = exprs.Line(loc.Path, loc.Line)
	}
	return CommandPanelResult{
		Value:    v.TextRepr(),
		Snippet:  CodeSnippet{Line: loc.Line, Source: source},
		Location: loc,
	}
}
