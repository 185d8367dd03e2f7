// Package exprloader caches trace-referenced source files and extracts the
// identifiers visible on a given line. The spec defers this to a
// tree-sitter grammar consumed as a black box (explicitly out of scope as a
// *grammar*, spec §1); no Go tree-sitter binding exists anywhere in the
// retrieved corpus, so this package stands in with a small hand-rolled
// scanner behind the same seam a tree-sitter-backed loader would fill
// later (SPEC_FULL.md §4.1a).
package exprloader

import (
	"bufio"
	"os"
	"strings"
	"sync"
)

// Lang selects the keyword/excluded-identifier set ExtractIdentifiers uses.
type Lang string

const (
	LangGo      Lang = "go"
	LangPython  Lang = "python"
	LangC       Lang = "c"
	LangUnknown Lang = ""
)

var keywordsByLang = map[Lang]map[string]bool{
	LangGo: set("break", "case", "chan", "const", "continue", "default", "defer",
		"else", "fallthrough", "for", "func", "go", "goto", "if", "import",
		"interface", "map", "package", "range", "return", "select", "struct",
		"switch", "type", "var", "nil", "true", "false"),
	LangPython: set("and", "as", "assert", "async", "await", "break", "class",
		"continue", "def", "del", "elif", "else", "except", "finally", "for",
		"from", "global", "if", "import", "in", "is", "lambda", "nonlocal",
		"not", "or", "pass", "raise", "return", "try", "while", "with",
		"yield", "None", "True", "False"),
	LangC: set("auto", "break", "case", "char", "const", "continue", "default",
		"do", "double", "else", "enum", "extern", "float", "for", "goto",
		"if", "int", "long", "register", "return", "short", "signed",
		"sizeof", "static", "struct", "switch", "typedef", "union",
		"unsigned", "void", "volatile", "while", "NULL"),
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// ExtractIdentifiers returns the distinct identifiers referenced on line,
// in first-occurrence order, excluding language keywords and any name
// immediately followed by "(" (a call, not a variable reference) — spec
// §4.5 step 2's "excluding function calls, keywords, and known-excluded
// identifiers per source language".
func ExtractIdentifiers(line string, lang Lang) []string {
	keywords := keywordsByLang[lang]
	var out []string
	seen := map[string]bool{}

	runes := []rune(line)
	n := len(runes)
	for i := 0; i < n; {
		r := runes[i]
		if !isIdentStart(r) {
			i++
			continue
		}
		start := i
		for i < n && isIdentPart(runes[i]) {
			i++
		}
		name := string(runes[start:i])

		j := i
		for j < n && (runes[j] == ' ' || runes[j] == '\t') {
			j++
		}
		isCall := j < n && runes[j] == '('

		// A name preceded directly by '.' is a field/method selector, not a
		// free-standing variable reference.
		isSelector := start > 0 && runes[start-1] == '.'

		if isCall || isSelector || keywords[name] || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

// Loader caches source files by path, so repeated FlowPreloader/StepLines
// requests for nearby lines don't re-read disk. Safe for concurrent use,
// though the handler only ever drives it from the single dispatcher task
// (spec §5 "Shared resources").
type Loader struct {
	mu    sync.Mutex
	files map[string][]string
}

// New creates an empty Loader.
func New() *Loader {
	return &Loader{files: make(map[string][]string)}
}

// Line returns the 1-indexed source line from path, reading and caching the
// whole file on first access. Returns an empty string (not an error) if the
// file is missing or the line is out of range — source display is
// best-effort and never blocks navigation.
func (l *Loader) Line(path string, line int64) string {
	lines := l.linesOf(path)
	if line < 1 || int(line) > len(lines) {
		return ""
	}
	return lines[line-1]
}

// Identifiers returns ExtractIdentifiers(Line(path, line), lang).
func (l *Loader) Identifiers(path string, line int64, lang Lang) []string {
	return ExtractIdentifiers(l.Line(path, line), lang)
}

func (l *Loader) linesOf(path string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lines, ok := l.files[path]; ok {
		return lines
	}
	lines := readLines(path)
	l.files[path] = lines
	return lines
}

// Invalidate drops the cached contents of path, forcing the next Line call
// to re-read it from disk.
func (l *Loader) Invalidate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.files, path)
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}

// LangFromPath guesses a Lang from a file extension, for callers that only
// have a path and not an explicit language tag.
func LangFromPath(path string) Lang {
	switch {
	case strings.HasSuffix(path, ".go"):
		return LangGo
	case strings.HasSuffix(path, ".py"):
		return LangPython
	case strings.HasSuffix(path, ".c"), strings.HasSuffix(path, ".h"):
		return LangC
	default:
		return LangUnknown
	}
}

// String renders a Lang for diagnostics.
func (l Lang) String() string {
	if l == LangUnknown {
		return "unknown"
	}
	return string(l)
}
