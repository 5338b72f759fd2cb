// Package journal implements the journal reader (§4.1): it tokenizes
// journal text into raw transactions with positioning directives
// preserved, resolves "include" directives, and returns entries in
// canonical order (§4.2). Positions and dividends are not yet inferred —
// that is pkg/core/normalize's job.
package journal

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"divledger/pkg/core/caldate"
	"divledger/pkg/core/ledger"
)

// Options configures a parse pass. DecimalSeparator is the single scoped
// parameter the spec requires in place of any process-wide locale state
// (§5 "Locale side effect", §9 "Global mutable locale").
type Options struct {
	DecimalSeparator byte // '.' or ','
}

// DefaultOptions uses '.' as the decimal separator.
func DefaultOptions() Options {
	return Options{DecimalSeparator: '.'}
}

type rawEntry struct {
	date caldate.Date
	loc  ledger.SourceLocation
	text string
}

// Read parses the journal rooted at path, including any files it
// transitively `include`s, and returns the resulting transactions in
// canonical order (§4.1, §4.2).
func Read(path string, opts Options) ([]ledger.Transaction, error) {
	var entries []rawEntry
	if err := collect(path, opts, nil, &entries); err != nil {
		return nil, err
	}

	txs := make([]ledger.Transaction, 0, len(entries))
	for _, e := range entries {
		t, err := parseEntry(e, opts)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return ledger.Sort(txs), nil
}

// collect scans path line-by-line, splicing in `include`d files at the
// point they are named, and appends every discovered entry (in file
// encounter order) to *entries. stack holds the absolute paths of files
// currently being read, to detect recursive inclusion (§4.1).
func collect(path string, opts Options, stack []string, entries *[]rawEntry) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ledger.NewError(ledger.ParseError, ledger.SourceLocation{Path: path}, "cannot resolve path: %v", err)
	}
	for _, s := range stack {
		if s == abs {
			return ledger.NewError(ledger.ParseError, ledger.SourceLocation{Path: path}, "recursive include of %s", path)
		}
	}
	stack = append(stack, abs)

	f, err := os.Open(path)
	if err != nil {
		return ledger.NewError(ledger.ParseError, ledger.SourceLocation{Path: path}, "cannot open journal: %v", err)
	}
	defer f.Close()

	dir := filepath.Dir(path)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var current *rawEntry
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if rest, ok := cutPrefix(trimmed, "include "); ok {
			if current != nil {
				*entries = append(*entries, *current)
				current = nil
			}
			incPath := filepath.Join(dir, strings.TrimSpace(rest))
			if err := collect(incPath, opts, stack, entries); err != nil {
				return err
			}
			continue
		}

		if date, rest, ok := caldate.SplitLeadingDatestamp(trimmed); ok {
			if current != nil {
				*entries = append(*entries, *current)
			}
			current = &rawEntry{
				date: date,
				loc:  ledger.SourceLocation{Path: path, Line: lineNo},
				text: strings.TrimSpace(rest),
			}
			continue
		}

		if current == nil {
			return ledger.NewError(ledger.ParseError, ledger.SourceLocation{Path: path, Line: lineNo},
				"continuation line has no preceding entry")
		}
		current.text = strings.TrimSpace(current.text + " " + trimmed)
	}
	if current != nil {
		*entries = append(*entries, *current)
	}
	if err := scanner.Err(); err != nil {
		return ledger.NewError(ledger.ParseError, ledger.SourceLocation{Path: path}, "read error: %v", err)
	}
	return nil
}

// stripComment removes a "#"-to-end-of-line comment (§4.1).
func stripComment(line string) string {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		return line[:idx]
	}
	return line
}

func cutPrefix(s, prefix string) (string, bool) {
	if strings.HasPrefix(s, prefix) {
		return s[len(prefix):], true
	}
	return "", false
}
