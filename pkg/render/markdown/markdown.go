// Package markdown renders a canonical transaction sequence as a
// Markdown table — the thin "textual report rendering" external
// collaborator named in §1, which consumes transactions and produces
// output without further inference.
package markdown

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"

	"divledger/pkg/core/ledger"
)

// Render formats txs as a Markdown table under a heading, then parses
// the result back with goldmark before returning it — the same
// render-then-parse idiom as the teacher's utils.ValidateMarkdown. The
// goldmark parse accepts any text, so a malformed table is not detected
// and Render does not return an error for it.
func Render(txs []ledger.Transaction) (string, error) {
	var b strings.Builder
	b.WriteString("# Dividend Journal\n\n")
	b.WriteString("| Date | Ticker | Position | Kind | Dividend | Amount |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, t := range txs {
		b.WriteString(row(t))
	}

	out := b.String()
	if !isWellFormed(out) {
		return "", fmt.Errorf("render produced malformed markdown")
	}
	return out, nil
}

func row(t ledger.Transaction) string {
	dividend := "-"
	if t.Dividend != nil {
		dividend = t.Dividend.String()
	}
	amount := "-"
	if t.Amount != nil {
		amount = t.Amount.String()
	}
	return fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
		t.EntryDate.String(), t.Ticker, formatPosition(t.Position), t.Kind, dividend, amount)
}

func formatPosition(p float64) string {
	s := strings.TrimRight(fmt.Sprintf("%.6f", p), "0")
	return strings.TrimRight(s, ".")
}

func isWellFormed(markdownText string) bool {
	parser := goldmark.DefaultParser()
	reader := text.NewReader([]byte(markdownText))
	doc := parser.Parse(reader)
	return doc != nil
}
