package journal

import (
	"fmt"
	"strconv"
	"strings"

	"divledger/pkg/core/ledger"
)

// SerializeOptions configures emitted-journal formatting (§6 "Emitted
// journal").
type SerializeOptions struct {
	// Compact writes one entry per line instead of separating entries
	// with a blank line.
	Compact bool
}

// Serialize renders txs back to journal text: dates as YYYY/MM/DD,
// positions at the max decimal-place count observed per ticker, amounts
// through their stored format template, entries separated by a blank
// line unless Compact requests one line per entry (§6). Every position
// is written as an absolute Set directive — the re-serialized journal
// states "what is," not the history of Add/Sub/Split directives that
// produced it.
func Serialize(txs []ledger.Transaction, opts SerializeOptions) string {
	places := maxPlacesByTicker(txs)

	var b strings.Builder
	for i, t := range txs {
		b.WriteString(serializeEntry(t, places[t.Ticker]))
		b.WriteByte('\n')
		if !opts.Compact && i != len(txs)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func maxPlacesByTicker(txs []ledger.Transaction) map[string]int {
	out := map[string]int{}
	for _, t := range txs {
		if p := decimalPlaces(t.Position); p > out[t.Ticker] {
			out[t.Ticker] = p
		}
	}
	return out
}

func decimalPlaces(v float64) int {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	idx := strings.IndexByte(s, '.')
	if idx < 0 {
		return 0
	}
	return len(s) - idx - 1
}

func serializeEntry(t ledger.Transaction, places int) string {
	var b strings.Builder
	b.WriteString(t.EntryDate.String())
	switch t.Kind {
	case ledger.Special:
		b.WriteString(" *")
	case ledger.Interim:
		b.WriteString(" ^")
	}
	b.WriteByte(' ')
	b.WriteString(t.Ticker)

	if t.IsPositional() || t.Attrs.Positioning.HasValue {
		b.WriteString(fmt.Sprintf(" (%s)", strconv.FormatFloat(t.Position, 'f', places, 64)))
	}

	if t.Amount != nil {
		b.WriteString("  ")
		b.WriteString(t.Amount.String())
		if t.PayoutDate != nil {
			b.WriteString(" [")
			b.WriteString(t.PayoutDate.String())
			b.WriteByte(']')
		}
	}
	if t.Dividend != nil {
		b.WriteString("  @ ")
		b.WriteString(t.Dividend.String())
		if t.ExDate != nil {
			b.WriteString(" [")
			b.WriteString(t.ExDate.String())
			b.WriteByte(']')
		}
	}
	return b.String()
}
