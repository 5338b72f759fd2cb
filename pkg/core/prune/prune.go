// Package prune drops positional entries that have become redundant once
// realized history makes their information recoverable some other way
// (§4.5).
package prune

import "divledger/pkg/core/ledger"

// positionTolerance mirrors ledger.PositionTolerance for the "position
// unchanged" comparison (§4.5); kept as a local constant so this package
// states its own rule rather than reaching into ledger's invariant
// checking for an unrelated use.
const positionTolerance = 1e-6

// Run removes purely positional entries made redundant by the ticker's
// latest realized transaction, per the exceptions in §4.5. txs must
// already be normalized and split-adjusted, and in canonical order; the
// result preserves that order.
func Run(txs []ledger.Transaction) []ledger.Transaction {
	latestRealized := map[string]ledger.Transaction{}
	for _, t := range txs {
		if !t.IsPositional() {
			if cur, ok := latestRealized[t.Ticker]; !ok || t.EntryDate.After(cur.EntryDate) {
				latestRealized[t.Ticker] = t
			}
		}
	}

	out := make([]ledger.Transaction, 0, len(txs))
	for _, t := range txs {
		if shouldDrop(t, latestRealized) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func shouldDrop(t ledger.Transaction, latestRealized map[string]ledger.Transaction) bool {
	if !t.IsPositional() || t.Position <= 0 {
		return false
	}
	switch t.Attrs.Positioning.Directive {
	case ledger.DirectiveSplit, ledger.DirectiveSplitWhole:
		return false
	}

	l, ok := latestRealized[t.Ticker]
	if !ok {
		return false
	}
	if l.ExDate != nil && !t.EntryDate.Before(*l.ExDate) {
		return false
	}

	if t.EntryDate.Before(l.EntryDate) {
		return true
	}
	if t.EntryDate.Equal(l.EntryDate) && absDiff(t.Position, l.Position) < positionTolerance {
		return true
	}
	return false
}

func absDiff(a, b float64) float64 {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}
