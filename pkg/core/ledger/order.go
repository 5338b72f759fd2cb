package ledger

import "sort"

// Sort reorders txs into canonical order (§4.2):
//
//	(entry_date, is_positional, source_location, ticker)
//
// Realized transactions sort before positional-only ones on the same
// date; ties are then broken by literal journal order, then ticker. The
// sort is stable, so equal keys preserve relative input order exactly
// (making the function idempotent, per §8's quantified invariant).
func Sort(txs []Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

func less(a, b Transaction) bool {
	if !a.EntryDate.Equal(b.EntryDate) {
		return a.EntryDate.Before(b.EntryDate)
	}
	ap, bp := a.IsPositional(), b.IsPositional()
	if ap != bp {
		// realized (false) sorts before positional-only (true)
		return !ap && bp
	}
	if a.Attrs.Location != b.Attrs.Location {
		return a.Attrs.Location.Less(b.Attrs.Location)
	}
	return a.Ticker < b.Ticker
}
