// Package diagnostics surfaces the non-fatal warnings named in §7 —
// weekend-dated transactions, missing payout/ex-dates, potential
// duplicate entries, ambiguous exchange rates, and duplicate tags — as
// a []Diagnostic list alongside (never altering) core output. Grounded
// on original_source/dledger/debug.py's debug_find_* functions, with
// stderr printing replaced by a returned list so a caller (the CLI)
// decides how to present them.
package diagnostics

import (
	"fmt"

	"divledger/pkg/core/fx"
	"divledger/pkg/core/ledger"
)

// Diagnostic is one non-fatal observation about a transaction sequence.
type Diagnostic struct {
	Location ledger.SourceLocation
	Message  string
}

func (d Diagnostic) String() string {
	if d.Location.Path == "" {
		return d.Message
	}
	return fmt.Sprintf("%s:%d: %s", d.Location.Path, d.Location.Line, d.Message)
}

// Run collects every diagnostic category over txs and idx's observed
// exchange rates, in the same order debug.py's callers traditionally
// ran them.
func Run(txs []ledger.Transaction, idx *fx.Index) []Diagnostic {
	var out []Diagnostic
	out = append(out, FindNonWeekdayDates(txs)...)
	out = append(out, FindMissingPayoutDate(txs)...)
	out = append(out, FindMissingExDate(txs)...)
	out = append(out, FindPotentialDuplicates(txs)...)
	out = append(out, FindDuplicateTags(txs)...)
	if idx != nil {
		out = append(out, FindAmbiguousExchangeRates(idx)...)
	}
	return out
}

// FindNonWeekdayDates flags every transaction whose entry, payout, or
// ex-dividend date falls on a weekend.
func FindNonWeekdayDates(txs []ledger.Transaction) []Diagnostic {
	var out []Diagnostic
	for _, t := range txs {
		loc := t.Attrs.Location
		if t.EntryDate.IsWeekend() {
			out = append(out, Diagnostic{loc, fmt.Sprintf("transaction is dated on a weekend (%s)", t.EntryDate.Weekday())})
		}
		if t.PayoutDate != nil && t.PayoutDate.IsWeekend() {
			out = append(out, Diagnostic{loc, fmt.Sprintf("transaction has payout date on a weekend (%s)", t.PayoutDate.Weekday())})
		}
		if t.ExDate != nil && t.ExDate.IsWeekend() {
			out = append(out, Diagnostic{loc, fmt.Sprintf("transaction has ex-dividend date on a weekend (%s)", t.ExDate.Weekday())})
		}
	}
	return out
}

// FindMissingPayoutDate flags realized transactions with no payout date
// — relevant to the report layer when it sorts by that axis.
func FindMissingPayoutDate(txs []ledger.Transaction) []Diagnostic {
	var out []Diagnostic
	for _, t := range txs {
		if t.IsPositional() {
			continue
		}
		if t.PayoutDate == nil {
			out = append(out, Diagnostic{t.Attrs.Location, "transaction is missing payout date"})
		}
	}
	return out
}

// FindMissingExDate flags realized transactions with no ex-dividend
// date.
func FindMissingExDate(txs []ledger.Transaction) []Diagnostic {
	var out []Diagnostic
	for _, t := range txs {
		if t.IsPositional() {
			continue
		}
		if t.ExDate == nil {
			out = append(out, Diagnostic{t.Attrs.Location, "transaction is missing ex-dividend date"})
		}
	}
	return out
}

// FindPotentialDuplicates flags a realized transaction that shares its
// entry date and ticker with another realized (non-special) transaction
// earlier in the sequence.
func FindPotentialDuplicates(txs []ledger.Transaction) []Diagnostic {
	var out []Diagnostic
	byTicker := map[string][]ledger.Transaction{}
	for _, t := range txs {
		byTicker[t.Ticker] = append(byTicker[t.Ticker], t)
	}
	for _, entries := range byTicker {
		for i, t := range entries {
			if t.IsPositional() || t.Kind == ledger.Special {
				continue
			}
			for _, other := range entries[:i] {
				if other.IsPositional() || other.Kind == ledger.Special {
					continue
				}
				if !other.EntryDate.Equal(t.EntryDate) {
					continue
				}
				out = append(out, Diagnostic{
					t.Attrs.Location,
					fmt.Sprintf("potential transaction duplicate (see %s:%d)", other.Attrs.Location.Path, other.Attrs.Location.Line),
				})
				break
			}
		}
	}
	return out
}

// FindDuplicateTags flags a transaction carrying the same tag more than
// once.
func FindDuplicateTags(txs []ledger.Transaction) []Diagnostic {
	var out []Diagnostic
	for _, t := range txs {
		counts := map[string]int{}
		for _, tag := range t.Attrs.Tags {
			counts[tag]++
		}
		for tag, n := range counts {
			if n > 1 {
				out = append(out, Diagnostic{t.Attrs.Location, fmt.Sprintf("transaction has duplicate tag: %s", tag)})
			}
		}
	}
	return out
}

// FindAmbiguousExchangeRates flags every currency pair for which more
// than one reference rate was observed on the applied rate's reference
// date (§4.6, §9): the applied rate plus any alternative(s) that
// diverged beyond fx.AmbiguityTolerance.
func FindAmbiguousExchangeRates(idx *fx.Index) []Diagnostic {
	var out []Diagnostic
	for _, r := range idx.Rates() {
		if len(r.Alternatives) <= 1 {
			continue
		}
		out = append(out, Diagnostic{
			ledger.SourceLocation{},
			fmt.Sprintf("ambiguous exchange rate for %s/%s: %s applied on %s, %d alternative(s) observed",
				r.From, r.To, formatRate(r.Applied), r.ReferenceDate, len(r.Alternatives)-1),
		})
	}
	return out
}

func formatRate(f float64) string {
	return fmt.Sprintf("%.6f", f)
}
