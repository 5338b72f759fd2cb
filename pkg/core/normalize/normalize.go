// Package normalize computes absolute positions and completes
// amount/dividend pairs over an already-parsed, canonically ordered
// transaction sequence (§4.3). It is the first pass that turns positioning
// directives and partial money figures into a fully self-consistent
// ledger.
package normalize

import (
	"math"

	"github.com/shopspring/decimal"

	"divledger/pkg/core/ledger"
)

// AmbiguityTolerance bounds how far an explicit position may diverge from
// one inferred via amount/dividend before it is treated as a conflict
// (§4.3 step 3).
const AmbiguityTolerance = 1e-6

// Run normalizes txs, which must already be in canonical order (§4.2),
// and returns a new slice with every transaction's Position resolved and
// every Amount/Dividend pair completed (§4.3). It never mutates its
// input.
func Run(txs []ledger.Transaction) ([]ledger.Transaction, error) {
	out := make([]ledger.Transaction, len(txs))
	history := map[string][]ledger.Transaction{}

	for i, t := range txs {
		n := t.Clone()

		pos, err := resolvePosition(n, history[n.Ticker])
		if err != nil {
			return nil, err
		}
		n.Position = pos

		if n.Position < -AmbiguityTolerance {
			return nil, ledger.NewError(ledger.InferenceError, n.Attrs.Location, "%s: resulting position is negative", n.Ticker)
		}

		if err := completeAmounts(&n); err != nil {
			return nil, err
		}

		out[i] = n
		history[n.Ticker] = append(history[n.Ticker], n)
	}
	return out, nil
}

// resolvePosition implements §4.3 steps 1-4.
func resolvePosition(t ledger.Transaction, priorForTicker []ledger.Transaction) (float64, error) {
	p := t.Attrs.Positioning

	if p.Directive == ledger.DirectiveSet && p.HasValue {
		if err := checkAgreesWithInference(t, p.Value); err != nil {
			return 0, err
		}
		return p.Value, nil
	}

	prior, found := findPriorPosition(t, priorForTicker)
	if found {
		pos := truncateBank(applyDirective(p, prior), 2)
		if err := checkAgreesWithInference(t, pos); err != nil {
			return 0, err
		}
		return pos, nil
	}

	if t.Amount != nil && t.Dividend != nil && t.Amount.Symbol == t.Dividend.Symbol && !t.Dividend.Value.IsZero() {
		inferred, _ := t.Amount.Value.Div(t.Dividend.Value).Float64()
		return truncateBank(inferred, 2), nil
	}

	return 0, ledger.NewError(ledger.InferenceError, t.Attrs.Location, "%s: cannot determine position", t.Ticker)
}

// checkAgreesWithInference implements §4.3 step 3's ambiguity check: an
// explicit or history-derived position must agree with the
// amount/dividend-implied position within AmbiguityTolerance.
func checkAgreesWithInference(t ledger.Transaction, explicit float64) error {
	if t.Amount == nil || t.Dividend == nil || t.Amount.Symbol != t.Dividend.Symbol || t.Dividend.Value.IsZero() {
		return nil
	}
	inferred, _ := t.Amount.Value.Div(t.Dividend.Value).Float64()
	if math.Abs(inferred-explicit) > AmbiguityTolerance {
		return ledger.NewError(ledger.InferenceError, t.Attrs.Location,
			"%s: explicit position %v disagrees with amount/dividend implied position %v", t.Ticker, explicit, inferred)
	}
	return nil
}

// findPriorPosition walks history for the same ticker in descending order
// of (ex_date ?? entry_date, is_positional) and returns the first record
// whose entry date does not exceed this entry's ex-date, if any (§4.3
// step 2).
func findPriorPosition(t ledger.Transaction, history []ledger.Transaction) (float64, bool) {
	ordered := make([]ledger.Transaction, len(history))
	copy(ordered, history)
	sortDescendingForLookup(ordered)

	cutoff := t.EntryDate
	if t.ExDate != nil {
		cutoff = *t.ExDate
	}

	for _, h := range ordered {
		if !h.EntryDate.After(cutoff) {
			return h.Position, true
		}
	}
	return 0, false
}

func sortDescendingForLookup(txs []ledger.Transaction) {
	for i := 1; i < len(txs); i++ {
		for j := i; j > 0; j-- {
			if less(txs[j-1], txs[j]) {
				txs[j-1], txs[j] = txs[j], txs[j-1]
			} else {
				break
			}
		}
	}
}

// less orders two already-normalized transactions ascending by (ex_date ??
// entry_date, is_positional), so sortDescendingForLookup's swap-on-less
// produces descending order.
func less(a, b ledger.Transaction) bool {
	ad, bd := a.EffectiveExDate(), b.EffectiveExDate()
	if !ad.Equal(bd) {
		return ad.Before(bd)
	}
	if a.IsPositional() != b.IsPositional() {
		return !a.IsPositional()
	}
	return false
}

func applyDirective(p ledger.Positioning, prior float64) float64 {
	switch p.Directive {
	case ledger.DirectiveAdd:
		return prior + p.Value
	case ledger.DirectiveSub:
		return prior - p.Value
	default:
		return prior
	}
}

// completeAmounts implements §4.3's dividend/amount completion rules.
func completeAmounts(t *ledger.Transaction) error {
	if t.Dividend != nil && t.Dividend.Value.Sign() <= 0 {
		return ledger.NewError(ledger.InferenceError, t.Attrs.Location, "%s: dividend is not positive", t.Ticker)
	}
	if t.Amount != nil && t.Amount.Value.IsNegative() {
		return ledger.NewError(ledger.InferenceError, t.Attrs.Location, "%s: amount is negative", t.Ticker)
	}

	if t.Amount != nil && t.Dividend == nil && t.Position > 0 {
		perShare := t.Amount.Value.Div(decimal.NewFromFloat(t.Position)).Truncate(4)
		d := t.Amount.WithValue(perShare)
		d.Places = 4
		t.Dividend = &d
		return nil
	}

	if (t.Amount == nil || t.Amount.IsPreliminary()) && t.Dividend != nil {
		t.Attrs.IsPreliminary = true
		t.Amount = nil
	}

	return nil
}

func truncateBank(v float64, places int32) float64 {
	d := decimal.NewFromFloat(v).RoundBank(places)
	f, _ := d.Float64()
	return f
}
