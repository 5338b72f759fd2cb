// Package splits adjusts transactions for share splits recorded
// as positional Split/SplitWhole directives (§4.4), so that per-share
// dividend history remains comparable across a split boundary.
package splits

import (
	"github.com/shopspring/decimal"

	"divledger/pkg/core/caldate"
	"divledger/pkg/core/ledger"
	"divledger/pkg/core/money"
)

// maxPlaces bounds the recomputed per-share decimal-place count (§4.4).
const maxPlaces = 4

type splitEvent struct {
	ticker string
	date   caldate.Date
	factor float64
	whole  bool
}

// Adjust applies every Split/SplitWhole directive to each transaction of
// its ticker whose ex-date (else entry date) is strictly before the
// split's (§4.4). txs must already be normalized (positions resolved). Returns a
// new slice; txs is not mutated.
func Adjust(txs []ledger.Transaction) []ledger.Transaction {
	var events []splitEvent
	for _, t := range txs {
		switch t.Attrs.Positioning.Directive {
		case ledger.DirectiveSplit, ledger.DirectiveSplitWhole:
			events = append(events, splitEvent{
				ticker: t.Ticker,
				date:   t.EffectiveExDate(),
				factor: t.Attrs.Positioning.Value,
				whole:  t.Attrs.Positioning.Directive == ledger.DirectiveSplitWhole,
			})
		}
	}

	out := make([]ledger.Transaction, len(txs))
	for i, t := range txs {
		n := t.Clone()
		applicable := splitsAfter(events, t.Ticker, t.EffectiveExDate())
		if len(applicable) > 0 {
			applySplits(&n, applicable)
		}
		out[i] = n
	}
	return out
}

// splitsAfter returns, in chronological order, the splits for ticker
// dated strictly after d.
func splitsAfter(events []splitEvent, ticker string, d caldate.Date) []splitEvent {
	var matched []splitEvent
	for _, e := range events {
		if e.ticker == ticker && e.date.After(d) {
			matched = append(matched, e)
		}
	}
	for i := 1; i < len(matched); i++ {
		for j := i; j > 0 && matched[j-1].date.After(matched[j].date); j-- {
			matched[j-1], matched[j] = matched[j], matched[j-1]
		}
	}
	return matched
}

// applySplits mutates t's Position and per-share Dividend in place,
// applying each factor in order and floor-ing after a SplitWhole (§4.4).
func applySplits(t *ledger.Transaction, events []splitEvent) {
	product := decimal.NewFromInt(1)
	position := t.Position
	for _, e := range events {
		position *= e.factor
		if e.whole {
			position = float64(int64(position))
		}
		product = product.Mul(decimal.NewFromFloat(e.factor))
	}
	t.Position = position

	if t.Dividend == nil || product.IsZero() {
		return
	}
	adjusted := t.Dividend.Value.Div(product)
	places := money.MinPlaces(adjusted, maxPlaces)
	d := t.Dividend.WithValue(adjusted.Truncate(places))
	d.Places = int(places)
	t.Dividend = &d
}
