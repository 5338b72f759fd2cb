// Package fx builds the implicit exchange-rate index observed in
// realized transactions (§4.6) and provides the currency conversion
// operations the projection engine and report layer use (§4.10).
package fx

import (
	"github.com/shopspring/decimal"

	"divledger/pkg/core/caldate"
	"divledger/pkg/core/ledger"
	"divledger/pkg/core/money"
)

// AmbiguityTolerance is the factor-divergence threshold for an alternative
// observation to be retained alongside the applied rate (§4.6). Kept
// distinct from ledger.PositionTolerance per the Open Questions note on
// not conflating the two tolerances.
const AmbiguityTolerance = 1e-4

type pair struct {
	from, to string
}

// Rate is the applied exchange rate for an ordered currency pair, plus
// any alternative observations on its reference date that diverged by
// more than AmbiguityTolerance (§4.6). Alternatives has the applied rate
// appended last, so callers can recover it as "the one that will be
// used."
type Rate struct {
	From, To      string
	Applied       float64
	ReferenceDate caldate.Date
	Alternatives  []float64
}

// Index is the full set of observed rates, keyed by ordered (from, to)
// currency pair.
type Index struct {
	rates map[pair]Rate
}

type observation struct {
	date   caldate.Date
	factor float64
}

// Build scans realized transactions for implicit cross-currency
// observations and selects, per ordered pair, the reference rate and its
// ambiguous alternatives (§4.6).
func Build(txs []ledger.Transaction) *Index {
	observations := map[pair][]observation{}

	for _, t := range txs {
		if t.IsPositional() || t.Amount == nil || t.Dividend == nil {
			continue
		}
		if t.Amount.Symbol == t.Dividend.Symbol || t.Position == 0 {
			continue
		}
		factor, _ := t.Amount.Value.Div(decimal.NewFromFloat(t.Position)).Div(t.Dividend.Value).Float64()
		p := pair{from: t.Dividend.Symbol, to: t.Amount.Symbol}
		observations[p] = append(observations[p], observation{
			date:   referenceDate(t),
			factor: factor,
		})
	}

	idx := &Index{rates: map[pair]Rate{}}
	for p, obs := range observations {
		idx.rates[p] = selectReference(p, obs)
	}
	return idx
}

// referenceDate is payout_date ?? entry_date, per §4.6.
func referenceDate(t ledger.Transaction) caldate.Date {
	if t.PayoutDate != nil {
		return *t.PayoutDate
	}
	return t.EntryDate
}

// selectReference picks the latest-dated observation as the applied rate
// and collects same-date alternatives diverging by more than
// AmbiguityTolerance (§4.6).
func selectReference(p pair, obs []observation) Rate {
	latest := obs[0]
	for _, o := range obs[1:] {
		if o.date.After(latest.date) {
			latest = o
		}
	}

	var alternatives []float64
	for _, o := range obs {
		if !o.date.Equal(latest.date) {
			continue
		}
		if absDiff(o.factor, latest.factor) <= AmbiguityTolerance {
			continue
		}
		if !containsWithinTolerance(alternatives, o.factor) {
			alternatives = append(alternatives, o.factor)
		}
	}
	alternatives = append(alternatives, latest.factor)

	return Rate{From: p.from, To: p.to, Applied: latest.factor, ReferenceDate: latest.date, Alternatives: alternatives}
}

func containsWithinTolerance(factors []float64, f float64) bool {
	for _, existing := range factors {
		if absDiff(existing, f) <= AmbiguityTolerance {
			return true
		}
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

// Factor returns the applied conversion factor from → to, using the
// reciprocal of the reverse pair if only that direction was observed
// (§4.6). The second return value is false if no rate is known either
// way.
func (idx *Index) Factor(from, to string) (float64, bool) {
	if from == to {
		return 1, true
	}
	if r, ok := idx.rates[pair{from, to}]; ok {
		return r.Applied, true
	}
	if r, ok := idx.rates[pair{to, from}]; ok && r.Applied != 0 {
		return 1 / r.Applied, true
	}
	return 0, false
}

// Rates returns every observed exchange rate, for callers (the
// diagnostics layer) that need to inspect ambiguous alternatives rather
// than just the applied factor.
func (idx *Index) Rates() []Rate {
	rates := make([]Rate, 0, len(idx.rates))
	for _, r := range idx.rates {
		rates = append(rates, r)
	}
	return rates
}

// InCurrency implements in_currency(records, target) (§4.10): replaces
// the amount of every record whose currency differs from target with a
// generated amount in target, using the format most recently observed
// for target.
func (idx *Index) InCurrency(txs []ledger.Transaction, target string) ([]ledger.Transaction, error) {
	targetTemplate := money.DefaultTemplate
	for _, t := range txs {
		if t.Amount != nil && t.Amount.Symbol == target {
			targetTemplate = t.Amount.Template
		}
	}

	out := make([]ledger.Transaction, len(txs))
	for i, t := range txs {
		n := t.Clone()
		if n.Amount != nil && n.Amount.Symbol != target {
			factor, ok := idx.Factor(n.Amount.Symbol, target)
			if !ok {
				return nil, ledger.NewError(ledger.ConversionError, n.Attrs.Location, "no exchange rate from %s to %s", n.Amount.Symbol, target)
			}
			converted := n.Amount.WithValue(n.Amount.Value.Mul(decimal.NewFromFloat(factor)))
			converted.Symbol = target
			converted.Template = targetTemplate
			n.Amount = &converted
		}
		out[i] = n
	}
	return out, nil
}

// InDividendCurrency implements in_dividend_currency(records) (§4.10):
// restates the amount of every record whose dividend currency differs
// from its amount currency, directly from position × dividend (no rate
// lookup needed since both sides are already in the dividend's
// currency).
func InDividendCurrency(txs []ledger.Transaction) []ledger.Transaction {
	out := make([]ledger.Transaction, len(txs))
	for i, t := range txs {
		n := t.Clone()
		if n.Amount != nil && n.Dividend != nil && n.Amount.Symbol != n.Dividend.Symbol {
			recomputed := n.Dividend.WithValue(n.Dividend.Value.Mul(decimal.NewFromFloat(n.Position)))
			recomputed.Places = -1
			n.Amount = &recomputed
		}
		out[i] = n
	}
	return out
}

// WithEstimates implements with_estimates(records) (§4.10): synthesizes
// a generated amount for every preliminary record (dividend present,
// amount absent), choosing the target currency in priority order: the
// entry's own preliminary-amount symbol, the latest realized amount
// symbol for that ticker, or the dividend's own symbol.
func (idx *Index) WithEstimates(txs []ledger.Transaction) ([]ledger.Transaction, error) {
	latestAmountSymbol := map[string]string{}
	for _, t := range txs {
		if t.Amount != nil {
			latestAmountSymbol[t.Ticker] = t.Amount.Symbol
		}
	}

	out := make([]ledger.Transaction, len(txs))
	for i, t := range txs {
		n := t.Clone()
		if n.Attrs.IsPreliminary && n.Amount == nil && n.Dividend != nil {
			target := n.Attrs.PreliminarySymbol
			if target == "" {
				target = latestAmountSymbol[n.Ticker]
			}
			if target == "" {
				target = n.Dividend.Symbol
			}
			factor, ok := idx.Factor(n.Dividend.Symbol, target)
			if !ok {
				return nil, ledger.NewError(ledger.ConversionError, n.Attrs.Location, "no exchange rate from %s to %s", n.Dividend.Symbol, target)
			}
			value := n.Dividend.Value.Mul(decimal.NewFromFloat(n.Position)).Mul(decimal.NewFromFloat(factor))
			template := n.Attrs.PreliminaryTemplate
			if template == "" {
				template = n.Dividend.Template
			}
			amt := money.Amount{Value: value, Symbol: target, Places: -1, Template: template, Generated: true}
			n.Amount = &amt
		}
		out[i] = n
	}
	return out, nil
}
