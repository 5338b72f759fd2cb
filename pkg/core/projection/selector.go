package projection

import (
	"divledger/pkg/core/caldate"
	"divledger/pkg/core/ledger"
)

// selectSamples implements §4.9 "Sample selection": for each ticker,
// takes its single latest transaction, skips tickers whose position has
// closed out or whose history has gone stale, and collects the trailing
// 12-month window of the ticker's non-Special transactions (purely
// positional records included) to project from.
func selectSamples(txs []ledger.Transaction, since caldate.Date) ([]sample, error) {
	byTicker := map[string][]ledger.Transaction{}
	for _, t := range txs {
		byTicker[t.Ticker] = append(byTicker[t.Ticker], t)
	}

	var out []sample
	for ticker, history := range byTicker {
		latest := latestOf(history)
		if latest.Position <= 0 {
			continue
		}
		if since.After(latest.EntryDate) && caldate.MonthsBetween(latest.EntryDate, since) > 12 {
			continue
		}

		window := trailingWindow(history, latest.EntryDate)
		if err := checkSameDateAmbiguity(window); err != nil {
			return nil, err
		}
		window = excludeSpecial(window)

		out = append(out, sample{ticker: ticker, records: window, latest: latest})
	}
	return out, nil
}

func latestOf(history []ledger.Transaction) ledger.Transaction {
	latest := history[0]
	for _, t := range history[1:] {
		if t.EntryDate.After(latest.EntryDate) {
			latest = t
		}
	}
	return latest
}

// trailingWindow returns every transaction dated within 12 months
// trailing entryDate (inclusive), chronologically ordered.
func trailingWindow(history []ledger.Transaction, entryDate caldate.Date) []ledger.Transaction {
	var window []ledger.Transaction
	for _, t := range history {
		if !t.EntryDate.After(entryDate) && caldate.MonthsBetween(t.EntryDate, entryDate) <= 12 {
			window = append(window, t)
		}
	}
	sortChronological(window)
	return window
}

func sortChronological(txs []ledger.Transaction) {
	for i := 1; i < len(txs); i++ {
		for j := i; j > 0 && txs[j-1].EntryDate.After(txs[j].EntryDate); j-- {
			txs[j-1], txs[j] = txs[j], txs[j-1]
		}
	}
}

// checkSameDateAmbiguity implements §4.9's same-date pair rule: two
// sampled transactions dated identically are allowed only if at least
// one is Special and their positions match within tolerance; otherwise
// it is a fatal ambiguity.
func checkSameDateAmbiguity(window []ledger.Transaction) error {
	for i := 0; i < len(window); i++ {
		for j := i + 1; j < len(window); j++ {
			if !window[i].EntryDate.Equal(window[j].EntryDate) {
				continue
			}
			specialInvolved := window[i].Kind == ledger.Special || window[j].Kind == ledger.Special
			samePosition := absDiff(window[i].Position, window[j].Position) < 1e-6
			if !(specialInvolved && samePosition) {
				return ledger.NewError(ledger.InferenceError, window[i].Attrs.Location,
					"%s: ambiguous same-date sample records", window[i].Ticker)
			}
		}
	}
	return nil
}

func excludeSpecial(txs []ledger.Transaction) []ledger.Transaction {
	out := make([]ledger.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.Kind != ledger.Special {
			out = append(out, t)
		}
	}
	return out
}

func absDiff(a, b float64) float64 {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}
