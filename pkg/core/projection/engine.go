package projection

import (
	"divledger/pkg/core/caldate"
	"divledger/pkg/core/fx"
	"divledger/pkg/core/ledger"
	"divledger/pkg/core/schedule"
)

// Run implements §4.9 end to end: it selects a sample per ticker, runs
// both projection strategies, merges them, then filters the merged set
// down to the surviving forward-looking schedule (temporal filtering,
// collision removal against realized transactions, and outlier trim),
// returning the result in canonical order.
func Run(txs []ledger.Transaction, idx *fx.Index, opts Options) ([]ledger.Transaction, error) {
	samples, err := selectSamples(txs, opts.Since)
	if err != nil {
		return nil, err
	}

	var all []ledger.Transaction
	for _, s := range samples {
		months := entryMonths(s.records)
		interval := schedule.EstimateFrequency(months)
		scheduleMonths := schedule.Estimate(months, interval)

		futureProjections, err := futures(s, txs, idx)
		if err != nil {
			return nil, err
		}
		estimateProjections, err := estimates(s, txs, idx, scheduleMonths, int(interval))
		if err != nil {
			return nil, err
		}
		all = append(all, mergeFutures(futureProjections, estimateProjections)...)
	}

	all = temporalFilter(all, opts.Since)
	all = removeRealizedCollisions(all, samples)
	all = trimOutliers(all, samples)

	return ledger.Sort(all), nil
}

func entryMonths(records []ledger.Transaction) []int {
	months := make([]int, 0, len(records))
	for _, t := range records {
		months = append(months, t.EntryDate.Month)
	}
	return months
}

// temporalFilter implements §4.9's "Temporal filtering": keep only
// projections dated within [since - 15 days, next_month(since + 12
// months)).
func temporalFilter(txs []ledger.Transaction, since caldate.Date) []ledger.Transaction {
	lower := since.AddDays(-15)
	upper := since.AddMonths(12).WithDay(1).AddMonths(1)

	out := make([]ledger.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.EntryDate.Before(lower) || !t.EntryDate.Before(upper) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// removeRealizedCollisions implements §4.9's "Same-month collision with
// realized": drop any projection that lands in the same ticker-month as
// a realized sample record, or within 15 days of one.
func removeRealizedCollisions(txs []ledger.Transaction, samples []sample) []ledger.Transaction {
	out := make([]ledger.Transaction, 0, len(txs))
	for _, p := range txs {
		if !collidesWithRealized(p, samples) {
			out = append(out, p)
		}
	}
	return out
}

func collidesWithRealized(p ledger.Transaction, samples []sample) bool {
	for _, s := range samples {
		if s.ticker != p.Ticker {
			continue
		}
		for _, r := range s.records {
			if r.Amount == nil {
				continue
			}
			sameMonth := r.EntryDate.Year == p.EntryDate.Year && r.EntryDate.Month == p.EntryDate.Month
			near := absInt(caldate.DaysBetween(r.EntryDate, p.EntryDate)) <= 15
			if sameMonth || near {
				return true
			}
		}
	}
	return false
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// trimOutliers implements §4.9's "Outlier trim": for each ticker, while
// more projections remain than 12/frequency, walk the combined
// (latest realized + projections) sequence interval by interval and
// drop the first projection whose interval from its predecessor
// doesn't normalize to the ticker's frequency. Restarts after each
// removal.
func trimOutliers(txs []ledger.Transaction, samples []sample) []ledger.Transaction {
	byTicker := map[string][]ledger.Transaction{}
	var order []string
	for _, t := range txs {
		if _, ok := byTicker[t.Ticker]; !ok {
			order = append(order, t.Ticker)
		}
		byTicker[t.Ticker] = append(byTicker[t.Ticker], t)
	}

	frequency := map[string]schedule.Frequency{}
	latestRealized := map[string]ledger.Transaction{}
	for _, s := range samples {
		frequency[s.ticker] = schedule.EstimateFrequency(entryMonths(s.records))
		if len(s.records) > 0 {
			latestRealized[s.ticker] = s.records[len(s.records)-1]
		}
	}

	for _, ticker := range order {
		freq := frequency[ticker]
		if freq <= 0 {
			continue
		}
		byTicker[ticker] = trimTickerOutliers(byTicker[ticker], latestRealized[ticker], freq, 12/int(freq))
	}

	var out []ledger.Transaction
	for _, ticker := range order {
		out = append(out, byTicker[ticker]...)
	}
	return out
}

func trimTickerOutliers(projections []ledger.Transaction, anchor ledger.Transaction, freq schedule.Frequency, target int) []ledger.Transaction {
	for len(projections) > target {
		sortChronological(projections)
		idx := firstOutlierIndex(projections, anchor, freq)
		if idx < 0 {
			break
		}
		projections = append(projections[:idx], projections[idx+1:]...)
	}
	return projections
}

// firstOutlierIndex walks the anchor-prepended sequence and returns the
// index of the first projection whose interval from its predecessor
// doesn't normalize to freq, or -1 if every interval matches.
func firstOutlierIndex(projections []ledger.Transaction, anchor ledger.Transaction, freq schedule.Frequency) int {
	prev := anchor
	for i, p := range projections {
		months := caldate.MonthsBetween(prev.EntryDate, p.EntryDate)
		if months <= 0 {
			months += 12
		}
		if normalizeInterval(months) != freq {
			return i
		}
		prev = p
	}
	return -1
}

func normalizeInterval(months int) schedule.Frequency {
	switch {
	case months <= 1:
		return 1
	case months <= 3:
		return 3
	case months <= 6:
		return 6
	default:
		return 12
	}
}
