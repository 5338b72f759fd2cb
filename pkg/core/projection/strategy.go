package projection

import (
	"strconv"

	"github.com/shopspring/decimal"

	"divledger/pkg/core/caldate"
	"divledger/pkg/core/fx"
	"divledger/pkg/core/ledger"
	"divledger/pkg/core/money"
)

// futures implements the "annual roll" strategy (§4.9): every sampled
// realized transaction is projected forward to the same month next
// year, with its position carried from history and its dividend
// linearly projected.
func futures(s sample, normalized []ledger.Transaction, idx *fx.Index) ([]ledger.Transaction, error) {
	var out []ledger.Transaction
	for _, t := range s.records {
		if t.IsPositional() || t.Amount == nil {
			continue
		}

		class := classifyDay(t.EntryDate.Day)
		nextYear := t.EntryDate.Year + 1
		day := projectedDay(class, nextYear, t.EntryDate.Month)
		projectedEntry := caldate.New(nextYear, t.EntryDate.Month, day).Generate()

		var projectedEx *caldate.Date
		cutoff := projectedEntry
		if t.ExDate != nil {
			e := caldate.New(nextYear, t.ExDate.Month, day).Generate()
			projectedEx = &e
			cutoff = e
		}

		position := positionAsOf(normalized, t.Ticker, cutoff)

		dividend, ok := linearProjectedDividend(sameKindHistory(normalized, t.Ticker, t.Kind, t.Dividend.Symbol))
		if !ok {
			continue
		}

		amount := dividend.WithValue(dividend.Value.Mul(decimal.NewFromFloat(position)))
		amount, err := convertSingle(amount, dividend.Symbol, t.Amount.Symbol, idx)
		if err != nil {
			return nil, err
		}

		p := ledger.Transaction{
			EntryDate:  projectedEntry,
			Ticker:     t.Ticker,
			Position:   position,
			Amount:     &amount,
			Dividend:   &dividend,
			Kind:       t.Kind,
			PayoutDate: rollPayoutDate(t, nextYear),
			ExDate:     projectedEx,
		}
		out = append(out, p)
	}
	return out, nil
}

// estimates implements the "schedule fill" strategy (§4.9): walks the
// ticker's schedule starting at the latest realized transaction's entry
// month, generating forward projections until the schedule target count
// is reached.
func estimates(s sample, normalized []ledger.Transaction, idx *fx.Index, scheduleMonths []int, interval int) ([]ledger.Transaction, error) {
	if interval <= 0 || len(scheduleMonths) == 0 {
		return nil, nil
	}

	latest := s.latest
	var out []ledger.Transaction
	year := latest.EntryDate.Year
	month := latest.EntryDate.Month

	meanAmount, hasMean := meanPerShareAmount(s.records)
	dividend, hasTrend := linearProjectedDividend(sameKindHistory(normalized, s.ticker, latest.Kind, dividendSymbol(latest)))

	for _, m := range scheduleMonths {
		projYear := year
		if m <= month {
			projYear++
		}
		class := classifyDay(latest.EntryDate.Day)
		day := projectedDay(class, projYear, m)
		entry := caldate.New(projYear, m, day).Generate()

		position := positionAsOf(normalized, s.ticker, entry)

		var amount money.Amount
		var err error
		switch {
		case hasTrend:
			amount = dividend.WithValue(dividend.Value.Mul(decimal.NewFromFloat(position)))
			if latest.Amount != nil {
				amount, err = convertSingle(amount, dividend.Symbol, latest.Amount.Symbol, idx)
			}
		case hasMean:
			amount = meanAmount.WithValue(meanAmount.Value.Mul(decimal.NewFromFloat(position)))
			if latest.Amount != nil && latest.Dividend != nil && latest.Amount.Symbol != latest.Dividend.Symbol {
				amount, err = convertSingle(amount, latest.Dividend.Symbol, latest.Amount.Symbol, idx)
			}
		default:
			continue
		}
		if err != nil {
			return nil, err
		}

		p := ledger.Transaction{
			EntryDate: entry,
			Ticker:    s.ticker,
			Position:  position,
			Amount:    &amount,
			Kind:      latest.Kind,
		}
		if hasTrend {
			p.Dividend = &dividend
		}
		out = append(out, p)
	}
	return out, nil
}

func dividendSymbol(t ledger.Transaction) string {
	if t.Dividend != nil {
		return t.Dividend.Symbol
	}
	return ""
}

// positionAsOf returns the latest known position for ticker dated on or
// before cutoff (§4.9 futures "position is derived from...").
func positionAsOf(normalized []ledger.Transaction, ticker string, cutoff caldate.Date) float64 {
	var position float64
	var bestDate caldate.Date
	var found bool
	for _, t := range normalized {
		if t.Ticker != ticker || t.EntryDate.After(cutoff) {
			continue
		}
		if !found || t.EntryDate.After(bestDate) {
			position = t.Position
			bestDate = t.EntryDate
			found = true
		}
	}
	return position
}

// sameKindHistory returns, in chronological (latest-last) order, the
// per-share dividend values of the same distribution kind and currency
// for ticker.
func sameKindHistory(normalized []ledger.Transaction, ticker string, kind ledger.Kind, symbol string) []money.Amount {
	var out []money.Amount
	var dates []caldate.Date
	for _, t := range normalized {
		if t.Ticker != ticker || t.Kind != kind || t.Dividend == nil || t.Dividend.Symbol != symbol {
			continue
		}
		out = append(out, *t.Dividend)
		dates = append(dates, t.EntryDate)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && dates[j-1].After(dates[j]); j-- {
			out[j-1], out[j] = out[j], out[j-1]
			dates[j-1], dates[j] = dates[j], dates[j-1]
		}
	}
	return out
}

// linearProjectedDividend implements §4.9's "Linear dividend projection":
// normalizes consecutive deltas into {-1, 0, +1} (0 treated as +1); if
// both up- and down-movements occur the trend is ambiguous and there is
// no projection, otherwise the most recent dividend is returned.
func linearProjectedDividend(history []money.Amount) (money.Amount, bool) {
	if len(history) == 0 {
		return money.Amount{}, false
	}
	if len(history) == 1 {
		return history[0], true
	}

	sawUp, sawDown := false, false
	for i := 1; i < len(history); i++ {
		switch history[i].Value.Cmp(history[i-1].Value) {
		case 1, 0:
			sawUp = true
		case -1:
			sawDown = true
		}
	}
	if sawUp && sawDown {
		return money.Amount{}, false
	}
	return history[len(history)-1], true
}

// meanPerShareAmount computes the arithmetic mean of per-share amounts
// (amount / position) in the trailing reference window (§4.9 estimates
// fallback).
func meanPerShareAmount(records []ledger.Transaction) (money.Amount, bool) {
	var sum decimal.Decimal
	var n int
	var template money.Template
	var symbol string
	for _, t := range records {
		if t.Amount == nil || t.Position == 0 {
			continue
		}
		perShare := t.Amount.Value.Div(decimal.NewFromFloat(t.Position))
		sum = sum.Add(perShare)
		n++
		template = t.Amount.Template
		symbol = t.Amount.Symbol
	}
	if n == 0 {
		return money.Amount{}, false
	}
	mean := sum.Div(decimal.NewFromInt(int64(n)))
	return money.Amount{Value: mean, Symbol: symbol, Places: -1, Template: template, Generated: true}, true
}

func convertSingle(amt money.Amount, from, to string, idx *fx.Index) (money.Amount, error) {
	if from == to {
		return amt, nil
	}
	factor, ok := idx.Factor(from, to)
	if !ok {
		return money.Amount{}, ledger.NewError(ledger.ConversionError, ledger.SourceLocation{}, "no exchange rate from %s to %s", from, to)
	}
	converted := amt.WithValue(amt.Value.Mul(decimal.NewFromFloat(factor)))
	converted.Symbol = to
	return converted, nil
}

// rollPayoutDate rolls a realized transaction's payout date, if present,
// into nextYear, keeping the payout's own month and day (it does not get
// the 15th/last-day placement used for the projected entry).
func rollPayoutDate(t ledger.Transaction, nextYear int) *caldate.Date {
	if t.PayoutDate == nil {
		return nil
	}
	rolled := caldate.New(nextYear, t.PayoutDate.Month, t.PayoutDate.Day).Generate()
	return &rolled
}

// mergeFutures implements §4.9's merge rule: start from the futures
// projections, keep an estimate only if no future already occupies the
// same ticker-year-month.
func mergeFutures(futureProjections, estimateProjections []ledger.Transaction) []ledger.Transaction {
	occupied := map[string]bool{}
	for _, f := range futureProjections {
		occupied[yearMonthKey(f.Ticker, f.EntryDate)] = true
	}
	out := append([]ledger.Transaction(nil), futureProjections...)
	for _, e := range estimateProjections {
		if !occupied[yearMonthKey(e.Ticker, e.EntryDate)] {
			out = append(out, e)
		}
	}
	return out
}

func yearMonthKey(ticker string, d caldate.Date) string {
	return ticker + ":" + strconv.Itoa(d.Year) + "-" + strconv.Itoa(d.Month)
}
