package projection

import (
	"testing"

	"github.com/shopspring/decimal"

	"divledger/pkg/core/caldate"
	"divledger/pkg/core/fx"
	"divledger/pkg/core/ledger"
	"divledger/pkg/core/money"
)

func realized(ticker string, date caldate.Date, position, amountValue, dividendValue float64) ledger.Transaction {
	amt := money.Amount{Value: decimal.NewFromFloat(amountValue), Symbol: "$"}
	div := money.Amount{Value: decimal.NewFromFloat(dividendValue), Symbol: "$"}
	return ledger.Transaction{EntryDate: date, Ticker: ticker, Position: position, Amount: &amt, Dividend: &div}
}

func TestRunProjectsFuturesForwardOneYear(t *testing.T) {
	txs := []ledger.Transaction{
		realized("AAPL", caldate.New(2023, 2, 10), 100, 23, 0.23),
		realized("AAPL", caldate.New(2023, 5, 10), 100, 24, 0.24),
		realized("AAPL", caldate.New(2023, 8, 10), 100, 25, 0.25),
		realized("AAPL", caldate.New(2023, 11, 10), 100, 26, 0.26),
	}
	idx := fx.Build(txs)
	out, err := Run(txs, idx, Options{Since: caldate.New(2024, 1, 1)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected at least one projection")
	}
	for _, p := range out {
		if p.Ticker != "AAPL" {
			t.Errorf("unexpected ticker %s", p.Ticker)
		}
		if p.EntryDate.Year != 2024 {
			t.Errorf("expected projection rolled into 2024, got %v", p.EntryDate)
		}
	}
}

func TestRunSkipsClosedPosition(t *testing.T) {
	txs := []ledger.Transaction{
		realized("AAPL", caldate.New(2023, 2, 10), 0, 0, 0.23),
	}
	idx := fx.Build(txs)
	out, err := Run(txs, idx, Options{Since: caldate.New(2023, 3, 1)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no projections for a closed-out position, got %v", out)
	}
}

func TestRunTemporalFilterExcludesFarFutureAndPast(t *testing.T) {
	lower := caldate.New(2023, 1, 1).AddDays(-15)
	upper := caldate.New(2023, 1, 1).AddMonths(12).WithDay(1).AddMonths(1)

	txs := []ledger.Transaction{
		realized("AAPL", lower.AddDays(-5), 100, 23, 0.23),
	}
	filtered := temporalFilter(txs, caldate.New(2023, 1, 1))
	if len(filtered) != 0 {
		t.Errorf("expected out-of-window projection dropped, kept %v", filtered)
	}

	txs = []ledger.Transaction{
		realized("AAPL", upper, 100, 23, 0.23),
	}
	filtered = temporalFilter(txs, caldate.New(2023, 1, 1))
	if len(filtered) != 0 {
		t.Errorf("expected the exclusive upper bound dropped, kept %v", filtered)
	}

	txs = []ledger.Transaction{
		realized("AAPL", lower, 100, 23, 0.23),
		realized("AAPL", upper.AddDays(-1), 100, 23, 0.23),
	}
	filtered = temporalFilter(txs, caldate.New(2023, 1, 1))
	if len(filtered) != 2 {
		t.Errorf("expected both inclusive boundary dates kept, got %v", filtered)
	}
}

func TestRemoveRealizedCollisionsDropsSameMonthAndNearDates(t *testing.T) {
	r := realized("AAPL", caldate.New(2024, 2, 10), 100, 23, 0.23)
	samples := []sample{{ticker: "AAPL", records: []ledger.Transaction{r}}}

	sameMonth := ledger.Transaction{Ticker: "AAPL", EntryDate: caldate.New(2024, 2, 25)}
	near := ledger.Transaction{Ticker: "AAPL", EntryDate: caldate.New(2024, 1, 30)}
	clear := ledger.Transaction{Ticker: "AAPL", EntryDate: caldate.New(2024, 6, 1)}

	out := removeRealizedCollisions([]ledger.Transaction{sameMonth, near, clear}, samples)
	if len(out) != 1 || !out[0].EntryDate.Equal(clear.EntryDate) {
		t.Errorf("expected only the distant projection to survive, got %v", out)
	}
}

func TestLinearProjectedDividendAmbiguousOnMixedTrend(t *testing.T) {
	up := money.Amount{Value: decimal.NewFromFloat(0.20)}
	down := money.Amount{Value: decimal.NewFromFloat(0.15)}
	higher := money.Amount{Value: decimal.NewFromFloat(0.25)}

	if _, ok := linearProjectedDividend([]money.Amount{up, down, higher}); ok {
		t.Errorf("expected ambiguous mixed trend to yield no projection")
	}

	steady := []money.Amount{up, higher}
	got, ok := linearProjectedDividend(steady)
	if !ok {
		t.Fatalf("expected a projection for a monotonic trend")
	}
	if !got.Value.Equal(higher.Value) {
		t.Errorf("expected the most recent dividend %s, got %s", higher.Value, got.Value)
	}
}

func TestEstimatesFallsBackToMeanWhenTrendAmbiguous(t *testing.T) {
	s := sample{
		ticker: "AAPL",
		records: []ledger.Transaction{
			realized("AAPL", caldate.New(2023, 2, 10), 100, 20, 0.20),
			realized("AAPL", caldate.New(2023, 5, 10), 100, 15, 0.15),
			realized("AAPL", caldate.New(2023, 8, 10), 100, 25, 0.25),
		},
	}
	s.latest = s.records[len(s.records)-1]
	normalized := s.records
	idx := fx.Build(normalized)

	out, err := estimates(s, normalized, idx, []int{11}, 3)
	if err != nil {
		t.Fatalf("estimates: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected a mean-fallback projection")
	}
	if out[0].Dividend != nil {
		t.Errorf("expected no dividend carried on a mean-fallback projection")
	}
}

func TestTrimOutliersDropsNonConformingInterval(t *testing.T) {
	// Semiannual history (May, Nov) gives frequency 6, target 12/6=2.
	may := realized("AAPL", caldate.New(2023, 5, 10), 100, 26, 0.26)
	anchor := realized("AAPL", caldate.New(2023, 11, 10), 100, 26, 0.26)
	samples := []sample{{ticker: "AAPL", records: []ledger.Transaction{may, anchor}}}

	onSchedule1 := ledger.Transaction{Ticker: "AAPL", EntryDate: caldate.New(2024, 5, 10)}
	offSchedule := ledger.Transaction{Ticker: "AAPL", EntryDate: caldate.New(2024, 8, 1)}
	onSchedule2 := ledger.Transaction{Ticker: "AAPL", EntryDate: caldate.New(2024, 11, 10)}

	out := trimOutliers([]ledger.Transaction{onSchedule1, offSchedule, onSchedule2}, samples)
	if len(out) != 2 {
		t.Fatalf("expected trim down to the target count of 2, got %d: %v", len(out), out)
	}
	for _, p := range out {
		if p.EntryDate.Equal(offSchedule.EntryDate) {
			t.Errorf("expected off-schedule projection trimmed, got %v", out)
		}
	}
}
