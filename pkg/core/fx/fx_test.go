package fx

import (
	"testing"

	"github.com/shopspring/decimal"

	"divledger/pkg/core/caldate"
	"divledger/pkg/core/ledger"
	"divledger/pkg/core/money"
)

func crossCurrency(date caldate.Date, position, amountValue, dividendValue float64) ledger.Transaction {
	amt := money.Amount{Value: decimal.NewFromFloat(amountValue), Symbol: "$"}
	div := money.Amount{Value: decimal.NewFromFloat(dividendValue), Symbol: "kr"}
	return ledger.Transaction{EntryDate: date, Position: position, Amount: &amt, Dividend: &div}
}

func TestBuildAndFactor(t *testing.T) {
	txs := []ledger.Transaction{
		crossCurrency(caldate.New(2020, 1, 1), 10, 13, 1),
	}
	idx := Build(txs)
	factor, ok := idx.Factor("kr", "$")
	if !ok {
		t.Fatalf("expected a known rate")
	}
	if factor != 1.3 {
		t.Errorf("expected factor 1.3, got %v", factor)
	}
}

func TestFactorReciprocal(t *testing.T) {
	txs := []ledger.Transaction{
		crossCurrency(caldate.New(2020, 1, 1), 10, 20, 1),
	}
	idx := Build(txs)
	factor, ok := idx.Factor("$", "kr")
	if !ok {
		t.Fatalf("expected reciprocal rate")
	}
	if absDiff(factor, 0.5) > 1e-9 {
		t.Errorf("expected reciprocal factor 0.5, got %v", factor)
	}
}

func TestBuildRetainsAmbiguousAlternatives(t *testing.T) {
	d := caldate.New(2020, 1, 1)
	txs := []ledger.Transaction{
		crossCurrency(d, 10, 20, 1),
		crossCurrency(d, 10, 25, 1),
	}
	idx := Build(txs)
	r := idx.rates[pair{"kr", "$"}]
	if len(r.Alternatives) != 2 {
		t.Fatalf("expected 2 alternatives (one distinct + applied), got %d: %v", len(r.Alternatives), r.Alternatives)
	}
	if r.Alternatives[len(r.Alternatives)-1] != r.Applied {
		t.Errorf("expected applied rate last in alternatives")
	}
}

func TestInCurrencyKeepsAmountAlreadyInTarget(t *testing.T) {
	txs := []ledger.Transaction{
		crossCurrency(caldate.New(2020, 1, 1), 10, 13, 1),
	}
	idx := Build(txs)
	out, err := idx.InCurrency(txs, "$")
	if err != nil {
		t.Fatalf("InCurrency: %v", err)
	}
	if out[0].Amount.Symbol != "$" {
		t.Errorf("expected already-$ amount to be unchanged")
	}
}

func TestInCurrencyNoRateIsConversionError(t *testing.T) {
	amt := money.Amount{Value: decimal.NewFromInt(10), Symbol: "eur"}
	txs := []ledger.Transaction{{Amount: &amt}}
	idx := Build(nil)
	if _, err := idx.InCurrency(txs, "$"); err == nil {
		t.Fatalf("expected conversion error when no rate is known")
	}
}

func TestInDividendCurrency(t *testing.T) {
	txs := []ledger.Transaction{
		crossCurrency(caldate.New(2020, 1, 1), 10, 13, 1),
	}
	out := InDividendCurrency(txs)
	want := decimal.NewFromFloat(10)
	if !out[0].Amount.Value.Equal(want) {
		t.Errorf("expected amount restated to position*dividend=%s, got %s", want, out[0].Amount.Value)
	}
	if out[0].Amount.Symbol != "kr" {
		t.Errorf("expected amount symbol kr, got %s", out[0].Amount.Symbol)
	}
}

func TestWithEstimatesSynthesizesAmount(t *testing.T) {
	div := money.Amount{Value: decimal.NewFromFloat(0.5), Symbol: "$"}
	tx := ledger.Transaction{
		Position: 10,
		Dividend: &div,
		Attrs:    ledger.EntryAttributes{IsPreliminary: true},
	}
	idx := Build(nil)
	out, err := idx.WithEstimates([]ledger.Transaction{tx})
	if err != nil {
		t.Fatalf("WithEstimates: %v", err)
	}
	if out[0].Amount == nil {
		t.Fatalf("expected synthesized amount")
	}
	want := decimal.NewFromFloat(5)
	if !out[0].Amount.Value.Equal(want) {
		t.Errorf("expected amount %s, got %s", want, out[0].Amount.Value)
	}
}
