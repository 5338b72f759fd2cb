package journal

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"divledger/pkg/core/caldate"
	"divledger/pkg/core/ledger"
	"divledger/pkg/core/money"
)

func TestSerializeOmitsPositionWhenNotExplicit(t *testing.T) {
	amt := money.Amount{Value: decimal.NewFromFloat(77), Symbol: "$", Places: 0, Template: money.SymbolTemplate("$", true)}
	div := money.Amount{Value: decimal.NewFromFloat(0.77), Symbol: "$", Places: 2, Template: money.SymbolTemplate("$", true)}
	tx := ledger.Transaction{
		EntryDate: caldate.New(2019, 5, 16),
		Ticker:    "AAPL",
		Position:  100,
		Amount:    &amt,
		Dividend:  &div,
	}

	out := Serialize([]ledger.Transaction{tx}, SerializeOptions{})
	if strings.Contains(out, "(") {
		t.Errorf("expected no explicit position parenthetical, got %q", out)
	}
	if !strings.Contains(out, "2019/05/16 AAPL") {
		t.Errorf("expected date+ticker prefix, got %q", out)
	}
	if !strings.Contains(out, "@ $ 0.77") {
		t.Errorf("expected dividend rendered through its template, got %q", out)
	}
}

func TestSerializeShowsExplicitPosition(t *testing.T) {
	amt := money.Amount{Value: decimal.NewFromFloat(73), Symbol: "$", Places: 0, Template: money.SymbolTemplate("$", true)}
	tx := ledger.Transaction{
		EntryDate: caldate.New(2019, 2, 14),
		Ticker:    "AAPL",
		Position:  100,
		Amount:    &amt,
		Attrs:     ledger.EntryAttributes{Positioning: ledger.Positioning{Directive: ledger.DirectiveSet, Value: 100, HasValue: true}},
	}

	out := Serialize([]ledger.Transaction{tx}, SerializeOptions{})
	if !strings.Contains(out, "AAPL (100)") {
		t.Errorf("expected explicit position parenthetical, got %q", out)
	}
}

func TestSerializeCompactModeOneLinePerEntry(t *testing.T) {
	a := ledger.Transaction{EntryDate: caldate.New(2024, 1, 1), Ticker: "A", Position: 10}
	b := ledger.Transaction{EntryDate: caldate.New(2024, 2, 1), Ticker: "B", Position: 20}

	out := Serialize([]ledger.Transaction{a, b}, SerializeOptions{Compact: true})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines in compact mode, got %d: %q", len(lines), out)
	}
}

func TestSerializeMaxDecimalPlacesPerTicker(t *testing.T) {
	a := ledger.Transaction{EntryDate: caldate.New(2024, 1, 1), Ticker: "AAPL", Position: 100.5}
	b := ledger.Transaction{EntryDate: caldate.New(2024, 2, 1), Ticker: "AAPL", Position: 105}

	out := Serialize([]ledger.Transaction{a, b}, SerializeOptions{Compact: true})
	if !strings.Contains(out, "(100.5)") || !strings.Contains(out, "(105.0)") {
		t.Errorf("expected both AAPL positions formatted at 1 decimal place, got %q", out)
	}
}
