package prune

import (
	"testing"

	"github.com/shopspring/decimal"

	"divledger/pkg/core/caldate"
	"divledger/pkg/core/ledger"
	"divledger/pkg/core/money"
)

func positional(ticker string, date caldate.Date, position float64, directive ledger.Directive) ledger.Transaction {
	return ledger.Transaction{
		Ticker: ticker, EntryDate: date, Position: position,
		Attrs: ledger.EntryAttributes{Positioning: ledger.Positioning{Directive: directive}},
	}
}

func realized(ticker string, date caldate.Date, position float64) ledger.Transaction {
	amt := money.Amount{Value: decimal.NewFromInt(1), Symbol: "$"}
	return ledger.Transaction{Ticker: ticker, EntryDate: date, Position: position, Amount: &amt}
}

func TestPruneDropsObsoletePositional(t *testing.T) {
	stale := positional("AAPL", caldate.New(2020, 1, 1), 100, ledger.DirectiveSet)
	latest := realized("AAPL", caldate.New(2020, 6, 1), 100)

	out := Run([]ledger.Transaction{stale, latest})
	if len(out) != 1 {
		t.Fatalf("expected stale positional to be dropped, got %d entries", len(out))
	}
}

func TestPruneKeepsZeroCloser(t *testing.T) {
	closer := positional("AAPL", caldate.New(2020, 1, 1), 0, ledger.DirectiveSet)
	latest := realized("AAPL", caldate.New(2020, 6, 1), 100)

	out := Run([]ledger.Transaction{closer, latest})
	if len(out) != 2 {
		t.Fatalf("expected zero-position closer to be retained, got %d entries", len(out))
	}
}

func TestPruneKeepsSplitDirective(t *testing.T) {
	split := positional("AAPL", caldate.New(2020, 1, 1), 100, ledger.DirectiveSplit)
	latest := realized("AAPL", caldate.New(2020, 6, 1), 200)

	out := Run([]ledger.Transaction{split, latest})
	if len(out) != 2 {
		t.Fatalf("expected split directive to be retained, got %d entries", len(out))
	}
}

func TestPruneKeepsPositionalAfterLatestExDate(t *testing.T) {
	exDate := caldate.New(2020, 5, 1)
	latest := ledger.Transaction{Ticker: "AAPL", EntryDate: caldate.New(2020, 6, 1), Position: 100, ExDate: &exDate}
	latestAmt := money.Amount{Value: decimal.NewFromInt(1), Symbol: "$"}
	latest.Amount = &latestAmt
	afterExDate := positional("AAPL", caldate.New(2020, 5, 15), 100, ledger.DirectiveSet)

	out := Run([]ledger.Transaction{latest, afterExDate})
	if len(out) != 2 {
		t.Fatalf("expected positional dated on/after ex-date to be retained, got %d entries", len(out))
	}
}
