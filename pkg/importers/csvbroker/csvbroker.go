// Package csvbroker imports the alternative tab-separated broker-CSV
// format (§6 "CSV broker format (alternative input)") into the same
// canonical transaction shape the journal reader produces, so every
// downstream pipeline stage treats the two sources identically.
package csvbroker

import (
	"encoding/csv"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"divledger/pkg/core/caldate"
	"divledger/pkg/core/ledger"
	"divledger/pkg/core/money"
	"divledger/pkg/encoding"
)

func init() {
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = '\t'
		r.FieldsPerRecord = -1
		r.LazyQuotes = true
		return r
	})
}

// row mirrors one line of the broker CSV's fixed columns. Header names
// are matched case-insensitively by gocsv.
type row struct {
	EntryDate  string `csv:"entry_date"`
	ExDate     string `csv:"ex_date"`
	PayoutDate string `csv:"payout_date"`
	Ticker     string `csv:"ticker"`
	Position   string `csv:"position"`
	Dividend   string `csv:"dividend"`
	Amount     string `csv:"amount"`
	Symbol     string `csv:"symbol"`
	Descr      string `csv:"description"`
}

// secondaryDividendPattern extracts a secondary dividend rate and symbol
// from the free-text description column, e.g. "Qtrly dividend (0.19
// EUR)". No original-source file specifies this syntax; this trailing
// "(<rate> <symbol>)" parenthetical is this importer's own convention.
var secondaryDividendPattern = regexp.MustCompile(`\(([0-9]+(?:\.[0-9]+)?)\s+([A-Za-z]{2,5})\)\s*$`)

// Import reads path's worth of tab-separated broker CSV rows from r and
// returns them as canonical transactions, in file order. Every row-level
// problem and the cross-row reverted-pair check are reported as
// *ledger.Error with kind ParseError.
func Import(r io.Reader, path string) ([]ledger.Transaction, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, ledger.NewError(ledger.ParseError, ledger.SourceLocation{Path: path}, "read broker csv: %v", err)
	}
	text, err := encoding.DecodeToUTF8(raw)
	if err != nil {
		return nil, ledger.NewError(ledger.ParseError, ledger.SourceLocation{Path: path}, "decode broker csv: %v", err)
	}

	var rows []row
	if err := gocsv.Unmarshal(strings.NewReader(text), &rows); err != nil {
		return nil, ledger.NewError(ledger.ParseError, ledger.SourceLocation{Path: path}, "parse broker csv: %v", err)
	}

	today := caldate.FromTime(time.Now())

	out := make([]ledger.Transaction, 0, len(rows))
	for i, rw := range rows {
		loc := ledger.SourceLocation{Path: path, Line: i + 2} // header row + 1-based line
		tx, err := parseRow(rw, today, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}

	if err := detectRevertedPairs(out); err != nil {
		return nil, err
	}

	return out, nil
}

func parseRow(rw row, today caldate.Date, loc ledger.SourceLocation) (ledger.Transaction, error) {
	entryDate, err := caldate.ParseDatestamp(strings.TrimSpace(rw.EntryDate))
	if err != nil {
		return ledger.Transaction{}, ledger.NewError(ledger.ParseError, loc, "invalid entry date %q: %v", rw.EntryDate, err)
	}
	if entryDate.After(today) {
		return ledger.Transaction{}, ledger.NewError(ledger.ParseError, loc, "entry date set in future (%s)", entryDate)
	}

	tx := ledger.Transaction{
		EntryDate: entryDate,
		Ticker:    strings.ToUpper(strings.TrimSpace(rw.Ticker)),
		Attrs: ledger.EntryAttributes{
			Location:    loc,
			Positioning: ledger.Positioning{Directive: ledger.DirectiveSet},
		},
	}
	if tx.Ticker == "" {
		return ledger.Transaction{}, ledger.NewError(ledger.ParseError, loc, "missing ticker")
	}

	if s := strings.TrimSpace(rw.ExDate); s != "" {
		d, err := caldate.ParseDatestamp(s)
		if err != nil {
			return ledger.Transaction{}, ledger.NewError(ledger.ParseError, loc, "invalid ex-date %q: %v", s, err)
		}
		if d.After(today) {
			return ledger.Transaction{}, ledger.NewError(ledger.ParseError, loc, "ex-dividend date set in future (%s)", d)
		}
		tx.ExDate = &d
	}
	if s := strings.TrimSpace(rw.PayoutDate); s != "" {
		d, err := caldate.ParseDatestamp(s)
		if err != nil {
			return ledger.Transaction{}, ledger.NewError(ledger.ParseError, loc, "invalid payout date %q: %v", s, err)
		}
		if d.After(today) {
			return ledger.Transaction{}, ledger.NewError(ledger.ParseError, loc, "payout date set in future (%s)", d)
		}
		tx.PayoutDate = &d
	}

	if s := strings.TrimSpace(rw.Position); s != "" {
		pos, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return ledger.Transaction{}, ledger.NewError(ledger.ParseError, loc, "invalid position %q: %v", s, err)
		}
		tx.Position = pos
		tx.Attrs.Positioning.Value = pos
		tx.Attrs.Positioning.HasValue = true
	}

	symbol := strings.TrimSpace(rw.Symbol)

	var dividend *money.Amount
	if s := strings.TrimSpace(rw.Dividend); s != "" {
		v, err := decimal.NewFromString(s)
		if err != nil {
			return ledger.Transaction{}, ledger.NewError(ledger.ParseError, loc, "invalid dividend %q: %v", s, err)
		}
		if symbol == "" {
			return ledger.Transaction{}, ledger.NewError(ledger.ParseError, loc, "missing dividend symbol")
		}
		amt := money.Amount{Value: v, Symbol: symbol, Places: -1, Template: money.SymbolTemplate(symbol, true)}
		dividend = &amt
	}

	if secondarySymbol, secondaryRate, ok := extractSecondaryDividend(rw.Descr); ok {
		if dividend == nil {
			return ledger.Transaction{}, ledger.NewError(ledger.ParseError, loc, "secondary dividend %s %s with no primary dividend", secondaryRate, secondarySymbol)
		}
		if strings.EqualFold(secondarySymbol, dividend.Symbol) && !secondaryRate.Equal(dividend.Value) {
			return ledger.Transaction{}, ledger.NewError(ledger.ParseError, loc, "ambiguous dividend: row's two dividend values disagree (%s vs %s %s)", dividend.Value, secondaryRate, secondarySymbol)
		}
	}
	tx.Dividend = dividend

	if s := strings.TrimSpace(rw.Amount); s != "" {
		v, err := decimal.NewFromString(s)
		if err != nil {
			return ledger.Transaction{}, ledger.NewError(ledger.ParseError, loc, "invalid amount %q: %v", s, err)
		}
		amt := money.Amount{Value: v, Symbol: symbol, Places: -1, Template: money.SymbolTemplate(symbol, true)}
		tx.Amount = &amt
	}

	return tx, nil
}

// extractSecondaryDividend parses a trailing "(<rate> <symbol>)"
// parenthetical out of a free-text description.
func extractSecondaryDividend(descr string) (symbol string, rate decimal.Decimal, ok bool) {
	m := secondaryDividendPattern.FindStringSubmatch(strings.TrimSpace(descr))
	if m == nil {
		return "", decimal.Zero, false
	}
	v, err := decimal.NewFromString(m[1])
	if err != nil {
		return "", decimal.Zero, false
	}
	return strings.ToUpper(m[2]), v, true
}

type revertKey struct {
	date   string
	ticker string
	abs    string
}

// detectRevertedPairs implements §6's reverted-pair rule: two rows
// sharing (entry_date, ticker, amount) in absolute value but opposite
// sign are a parse error, not two legitimate transactions.
func detectRevertedPairs(txs []ledger.Transaction) error {
	bySign := map[revertKey]int{}
	for _, t := range txs {
		if t.Amount == nil || t.Amount.Value.IsZero() {
			continue
		}
		key := revertKey{date: t.EntryDate.String(), ticker: t.Ticker, abs: t.Amount.Value.Abs().String()}
		sign := t.Amount.Value.Sign()
		if prior, seen := bySign[key]; seen {
			if prior != sign {
				return ledger.NewError(ledger.ParseError, t.Attrs.Location,
					"reverted pair: %s on %s has both %s and -%s", t.Ticker, t.EntryDate, t.Amount.Value.Abs(), t.Amount.Value.Abs())
			}
			continue
		}
		bySign[key] = sign
	}
	return nil
}
