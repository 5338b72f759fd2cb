// Package htmlbroker imports a broker's dividend history exported as an
// HTML page rather than CSV — an alternative-input sibling of
// pkg/importers/csvbroker (§12), sharing the same column set and the
// same canonical transaction output.
package htmlbroker

import (
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"divledger/pkg/core/caldate"
	"divledger/pkg/core/ledger"
	"divledger/pkg/core/money"
	"divledger/pkg/encoding"
)

// columnNames are the recognized header labels, matched case-
// insensitively against each <th>/first-row <td> — the same column set
// csvbroker's tab-separated format uses (§6).
var columnNames = []string{
	"entry_date", "ex_date", "payout_date", "ticker",
	"position", "dividend", "amount", "symbol", "description",
}

// Import finds the first table in r's HTML document, reads its header
// row to locate the recognized columns by name, and parses every
// subsequent row into a canonical transaction. Cleaning mirrors the
// teacher's cleanHTMLWithGoquery: scripts, styles, and hidden elements
// are stripped before the table is walked.
func Import(r io.Reader, path string) ([]ledger.Transaction, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, ledger.NewError(ledger.ParseError, ledger.SourceLocation{Path: path}, "read broker html: %v", err)
	}
	text, err := encoding.DecodeToUTF8(raw)
	if err != nil {
		return nil, ledger.NewError(ledger.ParseError, ledger.SourceLocation{Path: path}, "decode broker html: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, ledger.NewError(ledger.ParseError, ledger.SourceLocation{Path: path}, "parse broker html: %v", err)
	}
	doc.Find("script, style, [hidden], [style*='display:none'], [style*='display: none']").Remove()

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, ledger.NewError(ledger.ParseError, ledger.SourceLocation{Path: path}, "no table found in broker html")
	}

	rows := table.Find("tr")
	if rows.Length() == 0 {
		return nil, ledger.NewError(ledger.ParseError, ledger.SourceLocation{Path: path}, "broker html table has no rows")
	}

	header := parseHeader(rows.First())

	var out []ledger.Transaction
	lineNo := 1
	rows.Slice(1, rows.Length()).Each(func(i int, row *goquery.Selection) {
		lineNo++
		if err != nil {
			return
		}
		cells := cellText(row)
		if len(cells) == 0 || (len(cells) == 1 && cells[0] == "") {
			return
		}
		loc := ledger.SourceLocation{Path: path, Line: lineNo}
		var tx ledger.Transaction
		tx, err = parseRow(header, cells, loc)
		if err != nil {
			return
		}
		out = append(out, tx)
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func parseHeader(row *goquery.Selection) map[string]int {
	header := map[string]int{}
	row.Find("th, td").Each(func(i int, cell *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(cell.Text()))
		for _, name := range columnNames {
			if label == name || label == strings.ReplaceAll(name, "_", " ") {
				header[name] = i
			}
		}
	})
	return header
}

func cellText(row *goquery.Selection) []string {
	var cells []string
	row.Find("td, th").Each(func(i int, cell *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(cell.Text()))
	})
	return cells
}

func field(header map[string]int, cells []string, name string) string {
	idx, ok := header[name]
	if !ok || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

func parseRow(header map[string]int, cells []string, loc ledger.SourceLocation) (ledger.Transaction, error) {
	entryDate, err := caldate.ParseDatestamp(strings.TrimSpace(field(header, cells, "entry_date")))
	if err != nil {
		return ledger.Transaction{}, ledger.NewError(ledger.ParseError, loc, "invalid entry date: %v", err)
	}

	ticker := strings.ToUpper(strings.TrimSpace(field(header, cells, "ticker")))
	if ticker == "" {
		return ledger.Transaction{}, ledger.NewError(ledger.ParseError, loc, "missing ticker")
	}

	tx := ledger.Transaction{
		EntryDate: entryDate,
		Ticker:    ticker,
		Attrs: ledger.EntryAttributes{
			Location:    loc,
			Positioning: ledger.Positioning{Directive: ledger.DirectiveSet},
		},
	}

	if s := strings.TrimSpace(field(header, cells, "ex_date")); s != "" {
		d, err := caldate.ParseDatestamp(s)
		if err != nil {
			return ledger.Transaction{}, ledger.NewError(ledger.ParseError, loc, "invalid ex-date %q: %v", s, err)
		}
		tx.ExDate = &d
	}
	if s := strings.TrimSpace(field(header, cells, "payout_date")); s != "" {
		d, err := caldate.ParseDatestamp(s)
		if err != nil {
			return ledger.Transaction{}, ledger.NewError(ledger.ParseError, loc, "invalid payout date %q: %v", s, err)
		}
		tx.PayoutDate = &d
	}

	if s := strings.TrimSpace(field(header, cells, "position")); s != "" {
		pos, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return ledger.Transaction{}, ledger.NewError(ledger.ParseError, loc, "invalid position %q: %v", s, err)
		}
		tx.Position = pos
		tx.Attrs.Positioning.Value = pos
		tx.Attrs.Positioning.HasValue = true
	}

	symbol := strings.TrimSpace(field(header, cells, "symbol"))

	if s := strings.TrimSpace(field(header, cells, "dividend")); s != "" {
		v, err := decimal.NewFromString(s)
		if err != nil {
			return ledger.Transaction{}, ledger.NewError(ledger.ParseError, loc, "invalid dividend %q: %v", s, err)
		}
		if symbol == "" {
			return ledger.Transaction{}, ledger.NewError(ledger.ParseError, loc, "missing dividend symbol")
		}
		amt := money.Amount{Value: v, Symbol: symbol, Places: -1, Template: money.SymbolTemplate(symbol, true)}
		tx.Dividend = &amt
	}

	if s := strings.TrimSpace(field(header, cells, "amount")); s != "" {
		v, err := decimal.NewFromString(s)
		if err != nil {
			return ledger.Transaction{}, ledger.NewError(ledger.ParseError, loc, "invalid amount %q: %v", s, err)
		}
		amt := money.Amount{Value: v, Symbol: symbol, Places: -1, Template: money.SymbolTemplate(symbol, true)}
		tx.Amount = &amt
	}

	return tx, nil
}
