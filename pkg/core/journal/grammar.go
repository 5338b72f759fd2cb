package journal

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"divledger/pkg/core/caldate"
	"divledger/pkg/core/ledger"
	"divledger/pkg/core/money"
)

var tickerPattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]+`)

// parseEntry parses one raw entry's text into a Transaction carrying a
// Positioning directive (not yet an absolute position) per the grammar in
// §4.1:
//
//	<date> [marker] <ticker> [ "(" <pos-spec> ")" ]
//	       [ <amount> ["[" <payout-date> "]"] ]
//	       [ "@" <dividend-amount> ["[" <ex-date> "]"] ]
func parseEntry(e rawEntry, opts Options) (ledger.Transaction, error) {
	body := e.text
	kind := ledger.Final
	switch {
	case strings.HasPrefix(body, "*"):
		kind = ledger.Special
		body = strings.TrimSpace(body[1:])
	case strings.HasPrefix(body, "^"):
		kind = ledger.Interim
		body = strings.TrimSpace(body[1:])
	}

	tickerLoc := tickerPattern.FindString(body)
	if tickerLoc == "" {
		return ledger.Transaction{}, ledger.NewError(ledger.ParseError, e.loc, "expected ticker")
	}
	rest := strings.TrimSpace(body[len(tickerLoc):])

	positioning := ledger.Positioning{Directive: ledger.DirectiveSet}
	if strings.HasPrefix(rest, "(") {
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return ledger.Transaction{}, ledger.NewError(ledger.ParseError, e.loc, "unterminated position spec")
		}
		spec := rest[1:end]
		rest = strings.TrimSpace(rest[end+1:])
		p, err := parsePositioning(spec, e.loc)
		if err != nil {
			return ledger.Transaction{}, err
		}
		positioning = p
	}

	amountPart, dividendPart, hasDividend := splitAt(rest, '@')

	tx := ledger.Transaction{
		EntryDate: e.date,
		Ticker:    tickerLoc,
		Kind:      kind,
		Attrs: ledger.EntryAttributes{
			Location:    e.loc,
			Positioning: positioning,
		},
	}

	amountPart = strings.TrimSpace(amountPart)
	if amountPart != "" {
		before, bracket, hasBracket := splitTrailingBracket(amountPart, '[', ']')
		amt, err := parseMoneyToken(strings.TrimSpace(before), opts, e.loc, false)
		if err != nil {
			return ledger.Transaction{}, err
		}
		if amt.isPreliminary {
			tx.Attrs.IsPreliminary = true
			tx.Attrs.PreliminaryTemplate = amt.amount.Template
			tx.Attrs.PreliminarySymbol = amt.amount.Symbol
		} else {
			a := amt.amount
			tx.Amount = &a
		}
		if hasBracket {
			d, err := caldate.ParseDatestamp(strings.TrimSpace(bracket))
			if err != nil {
				return ledger.Transaction{}, ledger.NewError(ledger.ParseError, e.loc, "invalid payout date: %v", err)
			}
			tx.PayoutDate = &d
		}
	}

	if hasDividend {
		dividendPart = strings.TrimSpace(dividendPart)
		before, bracket, hasBracket := splitTrailingBracket(dividendPart, '[', ']')
		div, err := parseMoneyToken(strings.TrimSpace(before), opts, e.loc, true)
		if err != nil {
			return ledger.Transaction{}, err
		}
		d := div.amount
		tx.Dividend = &d
		if hasBracket {
			ex, err := caldate.ParseDatestamp(strings.TrimSpace(bracket))
			if err != nil {
				return ledger.Transaction{}, ledger.NewError(ledger.ParseError, e.loc, "invalid ex-date: %v", err)
			}
			tx.ExDate = &ex
		}
	}

	return tx, nil
}

// parsePositioning implements the five positioning directives (§3, §4.1).
// The sigils chosen here — bare=Set, +=Add, -=Sub, x=Split, x...!=
// SplitWhole — are the one-to-one mapping the spec leaves
// implementation-defined.
func parsePositioning(spec string, loc ledger.SourceLocation) (ledger.Positioning, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return ledger.Positioning{Directive: ledger.DirectiveSet}, nil
	}
	switch {
	case strings.HasPrefix(spec, "+"):
		v, err := strconv.ParseFloat(strings.TrimSpace(spec[1:]), 64)
		if err != nil {
			return ledger.Positioning{}, ledger.NewError(ledger.ParseError, loc, "invalid position %q: %v", spec, err)
		}
		return ledger.Positioning{Directive: ledger.DirectiveAdd, Value: v, HasValue: true}, nil
	case strings.HasPrefix(spec, "-"):
		v, err := strconv.ParseFloat(strings.TrimSpace(spec[1:]), 64)
		if err != nil {
			return ledger.Positioning{}, ledger.NewError(ledger.ParseError, loc, "invalid position %q: %v", spec, err)
		}
		return ledger.Positioning{Directive: ledger.DirectiveSub, Value: v, HasValue: true}, nil
	case strings.HasPrefix(spec, "x"), strings.HasPrefix(spec, "X"):
		body := spec[1:]
		directive := ledger.DirectiveSplit
		if strings.HasSuffix(body, "!") {
			directive = ledger.DirectiveSplitWhole
			body = body[:len(body)-1]
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(body), 64)
		if err != nil {
			return ledger.Positioning{}, ledger.NewError(ledger.ParseError, loc, "invalid split factor %q: %v", spec, err)
		}
		return ledger.Positioning{Directive: directive, Value: v, HasValue: true}, nil
	default:
		v, err := strconv.ParseFloat(spec, 64)
		if err != nil {
			return ledger.Positioning{}, ledger.NewError(ledger.ParseError, loc, "invalid position %q: %v", spec, err)
		}
		return ledger.Positioning{Directive: ledger.DirectiveSet, Value: v, HasValue: true}, nil
	}
}

type parsedMoney struct {
	amount        money.Amount
	isPreliminary bool
}

var numberPattern = regexp.MustCompile(`^-?[0-9]+([.,][0-9]+)?$`)

// parseMoneyToken parses "<amount>"/"<dividend-amount>" per §4.1: an
// optional leading symbol, whitespace, a decimal number, optional
// trailing symbol — symbols on both sides are accepted only when they are
// the same symbol; differing symbols are an ambiguity error. isDividend
// toggles the "implicit currency" error (a dividend with no symbol
// anywhere is a ParseError; a cash amount with no symbol is allowed,
// since it may share the dividend's implied currency).
func parseMoneyToken(s string, opts Options, loc ledger.SourceLocation, isDividend bool) (parsedMoney, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return parsedMoney{}, ledger.NewError(ledger.ParseError, loc, "empty amount")
	}

	var numberTok string
	numberIdx := -1
	var symbols []string
	var symbolIdxs []int
	for i, f := range fields {
		if isNumberToken(f, opts.DecimalSeparator) {
			if numberIdx >= 0 {
				return parsedMoney{}, ledger.NewError(ledger.ParseError, loc, "multiple numeric components in %q", s)
			}
			numberTok = f
			numberIdx = i
		} else {
			symbols = append(symbols, f)
			symbolIdxs = append(symbolIdxs, i)
		}
	}

	if len(symbols) > 1 {
		distinct := map[string]bool{}
		for _, sym := range symbols {
			distinct[sym] = true
		}
		if len(distinct) > 1 {
			return parsedMoney{}, ledger.NewError(ledger.ParseError, loc, "ambiguous currency symbol in %q", s)
		}
	}

	symbol := ""
	symbolFirst := true
	if len(symbols) > 0 {
		symbol = symbols[0]
		symbolFirst = symbolIdxs[0] < numberIdx || numberIdx < 0
	}

	if symbol == "" && isDividend {
		return parsedMoney{}, ledger.NewError(ledger.ParseError, loc, "implicit currency for dividend %q", s)
	}

	template := money.SymbolTemplate(symbol, symbolFirst)

	if numberIdx < 0 {
		// Missing numeric component: a preliminary placeholder (§3).
		return parsedMoney{
			amount:        money.Zero(symbol, template),
			isPreliminary: true,
		}, nil
	}

	normalized := normalizeDecimalSeparator(numberTok, opts.DecimalSeparator)
	val, err := decimal.NewFromString(normalized)
	if err != nil {
		return parsedMoney{}, ledger.NewError(ledger.ParseError, loc, "invalid number %q: %v", numberTok, err)
	}

	return parsedMoney{
		amount: money.Amount{Value: val, Symbol: symbol, Places: -1, Template: template},
	}, nil
}

func isNumberToken(s string, sep byte) bool {
	return numberPattern.MatchString(normalizeDecimalSeparator(s, sep)) || looksNumeric(s)
}

func looksNumeric(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != ',' && r != '-' {
			return false
		}
	}
	return s != "" && s != "-"
}

func normalizeDecimalSeparator(tok string, sep byte) string {
	if sep == ',' {
		return strings.Replace(tok, ",", ".", 1)
	}
	return tok
}

// splitAt splits s on the first occurrence of sep, reporting whether sep
// was present.
func splitAt(s string, sep byte) (before, after string, found bool) {
	idx := strings.IndexByte(s, sep)
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+1:], true
}

// splitTrailingBracket extracts a trailing "[...]" (or other open/close
// pair) from s, if present at the end.
func splitTrailingBracket(s string, open, close byte) (before, inner string, found bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || s[len(s)-1] != close {
		return s, "", false
	}
	idx := strings.LastIndexByte(s, open)
	if idx < 0 {
		return s, "", false
	}
	return strings.TrimSpace(s[:idx]), s[idx+1 : len(s)-1], true
}
