// Package money models cash and per-share amounts the way a dividend
// journal records them: a decimal value, an optional currency symbol, and
// a format template describing whether the symbol precedes or follows the
// number. Floating point is deliberately avoided; shopspring/decimal keeps
// rounding behavior exact and explicit.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Template is a format string containing exactly one "%s" placeholder for
// the formatted number, e.g. "$ %s" or "%s kr".
type Template string

// DefaultTemplate is used for amounts with no explicit symbol.
const DefaultTemplate Template = "%s"

// Format renders value (already formatted to `places` decimals) into the
// template.
func (t Template) Format(value string) string {
	if t == "" {
		return value
	}
	if strings.Contains(string(t), "%s") {
		return fmt.Sprintf(string(t), value)
	}
	return value
}

// SymbolTemplate builds the template implied by a symbol and which side of
// the number it was observed on.
func SymbolTemplate(symbol string, symbolFirst bool) Template {
	if symbol == "" {
		return DefaultTemplate
	}
	if symbolFirst {
		return Template(symbol + " %s")
	}
	return Template("%s " + symbol)
}

// Amount is a numeric value with optional currency symbol and display
// precision. An Amount with Value.IsZero() and a non-empty Symbol is a
// preliminary placeholder (§3 Amount). Generated marks amounts produced by
// inference or projection rather than typed literally into a journal.
type Amount struct {
	Value     decimal.Decimal
	Symbol    string
	Places    int // display precision; -1 means "unset"
	Template  Template
	Generated bool
}

// Zero returns a preliminary zero-value amount carrying only a symbol,
// used as a placeholder when a figure is expected but not yet known.
func Zero(symbol string, template Template) Amount {
	return Amount{Value: decimal.Zero, Symbol: symbol, Places: -1, Template: template}
}

// IsPreliminary reports whether a carries no real figure yet.
func (a Amount) IsPreliminary() bool {
	return a.Symbol != "" && a.Value.IsZero()
}

// IsZeroValue reports a zero amount regardless of symbol.
func (a Amount) IsZeroValue() bool {
	return a.Value.IsZero()
}

// Round truncates a to n decimal places using half-even (banker's)
// rounding, as required for position truncation (§4.3) and the split
// adjuster's per-share recompute (§4.4).
func (a Amount) Round(n int32) Amount {
	a.Value = a.Value.RoundBank(n)
	return a
}

// Truncate truncates a to n decimal places without rounding (pure
// truncation, as spec'd for dividend/position completion in §4.3).
func (a Amount) Truncate(n int32) Amount {
	a.Value = a.Value.Truncate(n)
	return a
}

// WithValue returns a copy of a with a new numeric value, preserving
// symbol/template/places, and marks the result as generated.
func (a Amount) WithValue(v decimal.Decimal) Amount {
	a.Value = v
	a.Generated = true
	return a
}

// MinPlaces returns the minimum number of decimal places (up to max) needed
// to render v without spurious trailing zeros — used by the split adjuster
// to recompute per-share decimal-place counts (§4.4).
func MinPlaces(v decimal.Decimal, max int32) int32 {
	for p := int32(0); p < max; p++ {
		if v.Equal(v.Truncate(p)) {
			return p
		}
	}
	return max
}

// String renders the amount through its format template at its display
// precision (falling back to the value's natural precision when Places is
// unset).
func (a Amount) String() string {
	places := a.Places
	if places < 0 {
		places = int(a.Value.Exponent()) * -1
		if places < 0 {
			places = 2
		}
	}
	numeric := a.Value.StringFixed(int32(places))
	tmpl := a.Template
	if tmpl == "" {
		tmpl = SymbolTemplate(a.Symbol, true)
	}
	return tmpl.Format(numeric)
}

// Mul multiplies the amount's value by a decimal factor, returning a
// generated Amount in the same symbol/template.
func (a Amount) Mul(factor decimal.Decimal) Amount {
	return a.WithValue(a.Value.Mul(factor))
}

// Div divides the amount's value by d, returning a generated Amount.
func (a Amount) Div(d decimal.Decimal) Amount {
	if d.IsZero() {
		return a.WithValue(decimal.Zero)
	}
	return a.WithValue(a.Value.Div(d))
}
