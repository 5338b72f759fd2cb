package projection

import (
	"divledger/pkg/core/caldate"
	"divledger/pkg/core/ledger"
)

// Options configures a projection run.
type Options struct {
	// Since anchors the projection window; generated records dated more
	// than 15 days before Since, or on or after the first day of the month
	// after Since plus 12 months, are excluded from the output (§4.9).
	Since caldate.Date
}

// sample is the trailing-12-month window of a ticker's history (realized
// and purely positional records)
// used as the basis for both projection strategies (§4.9 "Sample
// selection").
type sample struct {
	ticker  string
	records []ledger.Transaction // chronological, Special kind excluded
	latest  ledger.Transaction   // the ticker's single latest transaction overall
}

// dayClass is a transaction's own day-of-month classified per the
// futures strategy's day-placement rule (§4.9).
type dayClass int

const (
	dayEarly dayClass = iota // <= 15
	dayLate                  // > 15
)

func classifyDay(day int) dayClass {
	if day <= 15 {
		return dayEarly
	}
	return dayLate
}

// projectedDay returns the day-of-month a projection lands on for the
// given year/month, per T's own day classification (§4.9 futures):
// early → the 15th, late → the last day of that month.
func projectedDay(class dayClass, year, month int) int {
	if class == dayEarly {
		return 15
	}
	return caldate.LastDayOfMonth(year, month)
}
