package caldate

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period is a half-open date interval [From, To). A zero From/To means
// unbounded on that side (§4.11).
type Period struct {
	From, To Date
	HasFrom  bool
	HasTo    bool
}

// Contains reports whether d falls within p.
func (p Period) Contains(d Date) bool {
	if p.HasFrom && d.Before(p.From) {
		return false
	}
	if p.HasTo && !d.Before(p.To) {
		return false
	}
	return true
}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

var relativeWords = []string{"today", "tomorrow", "yesterday"}

// ParsePeriod parses a period string against "now" for resolving bare
// component forms (month names, quarters, relative words) into the
// current year. In strict mode only full year/month/day datestamps are
// accepted as components; matching spec.md §4.11.
func ParsePeriod(s string, now Date, strict bool) (Period, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Period{}, nil
	}
	if idx := strings.Index(s, ":"); idx >= 0 {
		fromStr, toStr := s[:idx], s[idx+1:]
		from, err := parseComponent(strings.TrimSpace(fromStr), now, strict, false)
		if err != nil {
			return Period{}, err
		}
		to, err := parseComponent(strings.TrimSpace(toStr), now, strict, true)
		if err != nil {
			return Period{}, err
		}
		if from != nil && to != nil && to.From.Before(from.From) {
			from, to = to, from
		}
		p := Period{}
		if from != nil {
			p.From, p.HasFrom = from.From, true
		}
		if to != nil {
			p.To, p.HasTo = to.To, true
		}
		return p, nil
	}
	comp, err := parseComponent(s, now, strict, false)
	if err != nil {
		return Period{}, err
	}
	if comp == nil {
		return Period{}, nil
	}
	return *comp, nil
}

// parseComponent parses a single period component and returns the
// half-open [From, To) interval it denotes, or nil for an empty component
// (unbounded on that side). The trailing bool parameter is not used.
func parseComponent(s string, now Date, strict bool, _ bool) (*Period, error) {
	if s == "" {
		return nil, nil
	}
	lower := strings.ToLower(s)

	// Full datestamp: YYYY-MM-DD (single day).
	if d, err := ParseDatestamp(s); err == nil {
		return &Period{From: d, To: d.AddDays(1), HasFrom: true, HasTo: true}, nil
	}

	if strict {
		return nil, fmt.Errorf("incomplete period %q in strict mode", s)
	}

	// YYYY-MM (month).
	if p, ok := parseYearMonth(s); ok {
		return p, nil
	}

	// Bare year.
	if y, err := strconv.Atoi(s); err == nil && len(s) == 4 {
		from := Date{Year: y, Month: 1, Day: 1}
		to := Date{Year: y + 1, Month: 1, Day: 1}
		return &Period{From: from, To: to, HasFrom: true, HasTo: true}, nil
	}

	// Bare month number 1..12.
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= 12 {
		return monthPeriod(now.Year, n), nil
	}

	// Quarter q1..q4.
	if len(lower) == 2 && lower[0] == 'q' {
		if q, err := strconv.Atoi(lower[1:]); err == nil && q >= 1 && q <= 4 {
			startMonth := (q-1)*3 + 1
			from := Date{Year: now.Year, Month: startMonth, Day: 1}
			to := from.AddMonths(3)
			return &Period{From: from, To: to, HasFrom: true, HasTo: true}, nil
		}
	}

	// Relative words: prefix-unique among today/tomorrow/yesterday.
	if rel, ok := matchUniquePrefix(lower, relativeWords); ok {
		var d Date
		switch rel {
		case "today":
			d = now
		case "tomorrow":
			d = now.AddDays(1)
		case "yesterday":
			d = now.AddDays(-1)
		}
		return &Period{From: d, To: d.AddDays(1), HasFrom: true, HasTo: true}, nil
	}

	// Month name, prefix-unique, English first then locale time package.
	if name, ok := matchUniquePrefix(lower, monthNames); ok {
		for i, n := range monthNames {
			if n == name {
				return monthPeriod(now.Year, i+1), nil
			}
		}
	}
	if m, ok := localeMonthIndex(lower); ok {
		return monthPeriod(now.Year, m), nil
	}

	return nil, fmt.Errorf("unrecognized period %q", s)
}

func monthPeriod(year, month int) *Period {
	from := Date{Year: year, Month: month, Day: 1}
	return &Period{From: from, To: from.AddMonths(1), HasFrom: true, HasTo: true}
}

func parseYearMonth(s string) (*Period, bool) {
	for _, sep := range []string{"-", "/", "."} {
		parts := strings.Split(s, sep)
		if len(parts) != 2 {
			continue
		}
		if len(parts[0]) != 4 {
			continue
		}
		y, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || m < 1 || m > 12 {
			continue
		}
		return monthPeriod(y, m), true
	}
	return nil, false
}

// matchUniquePrefix returns the unique word in words that s is a prefix
// of, if exactly one such word exists.
func matchUniquePrefix(s string, words []string) (string, bool) {
	var match string
	count := 0
	for _, w := range words {
		if strings.HasPrefix(w, s) {
			match = w
			count++
		}
	}
	if count == 1 {
		return match, true
	}
	return "", false
}

// localeMonthIndex resolves a month name using Go's time package locale
// data as the "locale-time" fallback named in §4.11 (English is checked
// first via monthNames; this covers Go's builtin long-month spellings,
// which are English as well but kept as the documented second pass so a
// future locale-aware build can swap in golang.org/x/text/language here
// without changing the call site).
func localeMonthIndex(lower string) (int, bool) {
	match, count := 0, 0
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if strings.HasPrefix(name, lower) {
			match, count = int(m), count+1
		}
	}
	if count == 1 {
		return match, true
	}
	return 0, false
}
