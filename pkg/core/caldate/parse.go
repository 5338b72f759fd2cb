package caldate

import (
	"fmt"
	"regexp"
	"strconv"
)

// datestampPattern matches a full YYYY[-/.]MM[-/.]DD datestamp, requiring
// the same separator on both sides (§4.1: "one kind per datestamp").
var datestampPattern = regexp.MustCompile(`^(\d{4})([-/.])(\d{1,2})([-/.])(\d{1,2})$`)

// LeadingDatestampPattern recognizes the start of a journal entry line: a
// datestamp possibly followed by more text (§4.1).
var LeadingDatestampPattern = regexp.MustCompile(`^(\d{4})([-/.])(\d{1,2})([-/.])(\d{1,2})\b`)

// ParseDatestamp parses a strict "YYYY<sep>MM<sep>DD" string, requiring
// both separators to match.
func ParseDatestamp(s string) (Date, error) {
	m := datestampPattern.FindStringSubmatch(s)
	if m == nil {
		return Date{}, fmt.Errorf("invalid datestamp %q", s)
	}
	if m[2] != m[4] {
		return Date{}, fmt.Errorf("mismatched separators in datestamp %q", s)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[3])
	day, _ := strconv.Atoi(m[5])
	d := Date{Year: year, Month: month, Day: day}
	if err := validate(d); err != nil {
		return Date{}, err
	}
	return d, nil
}

func validate(d Date) error {
	if d.Month < 1 || d.Month > 12 {
		return fmt.Errorf("invalid month %d", d.Month)
	}
	max := LastDayOfMonth(d.Year, d.Month)
	if d.Day < 1 || d.Day > max {
		return fmt.Errorf("invalid day %d for %04d-%02d", d.Day, d.Year, d.Month)
	}
	return nil
}

// SplitLeadingDatestamp reports whether line begins with a datestamp and,
// if so, returns the parsed date and the remainder of the line.
func SplitLeadingDatestamp(line string) (Date, string, bool) {
	loc := LeadingDatestampPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return Date{}, line, false
	}
	d, err := ParseDatestamp(line[loc[0]:loc[1]])
	if err != nil {
		return Date{}, line, false
	}
	return d, line[loc[1]:], true
}
