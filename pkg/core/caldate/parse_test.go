package caldate

import "testing"

func TestParseDatestampSeparators(t *testing.T) {
	for _, s := range []string{"2019/02/14", "2019-02-14", "2019.02.14"} {
		d, err := ParseDatestamp(s)
		if err != nil {
			t.Fatalf("ParseDatestamp(%q): %v", s, err)
		}
		if d.Year != 2019 || d.Month != 2 || d.Day != 14 {
			t.Errorf("ParseDatestamp(%q) = %+v", s, d)
		}
	}
}

func TestParseDatestampMismatchedSeparators(t *testing.T) {
	if _, err := ParseDatestamp("2019/02-14"); err == nil {
		t.Errorf("expected error for mismatched separators")
	}
}

func TestParseDatestampInvalidDay(t *testing.T) {
	if _, err := ParseDatestamp("2019/02/30"); err == nil {
		t.Errorf("expected error for Feb 30")
	}
}

func TestSplitLeadingDatestamp(t *testing.T) {
	d, rest, ok := SplitLeadingDatestamp("2019/02/14 AAPL (100) $ 73 @ $ 0.73")
	if !ok {
		t.Fatalf("expected datestamp match")
	}
	if d.Year != 2019 || d.Month != 2 || d.Day != 14 {
		t.Errorf("parsed date = %+v", d)
	}
	want := " AAPL (100) $ 73 @ $ 0.73"
	if rest != want {
		t.Errorf("rest = %q, want %q", rest, want)
	}
}

func TestSplitLeadingDatestampNoMatch(t *testing.T) {
	if _, _, ok := SplitLeadingDatestamp("include other.journal"); ok {
		t.Errorf("expected no datestamp match")
	}
}

func TestLastDayOfMonthLeapYear(t *testing.T) {
	if got := LastDayOfMonth(2020, 2); got != 29 {
		t.Errorf("LastDayOfMonth(2020, 2) = %d, want 29", got)
	}
	if got := LastDayOfMonth(2019, 2); got != 28 {
		t.Errorf("LastDayOfMonth(2019, 2) = %d, want 28", got)
	}
}

func TestAddMonths(t *testing.T) {
	d := New(2019, 2, 28)
	got := d.AddMonths(12)
	if got.Year != 2020 || got.Month != 2 || got.Day != 28 {
		t.Errorf("AddMonths(12) = %+v", got)
	}
}
