package caldate

import "testing"

func now() Date { return Date{Year: 2020, Month: 6, Day: 15} }

func TestParsePeriodYear(t *testing.T) {
	p, err := ParsePeriod("2019", now(), false)
	if err != nil {
		t.Fatal(err)
	}
	if !p.From.Equal(Date{2019, 1, 1, false}) || !p.To.Equal(Date{2020, 1, 1, false}) {
		t.Errorf("got [%v, %v)", p.From, p.To)
	}
}

func TestParsePeriodMonth(t *testing.T) {
	p, err := ParsePeriod("2019-03", now(), false)
	if err != nil {
		t.Fatal(err)
	}
	if !p.From.Equal(Date{2019, 3, 1, false}) || !p.To.Equal(Date{2019, 4, 1, false}) {
		t.Errorf("got [%v, %v)", p.From, p.To)
	}
}

func TestParsePeriodDay(t *testing.T) {
	p, err := ParsePeriod("2019-03-05", now(), false)
	if err != nil {
		t.Fatal(err)
	}
	if !p.From.Equal(Date{2019, 3, 5, false}) || !p.To.Equal(Date{2019, 3, 6, false}) {
		t.Errorf("got [%v, %v)", p.From, p.To)
	}
}

func TestParsePeriodMonthName(t *testing.T) {
	p, err := ParsePeriod("jan", now(), false)
	if err != nil {
		t.Fatal(err)
	}
	if !p.From.Equal(Date{2020, 1, 1, false}) {
		t.Errorf("got From=%v", p.From)
	}

	// ambiguous prefix: "ju" matches both june and july
	if _, err := ParsePeriod("ju", now(), false); err == nil {
		t.Errorf("expected ambiguity error for prefix 'ju'")
	}
}

func TestParsePeriodQuarter(t *testing.T) {
	p, err := ParsePeriod("q2", now(), false)
	if err != nil {
		t.Fatal(err)
	}
	if !p.From.Equal(Date{2020, 4, 1, false}) || !p.To.Equal(Date{2020, 7, 1, false}) {
		t.Errorf("got [%v, %v)", p.From, p.To)
	}
}

func TestParsePeriodRange(t *testing.T) {
	p, err := ParsePeriod("2019:2020", now(), false)
	if err != nil {
		t.Fatal(err)
	}
	if !p.From.Equal(Date{2019, 1, 1, false}) || !p.To.Equal(Date{2021, 1, 1, false}) {
		t.Errorf("got [%v, %v)", p.From, p.To)
	}
}

func TestParsePeriodSwapsInverted(t *testing.T) {
	p, err := ParsePeriod("2021:2019", now(), false)
	if err != nil {
		t.Fatal(err)
	}
	if p.From.Year != 2019 || p.To.Year != 2022 {
		t.Errorf("expected swap, got From=%v To=%v", p.From, p.To)
	}
}

func TestParsePeriodStrictRejectsPartial(t *testing.T) {
	if _, err := ParsePeriod("jan", now(), true); err == nil {
		t.Errorf("expected strict mode to reject a month name")
	}
}

func TestParsePeriodEmptyUnbounded(t *testing.T) {
	p, err := ParsePeriod("", now(), false)
	if err != nil {
		t.Fatal(err)
	}
	if p.HasFrom || p.HasTo {
		t.Errorf("expected fully unbounded period, got %+v", p)
	}
}
