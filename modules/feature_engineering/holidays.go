package feature_engineering

import "time"

// oneOff are bank holidays granted by proclamation for a single year.
var oneOff = []string{
	"1999-12-31", // millennium
	"2002-06-03", // golden jubilee
	"2011-04-29", // royal wedding
	"2012-06-05", // diamond jubilee
	"2022-06-03", // platinum jubilee
	"2022-09-19", // state funeral
	"2023-05-08", // coronation
}

// moved holds years whose regular May bank holidays fell on another day.
var moved = map[string]string{
	"1995-05-01": "1995-05-08",
	"2002-05-27": "2002-06-04",
	"2012-05-28": "2012-06-04",
	"2020-05-04": "2020-05-08",
	"2022-05-30": "2022-06-02",
}

// ukHolidays returns the England and Wales bank holidays of a year,
// including both the actual and the substitute day when a holiday falls on
// a weekend.
func ukHolidays(year int) map[string]bool {
	days := map[string]bool{}
	add := func(t time.Time) {
		key := t.Format("2006-01-02")
		if to, ok := moved[key]; ok {
			key = to
		}
		days[key] = true
	}
	date := func(m time.Month, d int) time.Time { return time.Date(year, m, d, 0, 0, 0, 0, time.UTC) }

	newYear := date(time.January, 1)
	add(newYear)
	switch newYear.Weekday() {
	case time.Saturday:
		add(newYear.AddDate(0, 0, 2))
	case time.Sunday:
		add(newYear.AddDate(0, 0, 1))
	}

	easter := easterSunday(year)
	add(easter.AddDate(0, 0, -2))
	add(easter.AddDate(0, 0, 1))

	add(firstMonday(year, time.May))
	add(lastMonday(year, time.May))
	add(lastMonday(year, time.August))

	christmas, boxing := date(time.December, 25), date(time.December, 26)
	add(christmas)
	add(boxing)
	if wd := christmas.Weekday(); wd == time.Saturday || wd == time.Sunday {
		add(date(time.December, 27))
	}
	if wd := boxing.Weekday(); wd == time.Saturday || wd == time.Sunday {
		add(date(time.December, 28))
	}

	for _, d := range oneOff {
		if t, _ := time.Parse("2006-01-02", d); t.Year() == year {
			days[d] = true
		}
	}
	return days
}

// easterSunday uses the anonymous Gregorian computus.
func easterSunday(year int) time.Time {
	a := year % 19
	b, c := year/100, year%100
	d, e := b/4, b%4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i, k := c/4, c%4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func firstMonday(year int, month time.Month) time.Time {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for t.Weekday() != time.Monday {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func lastMonday(year int, month time.Month) time.Time {
	t := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	for t.Weekday() != time.Monday {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// holidayCalendar caches holiday sets per year.
type holidayCalendar map[int]map[string]bool

func (c holidayCalendar) isHoliday(t time.Time) bool {
	days, ok := c[t.Year()]
	if !ok {
		days = ukHolidays(t.Year())
		c[t.Year()] = days
	}
	return days[t.Format("2006-01-02")]
}
