// Package calendar computes monthly calendar-effect regressors: working days,
// leap year and Easter.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Column names produced by the built-in sources.
const (
	ColumnWorkingDays = "working_days"
	ColumnLeapYear    = "leap_year"
	ColumnEaster      = "easter"
)

// easterWindow is the number of days before Easter Sunday with altered activity.
const easterWindow = 8

// Source maps a monthly time index to named regressor columns.
type Source interface {
	// Names returns the column names in output order.
	Names() []string
	// Columns returns one slice per name, each with len(index) rows.
	Columns(index []time.Time) ([][]float64, error)
}

// Calendar is the built-in Source for a country's public holidays.
type Calendar struct {
	country  string
	holidays func(year int) []time.Time
}

// New returns the calendar for a country code. "IT" uses the Italian public
// holidays; an empty code or "NONE" counts weekends only.
func New(country string) (*Calendar, error) {
	code := strings.ToUpper(strings.TrimSpace(country))
	switch code {
	case "IT":
		return &Calendar{country: code, holidays: italianHolidays}, nil
	case "", "NONE":
		return &Calendar{country: "NONE", holidays: func(int) []time.Time { return nil }}, nil
	default:
		return nil, fmt.Errorf("calendar: unsupported country %q", country)
	}
}

// Country returns the normalised country code.
func (c *Calendar) Country() string {
	return c.country
}

// Names implements Source.
func (c *Calendar) Names() []string {
	return []string{ColumnWorkingDays, ColumnLeapYear, ColumnEaster}
}

// Columns implements Source.
func (c *Calendar) Columns(index []time.Time) ([][]float64, error) {
	working := make([]float64, len(index))
	leap := make([]float64, len(index))
	easter := make([]float64, len(index))

	holidayCache := make(map[int]map[time.Time]bool)
	for i, t := range index {
		year, month := t.Year(), t.Month()
		if _, ok := holidayCache[year]; !ok {
			set := make(map[time.Time]bool)
			for _, h := range c.holidays(year) {
				set[h] = true
			}
			holidayCache[year] = set
		}

		days := DaysIn(year, month)
		working[i] = float64(WorkingDays(year, month, holidayCache[year])) - float64(days)*5/7
		if month == time.February && days == 29 {
			leap[i] = 1
		}
		easter[i] = EasterShare(year, month, easterWindow)
	}

	return [][]float64{working, leap, easter}, nil
}

// DaysIn returns the number of days in a month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// WorkingDays counts Monday to Friday days of the month that are not holidays.
func WorkingDays(year int, month time.Month, holidays map[time.Time]bool) int {
	count := 0
	for d := 1; d <= DaysIn(year, month); d++ {
		day := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
		switch day.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		}
		if holidays[day] {
			continue
		}
		count++
	}
	return count
}

// EasterSunday returns the Gregorian Easter date (anonymous Gregorian algorithm).
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// EasterShare returns the fraction of the w days before Easter Sunday that fall in
// the given month.
func EasterShare(year int, month time.Month, w int) float64 {
	if w <= 0 {
		return 0
	}
	easter := EasterSunday(year)
	in := 0
	for k := 1; k <= w; k++ {
		if easter.AddDate(0, 0, -k).Month() == month {
			in++
		}
	}
	return float64(in) / float64(w)
}

func italianHolidays(year int) []time.Time {
	fixed := []struct {
		month time.Month
		day   int
	}{
		{time.January, 1},   // Capodanno
		{time.January, 6},   // Epifania
		{time.April, 25},    // Liberazione
		{time.May, 1},       // Festa del lavoro
		{time.June, 2},      // Festa della Repubblica
		{time.August, 15},   // Ferragosto
		{time.November, 1},  // Ognissanti
		{time.December, 8},  // Immacolata
		{time.December, 25}, // Natale
		{time.December, 26}, // Santo Stefano
	}

	days := make([]time.Time, 0, len(fixed)+1)
	for _, f := range fixed {
		days = append(days, time.Date(year, f.month, f.day, 0, 0, 0, 0, time.UTC))
	}
	return append(days, EasterSunday(year).AddDate(0, 0, 1))
}
