package domain

import "time"

// DayLayout is the date-only format used for calendar day comparisons.
const DayLayout = "2006-01-02"

// Day is a UTC calendar day formatted as YYYY-MM-DD. The zero value means "never".
type Day string

// DayOf returns the UTC calendar day containing t.
func DayOf(t time.Time) Day {
	return Day(t.UTC().Format(DayLayout))
}

// Prev returns the day before d. The zero day has no predecessor.
func (d Day) Prev() Day {
	t, err := time.Parse(DayLayout, string(d))
	if err != nil {
		return ""
	}
	return DayOf(t.AddDate(0, 0, -1))
}

// Next returns the day after d.
func (d Day) Next() Day {
	t, err := time.Parse(DayLayout, string(d))
	if err != nil {
		return ""
	}
	return DayOf(t.AddDate(0, 0, 1))
}

func (d Day) IsZero() bool {
	return d == ""
}

func (d Day) String() string {
	return string(d)
}

// StartOfWeek returns Sunday 00:00 UTC of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -int(day.Weekday()))
}
