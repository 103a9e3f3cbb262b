package domain

import (
	"testing"
	"time"
)

func TestDayNavigation(t *testing.T) {
	d := DayOf(time.Date(2026, 3, 1, 23, 30, 0, 0, time.FixedZone("CET", 3600)))
	if d != "2026-03-01" {
		t.Fatalf("expected UTC day 2026-03-01, got %s", d)
	}
	if d.Prev() != "2026-02-28" {
		t.Fatalf("expected 2026-02-28, got %s", d.Prev())
	}
	if d.Next() != "2026-03-02" {
		t.Fatalf("expected 2026-03-02, got %s", d.Next())
	}
	if Day("").Prev() != "" {
		t.Fatalf("zero day has no predecessor")
	}
}

func TestStartOfWeekIsSunday(t *testing.T) {
	wed := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)
	got := StartOfWeek(wed)
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if !StartOfWeek(want).Equal(want) {
		t.Fatalf("sunday should start its own week")
	}
}

func TestParseLetter(t *testing.T) {
	l, err := ParseLetter(" C ")
	if err != nil || l != LetterC {
		t.Fatalf("expected c, got %q (%v)", l, err)
	}
	if _, err := ParseLetter("e"); err != ErrInvalidLetter {
		t.Fatalf("expected invalid letter, got %v", err)
	}
}
