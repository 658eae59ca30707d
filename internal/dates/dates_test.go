package dates

import (
	"testing"
	"time"
)

func TestAge(t *testing.T) {
	cases := []struct {
		birth, current, want int
	}{
		{1990, 2025, 35},
		{2000, 2025, 25},
		{1995, 1995, 0},
	}
	for _, c := range cases {
		if got := Age(c.birth, c.current); got != c.want {
			t.Errorf("Age(%d, %d) = %d, want %d", c.birth, c.current, got, c.want)
		}
	}
}

func TestIsLeapYear(t *testing.T) {
	for _, y := range []int{2000, 2020, 2024} {
		if !IsLeapYear(y) {
			t.Errorf("IsLeapYear(%d) = false, want true", y)
		}
	}
	for _, y := range []int{1900, 2100, 2023} {
		if IsLeapYear(y) {
			t.Errorf("IsLeapYear(%d) = true, want false", y)
		}
	}
}

func TestValidMonthDay(t *testing.T) {
	valid := [][2]int{{1, 31}, {2, 29}, {4, 30}, {12, 31}}
	for _, c := range valid {
		if !ValidMonthDay(c[0], c[1]) {
			t.Errorf("ValidMonthDay(%d, %d) = false, want true", c[0], c[1])
		}
	}
	invalid := [][2]int{{0, 15}, {13, 15}, {2, 30}, {4, 31}, {6, 0}, {6, 32}}
	for _, c := range invalid {
		if ValidMonthDay(c[0], c[1]) {
			t.Errorf("ValidMonthDay(%d, %d) = true, want false", c[0], c[1])
		}
	}
}

func TestExists(t *testing.T) {
	if !Exists(2024, 2, 29) {
		t.Errorf("Feb 29 2024 should exist (leap year)")
	}
	if Exists(2023, 2, 29) {
		t.Errorf("Feb 29 2023 should not exist")
	}
	if Exists(2025, 4, 31) {
		t.Errorf("Apr 31 should never exist")
	}
	if !Exists(2025, 1, 31) {
		t.Errorf("Jan 31 2025 should exist")
	}
}

func TestMonthName(t *testing.T) {
	if got := MonthName(1); got != "January" {
		t.Errorf("MonthName(1) = %q", got)
	}
	if got := MonthName(12); got != "December" {
		t.Errorf("MonthName(12) = %q", got)
	}
	if got := MonthName(0); got != "Unknown" {
		t.Errorf("MonthName(0) = %q", got)
	}
	if got := MonthName(13); got != "Unknown" {
		t.Errorf("MonthName(13) = %q", got)
	}
}

func TestFormatDisplay(t *testing.T) {
	if got := FormatDisplay(3, 15); got != "15 March" {
		t.Errorf("FormatDisplay(3, 15) = %q", got)
	}
	if got := FormatDisplay(1, 1); got != "1 January" {
		t.Errorf("FormatDisplay(1, 1) = %q", got)
	}
}

func TestMonthDay(t *testing.T) {
	ts := time.Date(2025, time.March, 15, 8, 0, 0, 0, time.UTC)
	m, d := MonthDay(ts)
	if m != 3 || d != 15 {
		t.Errorf("MonthDay = (%d, %d), want (3, 15)", m, d)
	}
}
