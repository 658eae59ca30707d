// Package dates holds pure calendar helpers shared by the birthday tasks.
package dates

import (
	"fmt"
	"time"
)

// Age returns the age someone born in birthYear turns in currentYear.
func Age(birthYear, currentYear int) int {
	return currentYear - birthYear
}

// IsLeapYear reports whether year is a Gregorian leap year.
func IsLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// ValidMonthDay reports whether month/day is a plausible recurring date.
// Feb 29 is allowed here; use Exists to check a concrete year.
func ValidMonthDay(month, day int) bool {
	if month < 1 || month > 12 {
		return false
	}
	maxDay := 31
	switch month {
	case 4, 6, 9, 11:
		maxDay = 30
	case 2:
		maxDay = 29
	}
	return day >= 1 && day <= maxDay
}

// Exists reports whether the concrete date year/month/day exists.
// Feb 29 only exists in leap years.
func Exists(year, month, day int) bool {
	if !ValidMonthDay(month, day) {
		return false
	}
	if month == 2 && day == 29 {
		return IsLeapYear(year)
	}
	return true
}

// MonthDay returns the month and day of t.
func MonthDay(t time.Time) (month, day int) {
	return int(t.Month()), t.Day()
}

// MonthName returns the English month name, or "Unknown" out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return "Unknown"
	}
	return time.Month(month).String()
}

// FormatDisplay renders a recurring date as "15 March".
func FormatDisplay(month, day int) string {
	return fmt.Sprintf("%d %s", day, MonthName(month))
}
