package utils

import "time"

// FridaysInMonth counts the Fridays in the given month. Fridays serve as pay
// anchor days when projecting monthly income.
func FridaysInMonth(year int, month time.Month) int {
	count := 0
	day := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for day.Month() == month {
		if day.Weekday() == time.Friday {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count
}

// MonthBounds returns the first day of the month and the first day of the
// following month.
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
