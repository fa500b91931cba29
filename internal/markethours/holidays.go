package markethours

import "time"

// Bursa Malaysia Derivatives market holidays for 2026.
// Lunar-calendar dates are tentative until the exchange confirms them.
var bursaHolidays2026 = []struct {
	month time.Month
	day   int
}{
	{time.January, 1},    // New Year's Day
	{time.February, 2},   // Thaipusam (replacement)
	{time.February, 17},  // Chinese New Year
	{time.February, 18},  // Chinese New Year (2nd day)
	{time.March, 20},     // Hari Raya Aidilfitri (tentative)
	{time.March, 23},     // Hari Raya Aidilfitri (replacement, tentative)
	{time.May, 1},        // Labour Day
	{time.May, 27},       // Hari Raya Haji (tentative)
	{time.June, 1},       // Wesak Day (replacement) / Agong's Birthday
	{time.June, 17},      // Awal Muharram (tentative)
	{time.August, 26},    // Maulidur Rasul (tentative)
	{time.August, 31},    // National Day
	{time.September, 16}, // Malaysia Day
	{time.November, 9},   // Deepavali (replacement)
	{time.December, 25},  // Christmas
}

// pre-compute for fast lookup
var holidaySet map[string]bool

func init() {
	holidaySet = make(map[string]bool, len(bursaHolidays2026))
	for _, h := range bursaHolidays2026 {
		holidaySet[dateKey(2026, h.month, h.day)] = true
	}
}

// IsHoliday returns true if the date (in MYT) is a Bursa Malaysia holiday.
func IsHoliday(t time.Time) bool {
	myt := t.In(MYT)
	return holidaySet[dateKey(myt.Year(), myt.Month(), myt.Day())]
}

func dateKey(year int, month time.Month, day int) string {
	return time.Date(year, month, day, 0, 0, 0, 0, MYT).Format("2006-01-02")
}
