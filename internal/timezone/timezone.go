package timezone

import "time"

const DefaultTimezone = "America/Sao_Paulo"

func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// Location falls back to DefaultTimezone, then to UTC when the host has no
// tzdata.
func Location(tz string) *time.Location {
	if IsValid(tz) {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}

	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}

func Now() time.Time {
	return time.Now().In(Location(DefaultTimezone))
}

func NowIn(tz string) time.Time {
	return time.Now().In(Location(tz))
}

// MonthRange returns [first day 00:00, first day of next month 00:00) in tz.
func MonthRange(year int, month time.Month, tz string) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, Location(tz))
	return start, start.AddDate(0, 1, 0)
}

// DayRange returns the salon day with date's calendar date. Only the
// year, month and day of date are used.
func DayRange(date time.Time, tz string) (time.Time, time.Time) {
	loc := Location(tz)
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
