package handlers

import (
	"strconv"
	"time"

	"github.com/BruksfildServices01/salon-scheduler/internal/timezone"
)

func parseDateInSalon(tz, dateStr string) (time.Time, error) {
	return time.ParseInLocation(
		"2006-01-02",
		dateStr,
		timezone.Location(tz),
	)
}

// parseMonth reads ?year=&month=, defaulting to the current salon month.
func parseMonth(tz, yearStr, monthStr string) (int, int, bool) {
	now := timezone.NowIn(tz)
	year, month := now.Year(), int(now.Month())

	if yearStr != "" {
		v, err := strconv.Atoi(yearStr)
		if err != nil {
			return 0, 0, false
		}
		year = v
	}
	if monthStr != "" {
		v, err := strconv.Atoi(monthStr)
		if err != nil {
			return 0, 0, false
		}
		month = v
	}
	return year, month, true
}
