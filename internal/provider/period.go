package provider

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultPeriod   = "1y"
	defaultInterval = "1d"
)

// periodStart returns the first day covered by period, counting back from
// now. The zero time means no lower bound.
func periodStart(period string, now time.Time) (time.Time, error) {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch strings.ToLower(period) {
	case "", defaultPeriod:
		return day.AddDate(-1, 0, 0), nil
	case "1d":
		return day.AddDate(0, 0, -1), nil
	case "5d":
		return day.AddDate(0, 0, -5), nil
	case "1mo":
		return day.AddDate(0, -1, 0), nil
	case "3mo":
		return day.AddDate(0, -3, 0), nil
	case "6mo":
		return day.AddDate(0, -6, 0), nil
	case "2y":
		return day.AddDate(-2, 0, 0), nil
	case "5y":
		return day.AddDate(-5, 0, 0), nil
	case "10y":
		return day.AddDate(-10, 0, 0), nil
	case "ytd":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), nil
	case "max":
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported period %q", period)
	}
}

// eodPeriod maps a bar interval onto the eod endpoint's period parameter.
func eodPeriod(interval string) (string, error) {
	switch strings.ToLower(interval) {
	case "", defaultInterval:
		return "d", nil
	case "1wk":
		return "w", nil
	case "1mo":
		return "m", nil
	default:
		return "", fmt.Errorf("unsupported interval %q", interval)
	}
}
