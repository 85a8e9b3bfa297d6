package utils

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DurationFormat controls how FormatSeconds renders a duration
type DurationFormat struct {
	// ShowMillis keeps sub-second precision for durations under an hour
	ShowMillis bool
	// Short uses single letter units without pluralization
	Short bool
}

// DefaultDurationFormat is used by FormatSeconds and FormatDuration
var DefaultDurationFormat = DurationFormat{ShowMillis: true}

// FormatSeconds renders seconds as "1 hour, 0 minutes, 1 second"
func FormatSeconds(seconds float64) string {
	return DefaultDurationFormat.Format(seconds)
}

// FormatDuration renders d the same way as FormatSeconds
func FormatDuration(d time.Duration) string {
	return DefaultDurationFormat.Format(d.Seconds())
}

// Format renders seconds in days, hours, minutes and seconds.
// Units above the largest non-zero one are omitted, units below it are
// always printed. Precision drops from milliseconds to tenths once
// minutes appear and to whole seconds once hours appear.
func (f DurationFormat) Format(seconds float64) string {
	if math.IsNaN(seconds) {
		return "nan"
	}
	if seconds < 0 {
		return "-" + f.Format(-seconds)
	}

	units := [4]string{"day", "hour", "minute", "second"}
	if f.Short {
		units = [4]string{"d", "h", "m", "s"}
	}

	days := math.Floor(seconds / 86400)
	rest := seconds - days*86400
	hours := math.Floor(rest / 3600)
	rest -= hours * 3600
	minutes := math.Floor(rest / 60)
	rest -= minutes * 60

	prec := 1.0
	if f.ShowMillis {
		prec = 1000
		if minutes > 0 {
			prec = 10
		}
		if hours > 0 {
			prec = 1
		}
	}

	secs := math.Floor(rest*prec+0.5) / prec
	carried := secs >= 60
	if carried {
		secs -= 60
		minutes++
	}
	if minutes >= 60 {
		minutes -= 60
		hours++
	}
	if hours >= 24 {
		hours -= 24
		days++
	}

	var parts []string
	if days > 0 {
		parts = append(parts, f.unit(days, units[0], 0))
	}
	if len(parts) > 0 || hours > 0 {
		parts = append(parts, f.unit(hours, units[1], 0))
	}
	if len(parts) > 0 || minutes > 0 {
		parts = append(parts, f.unit(minutes, units[2], 0))
	}
	// a remainder that carried into minutes still shows as "0.0 seconds"
	if secs > 0 || carried || len(parts) == 0 {
		parts = append(parts, f.unit(secs, units[3], len(strconv.Itoa(int(prec)))-1))
	}

	return strings.Join(parts, ", ")
}

func (f DurationFormat) unit(val float64, name string, decimals int) string {
	s := strconv.FormatFloat(val, 'f', decimals, 64) + " " + name
	if !f.Short && val != 1 {
		s += "s"
	}
	return s
}
