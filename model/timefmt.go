package model

import (
	"fmt"
	"time"
)

// FormatPlaytime renders a playtime duration compactly: "45s", "45m",
// "2h 30m", "1d 3h".
func FormatPlaytime(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	remMinutes := minutes % 60
	if hours < 24 {
		if remMinutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, remMinutes)
		}
		return fmt.Sprintf("%dh", hours)
	}
	days := hours / 24
	remHours := hours % 24
	if remHours > 0 {
		return fmt.Sprintf("%dd %dh", days, remHours)
	}
	return fmt.Sprintf("%dd", days)
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}

// FormatRelativeTime renders how long ago t was: "just now", "5 minutes ago",
// "3 days ago", "2 months ago".
func FormatRelativeTime(t, now time.Time) string {
	seconds := int(now.Sub(t).Seconds())
	if seconds < 60 {
		return "just now"
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%d minute%s ago", minutes, plural(minutes))
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%d hour%s ago", hours, plural(hours))
	}
	days := hours / 24
	if days < 30 {
		return fmt.Sprintf("%d day%s ago", days, plural(days))
	}
	months := days / 30
	if months < 12 {
		return fmt.Sprintf("%d month%s ago", months, plural(months))
	}
	years := days / 365
	return fmt.Sprintf("%d year%s ago", years, plural(years))
}
