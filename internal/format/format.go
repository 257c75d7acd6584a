// Package format provides pure display formatting helpers. All functions are
// stateless.
package format

import (
	"fmt"
	"time"
)

// Tokens formats a token count with K/M/B suffixes.
func Tokens(n uint64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.2fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// Cost formats a USD amount. Sub-cent amounts keep four decimals so small
// per-message costs don't render as $0.00.
func Cost(usd float64) string {
	if usd != 0 && usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

// Count formats an integer with thousands separators.
func Count(n uint32) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}

// Minutes formats a minute count as "2h 15m" or "45m".
func Minutes(mins uint32) string {
	if mins >= 60 {
		return fmt.Sprintf("%dh %dm", mins/60, mins%60)
	}
	return fmt.Sprintf("%dm", mins)
}

// Rate formats a tokens-per-minute burn rate.
func Rate(tokensPerMinute float64) string {
	if tokensPerMinute >= 1_000 {
		return fmt.Sprintf("%.1fK tok/min", tokensPerMinute/1_000)
	}
	return fmt.Sprintf("%.0f tok/min", tokensPerMinute)
}

// RelativeTime renders how long ago t was, coarsely. Zero times render as
// "never".
func RelativeTime(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	switch {
	case d < 5*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// ShortDate reformats a YYYY-MM-DD date as "Jan 2". Unparseable input is
// returned unchanged.
func ShortDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("Jan 2")
}

// Percent formats a percentage with one decimal place.
func Percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}
