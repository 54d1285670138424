package util

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// MissingMark stands in for optional values the API did not send.
const MissingMark = "—"

func FormatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	} else if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// FormatThousands inserts comma separators into the integer part of v.
func FormatThousands(v float64, decimals int) string {
	str := fmt.Sprintf("%.*f", decimals, roundHalfAway(v, decimals))
	sign := ""
	if strings.HasPrefix(str, "-") {
		sign, str = "-", str[1:]
	}

	intPart, decPart, hasDec := strings.Cut(str, ".")
	if len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}

	if hasDec {
		return sign + intPart + "." + decPart
	}
	return sign + intPart
}

func FormatCurrency(amount float64) string {
	return "$" + FormatThousands(amount, 2)
}

func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormatValue prints a reading with its unit, e.g. "1,485.0 °C".
func FormatValue(v float64, decimals int, unit string) string {
	s := FormatThousands(v, decimals)
	if unit == "" {
		return s
	}
	return s + " " + unit
}

// FormatOptional prints a pointer reading or the missing mark for nil.
func FormatOptional(v *float64, decimals int, unit string) string {
	if v == nil {
		return MissingMark
	}
	return FormatValue(*v, decimals, unit)
}

func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", roundHalfAway(v, 1))
}

// roundHalfAway rounds halves away from zero, matching metrics.Round, so a
// card and a report print the same digits. %f alone rounds the binary value.
func roundHalfAway(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// TrendArrow maps an API trend word onto an arrow glyph.
func TrendArrow(trend string) string {
	switch strings.ToLower(trend) {
	case "up":
		return "↑"
	case "down":
		return "↓"
	case "stable":
		return "→"
	default:
		return MissingMark
	}
}
