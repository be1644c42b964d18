package http

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gymdesk/internal/report"
)

// formatRupees formats paise as a rupee currency string (e.g., "₹499.50").
func formatRupees(paise int64) string {
	neg := paise < 0
	if neg {
		paise = -paise
	}
	rupees := paise / 100
	rem := paise % 100
	s := strconv.FormatInt(rupees, 10) + "." + fmt.Sprintf("%02d", rem)
	if neg {
		return "-₹" + s
	}
	return "₹" + s
}

// formatPercent renders a signed percent change with one decimal (e.g. "+12.5%").
func formatPercent(change float64) string {
	return fmt.Sprintf("%+.1f%%", change)
}

// donutPercents renders donut fractions as integer percentages. The pending
// share is derived from the income share so the pair always sums to 100 for
// a non-zero total.
func donutPercents(d report.DonutFractions) (incomePct, pendingPct int) {
	if d.Income == 0 && d.Pending == 0 {
		return 0, 0
	}
	incomePct = int(d.Income*100 + 0.5)
	return incomePct, 100 - incomePct
}

// parseDate parses a date string in YYYY-MM-DD format. The result is in the
// server's location so a backdated payment buckets to the same day the form
// named.
func parseDate(dateStr string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", dateStr, time.Local)
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}
