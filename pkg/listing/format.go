package listing

import (
	"time"

	"github.com/dustin/go-humanize"
)

// DisplayRate formats the headline price of a listing: the monthly rate when
// offered, otherwise weekly, otherwise nightly. It returns "" when no period
// is offered.
func DisplayRate(r Rates) string {
	switch {
	case r.Monthly > 0:
		return "$" + humanize.Comma(int64(r.Monthly)) + "/mo"
	case r.Weekly > 0:
		return "$" + humanize.Comma(int64(r.Weekly)) + "/wk"
	case r.Nightly > 0:
		return "$" + humanize.Comma(int64(r.Nightly)) + "/night"
	default:
		return ""
	}
}

// SentAgo renders when a message was sent relative to now ("3 hours ago").
func SentAgo(sent, now time.Time) string {
	return humanize.RelTime(sent, now, "ago", "from now")
}

// Area formats a square footage ("1,250 sqft").
func Area(squareFeet int) string {
	return humanize.Comma(int64(squareFeet)) + " sqft"
}
