package common

import "time"

// QuoteStaleAfter is the age beyond which a quote timestamp is reported as stale
// during valuation. Stale quotes are still used.
const QuoteStaleAfter = 24 * time.Hour

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated, now time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return now.Sub(updated) < ttl
}
