package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SearchStatusKey holds the last derived status of a search request, used to
// detect the processing → completed transition between reads.
func SearchStatusKey(requestID int64) string {
	return fmt.Sprintf("search:status:%d", requestID)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}

// TrendSeriesKey caches historical trend lookups by their full parameter set.
func TrendSeriesKey(keywords, region string, startYear, endYear int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%d|%d", keywords, region, startYear, endYear))
	return "trends:series:" + hex.EncodeToString(sum[:16])
}
