package watch

import "fmt"

// SearchChannel is the Redis pub/sub channel carrying change events for a
// single search request.
func SearchChannel(requestID int64) string {
	return fmt.Sprintf("trendscout:search:%d", requestID)
}

// SearchesChannel carries change events for the whole search list (creates,
// completions, deletes), keeping history views live.
func SearchesChannel() string {
	return "trendscout:searches"
}
