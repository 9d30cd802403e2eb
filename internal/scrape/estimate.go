package scrape

import "time"

// DefaultRequestCost is the assumed average round trip of one listing request.
const DefaultRequestCost = 500 * time.Millisecond

// Estimate approximates how long fetching numPosts posts takes at perRequest
// per page. numPosts is 0 when the total is unknown.
func Estimate(numPosts int, perRequest time.Duration) time.Duration {
	if perRequest <= 0 {
		perRequest = DefaultRequestCost
	}
	requests := max(numPosts, 0)/100 + 1
	return time.Duration(requests) * perRequest
}
