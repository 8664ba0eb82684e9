// Package rating maps average latencies to qualitative tiers.
package rating

import "yqhp/rpc-checker/pkg/types"

// Upper bounds (inclusive, milliseconds) of each tier. Anything above the
// last bound is RatingVerySlow.
const (
	ExcellentMaxMs = 100
	GoodMaxMs      = 300
	AverageMaxMs   = 600
	SlowMaxMs      = 1000
)

// Classify returns the tier for a non-negative latency in milliseconds.
// Negative inputs are treated as zero.
func Classify(latencyMs float64) types.Rating {
	switch {
	case latencyMs <= ExcellentMaxMs:
		return types.RatingExcellent
	case latencyMs <= GoodMaxMs:
		return types.RatingGood
	case latencyMs <= AverageMaxMs:
		return types.RatingAverage
	case latencyMs <= SlowMaxMs:
		return types.RatingSlow
	default:
		return types.RatingVerySlow
	}
}

// ClassifyOptional classifies a latency that may be absent.
func ClassifyOptional(latencyMs *float64) types.Rating {
	if latencyMs == nil {
		return types.RatingUnrated
	}
	return Classify(*latencyMs)
}
