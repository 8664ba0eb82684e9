// Package aggregator reduces attempt results into per-method statistics and
// folds those into the run report.
package aggregator

import (
	"time"

	"github.com/google/uuid"

	"yqhp/rpc-checker/internal/rating"
	"yqhp/rpc-checker/pkg/types"
)

// Aggregate reduces the attempts of one method.
//
// Latency statistics only consider successful attempts; failures count towards
// the success rate denominator. With zero successes the latency is nil and the
// rating is RatingUnrated.
func Aggregate(method types.Method, attempts []types.AttemptResult) *types.MethodAggregate {
	agg := &types.MethodAggregate{
		Method:   method,
		Attempts: len(attempts),
	}

	trend := newTrend()
	errs := newErrorTracker()

	for _, a := range attempts {
		if a.Success {
			agg.Successes++
			trend.add(a.Latency)
			continue
		}
		errs.record(a.Error, a.Kind)
	}

	if agg.Attempts > 0 {
		agg.SuccessRate = float64(agg.Successes) / float64(agg.Attempts) * 100
	}
	agg.Latency = trend.stats()
	if agg.Latency != nil {
		agg.Rating = rating.Classify(agg.Latency.AvgMs)
	}
	agg.Errors = errs.summaries()

	return agg
}

// Summarize builds the run report from the per-method aggregates, which are
// kept in the given order.
//
// The overall success rate is the mean of the per-method rates. The overall
// average latency is the mean of the per-method averages over methods with at
// least one success.
func Summarize(cfg types.EndpointConfig, methods []*types.MethodAggregate, elapsed time.Duration) *types.RunReport {
	report := &types.RunReport{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Endpoint:   cfg.URL,
		Iterations: cfg.Iterations,
		Mode:       cfg.Mode,
		Elapsed:    elapsed,
		Methods:    methods,
	}

	var (
		rateSum  float64
		avgSum   float64
		avgCount int
	)
	for _, m := range methods {
		rateSum += m.SuccessRate
		if m.HasLatency() {
			avgSum += m.Latency.AvgMs
			avgCount++
		}
	}

	if len(methods) > 0 {
		report.OverallSuccessRate = rateSum / float64(len(methods))
	}
	if avgCount > 0 {
		avg := avgSum / float64(avgCount)
		report.OverallAvgMs = &avg
	}
	report.OverallRating = rating.ClassifyOptional(report.OverallAvgMs)

	return report
}
