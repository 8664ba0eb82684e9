package aggregator

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/rpc-checker/pkg/types"
)

func ok(method types.Method, ms int) types.AttemptResult {
	return types.NewSuccessResult(method, time.Duration(ms)*time.Millisecond)
}

func fail(method types.Method, msg string) types.AttemptResult {
	return types.NewFailedResult(method, 5*time.Millisecond, types.ErrorKindTransport, msg)
}

func TestAggregate_AllSucceedExcellent(t *testing.T) {
	m := types.MethodGetHealth
	agg := Aggregate(m, []types.AttemptResult{ok(m, 80), ok(m, 90), ok(m, 100)})

	require.NotNil(t, agg.Latency)
	assert.Equal(t, 80.0, agg.Latency.MinMs)
	assert.Equal(t, 100.0, agg.Latency.MaxMs)
	assert.InDelta(t, 90.0, agg.Latency.AvgMs, 1e-9)
	assert.Equal(t, 100.0, agg.SuccessRate)
	assert.Equal(t, 3, agg.Successes)
	assert.Equal(t, 3, agg.Attempts)
	assert.Equal(t, types.RatingExcellent, agg.Rating)
	assert.Empty(t, agg.Errors)
}

func TestAggregate_VerySlowBlock(t *testing.T) {
	m := types.MethodGetBlock
	agg := Aggregate(m, []types.AttemptResult{ok(m, 1500), ok(m, 1900), ok(m, 2100)})

	require.NotNil(t, agg.Latency)
	assert.InDelta(t, 1833.3, agg.Latency.AvgMs, 0.05)
	assert.Equal(t, "1833.3", fmt.Sprintf("%.1f", agg.Latency.AvgMs))
	assert.Equal(t, types.RatingVerySlow, agg.Rating)
}

func TestAggregate_PartialFailure(t *testing.T) {
	m := types.MethodGetBalance
	agg := Aggregate(m, []types.AttemptResult{ok(m, 100), fail(m, "connection reset"), ok(m, 200)})

	assert.Equal(t, "66.7", fmt.Sprintf("%.1f", agg.SuccessRate))
	require.NotNil(t, agg.Latency)
	assert.InDelta(t, 150.0, agg.Latency.AvgMs, 1e-9)
	assert.Equal(t, 100.0, agg.Latency.MinMs)
	assert.Equal(t, 200.0, agg.Latency.MaxMs)
	assert.Equal(t, types.RatingGood, agg.Rating)
	assert.Equal(t, 1, agg.Failures())

	require.Len(t, agg.Errors, 1)
	assert.Equal(t, "connection reset", agg.Errors[0].Message)
	assert.Equal(t, 1, agg.Errors[0].Count)
}

func TestAggregate_ZeroSuccesses(t *testing.T) {
	m := types.MethodGetSlot
	agg := Aggregate(m, []types.AttemptResult{
		fail(m, "timeout"),
		fail(m, "timeout"),
		fail(m, "Node is behind"),
	})

	assert.Equal(t, 0.0, agg.SuccessRate)
	assert.Nil(t, agg.Latency)
	assert.False(t, agg.HasLatency())
	assert.Equal(t, types.RatingUnrated, agg.Rating)

	require.Len(t, agg.Errors, 2)
	assert.Equal(t, types.ErrorSummary{Message: "timeout", Kind: types.ErrorKindTransport, Count: 2}, agg.Errors[0])
	assert.Equal(t, "Node is behind", agg.Errors[1].Message)
}

func TestAggregate_NoAttempts(t *testing.T) {
	agg := Aggregate(types.MethodGetSlot, nil)
	assert.Equal(t, 0, agg.Attempts)
	assert.Equal(t, 0.0, agg.SuccessRate)
	assert.Nil(t, agg.Latency)
}

func TestAggregate_Percentiles(t *testing.T) {
	m := types.MethodGetSlot
	attempts := make([]types.AttemptResult, 0, 100)
	for i := 1; i <= 100; i++ {
		attempts = append(attempts, ok(m, i))
	}

	agg := Aggregate(m, attempts)
	require.NotNil(t, agg.Latency)
	assert.InDelta(t, 50.0, agg.Latency.P50Ms, 0.5)
	assert.InDelta(t, 95.0, agg.Latency.P95Ms, 0.5)
	assert.InDelta(t, 99.0, agg.Latency.P99Ms, 0.5)
	assert.LessOrEqual(t, agg.Latency.P99Ms, agg.Latency.MaxMs)
}

func TestSummarize(t *testing.T) {
	health := Aggregate(types.MethodGetHealth, []types.AttemptResult{
		ok(types.MethodGetHealth, 80), ok(types.MethodGetHealth, 90), ok(types.MethodGetHealth, 100),
	})
	balance := Aggregate(types.MethodGetBalance, []types.AttemptResult{
		ok(types.MethodGetBalance, 100), fail(types.MethodGetBalance, "x"), ok(types.MethodGetBalance, 200),
	})
	slot := Aggregate(types.MethodGetSlot, []types.AttemptResult{
		fail(types.MethodGetSlot, "x"), fail(types.MethodGetSlot, "x"), fail(types.MethodGetSlot, "x"),
	})

	cfg := types.EndpointConfig{URL: "http://node", Iterations: 3, Mode: types.ExecutionModeSequential}
	report := Summarize(cfg, []*types.MethodAggregate{health, slot, balance}, time.Second)

	assert.NotEmpty(t, report.ID)
	assert.False(t, report.Timestamp.IsZero())
	assert.Equal(t, "http://node", report.Endpoint)
	assert.Equal(t, []types.Method{types.MethodGetHealth, types.MethodGetSlot, types.MethodGetBalance},
		[]types.Method{report.Methods[0].Method, report.Methods[1].Method, report.Methods[2].Method})

	// (100 + 0 + 66.67) / 3
	assert.InDelta(t, 55.555, report.OverallSuccessRate, 0.01)

	// getSlot is excluded: (90 + 150) / 2
	require.NotNil(t, report.OverallAvgMs)
	assert.InDelta(t, 120.0, *report.OverallAvgMs, 1e-9)
	assert.Equal(t, types.RatingGood, report.OverallRating)
	assert.Equal(t, []types.Method{types.MethodGetSlot}, report.FailedMethods())
}

func TestSummarize_NothingSucceeded(t *testing.T) {
	slot := Aggregate(types.MethodGetSlot, []types.AttemptResult{fail(types.MethodGetSlot, "x")})
	report := Summarize(types.EndpointConfig{}, []*types.MethodAggregate{slot}, 0)

	assert.Nil(t, report.OverallAvgMs)
	assert.Equal(t, types.RatingUnrated, report.OverallRating)
	assert.Equal(t, 0.0, report.OverallSuccessRate)
}
