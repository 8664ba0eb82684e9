package types

import "time"

// LatencyStats holds latency statistics over the successful attempts of a method.
// Values are milliseconds and are only rounded when rendered.
type LatencyStats struct {
	MinMs float64 `json:"min_ms"`
	AvgMs float64 `json:"avg_ms"`
	MaxMs float64 `json:"max_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// ErrorSummary counts one distinct failure message of a method.
type ErrorSummary struct {
	Message string    `json:"message"`
	Kind    ErrorKind `json:"kind"`
	Count   int       `json:"count"`
}

// MethodAggregate is the per-method rollup of all attempts.
type MethodAggregate struct {
	Method    Method `json:"method"`
	Attempts  int    `json:"attempts"`
	Successes int    `json:"successes"`
	// Latency is nil when no attempt succeeded.
	Latency     *LatencyStats  `json:"latency,omitempty"`
	SuccessRate float64        `json:"success_rate"`
	Rating      Rating         `json:"rating"`
	Errors      []ErrorSummary `json:"errors,omitempty"`
}

// Failures 返回失败次数。
func (a *MethodAggregate) Failures() int {
	return a.Attempts - a.Successes
}

// HasLatency 判断是否存在延迟统计。
func (a *MethodAggregate) HasLatency() bool {
	return a.Latency != nil
}

// RunReport is the rollup of a complete run. It is created once and never mutated.
type RunReport struct {
	ID         string        `json:"id"`
	Timestamp  time.Time     `json:"timestamp"`
	Endpoint   string        `json:"endpoint"`
	Iterations int           `json:"iterations"`
	Mode       ExecutionMode `json:"mode"`
	Elapsed    time.Duration `json:"elapsed_ns"`

	Methods []*MethodAggregate `json:"methods"`

	// OverallSuccessRate is the mean of the per-method success rates.
	OverallSuccessRate float64 `json:"overall_success_rate"`
	// OverallAvgMs is the mean of the per-method averages; nil when no method succeeded.
	OverallAvgMs  *float64 `json:"overall_avg_ms,omitempty"`
	OverallRating Rating   `json:"overall_rating"`
}

// FailedMethods 返回没有任何成功尝试的方法。
func (r *RunReport) FailedMethods() []Method {
	var failed []Method
	for _, agg := range r.Methods {
		if agg.Successes == 0 {
			failed = append(failed, agg.Method)
		}
	}
	return failed
}
