package aggregator

import (
	"math"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"yqhp/rpc-checker/pkg/types"
)

const (
	// 直方图以微秒记录，上限 10 分钟
	histMinUs   = 1
	histMaxUs   = int64(10 * time.Minute / time.Microsecond)
	histSigFigs = 3
)

// trend 累积成功尝试的耗时。
// min/avg/max 由原始值精确计算，百分位数来自 HDR 直方图。
type trend struct {
	count int
	sum   float64
	min   float64
	max   float64
	hist  *hdrhistogram.Histogram
}

func newTrend() *trend {
	return &trend{
		min:  math.Inf(1),
		max:  math.Inf(-1),
		hist: hdrhistogram.New(histMinUs, histMaxUs, histSigFigs),
	}
}

func (t *trend) add(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	t.count++
	t.sum += ms
	if ms < t.min {
		t.min = ms
	}
	if ms > t.max {
		t.max = ms
	}

	us := d.Microseconds()
	if us < histMinUs {
		us = histMinUs
	}
	if us > histMaxUs {
		us = histMaxUs
	}
	_ = t.hist.RecordValue(us)
}

func (t *trend) stats() *types.LatencyStats {
	if t.count == 0 {
		return nil
	}
	return &types.LatencyStats{
		MinMs: t.min,
		AvgMs: t.clamp(t.sum / float64(t.count)),
		MaxMs: t.max,
		P50Ms: t.percentile(50),
		P95Ms: t.percentile(95),
		P99Ms: t.percentile(99),
	}
}

// percentile 直方图只保留有效位数，结果按实际 min/max 截断
func (t *trend) percentile(q float64) float64 {
	us := t.hist.ValueAtQuantile(q)
	return t.clamp(float64(us) / 1000)
}

func (t *trend) clamp(v float64) float64 {
	if v < t.min {
		return t.min
	}
	if v > t.max {
		return t.max
	}
	return v
}
