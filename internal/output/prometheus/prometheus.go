// Package prometheus 把运行报告写成 node_exporter textfile 格式的指标文件。
package prometheus

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"yqhp/rpc-checker/internal/output"
	"yqhp/rpc-checker/pkg/types"
)

const namespace = "rpc_checker"

func init() {
	output.Register("prometheus", New)
}

// Output Prometheus 文本文件输出
type Output struct {
	params   output.Params
	filename string
	mu       sync.Mutex
	report   *types.RunReport
}

// New 创建 Prometheus 输出
func New(params output.Params) (output.Output, error) {
	return &Output{params: params}, nil
}

// Description 返回描述
func (o *Output) Description() string {
	return fmt.Sprintf("prometheus (%s)", o.filename)
}

// Start 确定输出文件
func (o *Output) Start() error {
	o.filename = o.params.ConfigArgument
	if o.filename == "" {
		o.filename = "rpc_checker.prom"
	}
	return nil
}

// SetReport 设置最终报告
func (o *Output) SetReport(report *types.RunReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.report = report
}

// Stop 写出指标文件；运行被中止时不写文件
func (o *Output) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.report == nil {
		return nil
	}

	reg := prometheus.NewRegistry()
	if err := register(reg, o.report); err != nil {
		return fmt.Errorf("注册指标失败: %w", err)
	}
	if err := prometheus.WriteToTextfile(o.filename, reg); err != nil {
		return fmt.Errorf("写入指标文件失败: %w", err)
	}
	return nil
}

// register 把报告转换成带 endpoint 标签的 gauge
func register(reg *prometheus.Registry, r *types.RunReport) error {
	wrapped := prometheus.WrapRegistererWith(prometheus.Labels{"endpoint": r.Endpoint}, reg)

	successRate := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "success_rate_percent",
		Help:      "Percentage of successful attempts per method.",
	}, []string{"method"})
	latency := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "latency_milliseconds",
		Help:      "Latency statistics over successful attempts per method.",
	}, []string{"method", "stat"})
	attempts := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "attempts",
		Help:      "Number of attempts per method and outcome.",
	}, []string{"method", "outcome"})
	rating := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rating",
		Help:      "Speed rating per method: 0 N/A, 1 Excellent, 2 Good, 3 Average, 4 Slow, 5 Very Slow.",
	}, []string{"method"})
	overallRate := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "overall_success_rate_percent",
		Help:      "Mean of the per-method success rates.",
	})
	overallLatency := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "overall_latency_milliseconds",
		Help:      "Mean of the per-method average latencies over methods with at least one success.",
	})
	overallRating := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "overall_rating",
		Help:      "Overall speed rating, same scale as rpc_checker_rating.",
	})
	timestamp := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_timestamp_seconds",
		Help:      "Unix time the report was generated.",
	})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of the run.",
	})

	for _, c := range []prometheus.Collector{
		successRate, latency, attempts, rating,
		overallRate, overallRating, timestamp, duration,
	} {
		if err := wrapped.Register(c); err != nil {
			return err
		}
	}

	for _, m := range r.Methods {
		name := m.Method.String()
		successRate.WithLabelValues(name).Set(m.SuccessRate)
		attempts.WithLabelValues(name, "success").Set(float64(m.Successes))
		attempts.WithLabelValues(name, "failure").Set(float64(m.Failures()))
		rating.WithLabelValues(name).Set(float64(m.Rating))

		// 没有成功尝试的方法不导出延迟，避免伪造的 0
		if l := m.Latency; l != nil {
			latency.WithLabelValues(name, "min").Set(l.MinMs)
			latency.WithLabelValues(name, "avg").Set(l.AvgMs)
			latency.WithLabelValues(name, "max").Set(l.MaxMs)
			latency.WithLabelValues(name, "p50").Set(l.P50Ms)
			latency.WithLabelValues(name, "p95").Set(l.P95Ms)
			latency.WithLabelValues(name, "p99").Set(l.P99Ms)
		}
	}

	overallRate.Set(r.OverallSuccessRate)
	overallRating.Set(float64(r.OverallRating))
	if r.OverallAvgMs != nil {
		if err := wrapped.Register(overallLatency); err != nil {
			return err
		}
		overallLatency.Set(*r.OverallAvgMs)
	}
	timestamp.Set(float64(r.Timestamp.Unix()))
	duration.Set(r.Elapsed.Seconds())

	return nil
}
