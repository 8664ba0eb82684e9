// Package runner 串联方法表、采集器与聚合器，完成一次完整的基准测试。
package runner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"yqhp/rpc-checker/internal/aggregator"
	"yqhp/rpc-checker/internal/collector"
	"yqhp/rpc-checker/internal/registry"
	"yqhp/rpc-checker/internal/rpc"
	"yqhp/rpc-checker/pkg/logger"
	"yqhp/rpc-checker/pkg/types"
)

// Observer receives run events, typically for progress rendering.
// AttemptFinished may be called concurrently in parallel mode.
type Observer interface {
	MethodStarted(method types.Method, iterations int)
	AttemptFinished(method types.Method, index int, result types.AttemptResult)
	MethodFinished(agg *types.MethodAggregate)
}

// Runner benchmarks every registered method against one endpoint.
type Runner struct {
	cfg      types.EndpointConfig
	invoker  rpc.Invoker
	probe    *registry.Probe
	methods  []registry.Descriptor
	observer Observer
}

// Option configures a Runner.
type Option func(*Runner)

// WithInvoker replaces the default fasthttp client.
func WithInvoker(inv rpc.Invoker) Option {
	return func(r *Runner) {
		r.invoker = inv
	}
}

// WithProbe sets the sample data for parameter builders.
// When the probe has no slot source and the invoker can provide one, the invoker is used.
func WithProbe(p *registry.Probe) Option {
	return func(r *Runner) {
		r.probe = p
	}
}

// WithMethods restricts the run to the given descriptors, in the given order.
func WithMethods(methods []registry.Descriptor) Option {
	return func(r *Runner) {
		r.methods = methods
	}
}

// WithObserver registers a listener for run events.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		r.observer = o
	}
}

// New creates a runner for the endpoint configuration.
func New(cfg types.EndpointConfig, opts ...Option) *Runner {
	r := &Runner{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}

	if r.cfg.Mode == "" {
		r.cfg.Mode = types.ExecutionModeSequential
	}
	if r.invoker == nil {
		clientOpts := []rpc.Option{
			rpc.WithTimeout(cfg.Timeout),
			rpc.WithHeaders(cfg.Headers),
		}
		// 并行模式下每次尝试独占一个连接
		if r.cfg.Mode == types.ExecutionModeParallel {
			clientOpts = append(clientOpts, rpc.WithMaxConns(cfg.Iterations))
		}
		r.invoker = rpc.NewClient(cfg.URL, clientOpts...)
	}

	// 复制探针，不修改调用方传入的实例
	probe := registry.DefaultProbe()
	if r.probe != nil {
		probe = new(registry.Probe)
		*probe = *r.probe
	}
	if probe.Slots == nil {
		if slots, ok := r.invoker.(registry.SlotSource); ok {
			probe.Slots = slots
		}
	}
	r.probe = probe

	if r.methods == nil {
		r.methods = registry.Methods()
	}
	if r.observer == nil {
		r.observer = nopObserver{}
	}
	return r
}

// Run benchmarks the methods one after another and builds the report.
// Only a canceled context aborts the run; no partial report is produced then.
func (r *Runner) Run(ctx context.Context) (*types.RunReport, error) {
	if r.cfg.Iterations < 1 {
		return nil, fmt.Errorf("iterations must be positive, got %d", r.cfg.Iterations)
	}
	if !r.cfg.Mode.IsValid() {
		return nil, fmt.Errorf("unknown execution mode %q", r.cfg.Mode)
	}

	coll := collector.New(r.invoker,
		collector.WithProbe(r.probe),
		collector.WithDelay(r.cfg.Delay),
		collector.WithHook(r.observer.AttemptFinished),
	)

	logger.Info("benchmark started",
		zap.String("endpoint", r.cfg.URL),
		zap.Int("iterations", r.cfg.Iterations),
		zap.String("mode", r.cfg.Mode.String()),
		zap.Int("methods", len(r.methods)),
	)

	start := time.Now()
	aggregates := make([]*types.MethodAggregate, 0, len(r.methods))

	for _, d := range r.methods {
		r.observer.MethodStarted(d.Method, r.cfg.Iterations)

		attempts, err := coll.Collect(ctx, d, r.cfg.Iterations, r.cfg.Mode)
		if err != nil {
			logger.Warn("benchmark interrupted",
				zap.String("method", d.Method.String()),
				zap.Int("completed", len(attempts)),
				zap.Error(err),
			)
			return nil, err
		}

		agg := aggregator.Aggregate(d.Method, attempts)
		logger.Debug("method finished",
			zap.String("method", d.Method.String()),
			zap.Int("successes", agg.Successes),
			zap.Int("attempts", agg.Attempts),
			zap.String("rating", agg.Rating.String()),
		)
		r.observer.MethodFinished(agg)
		aggregates = append(aggregates, agg)
	}

	report := aggregator.Summarize(r.cfg, aggregates, time.Since(start))

	logger.Info("benchmark finished",
		zap.String("id", report.ID),
		zap.Duration("elapsed", report.Elapsed),
		zap.Float64("success_rate", report.OverallSuccessRate),
		zap.String("rating", report.OverallRating.String()),
	)
	return report, nil
}

type nopObserver struct{}

func (nopObserver) MethodStarted(types.Method, int)                         {}
func (nopObserver) AttemptFinished(types.Method, int, types.AttemptResult) {}
func (nopObserver) MethodFinished(*types.MethodAggregate)                   {}
