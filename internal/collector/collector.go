// Package collector 按迭代次数驱动 Invoker，收集每次尝试的结果。
package collector

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"yqhp/rpc-checker/internal/registry"
	"yqhp/rpc-checker/internal/rpc"
	"yqhp/rpc-checker/pkg/logger"
	"yqhp/rpc-checker/pkg/types"
)

// AttemptHook 在每次尝试完成后调用一次，用于进度显示。
// 并行模式下会被并发调用，实现必须是并发安全的。
type AttemptHook func(method types.Method, index int, result types.AttemptResult)

// Collector 运行一个方法的全部尝试。
type Collector struct {
	invoker rpc.Invoker
	probe   *registry.Probe
	delay   time.Duration
	hook    AttemptHook
}

// Option 配置 Collector。
type Option func(*Collector)

// WithProbe 设置参数构造所需的示例数据。
func WithProbe(p *registry.Probe) Option {
	return func(c *Collector) {
		if p != nil {
			c.probe = p
		}
	}
}

// WithDelay 设置顺序模式下两次尝试之间的间隔。
func WithDelay(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithHook 设置每次尝试完成后的回调。
func WithHook(h AttemptHook) Option {
	return func(c *Collector) {
		c.hook = h
	}
}

// New 创建一个新的 Collector。
func New(invoker rpc.Invoker, opts ...Option) *Collector {
	c := &Collector{
		invoker: invoker,
		probe:   registry.DefaultProbe(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect 执行 iterations 次尝试并返回全部结果（成功与失败都保留）。
// 只有 ctx 被取消时才返回错误，此时返回已完成的部分结果。
func (c *Collector) Collect(ctx context.Context, d registry.Descriptor, iterations int, mode types.ExecutionMode) ([]types.AttemptResult, error) {
	if iterations <= 0 {
		return nil, nil
	}
	if mode == types.ExecutionModeParallel {
		return c.collectParallel(ctx, d, iterations)
	}
	return c.collectSequential(ctx, d, iterations)
}

// collectSequential 逐个执行，前一次完成后才开始下一次。
func (c *Collector) collectSequential(ctx context.Context, d registry.Descriptor, iterations int) ([]types.AttemptResult, error) {
	results := make([]types.AttemptResult, 0, iterations)

	for i := 0; i < iterations; i++ {
		if i > 0 && c.delay > 0 {
			if err := sleep(ctx, c.delay); err != nil {
				return results, err
			}
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}

		results = append(results, c.attempt(ctx, d, i))
	}

	return results, nil
}

// collectParallel 同时发起全部尝试并等待它们结束。
// 每个任务写入自己的槽位，结果顺序与发起顺序一致。
func (c *Collector) collectParallel(ctx context.Context, d registry.Descriptor, iterations int) ([]types.AttemptResult, error) {
	results := make([]types.AttemptResult, iterations)

	var g errgroup.Group
	for i := 0; i < iterations; i++ {
		i := i
		g.Go(func() error {
			results[i] = c.attempt(ctx, d, i)
			return nil
		})
	}
	_ = g.Wait()

	return results, ctx.Err()
}

func (c *Collector) attempt(ctx context.Context, d registry.Descriptor, index int) types.AttemptResult {
	res := c.invoker.Invoke(ctx, d.Request(ctx, c.probe))

	if logger.IsDebugEnabled() {
		logger.Debug("attempt finished",
			zap.String("method", d.Method.String()),
			zap.Int("iteration", index+1),
			zap.Float64("latency_ms", res.LatencyMs()),
			zap.Bool("success", res.Success),
			zap.String("error", res.Error),
		)
	}

	if c.hook != nil {
		c.hook(d.Method, index, res)
	}
	return res
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
