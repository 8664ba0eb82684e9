package output

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"yqhp/rpc-checker/pkg/logger"
	"yqhp/rpc-checker/pkg/types"
)

// Manager 管理多个输出插件，并把运行事件分发给实现了 ProgressListener 的插件
type Manager struct {
	outputs   []Output
	listeners []ProgressListener
	mu        sync.Mutex
	started   int
}

// NewManager 创建新的输出管理器
func NewManager(outputs ...Output) *Manager {
	m := &Manager{outputs: outputs}
	for _, out := range outputs {
		if l, ok := out.(ProgressListener); ok {
			m.listeners = append(m.listeners, l)
		}
	}
	return m
}

// Start 启动所有输出，任一失败时停止已启动的输出
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, out := range m.outputs {
		if err := out.Start(); err != nil {
			for j := 0; j < i; j++ {
				_ = m.outputs[j].Stop()
			}
			m.started = 0
			return fmt.Errorf("启动输出 %s 失败: %w", out.Description(), err)
		}
		m.started = i + 1
		logger.Debug("output started", zap.String("output", out.Description()))
	}
	return nil
}

// Finish 把报告交给所有输出并停止它们。report 为 nil 表示运行被中止。
func (m *Manager) Finish(report *types.RunReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, out := range m.outputs[:m.started] {
		if report != nil {
			out.SetReport(report)
		}
		if err := out.Stop(); err != nil {
			logger.Error("output stop failed", zap.String("output", out.Description()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", out.Description(), err))
		}
	}
	m.started = 0
	return errors.Join(errs...)
}

// MethodStarted 分发方法开始事件
func (m *Manager) MethodStarted(method types.Method, iterations int) {
	for _, l := range m.listeners {
		l.MethodStarted(method, iterations)
	}
}

// AttemptFinished 分发单次尝试完成事件
func (m *Manager) AttemptFinished(method types.Method, index int, result types.AttemptResult) {
	for _, l := range m.listeners {
		l.AttemptFinished(method, index, result)
	}
}

// MethodFinished 分发方法完成事件
func (m *Manager) MethodFinished(agg *types.MethodAggregate) {
	for _, l := range m.listeners {
		l.MethodFinished(agg)
	}
}
