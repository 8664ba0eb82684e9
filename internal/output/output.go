// Package output 定义报告输出插件及其注册表。
// 插件在 init() 中调用 Register 注册，通过 --out type=arg 选择。
package output

import (
	"io"
	"sort"
	"sync"

	"yqhp/rpc-checker/pkg/types"
)

// Output 定义输出插件接口
type Output interface {
	// Description 返回输出插件的描述
	Description() string

	// Start 在测试开始前调用
	Start() error

	// SetReport 设置最终报告，只在运行完整结束时调用
	SetReport(report *types.RunReport)

	// Stop 在测试结束后调用，负责写出报告并释放资源
	Stop() error
}

// ProgressListener 是可选接口，需要进度事件的插件实现它。
// AttemptFinished 在并行模式下会被并发调用。
type ProgressListener interface {
	MethodStarted(method types.Method, iterations int)
	AttemptFinished(method types.Method, index int, result types.AttemptResult)
	MethodFinished(agg *types.MethodAggregate)
}

// Params 是创建 Output 时的参数
type Params struct {
	// OutputType 输出类型
	OutputType string

	// ConfigArgument 配置参数（如文件路径）
	ConfigArgument string

	// Endpoint 本次运行的配置
	Endpoint types.EndpointConfig

	// Stdout 控制台输出目标
	Stdout io.Writer

	// Quiet 静默模式，不输出横幅、进度和报告
	Quiet bool

	// NoColor 禁用颜色
	NoColor bool
}

// Factory 是创建 Output 的工厂函数类型
type Factory func(params Params) (Output, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register 注册输出工厂，同名注册会覆盖
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get 获取输出工厂
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// List 列出所有已注册的输出类型（按名称排序）
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create 创建输出实例
func Create(outputType string, params Params) (Output, error) {
	factory, ok := Get(outputType)
	if !ok {
		return nil, &UnknownOutputError{Type: outputType}
	}
	params.OutputType = outputType
	return factory(params)
}

// UnknownOutputError 未知输出类型错误
type UnknownOutputError struct {
	Type string
}

func (e *UnknownOutputError) Error() string {
	return "未知的输出类型: " + e.Type
}
