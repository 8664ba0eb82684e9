// Package json 把运行报告写成 JSON 文件。
package json

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"yqhp/rpc-checker/internal/output"
	"yqhp/rpc-checker/pkg/types"
)

func init() {
	output.Register("json", New)
}

// Output JSON 文件输出
type Output struct {
	params   output.Params
	filename string
	mu       sync.Mutex
	report   *types.RunReport
}

// New 创建 JSON 输出
func New(params output.Params) (output.Output, error) {
	return &Output{params: params}, nil
}

// Description 返回描述
func (o *Output) Description() string {
	return fmt.Sprintf("json (%s)", o.filename)
}

// Start 确定输出文件并检查目录可写
func (o *Output) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.filename = o.params.ConfigArgument
	if o.filename == "" {
		o.filename = fmt.Sprintf("rpc-report_%s.json", time.Now().Format("20060102_150405"))
	}

	dir := filepath.Dir(o.filename)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("输出目录不可用: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("输出目录不可用: %s 不是目录", dir)
	}
	return nil
}

// SetReport 设置最终报告
func (o *Output) SetReport(report *types.RunReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.report = report
}

// Stop 写出报告；运行被中止时不写文件
func (o *Output) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.report == nil {
		return nil
	}

	data, err := sonic.ConfigStd.MarshalIndent(newDocument(o.report), "", "  ")
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(o.filename, data, 0o644); err != nil {
		return fmt.Errorf("写入 JSON 文件失败: %w", err)
	}
	return nil
}

// document 是写入文件的结构，耗时以毫秒表示
type document struct {
	*types.RunReport
	ElapsedMs float64 `json:"elapsed_ms"`
}

func newDocument(r *types.RunReport) document {
	return document{
		RunReport: r,
		ElapsedMs: float64(r.Elapsed) / float64(time.Millisecond),
	}
}
