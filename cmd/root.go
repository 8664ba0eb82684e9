// Package cmd 提供 rpc-checker CLI 的命令实现
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	// 导入所有输出插件
	_ "yqhp/rpc-checker/internal/output/all"
)

const (
	// Version 是当前版本号
	Version = "1.0.0"
	// Banner 是版本信息中显示的 ASCII 艺术
	Banner = `
     ____  ____   ____       ____ _               _
    |  _ \|  _ \ / ___|     / ___| |__   ___  ___| | _____ _ __
    | |_) | |_) | |   _____| |   | '_ \ / _ \/ __| |/ / _ \ '__|
    |  _ <|  __/| |__|_____| |___| | | |  __/ (__|   <  __/ |
    |_| \_\_|    \____|     \____|_| |_|\___|\___|_|\_\___|_|   %s
`
)

// 退出码
const (
	ExitOK          = 0
	ExitError       = 1
	ExitNoSuccess   = 2
	ExitInterrupted = 130
)

// options 保存根命令的 flags
type options struct {
	cfgFile    string
	url        string
	iterations int
	parallel   bool
	noProgress bool
	timeout    string
	outputs    []string
	debug      bool
	quiet      bool
	strict     bool
	noColor    bool
}

// newRootCmd 创建根命令，不带子命令时执行基准测试
func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "rpc-checker",
		Short: "Solana JSON-RPC 节点性能检测工具",
		Long: `rpc-checker 对 Solana JSON-RPC 节点依次调用一组固定方法，
重复指定次数，统计 min/avg/max 延迟与成功率，并给出速度评级。`,
		Example: `  # 使用默认的主网节点
  rpc-checker

  # 指定节点和迭代次数
  rpc-checker -u http://127.0.0.1:8899 -i 10

  # 并行模式，结果写入 JSON 和 Prometheus 文本文件
  rpc-checker -p --out json=report.json --out prometheus=rpc.prom`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBenchmark(cmd, opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.url, "url", "u", "", "RPC 节点地址 (默认 "+defaultURLHint+")")
	flags.IntVarP(&opts.iterations, "iterations", "i", 3, "每个方法的调用次数")
	flags.BoolVarP(&opts.parallel, "parallel", "p", false, "并行发起同一方法的全部调用")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "不显示进度")
	flags.StringVar(&opts.timeout, "timeout", "", "单次调用超时 (如 10s)")
	flags.StringArrayVarP(&opts.outputs, "out", "o", nil, "报告输出目标 (可多次指定)，格式: type=arg")
	flags.BoolVar(&opts.strict, "strict", false, "存在完全失败的方法时以退出码 2 结束")

	persistent := rootCmd.PersistentFlags()
	persistent.StringVar(&opts.cfgFile, "config", "", "配置文件路径")
	persistent.BoolVar(&opts.debug, "debug", false, "启用调试日志")
	persistent.BoolVarP(&opts.quiet, "quiet", "q", false, "静默模式")
	persistent.BoolVar(&opts.noColor, "no-color", false, "禁用颜色")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate(fmt.Sprintf(Banner, Version) + "\n")

	rootCmd.AddCommand(newMethodsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute 执行根命令并返回进程退出码
func Execute() int {
	return execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	code := exitCode(err)
	if err != nil && code != ExitInterrupted {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return code
}

// ExitCodeError 携带指定退出码的错误
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string {
	return e.Err.Error()
}

func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

// exitCode 把错误映射为退出码
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}
	return ExitError
}
