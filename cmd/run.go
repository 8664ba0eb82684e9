package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yqhp/rpc-checker/internal/config"
	"yqhp/rpc-checker/internal/output"
	"yqhp/rpc-checker/internal/runner"
	"yqhp/rpc-checker/pkg/logger"
)

const defaultURLHint = config.DefaultURL

// runBenchmark 加载配置、执行全部方法并输出报告
func runBenchmark(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return &ExitCodeError{Code: ExitError, Err: err}
	}

	logger.Init(cfg.LoggerConfig())
	defer logger.Sync()
	if opts.debug {
		logger.EnableDebug()
	}

	endpoint := cfg.EndpointConfig()

	outputs, err := createOutputs(cmd, cfg, opts)
	if err != nil {
		return &ExitCodeError{Code: ExitError, Err: err}
	}
	manager := output.NewManager(outputs...)

	// 创建可取消的上下文，处理关闭信号
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(cmd.ErrOrStderr(), "\n正在中止测试...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := manager.Start(); err != nil {
		return err
	}

	r := runner.New(endpoint,
		runner.WithProbe(cfg.NewProbe(nil)),
		runner.WithObserver(manager),
	)

	report, runErr := r.Run(ctx)
	if runErr != nil {
		_ = manager.Finish(nil)
		return fmt.Errorf("执行失败: %w", runErr)
	}

	if err := manager.Finish(report); err != nil {
		return fmt.Errorf("写入报告失败: %w", err)
	}

	if failed := report.FailedMethods(); opts.strict && len(failed) > 0 {
		logger.Warn("methods without successful attempts", zap.Any("methods", failed))
		return &ExitCodeError{
			Code: ExitNoSuccess,
			Err:  fmt.Errorf("%d 个方法没有任何成功调用: %v", len(failed), failed),
		}
	}
	return nil
}

// loadConfig 按 默认值 < 配置文件 < 环境变量 < 命令行 加载并校验配置。
// 只有显式设置的 flag 才会覆盖。
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	flags := cmd.Flags()
	args := make(map[string]string)

	if flags.Changed("url") {
		args["endpoint.url"] = opts.url
	}
	if flags.Changed("iterations") {
		args["run.iterations"] = strconv.Itoa(opts.iterations)
	}
	if flags.Changed("parallel") {
		args["run.parallel"] = strconv.FormatBool(opts.parallel)
	}
	if flags.Changed("no-progress") {
		args["run.progress"] = strconv.FormatBool(!opts.noProgress)
	}
	if flags.Changed("timeout") {
		args["endpoint.timeout"] = opts.timeout
	}

	cfg, err := config.NewLoader().
		WithConfigPath(opts.cfgFile).
		WithCmdArgs(args).
		Load()
	if err != nil {
		return nil, err
	}

	for _, raw := range opts.outputs {
		out, err := config.ParseOutput(raw)
		if err != nil {
			return nil, err
		}
		cfg.Outputs = append(cfg.Outputs, out)
	}

	if err := config.NewValidator().WithOutputs(output.List()).Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// createOutputs 创建控制台输出以及 --out 指定的输出
func createOutputs(cmd *cobra.Command, cfg *config.Config, opts *options) ([]output.Output, error) {
	base := output.Params{
		Endpoint: cfg.EndpointConfig(),
		Stdout:   cmd.OutOrStdout(),
		Quiet:    opts.quiet,
		NoColor:  opts.noColor,
	}

	console, err := output.Create("console", base)
	if err != nil {
		return nil, err
	}
	outputs := []output.Output{console}

	for _, oc := range cfg.Outputs {
		if oc.Type == "console" {
			continue
		}
		params := base
		params.ConfigArgument = oc.Arg
		out, err := output.Create(oc.Type, params)
		if err != nil {
			return nil, fmt.Errorf("创建输出 %s 失败: %w", oc.Type, err)
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}
