// Package console 在终端输出横幅、进度条和测试报告。
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"yqhp/rpc-checker/internal/output"
	"yqhp/rpc-checker/pkg/types"
)

func init() {
	output.Register("console", New)
}

const (
	boxWidth     = 63
	renderPeriod = 100 * time.Millisecond
)

// Output 控制台输出
type Output struct {
	params output.Params
	w      io.Writer

	color bool
	// bars 为 true 时使用动态进度条，否则每个方法结束时打印一行
	bars bool

	mu         sync.Mutex
	pw         progress.Writer
	renderDone chan struct{}
	trackers   map[types.Method]*progress.Tracker
	report     *types.RunReport
}

// New 创建控制台输出
func New(params output.Params) (output.Output, error) {
	w := params.Stdout
	if w == nil {
		w = os.Stdout
	}
	tty := isTerminal(w)

	return &Output{
		params:   params,
		w:        w,
		color:    tty && !params.NoColor,
		bars:     tty && params.Endpoint.Progress && !params.Quiet,
		trackers: make(map[types.Method]*progress.Tracker),
	}, nil
}

// isTerminal 判断输出目标是否是交互式终端
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Description 返回描述
func (o *Output) Description() string {
	return "console"
}

// Start 打印横幅和测试配置，并启动进度条
func (o *Output) Start() error {
	if o.params.Quiet {
		return nil
	}

	o.printBanner()
	o.printConfig()

	if o.bars {
		pw := progress.NewWriter()
		pw.SetOutputWriter(o.w)
		pw.SetAutoStop(false)
		pw.SetTrackerLength(40)
		pw.SetMessageLength(26)
		pw.SetUpdateFrequency(renderPeriod)
		pw.SetStyle(progress.StyleBlocks)
		pw.Style().Visibility.ETA = false
		pw.Style().Visibility.Percentage = false
		pw.Style().Options.TimeInProgressPrecision = time.Millisecond
		pw.Style().Options.TimeDonePrecision = time.Millisecond
		if o.color {
			pw.Style().Colors = progress.StyleColorsExample
		}
		pw.SetNumTrackersExpected(len(types.AllMethods()))

		o.pw = pw
		o.renderDone = make(chan struct{})
		go func() {
			defer close(o.renderDone)
			pw.Render()
		}()
	}
	return nil
}

// MethodStarted 为方法创建进度条
func (o *Output) MethodStarted(method types.Method, iterations int) {
	if o.pw == nil {
		return
	}
	tracker := &progress.Tracker{
		Message: method.String(),
		Total:   int64(iterations),
		Units:   progress.UnitsDefault,
	}

	o.mu.Lock()
	o.trackers[method] = tracker
	o.mu.Unlock()

	o.pw.AppendTracker(tracker)
}

// AttemptFinished 推进进度条，可并发调用。出现失败的方法以错误样式结束。
func (o *Output) AttemptFinished(method types.Method, _ int, result types.AttemptResult) {
	tracker := o.tracker(method)
	if tracker == nil {
		return
	}
	if result.Success {
		tracker.Increment(1)
	} else {
		tracker.IncrementWithError(1)
	}
}

// MethodFinished 结束进度条，或在没有进度条时打印一行结果
func (o *Output) MethodFinished(agg *types.MethodAggregate) {
	if tracker := o.tracker(agg.Method); tracker != nil {
		tracker.MarkAsDone()
		return
	}

	if o.params.Quiet || !o.params.Endpoint.Progress {
		return
	}
	fmt.Fprintf(o.w, "  %-26s %d/%d succeeded\n", agg.Method, agg.Successes, agg.Attempts)
}

func (o *Output) tracker(method types.Method) *progress.Tracker {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.trackers[method]
}

// SetReport 设置最终报告
func (o *Output) SetReport(report *types.RunReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.report = report
}

// Stop 停止进度条并打印报告
func (o *Output) Stop() error {
	if o.pw != nil {
		o.stopRender()
	}

	o.mu.Lock()
	report := o.report
	o.mu.Unlock()

	if o.params.Quiet || report == nil {
		return nil
	}
	o.printReport(report)
	return nil
}

// stopRender 等待渲染协程退出。Render 可能尚未开始，因此重复调用 Stop
func (o *Output) stopRender() {
	for {
		o.pw.Stop()
		select {
		case <-o.renderDone:
			o.pw = nil
			return
		case <-time.After(renderPeriod / 10):
		}
	}
}

func (o *Output) paint(colors text.Colors, s string) string {
	if !o.color {
		return s
	}
	return colors.Sprint(s)
}

// boxed 打印带边框的标题
func (o *Output) boxed(title string) {
	pad := boxWidth - len(title)
	left := pad / 2
	lines := []string{
		"╔" + strings.Repeat("═", boxWidth) + "╗",
		"║" + strings.Repeat(" ", left) + title + strings.Repeat(" ", pad-left) + "║",
		"╚" + strings.Repeat("═", boxWidth) + "╝",
	}
	for _, line := range lines {
		fmt.Fprintln(o.w, o.paint(text.Colors{text.FgHiBlue}, line))
	}
}

func (o *Output) printBanner() {
	o.boxed("SOLANA RPC PERFORMANCE CHECKER")
	fmt.Fprintln(o.w)
	fmt.Fprintln(o.w, o.paint(text.Colors{text.FgYellow}, "Benchmark the latency and reliability of a Solana JSON-RPC endpoint"))
	fmt.Fprintln(o.w, o.paint(text.Colors{text.FgCyan}, "Methods: "+joinMethods()))
	fmt.Fprintln(o.w)
}

func (o *Output) printConfig() {
	ep := o.params.Endpoint
	o.boxed("TEST CONFIGURATION")

	mode := o.paint(text.Colors{text.FgYellow}, "Sequential")
	if ep.Mode == types.ExecutionModeParallel {
		mode = o.paint(text.Colors{text.FgGreen}, "Parallel")
	}

	fmt.Fprintf(o.w, "RPC endpoint..........: %s\n", o.paint(text.Colors{text.FgCyan}, ep.URL))
	fmt.Fprintf(o.w, "Iterations per method.: %s\n", o.paint(text.Colors{text.FgYellow}, fmt.Sprint(ep.Iterations)))
	fmt.Fprintf(o.w, "Mode..................: %s\n", mode)
	if ep.Timeout > 0 {
		fmt.Fprintf(o.w, "Timeout...............: %s\n", ep.Timeout)
	}
	fmt.Fprintln(o.w)
}

func (o *Output) printReport(r *types.RunReport) {
	fmt.Fprintln(o.w)
	o.boxed("RPC PERFORMANCE REPORT")

	fmt.Fprintln(o.w, o.paint(text.Colors{text.Faint}, "Timestamp: "+r.Timestamp.Format(time.RFC3339)))
	fmt.Fprintln(o.w, o.paint(successRateColors(r.OverallSuccessRate),
		fmt.Sprintf("Overall Success Rate: %.1f%%", r.OverallSuccessRate)))

	overall := "Overall Speed Rating: N/A (no successful attempts)"
	if r.OverallAvgMs != nil {
		overall = fmt.Sprintf("Overall Speed Rating: %s (%.1f ms avg)", r.OverallRating, *r.OverallAvgMs)
	}
	fmt.Fprintln(o.w, o.paint(ratingColors(r.OverallRating), overall))
	fmt.Fprintln(o.w)

	o.printTable(r)
	o.printErrors(r)

	fmt.Fprintln(o.w, o.paint(text.Colors{text.FgHiBlue}, strings.Repeat("═", boxWidth+2)))
	fmt.Fprintf(o.w, "Finished in %s\n", r.Elapsed.Round(time.Millisecond))
}

func (o *Output) printTable(r *types.RunReport) {
	tw := table.NewWriter()
	tw.SetOutputMirror(o.w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Method", "Success", "Avg (ms)", "Min (ms)", "Max (ms)", "P95 (ms)", "Rating"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	for _, m := range r.Methods {
		success := o.paint(successRateColors(m.SuccessRate),
			fmt.Sprintf("%.1f%% (%d/%d)", m.SuccessRate, m.Successes, m.Attempts))
		rating := o.paint(ratingColors(m.Rating), m.Rating.String())

		avg, minMs, maxMs, p95 := "N/A", "N/A", "N/A", "N/A"
		if l := m.Latency; l != nil {
			avg = o.paint(text.Colors{text.FgCyan}, formatMs(l.AvgMs))
			minMs = o.paint(text.Colors{text.FgGreen}, formatMs(l.MinMs))
			maxMs = o.paint(text.Colors{text.FgYellow}, formatMs(l.MaxMs))
			p95 = formatMs(l.P95Ms)
		}

		tw.AppendRow(table.Row{m.Method.String(), success, avg, minMs, maxMs, p95, rating})
	}
	tw.Render()
	fmt.Fprintln(o.w)
}

func (o *Output) printErrors(r *types.RunReport) {
	var lines []string
	for _, m := range r.Methods {
		for _, e := range m.Errors {
			line := fmt.Sprintf("  %s %s: %s", o.paint(text.Colors{text.FgRed}, "Error"), m.Method, e.Message)
			if e.Count > 1 {
				line += fmt.Sprintf(" (x%d)", e.Count)
			}
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return
	}

	fmt.Fprintln(o.w, "Errors:")
	for _, line := range lines {
		fmt.Fprintln(o.w, line)
	}
	fmt.Fprintln(o.w)
}

func formatMs(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// successRateColors 100% 亮绿，>=80% 绿，>=50% 黄，其余红
func successRateColors(rate float64) text.Colors {
	switch {
	case rate >= 100:
		return text.Colors{text.FgHiGreen}
	case rate >= 80:
		return text.Colors{text.FgGreen}
	case rate >= 50:
		return text.Colors{text.FgYellow}
	default:
		return text.Colors{text.FgRed}
	}
}

func ratingColors(r types.Rating) text.Colors {
	switch r {
	case types.RatingExcellent:
		return text.Colors{text.FgHiGreen}
	case types.RatingGood:
		return text.Colors{text.FgGreen}
	case types.RatingAverage, types.RatingSlow:
		return text.Colors{text.FgYellow}
	case types.RatingVerySlow:
		return text.Colors{text.FgRed}
	default:
		return text.Colors{text.Faint}
	}
}

func joinMethods() string {
	methods := types.AllMethods()
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.String()
	}
	return strings.Join(names, ", ")
}
