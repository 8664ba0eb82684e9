package types

import "time"

// ExecutionMode selects how the attempts of a single method are issued.
type ExecutionMode string

const (
	// ExecutionModeSequential issues attempts one after another.
	ExecutionModeSequential ExecutionMode = "sequential"
	// ExecutionModeParallel issues all attempts of a method concurrently.
	ExecutionModeParallel ExecutionMode = "parallel"
)

// String 返回模式名称。
func (m ExecutionMode) String() string {
	return string(m)
}

// IsValid 检查模式是否为已知值。
func (m ExecutionMode) IsValid() bool {
	return m == ExecutionModeSequential || m == ExecutionModeParallel
}

// EndpointConfig is the read-only input of a benchmark run.
type EndpointConfig struct {
	URL        string
	Iterations int
	Mode       ExecutionMode
	Progress   bool
	Timeout    time.Duration
	Delay      time.Duration
	Headers    map[string]string
}
