package types

import "time"

// ErrorKind classifies why an attempt failed.
type ErrorKind string

const (
	// ErrorKindNone is used for successful attempts.
	ErrorKindNone ErrorKind = ""
	// ErrorKindTransport covers connection, DNS and other network failures.
	ErrorKindTransport ErrorKind = "transport"
	// ErrorKindTimeout means the per-attempt ceiling was exceeded.
	ErrorKindTimeout ErrorKind = "timeout"
	// ErrorKindHTTP means a non-2xx HTTP status.
	ErrorKindHTTP ErrorKind = "http"
	// ErrorKindInvalidResponse means the body was not a JSON-RPC response.
	ErrorKindInvalidResponse ErrorKind = "invalid_response"
	// ErrorKindRPC means the response carried a JSON-RPC error object.
	ErrorKindRPC ErrorKind = "rpc"
)

// AttemptResult is the outcome of one RPC call. It is never mutated after creation.
type AttemptResult struct {
	Method  Method
	Latency time.Duration
	Success bool
	Error   string
	Kind    ErrorKind
}

// NewSuccessResult 创建成功的尝试结果。
func NewSuccessResult(method Method, latency time.Duration) AttemptResult {
	return AttemptResult{
		Method:  method,
		Latency: latency,
		Success: true,
	}
}

// NewFailedResult 创建失败的尝试结果。
func NewFailedResult(method Method, latency time.Duration, kind ErrorKind, message string) AttemptResult {
	return AttemptResult{
		Method:  method,
		Latency: latency,
		Kind:    kind,
		Error:   message,
	}
}

// LatencyMs 返回以毫秒表示的耗时（浮点）。
func (r AttemptResult) LatencyMs() float64 {
	return float64(r.Latency) / float64(time.Millisecond)
}
