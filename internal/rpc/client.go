// Package rpc implements the JSON-RPC 2.0 invoker used to time node methods.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ohler55/ojg/jp"
	"github.com/valyala/fasthttp"

	"yqhp/rpc-checker/pkg/types"
)

const (
	// DefaultTimeout 单次请求的默认超时上限。
	DefaultTimeout = 15 * time.Second
	// DefaultMaxConns 到节点的默认最大连接数。
	DefaultMaxConns = 64

	jsonRPCVersion = "2.0"
	userAgent      = "rpc-checker"
)

var (
	errorPath   = jp.MustParseString("$.error")
	errCodePath = jp.MustParseString("$.error.code")
	errMsgPath  = jp.MustParseString("$.error.message")
	resultPath  = jp.MustParseString("$.result")

	// 整数按 int64 解码，slot 等大数不会丢精度
	decoder = sonic.Config{UseInt64: true}.Froze()
)

// Invoker sends a single JSON-RPC request and reports its outcome as data.
type Invoker interface {
	Invoke(ctx context.Context, req Request) types.AttemptResult
}

// ResultCheck validates a decoded "result" value. A non-nil error turns an
// otherwise successful attempt into a failure.
type ResultCheck func(result any) error

// Request is one JSON-RPC call.
type Request struct {
	Method types.Method
	Params []any
	Check  ResultCheck
}

type envelope struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

// Client is a JSON-RPC client bound to one endpoint.
type Client struct {
	url      string
	timeout  time.Duration
	maxConns int
	headers  map[string]string
	client   *fasthttp.Client

	// 每个 Client 独立的请求 ID 计数器
	nextID atomic.Uint64
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request ceiling.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHeaders adds HTTP headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithMaxConns caps the number of connections to the endpoint.
// Attempts beyond the cap wait for a free connection inside the timed window,
// so parallel runs size it to the iteration count.
func WithMaxConns(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxConns = n
		}
	}
}

// NewClient creates a client for the given endpoint URL.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:      url,
		timeout:  DefaultTimeout,
		maxConns: DefaultMaxConns,
		headers:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client = &fasthttp.Client{
		Name:                userAgent,
		MaxConnsPerHost:     c.maxConns,
		MaxIdleConnDuration: 90 * time.Second,
		MaxConnWaitTimeout:  c.timeout,
		ReadTimeout:         c.timeout,
		WriteTimeout:        c.timeout,
	}
	return c
}

// Invoke sends the request and measures the wall-clock time from just before
// sending until the response body has been fully read. It never returns an
// error: every failure is captured in the attempt result.
func (c *Client) Invoke(ctx context.Context, req Request) types.AttemptResult {
	result, elapsed, err := c.do(ctx, string(req.Method), req.Params)
	if err == nil && req.Check != nil {
		if checkErr := req.Check(result); checkErr != nil {
			err = &Error{Code: ErrCodeInvalidResponse, Message: checkErr.Error(), Cause: checkErr}
		}
	}
	if err != nil {
		return types.NewFailedResult(req.Method, elapsed, err.Kind(), err.Describe())
	}
	return types.NewSuccessResult(req.Method, elapsed)
}

// Call sends a request and returns the decoded "result" member.
func (c *Client) Call(ctx context.Context, method string, params ...any) (any, error) {
	result, _, err := c.do(ctx, method, params)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// LatestSlot returns the slot reported by getSlot.
func (c *Client) LatestSlot(ctx context.Context) (uint64, error) {
	result, err := c.Call(ctx, types.MethodGetSlot.String())
	if err != nil {
		return 0, err
	}
	switch v := result.(type) {
	case int64:
		if v < 0 {
			return 0, NewInvalidResponseError(fmt.Sprintf("negative slot %d", v), nil)
		}
		return uint64(v), nil
	case uint64:
		return v, nil
	case float64:
		if v < 0 {
			return 0, NewInvalidResponseError(fmt.Sprintf("negative slot %v", v), nil)
		}
		return uint64(v), nil
	default:
		return 0, NewInvalidResponseError(fmt.Sprintf("slot is %T", result), nil)
	}
}

// do 执行一次请求，返回解码后的 result、请求耗时与错误。
func (c *Client) do(ctx context.Context, method string, params []any) (any, time.Duration, *Error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, NewTransportError(err)
	}

	body, err := sonic.Marshal(envelope{
		JSONRPC: jsonRPCVersion,
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, 0, &Error{Code: ErrCodeTransport, Message: "encode request", Cause: err}
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	// fasthttp 不感知 ctx，取消时不等待在途请求，其结果被丢弃
	start := time.Now()
	done := make(chan exchange, 1)
	go func() {
		done <- c.roundTrip(body, deadline)
	}()

	var ex exchange
	select {
	case ex = <-done:
	case <-ctx.Done():
		return nil, time.Since(start), NewTransportError(ctx.Err())
	}

	if ex.err != nil {
		if errors.Is(ex.err, fasthttp.ErrTimeout) || errors.Is(ex.err, fasthttp.ErrDialTimeout) || time.Now().After(deadline) {
			return nil, ex.elapsed, NewTimeoutError(c.timeout, ex.err)
		}
		return nil, ex.elapsed, NewTransportError(ex.err)
	}

	if ex.status < 200 || ex.status > 299 {
		return nil, ex.elapsed, NewHTTPStatusError(ex.status, fasthttp.StatusMessage(ex.status))
	}

	result, rpcErr := decodeResponse(ex.body)
	return result, ex.elapsed, rpcErr
}

// exchange 是一次 HTTP 往返的结果。
type exchange struct {
	status  int
	body    []byte
	elapsed time.Duration
	err     error
}

// roundTrip 发送请求体并计时，直到响应体读完。
func (c *Client) roundTrip(body []byte, deadline time.Time) exchange {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.SetBodyRaw(body)

	start := time.Now()
	err := c.client.DoDeadline(req, resp, deadline)
	ex := exchange{elapsed: time.Since(start), err: err}
	if err != nil {
		return ex
	}

	ex.status = resp.StatusCode()
	// 响应对象会被回收，先复制 body
	ex.body = append([]byte(nil), resp.Body()...)
	return ex
}

// decodeResponse 解析 JSON-RPC 响应体。
func decodeResponse(body []byte) (any, *Error) {
	if len(body) == 0 {
		return nil, NewInvalidResponseError("empty body", nil)
	}

	var doc any
	if err := decoder.Unmarshal(body, &doc); err != nil {
		return nil, NewInvalidResponseError("", err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, NewInvalidResponseError("not a JSON object", nil)
	}

	if errs := errorPath.Get(obj); len(errs) > 0 && errs[0] != nil {
		var (
			code    int64
			message string
		)
		if codes := errCodePath.Get(obj); len(codes) > 0 {
			code = toInt64(codes[0])
		}
		if msgs := errMsgPath.Get(obj); len(msgs) > 0 {
			message, _ = msgs[0].(string)
		}
		return nil, NewRPCError(code, message)
	}

	if results := resultPath.Get(obj); len(results) > 0 {
		return results[0], nil
	}
	return nil, nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	case uint64:
		return int64(n)
	case int:
		return int64(n)
	default:
		return 0
	}
}
