package rpc

import (
	"errors"
	"fmt"

	"yqhp/rpc-checker/pkg/types"
)

// ErrorCode represents the type of invocation error.
type ErrorCode string

const (
	// ErrCodeTransport indicates a network level failure.
	ErrCodeTransport ErrorCode = "TRANSPORT_ERROR"
	// ErrCodeTimeout indicates the request ceiling was exceeded.
	ErrCodeTimeout ErrorCode = "TIMEOUT_ERROR"
	// ErrCodeHTTPStatus indicates a non-2xx HTTP response.
	ErrCodeHTTPStatus ErrorCode = "HTTP_STATUS_ERROR"
	// ErrCodeInvalidResponse indicates a body that is not a JSON-RPC response.
	ErrCodeInvalidResponse ErrorCode = "INVALID_RESPONSE"
	// ErrCodeRPC indicates a JSON-RPC error object in the response.
	ErrCodeRPC ErrorCode = "RPC_ERROR"
)

// Error represents a failed JSON-RPC invocation.
type Error struct {
	Code    ErrorCode
	Message string
	// RPCCode is the JSON-RPC error code, only set for ErrCodeRPC.
	RPCCode int64
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Kind maps the error code onto the attempt error kind.
func (e *Error) Kind() types.ErrorKind {
	switch e.Code {
	case ErrCodeTimeout:
		return types.ErrorKindTimeout
	case ErrCodeHTTPStatus:
		return types.ErrorKindHTTP
	case ErrCodeInvalidResponse:
		return types.ErrorKindInvalidResponse
	case ErrCodeRPC:
		return types.ErrorKindRPC
	default:
		return types.ErrorKindTransport
	}
}

// Describe returns the user facing message recorded in an attempt result.
func (e *Error) Describe() string {
	switch e.Code {
	case ErrCodeTransport:
		if e.Cause != nil {
			return e.Cause.Error()
		}
	case ErrCodeInvalidResponse:
		if e.Message == "" {
			return "invalid response"
		}
	}
	return e.Message
}

// NewTransportError creates an error for network failures.
func NewTransportError(cause error) *Error {
	return &Error{
		Code:    ErrCodeTransport,
		Message: "request failed",
		Cause:   cause,
	}
}

// NewTimeoutError creates an error for an exceeded request ceiling.
func NewTimeoutError(timeout fmt.Stringer, cause error) *Error {
	return &Error{
		Code:    ErrCodeTimeout,
		Message: fmt.Sprintf("request timed out after %s", timeout),
		Cause:   cause,
	}
}

// NewHTTPStatusError creates an error for a non-2xx status.
func NewHTTPStatusError(status int, statusText string) *Error {
	msg := fmt.Sprintf("unexpected HTTP status %d", status)
	if statusText != "" {
		msg = fmt.Sprintf("%s %s", msg, statusText)
	}
	return &Error{
		Code:    ErrCodeHTTPStatus,
		Message: msg,
	}
}

// NewInvalidResponseError creates an error for an undecodable body.
func NewInvalidResponseError(detail string, cause error) *Error {
	msg := "invalid response"
	if detail != "" {
		msg = "invalid response: " + detail
	}
	return &Error{
		Code:    ErrCodeInvalidResponse,
		Message: msg,
		Cause:   cause,
	}
}

// NewRPCError creates an error from a JSON-RPC error object.
func NewRPCError(code int64, message string) *Error {
	if message == "" {
		message = fmt.Sprintf("rpc error code %d", code)
	}
	return &Error{
		Code:    ErrCodeRPC,
		Message: message,
		RPCCode: code,
	}
}

// IsTimeoutError checks if the error is a timeout error.
func IsTimeoutError(err error) bool {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr.Code == ErrCodeTimeout
	}
	return false
}

// IsRPCError checks if the error came from a JSON-RPC error object.
func IsRPCError(err error) bool {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr.Code == ErrCodeRPC
	}
	return false
}
