package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorKind string

const (
	// ErrKindAuthExpired marks a 401 that could not be resolved by credential
	// refresh within the attempt budget.
	ErrKindAuthExpired ErrorKind = "auth_expired"
	// ErrKindServer marks any terminal non-2xx response.
	ErrKindServer ErrorKind = "server"
	// ErrKindNetwork marks connect/read failures, including per-attempt
	// timeouts. Retryable until the attempt budget runs out.
	ErrKindNetwork ErrorKind = "network"
	// ErrKindParse marks a response body that does not match the backend's
	// expected shape.
	ErrKindParse ErrorKind = "parse"
	// ErrKindCanceled marks caller-driven cancellation.
	ErrKindCanceled ErrorKind = "canceled"
)

// Error is the typed error surfaced for failed invocations.
//
// 设计用于企业级处理：稳定的分类、原始响应体、可重试提示。
type Error struct {
	Endpoint string
	Kind     ErrorKind

	// HTTPStatus is 0 when the request failed before receiving a response.
	HTTPStatus int

	Message string

	// Raw is a truncated copy of the response body, when one was received.
	Raw []byte

	// Retryable reports whether the controller considered this failure
	// eligible for another attempt. A Retryable error that escapes to the
	// caller means the attempt budget was exhausted.
	Retryable bool

	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("llm")
	if strings.TrimSpace(e.Endpoint) != "" {
		b.WriteString(" ")
		b.WriteString(strings.TrimSpace(e.Endpoint))
	}
	b.WriteString(": ")
	if e.HTTPStatus != 0 {
		b.WriteString(fmt.Sprintf("http %d", e.HTTPStatus))
		if t := strings.TrimSpace(http.StatusText(e.HTTPStatus)); t != "" {
			b.WriteString(" ")
			b.WriteString(t)
		}
		b.WriteString(": ")
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = string(e.Kind)
	}
	b.WriteString(msg)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// AsError extracts *Error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsAuthExpired 判断是否为认证过期错误
func IsAuthExpired(err error) bool {
	e, ok := AsError(err)
	return ok && (e.Kind == ErrKindAuthExpired || e.HTTPStatus == http.StatusUnauthorized)
}

// IsServerError 判断是否为服务端错误
func IsServerError(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind == ErrKindServer
}

// IsTransient 判断是否为临时错误（可重试）
func IsTransient(err error) bool {
	e, ok := AsError(err)
	return ok && e.Retryable
}
