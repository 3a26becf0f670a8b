package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNotConfigured is returned when no provider is selected.
var ErrNotConfigured = errors.New("no LLM provider configured")

// Kind classifies a provider failure.
type Kind int

const (
	KindUnavailable Kind = iota
	KindRateLimited
	KindInvalid
	KindTruncated
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate limited"
	case KindInvalid:
		return "invalid response"
	case KindTruncated:
		return "response truncated"
	case KindRejected:
		return "request rejected"
	default:
		return "provider unavailable"
	}
}

// Error is the one error type providers return.
type Error struct {
	Kind       Kind
	Provider   string
	RetryAfter time.Duration
	// Content is the raw output for KindInvalid and KindTruncated.
	Content json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Code is the stored form of a failure: a Kind code for classified errors,
// "canceled" or "timeout" for context errors and "error" otherwise.
func Code(err error) string {
	var e *Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &e):
		return kindCodes[e.Kind]
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "error"
}

var kindCodes = map[Kind]string{
	KindUnavailable: "unavailable",
	KindRateLimited: "rate_limited",
	KindInvalid:     "invalid",
	KindTruncated:   "truncated",
	KindRejected:    "rejected",
}

// Retryable reports whether the same request may succeed later. Invalid
// output is retryable too, but the retry layer caps it at one extra try.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindUnavailable, KindRateLimited, KindInvalid:
		return true
	}
	return false
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func invalid(provider string, content json.RawMessage, err error) error {
	return &Error{Kind: KindInvalid, Provider: provider, Content: content, Err: err}
}

// fromStatus classifies a vendor SDK error by its HTTP status. A zero
// status means the SDK never got a response.
func fromStatus(provider string, status int, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	e := &Error{Provider: provider, Err: err}
	switch {
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
	case status >= 400 && status < 500:
		e.Kind = KindRejected
	default:
		e.Kind = KindUnavailable
	}
	return e
}
