// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-udp.

package api

import "errors"

// Common errors used across the library.
var (
	ErrTransportClosed     = errors.New("transport is closed")
	ErrAlreadyBound        = errors.New("transport is already bound")
	ErrNotBound            = errors.New("transport is not bound")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotSupported        = errors.New("operation not supported")
	ErrTooManyInterceptors = errors.New("too many interceptors")
)

// ErrorCode classifies failures reported by the transport layer.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	// ErrCodeResource covers socket creation, bind, option-set and group-join failures.
	ErrCodeResource
	// ErrCodeIO is a hard I/O failure while polling.
	ErrCodeIO
	ErrCodeInvalidArgument
	ErrCodeNotSupported
	ErrCodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeResource:
		return "resource"
	case ErrCodeIO:
		return "io"
	case ErrCodeInvalidArgument:
		return "invalid-argument"
	case ErrCodeNotSupported:
		return "not-supported"
	default:
		return "internal"
	}
}

// Coded is implemented by errors that carry an ErrorCode.
type Coded interface {
	error
	Code() ErrorCode
}

// CodeOf returns the ErrorCode carried by err, ErrCodeOK for nil and
// ErrCodeInternal when err carries no code.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var c Coded
	if errors.As(err, &c) {
		return c.Code()
	}
	switch {
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrTooManyInterceptors):
		return ErrCodeInvalidArgument
	case errors.Is(err, ErrNotSupported):
		return ErrCodeNotSupported
	}
	return ErrCodeInternal
}
