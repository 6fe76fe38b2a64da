// Package response defines the parsed NNTP response record produced by
// pkg/framer and consumed by pkg/commands and pkg/client.
package response

import "github.com/jvz-devx/nntp-rs-sub002/pkg/codes"

// Response is a single parsed server reply: a three-digit status code, the
// remainder of the status line, and zero or more body lines for multi-line
// replies (dot-unstuffed, terminator already stripped).
type Response struct {
	Code    int
	Message string
	Lines   []string
}

// IsSuccess reports whether the response is in the 2xx class.
func (r Response) IsSuccess() bool { return codes.IsSuccess(r.Code) }

// IsContinuation reports whether the response is in the 3xx class (the
// server expects more input before the command completes).
func (r Response) IsContinuation() bool { return codes.IsContinuation(r.Code) }

// IsInformational reports whether the response is in the 1xx class.
func (r Response) IsInformational() bool { return codes.IsInformational(r.Code) }

// IsError reports whether the response is a 4xx or 5xx failure.
func (r Response) IsError() bool { return codes.IsError(r.Code) }
