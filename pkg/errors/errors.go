// Package errors provides the structured error taxonomy used throughout the
// nntp client library.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Kind represents the category of error that occurred.
type Kind string

const (
	// KindDNS represents DNS resolution errors.
	KindDNS Kind = "dns"
	// KindConnection represents TCP connection errors.
	KindConnection Kind = "connection"
	// KindTLS represents TLS handshake errors.
	KindTLS Kind = "tls"
	// KindTimeout represents timeout errors.
	KindTimeout Kind = "timeout"
	// KindIO represents I/O errors on an established connection.
	KindIO Kind = "io"
	// KindInvalidResponse represents a malformed or unparseable server response.
	KindInvalidResponse Kind = "invalid_response"
	// KindProtocol represents a recognized status code inappropriate for the
	// requested operation, with no more specific kind available.
	KindProtocol Kind = "protocol"
	// KindNoSuchGroup represents a 411 response.
	KindNoSuchGroup Kind = "no_such_group"
	// KindNoSuchArticle represents a 423/430 response, or NEXT/LAST run off
	// the end of the group.
	KindNoSuchArticle Kind = "no_such_article"
	// KindNoGroupSelected represents a 412 response.
	KindNoGroupSelected Kind = "no_group_selected"
	// KindInvalidArticleNumber represents a 420 response (no current article).
	KindInvalidArticleNumber Kind = "invalid_article_number"
	// KindAuthFailed represents a 481 response.
	KindAuthFailed Kind = "auth_failed"
	// KindAuthRequired represents a 480 response.
	KindAuthRequired Kind = "auth_required"
	// KindAuthOutOfSequence represents a 482 response.
	KindAuthOutOfSequence Kind = "auth_out_of_sequence"
	// KindEncryptionRequired represents a 483 response.
	KindEncryptionRequired Kind = "encryption_required"
	// KindConnectionClosed represents use of a connection after Quit or a
	// prior transport failure.
	KindConnectionClosed Kind = "connection_closed"
	// KindClientError represents caller-side misuse (bad arguments, builder
	// validation failures, calling an operation in the wrong state).
	KindClientError Kind = "client_error"
	// KindValidation represents a configuration validation failure.
	KindValidation Kind = "validation"
	// KindProxy represents an upstream proxy-hop failure.
	KindProxy Kind = "proxy"
	// KindCompression represents a compression negotiation or decode failure.
	KindCompression Kind = "compression"
)

// Error is a structured error carrying the failure kind plus enough context
// to let callers branch on it without string matching.
type Error struct {
	Kind      Kind
	Op        string
	Message   string
	Cause     error
	Code      int    // server status code, when applicable (0 if none)
	Target    string // group name, article id/number, or host:port
	Timestamp time.Time
}

func (e *Error) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", e.Kind))
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Target != "" {
		parts = append(parts, e.Target)
	}
	out := strings.Join(parts, " ")
	if e.Message != "" {
		out += ": " + e.Message
	}
	if e.Cause != nil {
		out += ": " + e.Cause.Error()
	}
	return out
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause, Timestamp: time.Now()}
}

// NewDNSError builds a DNS resolution error for host.
func NewDNSError(host string, cause error) *Error {
	e := newErr(KindDNS, "lookup", fmt.Sprintf("DNS lookup failed for %s", host), cause)
	e.Target = host
	return e
}

// NewConnectionError builds a TCP dial error for host:port.
func NewConnectionError(host string, port int, cause error) *Error {
	e := newErr(KindConnection, "dial", fmt.Sprintf("failed to connect to %s:%d", host, port), cause)
	e.Target = fmt.Sprintf("%s:%d", host, port)
	return e
}

// NewTLSError builds a TLS handshake error for host:port.
func NewTLSError(host string, port int, cause error) *Error {
	e := newErr(KindTLS, "handshake", fmt.Sprintf("TLS handshake failed for %s:%d", host, port), cause)
	e.Target = fmt.Sprintf("%s:%d", host, port)
	return e
}

// NewTimeoutError builds a timeout error for the named operation.
func NewTimeoutError(op string, timeout time.Duration) *Error {
	return newErr(KindTimeout, op, fmt.Sprintf("operation timed out after %v", timeout), nil)
}

// NewIOError builds an I/O error during the named operation.
func NewIOError(op string, cause error) *Error {
	return newErr(KindIO, op, fmt.Sprintf("I/O error during %s", op), cause)
}

// NewInvalidResponse builds a framing/parsing error.
func NewInvalidResponse(op, message string) *Error {
	return newErr(KindInvalidResponse, op, message, nil)
}

// NewProtocolError builds an error for a recognized-but-inappropriate status code.
func NewProtocolError(code int, message string) *Error {
	e := newErr(KindProtocol, "command", message, nil)
	e.Code = code
	return e
}

// NewNoSuchGroup builds a 411 error.
func NewNoSuchGroup(name string) *Error {
	e := newErr(KindNoSuchGroup, "group", fmt.Sprintf("no such group: %s", name), nil)
	e.Target = name
	e.Code = 411
	return e
}

// NewNoSuchArticle builds an article-not-found error, carrying either a
// message-id or an article number as Target, plus an operation-specific
// reason (e.g. "no next article").
func NewNoSuchArticle(idOrNumber, reason string) *Error {
	e := newErr(KindNoSuchArticle, "article", reason, nil)
	e.Target = idOrNumber
	return e
}

// NewNoGroupSelected builds a 412 error.
func NewNoGroupSelected() *Error {
	e := newErr(KindNoGroupSelected, "group", "no newsgroup selected", nil)
	e.Code = 412
	return e
}

// NewInvalidArticleNumber builds a 420 error (no current article).
func NewInvalidArticleNumber() *Error {
	e := newErr(KindInvalidArticleNumber, "article", "no current article selected", nil)
	e.Code = 420
	return e
}

// NewAuthFailed builds a 481 error.
func NewAuthFailed(reason string) *Error {
	e := newErr(KindAuthFailed, "authinfo", reason, nil)
	e.Code = 481
	return e
}

// NewAuthRequired builds a 480 error.
func NewAuthRequired() *Error {
	e := newErr(KindAuthRequired, "command", "authentication required", nil)
	e.Code = 480
	return e
}

// NewAuthOutOfSequence builds a 482 error.
func NewAuthOutOfSequence() *Error {
	e := newErr(KindAuthOutOfSequence, "authinfo", "authentication command issued out of sequence", nil)
	e.Code = 482
	return e
}

// NewEncryptionRequired builds a 483 error.
func NewEncryptionRequired() *Error {
	e := newErr(KindEncryptionRequired, "command", "TLS required before this command", nil)
	e.Code = 483
	return e
}

// NewConnectionClosed builds an error for use of a closed connection.
func NewConnectionClosed(op string) *Error {
	return newErr(KindConnectionClosed, op, "connection is closed", nil)
}

// NewClientError builds a caller-side misuse error.
func NewClientError(message string) *Error {
	return newErr(KindClientError, "validate", message, nil)
}

// NewValidationError builds a configuration validation error.
func NewValidationError(message string) *Error {
	return newErr(KindValidation, "validate", message, nil)
}

// NewProxyError builds an upstream proxy-hop error.
func NewProxyError(proxyType, addr, op string, cause error) *Error {
	e := newErr(KindProxy, op, fmt.Sprintf("%s proxy via %s failed during %s", proxyType, addr, op), cause)
	e.Target = addr
	return e
}

// NewCompressionError builds a compression negotiation/decode error.
func NewCompressionError(op string, cause error) *Error {
	return newErr(KindCompression, op, "compression error", cause)
}

// IsTimeout reports whether err is, wraps, or was caused by a timeout.
func IsTimeout(err error) bool {
	var e *Error
	if stderrors.As(err, &e) && e.Kind == KindTimeout {
		return true
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return stderrors.Is(err, context.DeadlineExceeded)
}

// IsContextCanceled reports whether err is, or wraps, context.Canceled.
func IsContextCanceled(err error) bool {
	return stderrors.Is(err, context.Canceled)
}

// KindOf returns the Kind of err if it is, or wraps, a structured *Error,
// else the empty Kind.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}
