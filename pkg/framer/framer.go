// Package framer implements the NNTP line protocol on top of a byte stream:
// CRLF-terminated command lines, three-digit status lines, dot-stuffed
// multi-line bodies, and the two compression extensions (COMPRESS DEFLATE
// for the whole session, XFEATURE COMPRESS GZIP per multi-line response).
package framer

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/jvz-devx/nntp-rs-sub002/pkg/config"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/errors"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/response"
)

const crlf = "\r\n"

// Framer reads and writes NNTP protocol frames over a net.Conn. It is not
// safe for concurrent use by multiple goroutines; pkg/client serializes all
// access to a single connection, matching the RFC 3977 request/response
// discipline (pipelined requests are still read back in FIFO order).
type Framer struct {
	conn   net.Conn
	r      *bufio.Reader
	w      io.Writer
	closer io.Closer

	bytesRead    atomic.Int64
	bytesWritten atomic.Int64

	compressed bool // full-session DEFLATE is active
}

// New wraps conn in a Framer.
func New(conn net.Conn) *Framer {
	return &Framer{
		conn:   conn,
		r:      bufio.NewReaderSize(conn, 4096),
		w:      conn,
		closer: conn,
	}
}

// WriteLine writes a single CRLF-terminated command line, enforcing the
// RFC 3977 512-octet line length limit (including the terminating CRLF).
func (f *Framer) WriteLine(line string) error {
	if len(line)+2 > config.MaxCommandLineLength {
		return errors.NewClientError(fmt.Sprintf("command line exceeds %d octets: %q", config.MaxCommandLineLength, line))
	}
	n, err := io.WriteString(f.w, line+crlf)
	f.bytesWritten.Add(int64(n))
	if err != nil {
		return errors.NewIOError("write", err)
	}
	return nil
}

// WriteRaw writes p verbatim, used for posting article bodies that are
// already dot-stuffed and CRLF-terminated.
func (f *Framer) WriteRaw(p []byte) error {
	n, err := f.w.Write(p)
	f.bytesWritten.Add(int64(n))
	if err != nil {
		return errors.NewIOError("write", err)
	}
	return nil
}

func (f *Framer) readLine() (string, error) {
	line, err := f.r.ReadString('\n')
	f.bytesRead.Add(int64(len(line)))
	if err != nil {
		if line == "" {
			return "", errors.NewIOError("read", err)
		}
		// fall through: return what we have, caller will likely fail to
		// parse a truncated line and report it as invalid.
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadStatus reads a single status line ("CODE message") with no body.
func (f *Framer) ReadStatus() (response.Response, error) {
	line, err := f.readLine()
	if err != nil {
		return response.Response{}, err
	}
	return parseStatusLine(line)
}

// ReadMultiline reads a status line followed by a dot-terminated multi-line
// body, applying RFC 3977 section 3.1.1 dot-unstuffing (a leading ".." on a
// body line becomes a single leading "."). If the status line itself
// indicates failure, the body is not read.
func (f *Framer) ReadMultiline() (response.Response, error) {
	resp, err := f.ReadStatus()
	if err != nil {
		return resp, err
	}
	if !resp.IsSuccess() && !resp.IsInformational() {
		return resp, nil
	}
	lines, err := f.readDotTerminatedLines()
	if err != nil {
		return resp, err
	}
	resp.Lines = lines
	return resp, nil
}

func (f *Framer) readDotTerminatedLines() ([]string, error) {
	var lines []string
	for {
		line, err := f.readLine()
		if err != nil {
			return nil, err
		}
		if line == "." {
			return lines, nil
		}
		if strings.HasPrefix(line, "..") {
			line = line[1:]
		}
		lines = append(lines, line)
	}
}

// readRawDotTerminatedLines is readDotTerminatedLines without dot-unstuffing,
// for bodies that are themselves binary (e.g. a gzip stream): unstuffing is
// only meaningful once such a body has been decoded back to text, which
// DecodeGzipBody does itself after inflating.
func (f *Framer) readRawDotTerminatedLines() ([]string, error) {
	var lines []string
	for {
		line, err := f.readLine()
		if err != nil {
			return nil, err
		}
		if line == "." {
			return lines, nil
		}
		lines = append(lines, line)
	}
}

// ReadMultilineGzip reads a status line followed by a dot-terminated body
// that is itself a single gzip stream (XFEATURE COMPRESS GZIP), inflating
// it before dot-unstuffing and line-splitting. Per spec.md §4.2 the status
// line is always plain; only the body is compressed.
func (f *Framer) ReadMultilineGzip() (response.Response, error) {
	resp, err := f.ReadStatus()
	if err != nil {
		return resp, err
	}
	if !resp.IsSuccess() && !resp.IsInformational() {
		return resp, nil
	}
	rawLines, err := f.readRawDotTerminatedLines()
	if err != nil {
		return resp, err
	}
	lines, err := DecodeGzipBody([]byte(strings.Join(rawLines, "\r\n")))
	if err != nil {
		return resp, err
	}
	resp.Lines = lines
	return resp, nil
}

// ReadBinaryMultiline is identical to ReadMultiline but also returns the
// body as bytes: the dot-unstuffed lines joined with CRLF (no CRLF after the
// last line), the form pkg/yenc's Decode accepts.
func (f *Framer) ReadBinaryMultiline() (response.Response, []byte, error) {
	resp, err := f.ReadStatus()
	if err != nil {
		return resp, nil, err
	}
	if !resp.IsSuccess() && !resp.IsInformational() {
		return resp, nil, nil
	}
	lines, err := f.readDotTerminatedLines()
	if err != nil {
		return resp, nil, err
	}
	resp.Lines = lines
	return resp, []byte(strings.Join(lines, "\r\n")), nil
}

func parseStatusLine(line string) (response.Response, error) {
	if len(line) < 3 {
		return response.Response{}, errors.NewInvalidResponse("parse_status", "status line too short: "+strconv.Quote(line))
	}
	codeStr := line[:3]
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return response.Response{}, errors.NewInvalidResponse("parse_status", "non-numeric status code: "+strconv.Quote(line))
	}
	msg := ""
	if len(line) > 3 {
		msg = strings.TrimPrefix(line[3:], " ")
	}
	if code < 100 || code >= 600 {
		return response.Response{}, errors.NewInvalidResponse("parse_status", "status code out of range: "+strconv.Itoa(code))
	}
	return response.Response{Code: code, Message: msg}, nil
}

// BytesRead returns the cumulative number of bytes of line data the framer
// has read. After EnableDeflate these are decompressed bytes; the compressed
// byte count on the wire is not tracked.
func (f *Framer) BytesRead() int64 { return f.bytesRead.Load() }

// BytesWritten returns the cumulative number of bytes written to the
// underlying connection, pre-compression.
func (f *Framer) BytesWritten() int64 { return f.bytesWritten.Load() }

// Close closes the underlying connection.
func (f *Framer) Close() error {
	return f.closer.Close()
}

// Conn returns the underlying net.Conn, e.g. for TLS state inspection.
func (f *Framer) Conn() net.Conn { return f.conn }

// EnableDeflate switches the Framer to a DEFLATE-compressed byte stream for
// the remainder of the session, matching COMPRESS DEFLATE semantics
// (RFC-draft nntp-compress): every byte exchanged after the server's 206
// reply to COMPRESS DEFLATE is raw zlib-less deflate, flushed per message.
// It must be called immediately after reading that 206, before any further
// protocol traffic.
func (f *Framer) EnableDeflate() error {
	if f.compressed {
		return nil
	}
	fr := flate.NewReader(f.conn)
	fw, err := flate.NewWriter(f.conn, flate.DefaultCompression)
	if err != nil {
		return errors.NewCompressionError("enable_deflate", err)
	}
	f.r = bufio.NewReaderSize(fr, 4096)
	f.w = &flushWriter{w: fw}
	f.compressed = true
	return nil
}

// Compressed reports whether full-session DEFLATE is active.
func (f *Framer) Compressed() bool { return f.compressed }

// flushWriter flushes the flate.Writer after every Write so each command
// line reaches the peer immediately instead of sitting in the deflate
// window, matching the request/response cadence of the protocol.
type flushWriter struct {
	w *flate.Writer
}

func (fw *flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if err != nil {
		return n, err
	}
	if err := fw.w.Flush(); err != nil {
		return n, err
	}
	return n, nil
}

// DecodeGzipBody inflates a per-response XFEATURE COMPRESS GZIP body: the
// status line is always sent uncompressed, then the dot-terminated body is
// itself a gzip stream. Callers pass the raw joined body bytes (before
// dot-unstuffing is meaningful, since gzip output is binary) and get back
// the unstuffed plaintext lines.
func DecodeGzipBody(compressed []byte) ([]string, error) {
	zr, err := gzip.NewReader(strings.NewReader(string(compressed)))
	if err != nil {
		return nil, errors.NewCompressionError("gzip_decode", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.NewCompressionError("gzip_decode", err)
	}
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.HasPrefix(l, "..") {
			l = l[1:]
		}
		out = append(out, l)
	}
	return out, nil
}
