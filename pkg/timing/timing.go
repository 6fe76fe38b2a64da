// Package timing measures how long the phases of establishing an nntp
// session take: TCP connect, optional TLS handshake, and the wait for the
// server's greeting line.
package timing

import (
	"fmt"
	"time"
)

// Metrics captures how long each phase of Client.Connect took.
type Metrics struct {
	TCPConnect   time.Duration
	TLSHandshake time.Duration
	Greeting     time.Duration
	Total        time.Duration
}

// Timer accumulates phase boundaries for a single connection attempt.
type Timer struct {
	start        time.Time
	tcpStart     time.Time
	tcpEnd       time.Time
	tlsStart     time.Time
	tlsEnd       time.Time
	greetStart   time.Time
	greetEnd     time.Time
}

// NewTimer starts a new connection timing session.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// StartTCP marks the beginning of the TCP dial.
func (t *Timer) StartTCP() { t.tcpStart = time.Now() }

// EndTCP marks the end of the TCP dial.
func (t *Timer) EndTCP() { t.tcpEnd = time.Now() }

// StartTLS marks the beginning of the TLS handshake.
func (t *Timer) StartTLS() { t.tlsStart = time.Now() }

// EndTLS marks the end of the TLS handshake.
func (t *Timer) EndTLS() { t.tlsEnd = time.Now() }

// StartGreeting marks the moment the client starts waiting for the
// server's greeting line.
func (t *Timer) StartGreeting() { t.greetStart = time.Now() }

// EndGreeting marks when the greeting line was fully read.
func (t *Timer) EndGreeting() { t.greetEnd = time.Now() }

// Metrics returns the elapsed durations recorded so far.
func (t *Timer) Metrics() Metrics {
	m := Metrics{Total: time.Since(t.start)}
	if !t.tcpStart.IsZero() && !t.tcpEnd.IsZero() {
		m.TCPConnect = t.tcpEnd.Sub(t.tcpStart)
	}
	if !t.tlsStart.IsZero() && !t.tlsEnd.IsZero() {
		m.TLSHandshake = t.tlsEnd.Sub(t.tlsStart)
	}
	if !t.greetStart.IsZero() && !t.greetEnd.IsZero() {
		m.Greeting = t.greetEnd.Sub(t.greetStart)
	}
	return m
}

// String renders the metrics for logging.
func (m Metrics) String() string {
	return fmt.Sprintf("tcp=%v tls=%v greeting=%v total=%v",
		m.TCPConnect, m.TLSHandshake, m.Greeting, m.Total)
}
