// Package config defines the configuration records used to dial and pool
// nntp servers: per-server connection settings, retry/backoff policy, pool
// sizing, and multi-server group wiring.
package config

import (
	"time"

	"github.com/jvz-devx/nntp-rs-sub002/pkg/errors"
)

// Default timeouts and limits, mirroring the teacher's convention of a
// single const block of named magic numbers rather than scattered literals.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultCommandTimeout = 30 * time.Second
	DefaultIdleTimeout    = 5 * time.Minute

	DefaultMaxRetries       = 3
	DefaultInitialBackoff   = 200 * time.Millisecond
	DefaultMaxBackoff       = 10 * time.Second
	DefaultBackoffFactor    = 2.0
	DefaultJitterFraction   = 0.5 // +/- 50% jitter window

	DefaultPoolSize       = 4
	DefaultPoolAcquireWait = 30 * time.Second

	// MaxCommandLineLength is the RFC 3977 hard limit on a single command
	// line, CRLF included.
	MaxCommandLineLength = 512
)

// ProxyKind identifies the kind of upstream proxy used to reach the news
// server, mirroring the teacher's transport.ProxyConfig but scoped to the
// dialers this module actually keeps (HTTP CONNECT, SOCKS4, SOCKS5).
type ProxyKind string

const (
	ProxyNone   ProxyKind = ""
	ProxyHTTP   ProxyKind = "http"
	ProxySOCKS4 ProxyKind = "socks4"
	ProxySOCKS5 ProxyKind = "socks5"
)

// ProxyConfig describes an optional upstream proxy hop the transport should
// tunnel the NNTP TCP connection through before speaking NNTP.
type ProxyConfig struct {
	Kind     ProxyKind
	Host     string
	Port     int
	Username string
	Password string
}

// ServerConfig describes a single nntp server endpoint and how to
// authenticate to it. The zero value is invalid; use DefaultServerConfig or set
// Host/Port explicitly before calling Validate.
type ServerConfig struct {
	Host string
	Port int

	// UseTLS selects implicit TLS (the normal way modern NNTP providers run
	// port 563); STARTTLS-style explicit upgrade is out of scope (see
	// DESIGN.md).
	UseTLS bool
	// AllowInsecureTLS skips server certificate verification. Off by
	// default; only meant for talking to self-signed test servers.
	AllowInsecureTLS bool

	Username string
	Password string

	ConnectTimeout time.Duration
	CommandTimeout time.Duration

	Proxy *ProxyConfig

	// DisableCompression opts the connection out of COMPRESS DEFLATE /
	// XFEATURE COMPRESS GZIP negotiation entirely.
	DisableCompression bool
}

// DefaultServerConfig returns a ServerConfig with every optional field at
// its documented default, analogous to the teacher's
// transport.DefaultPoolConfig helper.
func DefaultServerConfig(host string, port int) ServerConfig {
	return ServerConfig{
		Host:           host,
		Port:           port,
		ConnectTimeout: DefaultConnectTimeout,
		CommandTimeout: DefaultCommandTimeout,
	}
}

// Validate checks the config for obviously invalid values and fills in any
// zero-valued optional fields with their defaults.
func (c *ServerConfig) Validate() error {
	if c.Host == "" {
		return errors.NewValidationError("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.NewValidationError("port must be between 1 and 65535")
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = DefaultCommandTimeout
	}
	if c.Proxy != nil {
		switch c.Proxy.Kind {
		case ProxyNone, ProxyHTTP, ProxySOCKS4, ProxySOCKS5:
		default:
			return errors.NewValidationError("unsupported proxy kind: " + string(c.Proxy.Kind))
		}
		if c.Proxy.Kind != ProxyNone && (c.Proxy.Host == "" || c.Proxy.Port <= 0) {
			return errors.NewValidationError("proxy host and port are required when a proxy kind is set")
		}
	}
	return nil
}

// RetryConfig controls the backoff policy retried operations use. Backoff
// for attempt n (0-indexed) is
//
//	min(InitialBackoff * BackoffFactor^n, MaxBackoff)
//
// optionally randomized into the range [0.5x, 1.5x] when Jitter is true.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	Jitter         bool
}

// DefaultRetryConfig returns the documented default backoff policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     DefaultMaxRetries,
		InitialBackoff: DefaultInitialBackoff,
		MaxBackoff:     DefaultMaxBackoff,
		BackoffFactor:  DefaultBackoffFactor,
		Jitter:         true,
	}
}

// Backoff returns the delay to wait before retry attempt n (0-indexed,
// where attempt 0 is the first retry after the initial failure). rnd
// is expected to return a value in [0,1); callers normally pass
// math/rand.Float64 wrapped at the call site so this package stays
// deterministic and test-friendly.
func (r RetryConfig) Backoff(n int, rnd func() float64) time.Duration {
	factor := r.BackoffFactor
	if factor <= 0 {
		factor = DefaultBackoffFactor
	}
	d := float64(r.InitialBackoff)
	for i := 0; i < n; i++ {
		d *= factor
	}
	max := float64(r.MaxBackoff)
	if max > 0 && d > max {
		d = max
	}
	if r.Jitter && rnd != nil {
		// scale into [0.5, 1.5) of d
		scale := 0.5 + rnd()
		d *= scale
	}
	return time.Duration(d)
}

// PoolConfig controls a connection pool's size and acquire behavior,
// mirroring the shape of the teacher's transport.PoolConfig.
type PoolConfig struct {
	// Size is the number of connections the pool eagerly warms up and
	// maintains.
	Size int
	// AcquireTimeout bounds how long Acquire blocks waiting for a free
	// connection before returning a timeout error.
	AcquireTimeout time.Duration
	// Retry governs reconnection attempts when a pooled connection is
	// found dead or fails to authenticate.
	Retry RetryConfig
}

// DefaultPoolConfig returns the documented default pool sizing.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Size:           DefaultPoolSize,
		AcquireTimeout: DefaultPoolAcquireWait,
		Retry:          DefaultRetryConfig(),
	}
}

// Strategy selects how a server group distributes work across its member
// pools.
type Strategy string

const (
	// StrategyPrimaryWithFallback always prefers the first healthy server
	// in priority order, only falling through to the next on failure.
	StrategyPrimaryWithFallback Strategy = "primary_with_fallback"
	// StrategyRoundRobin cycles through all configured servers regardless
	// of health history.
	StrategyRoundRobin Strategy = "round_robin"
	// StrategyRoundRobinHealthy cycles through servers but skips any
	// currently in cool-down after recent failures.
	StrategyRoundRobinHealthy Strategy = "round_robin_healthy"
)

// GroupMember pairs a server configuration with its selection priority
// (lower is preferred) within a server group.
type GroupMember struct {
	Server   ServerConfig
	Priority int
	Pool     PoolConfig
}

// GroupConfig describes a set of candidate servers and the strategy used to
// pick among them.
type GroupConfig struct {
	Members  []GroupMember
	Strategy Strategy
	// CoolDown is how long a member is skipped after a failure under
	// StrategyPrimaryWithFallback and StrategyRoundRobinHealthy.
	CoolDown time.Duration
}

// Validate checks that the group has at least one member and that every
// member's server config is itself valid.
func (g *GroupConfig) Validate() error {
	if len(g.Members) == 0 {
		return errors.NewValidationError("server group requires at least one member")
	}
	switch g.Strategy {
	case StrategyPrimaryWithFallback, StrategyRoundRobin, StrategyRoundRobinHealthy:
	default:
		return errors.NewValidationError("unsupported server group strategy: " + string(g.Strategy))
	}
	for i := range g.Members {
		if err := g.Members[i].Server.Validate(); err != nil {
			return err
		}
	}
	if g.CoolDown <= 0 {
		g.CoolDown = 30 * time.Second
	}
	return nil
}
