// Package nntp provides a client library for the Network News Transfer
// Protocol (RFC 3977), including yEnc binary decoding (RFC "yEnc" draft)
// and RFC 5536 article modeling, on top of raw TCP/TLS sockets.
package nntp

import (
	"context"

	"github.com/jvz-devx/nntp-rs-sub002/pkg/article"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/client"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/commands"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/config"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/errors"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/pool"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/servergroup"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/yenc"
)

// Version is the current version of this library.
const Version = "0.1.0"

// Re-export the key types so callers only need to import this package for
// common usage.
type (
	// Client is a single authenticated NNTP session.
	Client = client.Client

	// ServerConfig describes one NNTP server endpoint.
	ServerConfig = config.ServerConfig

	// ProxyConfig describes an optional upstream proxy hop.
	ProxyConfig = config.ProxyConfig

	// PoolConfig controls a connection pool's size and acquire behavior.
	PoolConfig = config.PoolConfig

	// RetryConfig controls backoff between reconnection attempts.
	RetryConfig = config.RetryConfig

	// GroupConfig describes a multi-server failover/round-robin group.
	GroupConfig = config.GroupConfig

	// GroupMember pairs a server with its priority within a GroupConfig.
	GroupMember = config.GroupMember

	// Pool is a bounded pool of authenticated connections to one server.
	Pool = pool.Pool

	// ServerGroup fronts several pools behind one Acquire/Release API.
	ServerGroup = servergroup.Group

	// ServerGroupHandle is a checked-out connection plus the member it
	// came from.
	ServerGroupHandle = servergroup.Handle

	// Article is a fully built RFC 5536 article.
	Article = article.Article

	// ArticleHeaders holds the header fields of an Article.
	ArticleHeaders = article.Headers

	// ArticleBuilder constructs an Article fluently.
	ArticleBuilder = article.Builder

	// GroupInfo is the parsed reply to a successful GROUP command.
	GroupInfo = commands.GroupInfo

	// ArticleID pairs an article number with its message-id.
	ArticleID = commands.ArticleID

	// OverviewEntry is one parsed OVER/XOVER line.
	OverviewEntry = commands.OverviewEntry

	// Capability is one parsed CAPABILITIES line.
	Capability = commands.Capability

	// Range specifies an article-number range for LISTGROUP/OVER/XOVER.
	Range = commands.Range

	// Error is this library's structured error type.
	Error = errors.Error

	// ErrorKind categorizes what kind of failure an Error represents.
	ErrorKind = errors.Kind
)

// Re-export error kind constants for convenience.
const (
	KindDNS                  = errors.KindDNS
	KindConnection           = errors.KindConnection
	KindTLS                  = errors.KindTLS
	KindTimeout              = errors.KindTimeout
	KindIO                   = errors.KindIO
	KindInvalidResponse      = errors.KindInvalidResponse
	KindProtocol             = errors.KindProtocol
	KindNoSuchGroup          = errors.KindNoSuchGroup
	KindNoSuchArticle        = errors.KindNoSuchArticle
	KindNoGroupSelected      = errors.KindNoGroupSelected
	KindInvalidArticleNumber = errors.KindInvalidArticleNumber
	KindAuthFailed           = errors.KindAuthFailed
	KindAuthRequired         = errors.KindAuthRequired
	KindAuthOutOfSequence    = errors.KindAuthOutOfSequence
	KindEncryptionRequired   = errors.KindEncryptionRequired
	KindConnectionClosed     = errors.KindConnectionClosed
	KindClientError          = errors.KindClientError
	KindValidation           = errors.KindValidation
	KindProxy                = errors.KindProxy
	KindCompression          = errors.KindCompression
)

// Connect dials cfg and returns a ready (but not yet authenticated) Client.
func Connect(ctx context.Context, cfg ServerConfig) (*Client, error) {
	return client.Connect(ctx, cfg)
}

// NewPool returns a connection pool for serverCfg.
func NewPool(serverCfg ServerConfig, poolCfg PoolConfig) *Pool {
	return pool.New(serverCfg, poolCfg)
}

// NewServerGroup returns a multi-server front end per groupCfg.
func NewServerGroup(groupCfg GroupConfig) (*ServerGroup, error) {
	return servergroup.New(groupCfg)
}

// ParseProxyURL parses a proxy URL (http://, socks4://, or socks5://) into
// a ProxyConfig.
func ParseProxyURL(proxyURL string) (*ProxyConfig, error) {
	return config.ParseProxyURL(proxyURL)
}

// NewArticleBuilder starts a new fluent article Builder.
func NewArticleBuilder() *ArticleBuilder {
	return article.NewBuilder()
}

// DefaultServerConfig returns a ServerConfig with every optional field at
// its documented default.
func DefaultServerConfig(host string, port int) ServerConfig {
	return config.DefaultServerConfig(host, port)
}

// DefaultPoolConfig returns the documented default pool sizing.
func DefaultPoolConfig() PoolConfig {
	return config.DefaultPoolConfig()
}

// DefaultRetryConfig returns the documented default backoff policy.
func DefaultRetryConfig() RetryConfig {
	return config.DefaultRetryConfig()
}

// KindOf returns the ErrorKind of err if it is, or wraps, a structured
// Error, else the empty Kind.
func KindOf(err error) ErrorKind {
	return errors.KindOf(err)
}

// IsTimeout reports whether err is, wraps, or was caused by a timeout.
func IsTimeout(err error) bool {
	return errors.IsTimeout(err)
}

// EncodeYenc yEnc-encodes data for posting as a single-part binary article
// body named name: the returned bytes already carry their own
// =ybegin/=yend framing and are ready to use as an Article body.
func EncodeYenc(name string, data []byte) []byte {
	return yenc.Encode(data, yenc.EncodeOptions{Name: name})
}

// DecodeYenc decodes a single yEnc-encoded unit (header, optional part
// header, data lines, trailer) from a fetched article body.
func DecodeYenc(input []byte) (yenc.Decoded, error) {
	return yenc.Decode(input)
}
