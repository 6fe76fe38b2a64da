// Package transport dials the TCP (optionally TLS, optionally
// proxy-tunneled) connection an nntp client speaks over. It is adapted from
// the teacher's HTTP transport: the TCP dial, TLS upgrade, and proxy-hop
// dialers are kept near verbatim since tunneling and TLS are payload
// agnostic; the HTTP-specific connection-reuse pool by host string is
// dropped in favor of pkg/pool's pool of authenticated *client.Client values.
package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/jvz-devx/nntp-rs-sub002/pkg/config"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/errors"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/tlsconfig"
	netproxy "golang.org/x/net/proxy"
)

// Metadata describes the connection actually established: useful for
// logging and for tests asserting TLS was actually negotiated.
type Metadata struct {
	RemoteAddr     string
	LocalAddr      string
	TLSVersion     uint16
	TLSCipherSuite uint16
	ProxyUsed      bool
	ProxyKind      config.ProxyKind
}

// Dial connects to cfg.Host:cfg.Port, optionally through cfg.Proxy,
// optionally upgrading to TLS, and returns the established net.Conn plus
// metadata describing it.
func Dial(ctx context.Context, cfg config.ServerConfig) (net.Conn, Metadata, error) {
	targetAddr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = config.DefaultConnectTimeout
	}

	var conn net.Conn
	var err error
	meta := Metadata{}

	if cfg.Proxy != nil && cfg.Proxy.Kind != config.ProxyNone {
		conn, err = dialViaProxy(ctx, *cfg.Proxy, targetAddr, timeout)
		meta.ProxyUsed = true
		meta.ProxyKind = cfg.Proxy.Kind
	} else {
		conn, err = dialDirect(ctx, targetAddr, timeout)
	}
	if err != nil {
		return nil, meta, err
	}

	if cfg.UseTLS {
		tlsConn, tlsErr := upgradeTLS(conn, cfg)
		if tlsErr != nil {
			conn.Close()
			return nil, meta, tlsErr
		}
		conn = tlsConn
		state := tlsConn.ConnectionState()
		meta.TLSVersion = state.Version
		meta.TLSCipherSuite = state.CipherSuite
	}

	meta.RemoteAddr = conn.RemoteAddr().String()
	meta.LocalAddr = conn.LocalAddr().String()
	return conn, meta, nil
}

func dialDirect(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		host, portStr, splitErr := net.SplitHostPort(addr)
		port := 0
		if splitErr == nil {
			port, _ = strconv.Atoi(portStr)
		}
		return nil, errors.NewConnectionError(host, port, err)
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}
	return conn, nil
}

func upgradeTLS(conn net.Conn, cfg config.ServerConfig) (*tls.Conn, error) {
	tlsConn := tls.Client(conn, tlsconfig.BuildConfig(cfg.Host, cfg.AllowInsecureTLS))
	if err := tlsConn.HandshakeContext(context.Background()); err != nil {
		return nil, errors.NewTLSError(cfg.Host, cfg.Port, err)
	}
	return tlsConn, nil
}

func dialViaProxy(ctx context.Context, proxy config.ProxyConfig, targetAddr string, timeout time.Duration) (net.Conn, error) {
	proxyAddr := net.JoinHostPort(proxy.Host, strconv.Itoa(proxy.Port))
	var conn net.Conn
	var err error

	switch proxy.Kind {
	case config.ProxyHTTP:
		conn, err = connectViaHTTPProxy(ctx, proxy, proxyAddr, targetAddr, timeout)
	case config.ProxySOCKS4:
		conn, err = connectViaSOCKS4Proxy(ctx, proxy, proxyAddr, targetAddr, timeout)
	case config.ProxySOCKS5:
		conn, err = connectViaSOCKS5Proxy(proxy, proxyAddr, targetAddr, timeout)
	default:
		return nil, errors.NewValidationError("unsupported proxy kind: " + string(proxy.Kind))
	}
	if err != nil {
		return nil, errors.NewProxyError(string(proxy.Kind), proxyAddr, "connect", err)
	}
	return conn, nil
}

// connectViaHTTPProxy tunnels targetAddr through an HTTP CONNECT proxy.
// The tunnel carries raw NNTP bytes once established; CONNECT itself
// doesn't care what protocol rides inside it.
func connectViaHTTPProxy(ctx context.Context, proxy config.ProxyConfig, proxyAddr, targetAddr string, timeout time.Duration) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", proxyAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to proxy: %w", err)
	}

	req := fmt.Sprintf("CONNECT %s HTTP/1.1\r\nHost: %s\r\n", targetAddr, targetAddr)
	if proxy.Username != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(proxy.Username + ":" + proxy.Password))
		req += fmt.Sprintf("Proxy-Authorization: Basic %s\r\n", auth)
	}
	req += "\r\n"

	if _, err := conn.Write([]byte(req)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send CONNECT request: %w", err)
	}

	reader := bufio.NewReader(conn)
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read CONNECT response: %w", err)
	}
	if !strings.Contains(statusLine, " 200") {
		conn.Close()
		return nil, fmt.Errorf("proxy CONNECT failed: %s", strings.TrimSpace(statusLine))
	}
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to read CONNECT response headers: %w", err)
		}
		if line == "\r\n" || line == "\n" {
			break
		}
	}
	return conn, nil
}

// connectViaSOCKS4Proxy tunnels targetAddr through a SOCKS4 proxy.
func connectViaSOCKS4Proxy(ctx context.Context, proxy config.ProxyConfig, proxyAddr, targetAddr string, timeout time.Duration) (net.Conn, error) {
	host, portStr, err := net.SplitHostPort(targetAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid target address: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port: %w", err)
	}

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil || len(ips) == 0 {
		return nil, fmt.Errorf("no IPv4 address found for %s (SOCKS4 requires IPv4): %w", host, err)
	}
	targetIP := ips[0].To4()

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", proxyAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SOCKS4 proxy: %w", err)
	}

	req := []byte{0x04, 0x01, byte(port >> 8), byte(port & 0xFF)}
	req = append(req, targetIP...)
	if proxy.Username != "" {
		req = append(req, []byte(proxy.Username)...)
	}
	req = append(req, 0x00)

	if _, err := conn.Write(req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send SOCKS4 request: %w", err)
	}
	resp := make([]byte, 8)
	if _, err := io.ReadFull(conn, resp); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read SOCKS4 response: %w", err)
	}
	if resp[1] != 0x5A {
		conn.Close()
		return nil, fmt.Errorf("SOCKS4 request failed with status 0x%02X", resp[1])
	}
	return conn, nil
}

// connectViaSOCKS5Proxy tunnels targetAddr through a SOCKS5 proxy using the
// x/net/proxy package, the same dependency the teacher uses for its own
// SOCKS5 support.
func connectViaSOCKS5Proxy(proxy config.ProxyConfig, proxyAddr, targetAddr string, timeout time.Duration) (net.Conn, error) {
	var auth *netproxy.Auth
	if proxy.Username != "" {
		auth = &netproxy.Auth{User: proxy.Username, Password: proxy.Password}
	}
	dialer, err := netproxy.SOCKS5("tcp", proxyAddr, auth, &net.Dialer{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	conn, err := dialer.Dial("tcp", targetAddr)
	if err != nil {
		return nil, fmt.Errorf("SOCKS5 connection failed: %w", err)
	}
	return conn, nil
}
