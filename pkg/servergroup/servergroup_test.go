package servergroup

import (
	"context"
	"net"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/jvz-devx/nntp-rs-sub002/pkg/config"
)

func listenTCP(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if isPerm(err) {
			t.Skip("network sockets not permitted in sandbox")
		}
		t.Fatalf("listen: %v", err)
	}
	return ln
}

func isPerm(err error) bool {
	if err == nil {
		return false
	}
	if op, ok := err.(*net.OpError); ok {
		if se, ok := op.Err.(*os.SyscallError); ok {
			if se.Err == syscall.EPERM {
				return true
			}
		}
		if strings.Contains(op.Err.Error(), "operation not permitted") {
			return true
		}
	}
	return strings.Contains(err.Error(), "operation not permitted")
}

// fakeServer accepts any number of connections and greets each one — enough
// for pool warm-up and client.Connect to succeed against it.
func fakeServer(t *testing.T, ln net.Listener) {
	t.Helper()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				c.Write([]byte("200 server ready posting allowed\r\n"))
				buf := make([]byte, 512)
				for {
					if _, err := c.Read(buf); err != nil {
						return
					}
				}
			}(conn)
		}
	}()
}

// quickRetry keeps pool warm-up fast in tests: a single dial attempt, no
// retry delay, so a down member's pool still constructs promptly.
func quickRetry() config.RetryConfig {
	return config.RetryConfig{MaxRetries: 0, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffFactor: 1}
}

func memberCfg(t *testing.T, ln net.Listener, priority int) config.GroupMember {
	addr := ln.Addr().(*net.TCPAddr)
	srv := config.DefaultServerConfig("127.0.0.1", addr.Port)
	srv.ConnectTimeout = 2 * time.Second
	srv.CommandTimeout = 2 * time.Second
	srv.DisableCompression = true
	return config.GroupMember{
		Server:   srv,
		Priority: priority,
		Pool:     config.PoolConfig{Size: 1, AcquireTimeout: time.Second, Retry: quickRetry()},
	}
}

// port extracts the TCP port a Handle's connection belongs to, by way of
// the member it was checked out from — a deterministic way to tell which
// server answered without relying on fresh accepts (warm-up may already
// have established every member's connections before Acquire is called).
func port(h *Handle) int {
	return h.member.cfg.Server.Port
}

func TestRoundRobinAlternatesMembers(t *testing.T) {
	lnA, lnB := listenTCP(t), listenTCP(t)
	defer lnA.Close()
	defer lnB.Close()
	fakeServer(t, lnA)
	fakeServer(t, lnB)

	cfgA, cfgB := memberCfg(t, lnA, 0), memberCfg(t, lnB, 1)
	g, err := New(config.GroupConfig{
		Members:  []config.GroupMember{cfgA, cfgB},
		Strategy: config.StrategyRoundRobin,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer g.Close()

	h1, err := g.Acquire(context.Background())
	if err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}
	g.Release(h1)

	h2, err := g.Acquire(context.Background())
	if err != nil {
		t.Fatalf("second Acquire() error = %v", err)
	}
	g.Release(h2)

	if port(h1) == port(h2) {
		t.Errorf("expected round robin to alternate members, got port %d then %d", port(h1), port(h2))
	}
	if port(h1) != cfgA.Server.Port && port(h1) != cfgB.Server.Port {
		t.Errorf("first Acquire() landed on an unexpected port %d", port(h1))
	}
}

func TestPrimaryWithFallbackUsesFallbackOnPrimaryFailure(t *testing.T) {
	// A listener that is closed immediately so dials to it are refused,
	// standing in for a down primary server.
	deadLn := listenTCP(t)
	deadAddr := deadLn.Addr().(*net.TCPAddr)
	deadLn.Close()

	lnB := listenTCP(t)
	defer lnB.Close()
	fakeServer(t, lnB)

	primary := config.DefaultServerConfig("127.0.0.1", deadAddr.Port)
	primary.ConnectTimeout = 500 * time.Millisecond
	primary.DisableCompression = true

	cfgB := memberCfg(t, lnB, 1)
	g, err := New(config.GroupConfig{
		Members: []config.GroupMember{
			{Server: primary, Priority: 0, Pool: config.PoolConfig{Size: 1, AcquireTimeout: time.Second, Retry: quickRetry()}},
			cfgB,
		},
		Strategy: config.StrategyPrimaryWithFallback,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer g.Close()

	h, err := g.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v, want fallback success", err)
	}
	defer g.Release(h)

	if port(h) != cfgB.Server.Port {
		t.Errorf("Acquire() landed on port %d, want the fallback member's port %d", port(h), cfgB.Server.Port)
	}
}

func TestRoundRobinHealthySkipsCoolingDownMember(t *testing.T) {
	lnA, lnB := listenTCP(t), listenTCP(t)
	defer lnA.Close()
	defer lnB.Close()
	fakeServer(t, lnA)
	fakeServer(t, lnB)

	cfgA, cfgB := memberCfg(t, lnA, 0), memberCfg(t, lnB, 1)
	g, err := New(config.GroupConfig{
		Members:  []config.GroupMember{cfgA, cfgB},
		Strategy: config.StrategyRoundRobinHealthy,
		CoolDown: time.Minute,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer g.Close()

	h, err := g.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	failedPort := port(h)
	g.ReportFailure(h)

	// Every subsequent acquire should land on the member that isn't
	// cooling down, regardless of the round-robin cursor.
	for i := 0; i < 3; i++ {
		h2, err := g.Acquire(context.Background())
		if err != nil {
			t.Fatalf("Acquire() #%d error = %v", i, err)
		}
		if port(h2) == failedPort {
			t.Errorf("Acquire() #%d returned the cooling-down member (port %d)", i, failedPort)
		}
		g.Release(h2)
	}
}

func TestRoundRobinHealthyFallsBackWhenAllCoolingDown(t *testing.T) {
	lnA, lnB := listenTCP(t), listenTCP(t)
	defer lnA.Close()
	defer lnB.Close()
	fakeServer(t, lnA)
	fakeServer(t, lnB)

	g, err := New(config.GroupConfig{
		Members:  []config.GroupMember{memberCfg(t, lnA, 0), memberCfg(t, lnB, 1)},
		Strategy: config.StrategyRoundRobinHealthy,
		CoolDown: time.Minute,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer g.Close()

	for _, m := range g.members {
		m.markFailed(g.cfg.CoolDown)
	}

	h, err := g.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v, want a fallback to a cooling-down member rather than failure", err)
	}
	g.Release(h)
}

func TestCloseClosesAllMemberPools(t *testing.T) {
	lnA := listenTCP(t)
	defer lnA.Close()
	fakeServer(t, lnA)

	g, err := New(config.GroupConfig{
		Members:  []config.GroupMember{memberCfg(t, lnA, 0)},
		Strategy: config.StrategyRoundRobin,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	h, err := g.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	g.Release(h)

	if err := g.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := g.Acquire(context.Background()); err == nil {
		t.Error("expected Acquire() after Close() to fail")
	}
}

func TestNewRejectsEmptyMembers(t *testing.T) {
	if _, err := New(config.GroupConfig{Strategy: config.StrategyRoundRobin}); err == nil {
		t.Error("expected an error for a group with no members")
	}
}
