// Package pool implements a bounded pool of pre-authenticated NNTP
// sessions. Unlike the teacher's HTTP connection pool, which keys idle
// *net.Conn values by host:port and reuses any of them interchangeably,
// an NNTP connection carries session state (auth, selected group,
// negotiated compression) — so this pool holds fully connected and
// authenticated *client.Client values and hands one out at a time.
package pool

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jvz-devx/nntp-rs-sub002/pkg/client"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/config"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/errors"
)

// Stats reports a snapshot of pool activity, mirroring the shape of the
// teacher's transport.PoolStats.
type Stats struct {
	ActiveConns  int
	IdleConns    int
	TotalReused  uint64
	TotalCreated uint64
	WaitTimeouts uint64
}

// Pool hands out authenticated *client.Client values for one server,
// bounded to cfg.Size concurrent connections, blocking Acquire callers
// (up to cfg.AcquireTimeout) when the pool is exhausted rather than
// dialing unboundedly.
type Pool struct {
	serverCfg config.ServerConfig
	poolCfg   config.PoolConfig

	mu        sync.Mutex
	cond      *sync.Cond
	idle      []*client.Client
	numActive int
	closed    bool

	statsReused  atomic.Uint64
	statsCreated atomic.Uint64
	statsTimeout atomic.Uint64

	log *log.Entry
}

// New returns a Pool for serverCfg with the given pool sizing/retry policy,
// eagerly connecting and authenticating up to cfg.Size connections before
// returning (retrying a failed warm-up attempt per cfg.Retry). A server
// that's unreachable for every attempted connection still yields a
// constructed, empty Pool: later Acquire calls will keep trying to dial.
func New(serverCfg config.ServerConfig, poolCfg config.PoolConfig) *Pool {
	if poolCfg.Size <= 0 {
		poolCfg.Size = config.DefaultPoolSize
	}
	p := &Pool{
		serverCfg: serverCfg,
		poolCfg:   poolCfg,
		idle:      make([]*client.Client, 0, poolCfg.Size),
		log:       log.WithField("pool", serverCfg.Host),
	}
	p.cond = sync.NewCond(&p.mu)
	p.warmUp()
	return p
}

// warmUp dials and authenticates up to poolCfg.Size connections,
// populating the idle set before New returns. A connection that never
// succeeds after cfg.Retry's attempts is logged and skipped rather than
// failing construction.
func (p *Pool) warmUp() {
	ctx := context.Background()
	for i := 0; i < p.poolCfg.Size; i++ {
		c, err := p.dialWithRetry(ctx)
		if err != nil {
			p.log.Warnf("warm-up connection %d/%d failed: %v", i+1, p.poolCfg.Size, err)
			continue
		}
		p.idle = append(p.idle, c)
	}
}

// dialWithRetry dials once, then retries per p.poolCfg.Retry's backoff
// policy on failure, up to Retry.MaxRetries additional attempts.
func (p *Pool) dialWithRetry(ctx context.Context) (*client.Client, error) {
	retry := p.poolCfg.Retry
	attempts := retry.MaxRetries
	if attempts < 0 {
		attempts = 0
	}

	var lastErr error
	for attempt := 0; attempt <= attempts; attempt++ {
		c, err := p.dial(ctx)
		if err == nil {
			return c, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		if wait := retry.Backoff(attempt, rand.Float64); wait > 0 {
			time.Sleep(wait)
		}
	}
	return nil, lastErr
}

func (p *Pool) dial(ctx context.Context) (*client.Client, error) {
	c, err := client.Connect(ctx, p.serverCfg)
	if err != nil {
		return nil, err
	}
	if p.serverCfg.Username != "" {
		if err := c.Authenticate(p.serverCfg.Username, p.serverCfg.Password); err != nil {
			c.Close()
			return nil, err
		}
	}
	p.statsCreated.Add(1)
	return c, nil
}

// Acquire returns an idle connection if one is available, or dials a new
// one if the pool has room, or blocks until one of those becomes true or
// cfg.AcquireTimeout elapses.
func (p *Pool) Acquire(ctx context.Context) (*client.Client, error) {
	p.mu.Lock()

	for {
		if p.closed {
			p.mu.Unlock()
			return nil, errors.NewConnectionClosed("pool_acquire")
		}

		if n := len(p.idle); n > 0 {
			c := p.idle[n-1]
			p.idle = p.idle[:n-1]
			p.numActive++
			p.statsReused.Add(1)
			p.mu.Unlock()
			return c, nil
		}

		if p.poolCfg.Size <= 0 || p.numActive < p.poolCfg.Size {
			p.numActive++
			p.mu.Unlock()
			c, err := p.dialWithRetry(ctx)
			if err != nil {
				p.mu.Lock()
				p.numActive--
				p.cond.Signal()
				p.mu.Unlock()
				return nil, err
			}
			return c, nil
		}

		timeout := p.poolCfg.AcquireTimeout
		if timeout <= 0 {
			timeout = config.DefaultPoolAcquireWait
		}

		done := make(chan struct{})
		go func() {
			p.mu.Lock()
			p.cond.Wait()
			p.mu.Unlock()
			close(done)
		}()
		p.mu.Unlock()

		select {
		case <-done:
			p.mu.Lock()
			// loop around: re-check idle/capacity under lock
		case <-time.After(timeout):
			p.statsTimeout.Add(1)
			// Wake the waiting goroutine above so it doesn't leak; it then
			// closes done, which nobody reads any more, and exits.
			p.mu.Lock()
			p.cond.Signal()
			p.mu.Unlock()
			return nil, errors.NewTimeoutError("pool_acquire", timeout)
		case <-ctx.Done():
			p.mu.Lock()
			p.cond.Signal()
			p.mu.Unlock()
			return nil, ctx.Err()
		}
	}
}

// Release returns c to the idle pool for reuse, or discards it if the
// connection is no longer usable (it observed a transport failure and
// transitioned itself to Closed) or the pool has been shut down.
func (p *Pool) Release(c *client.Client) {
	if c == nil {
		return
	}
	if c.IsClosed() {
		p.Discard(c)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.numActive--
	if p.closed {
		c.Close()
		p.cond.Signal()
		return
	}
	p.idle = append(p.idle, c)
	p.cond.Signal()
}

// Discard removes a connection from circulation entirely (e.g. after an
// I/O error) instead of returning it to the idle list.
func (p *Pool) Discard(c *client.Client) {
	if c == nil {
		return
	}
	c.Close()
	p.mu.Lock()
	p.numActive--
	p.cond.Signal()
	p.mu.Unlock()
}

// Stats returns a snapshot of current pool activity.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		ActiveConns:  p.numActive,
		IdleConns:    len(p.idle),
		TotalReused:  p.statsReused.Load(),
		TotalCreated: p.statsCreated.Load(),
		WaitTimeouts: p.statsTimeout.Load(),
	}
}

// Close closes every idle connection and marks the pool closed; active
// connections are closed as they're Released or Discarded.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for _, c := range p.idle {
		c.Close()
	}
	p.idle = nil
	p.cond.Broadcast()
	return nil
}
