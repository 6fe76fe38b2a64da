// Package servergroup fronts several candidate NNTP servers with one
// Acquire/Release API, picking among them per config.GroupConfig's
// strategy: always-prefer-primary, plain round robin, or round robin that
// skips recently failed members.
package servergroup

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jvz-devx/nntp-rs-sub002/pkg/client"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/config"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/errors"
	"github.com/jvz-devx/nntp-rs-sub002/pkg/pool"
)

// member pairs one configured server's pool with its failure bookkeeping.
type member struct {
	cfg        config.GroupMember
	pool       *pool.Pool
	mu         sync.Mutex
	coolUntil  time.Time
}

func (m *member) isCoolingDown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Now().Before(m.coolUntil)
}

func (m *member) markFailed(coolDown time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coolUntil = time.Now().Add(coolDown)
}

// Group distributes Acquire calls across a GroupConfig's members.
type Group struct {
	cfg     config.GroupConfig
	members []*member

	mu   sync.Mutex
	next int // round-robin cursor
}

// New builds a Group from cfg, validating it and constructing one pool per
// member, ordered by ascending Priority for StrategyPrimaryWithFallback.
func New(cfg config.GroupConfig) (*Group, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	members := make([]*member, len(cfg.Members))
	for i, m := range cfg.Members {
		poolCfg := m.Pool
		if poolCfg.Size <= 0 {
			poolCfg = config.DefaultPoolConfig()
		}
		members[i] = &member{cfg: m, pool: pool.New(m.Server, poolCfg)}
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].cfg.Priority < members[j].cfg.Priority
	})

	return &Group{cfg: cfg, members: members}, nil
}

// Handle wraps a checked-out client together with the member it came from,
// so Release/ReportFailure can route back to the right pool.
type Handle struct {
	Client *client.Client
	member *member
}

// Acquire picks a member per the group's strategy and checks out one of
// its connections.
func (g *Group) Acquire(ctx context.Context) (*Handle, error) {
	switch g.cfg.Strategy {
	case config.StrategyPrimaryWithFallback:
		return g.acquirePrimaryWithFallback(ctx)
	case config.StrategyRoundRobin:
		return g.acquireRoundRobin(ctx, false)
	case config.StrategyRoundRobinHealthy:
		return g.acquireRoundRobin(ctx, true)
	default:
		return nil, errors.NewValidationError("unsupported server group strategy: " + string(g.cfg.Strategy))
	}
}

func (g *Group) acquirePrimaryWithFallback(ctx context.Context) (*Handle, error) {
	var lastErr error
	for _, m := range g.members {
		if m.isCoolingDown() {
			continue
		}
		c, err := m.pool.Acquire(ctx)
		if err != nil {
			lastErr = err
			m.markFailed(g.cfg.CoolDown)
			continue
		}
		return &Handle{Client: c, member: m}, nil
	}
	if lastErr == nil {
		lastErr = errors.NewConnectionClosed("server_group")
	}
	return nil, lastErr
}

func (g *Group) acquireRoundRobin(ctx context.Context, skipCoolingDown bool) (*Handle, error) {
	g.mu.Lock()
	start := g.next
	g.mu.Unlock()

	n := len(g.members)
	h, err := g.roundRobinPass(ctx, start, n, skipCoolingDown)
	if err == nil {
		return h, nil
	}
	if !skipCoolingDown {
		return nil, err
	}
	// Every member is cooling down (or just failed) — fall back to trying
	// any endpoint regardless of cool-down state, per spec.md §4.9.
	return g.roundRobinPass(ctx, start, n, false)
}

func (g *Group) roundRobinPass(ctx context.Context, start, n int, skipCoolingDown bool) (*Handle, error) {
	var lastErr error
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		m := g.members[idx]
		if skipCoolingDown && m.isCoolingDown() {
			continue
		}
		c, err := m.pool.Acquire(ctx)
		if err != nil {
			lastErr = err
			if skipCoolingDown {
				m.markFailed(g.cfg.CoolDown)
			}
			continue
		}
		g.mu.Lock()
		g.next = (idx + 1) % n
		g.mu.Unlock()
		return &Handle{Client: c, member: m}, nil
	}
	if lastErr == nil {
		lastErr = errors.NewConnectionClosed("server_group")
	}
	return nil, lastErr
}

// Release returns h's connection to its originating pool.
func (g *Group) Release(h *Handle) {
	if h == nil {
		return
	}
	h.member.pool.Release(h.Client)
}

// ReportFailure discards h's connection and puts its server into
// cool-down, used when a caller observes a connection-level failure that
// Release alone wouldn't surface (e.g. a mid-stream I/O error).
func (g *Group) ReportFailure(h *Handle) {
	if h == nil {
		return
	}
	h.member.pool.Discard(h.Client)
	h.member.markFailed(g.cfg.CoolDown)
}

// Close closes every member pool.
func (g *Group) Close() error {
	var firstErr error
	for _, m := range g.members {
		if err := m.pool.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
