// Package proxy verifies candidate proxies and hands out a working one.
package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"

	"github.com/qepting91/reddit-archiver/internal/domain"
)

// Prober checks whether a proxy can currently reach the outside world.
type Prober interface {
	Probe(ctx context.Context, p domain.ProxyEndpoint) error
}

// Pool holds the candidate set loaded at startup. The set itself is never
// modified; each selection shuffles a copy and re-probes.
type Pool struct {
	candidates []domain.ProxyEndpoint
	prober     Prober
	logger     *slog.Logger
	shuffle    func([]domain.ProxyEndpoint)
	current    atomic.Pointer[domain.ProxyEndpoint]
}

// Option customizes a Pool.
type Option func(*Pool)

// WithLogger sets the logger used for probe results.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// WithShuffle replaces the random permutation, mainly for tests.
func WithShuffle(fn func([]domain.ProxyEndpoint)) Option {
	return func(p *Pool) { p.shuffle = fn }
}

func NewPool(candidates []domain.ProxyEndpoint, prober Prober, opts ...Option) *Pool {
	p := &Pool{
		candidates: append([]domain.ProxyEndpoint(nil), candidates...),
		prober:     prober,
		logger:     slog.Default(),
		shuffle: func(s []domain.ProxyEndpoint) {
			rand.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Len returns the number of candidates.
func (p *Pool) Len() int {
	return len(p.candidates)
}

// Current returns the most recently selected proxy, or nil before the first selection.
func (p *Pool) Current() *domain.ProxyEndpoint {
	return p.current.Load()
}

// VerifyAndSelect probes candidates in random order and returns the first
// live one. It fails with domain.ErrNoProxyAvailable when none respond.
func (p *Pool) VerifyAndSelect(ctx context.Context) (domain.ProxyEndpoint, error) {
	order := append([]domain.ProxyEndpoint(nil), p.candidates...)
	p.shuffle(order)

	for _, candidate := range order {
		if err := ctx.Err(); err != nil {
			return domain.ProxyEndpoint{}, err
		}
		if err := p.prober.Probe(ctx, candidate); err != nil {
			p.logger.Debug("Proxy probe failed", "proxy", candidate.Address, "err", err)
			continue
		}
		selected := candidate
		p.current.Store(&selected)
		p.logger.Info("Proxy selected", "proxy", candidate.Address)
		return candidate, nil
	}

	return domain.ProxyEndpoint{}, fmt.Errorf("%d candidates probed: %w", len(order), domain.ErrNoProxyAvailable)
}
