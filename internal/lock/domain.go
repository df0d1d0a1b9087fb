package lock

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

var domainSeq atomic.Uint64

// Domain identifies a cooperative scheduling domain, such as an event loop
// that multiplexes many tasks onto a few goroutines. Tasks running inside a
// domain queue on a semaphore bound to that domain before reaching the
// process-wide tiers, so a domain never floods the shared tiers.
type Domain struct {
	id     uint64
	closed atomic.Bool
}

// NewDomain returns a fresh domain token.
func NewDomain() *Domain {
	return &Domain{id: domainSeq.Add(1)}
}

// ID returns the token's sequence number.
func (d *Domain) ID() uint64 { return d.id }

// Close marks the domain dead. A lock bound to a dead domain is rebuilt on the
// next acquisition from any domain.
func (d *Domain) Close() { d.closed.Store(true) }

// Closed reports whether Close has been called.
func (d *Domain) Closed() bool { return d.closed.Load() }

type domainKey struct{}

// WithDomain returns a context whose lock acquisitions are bound to d.
func WithDomain(ctx context.Context, d *Domain) context.Context {
	return context.WithValue(ctx, domainKey{}, d)
}

// DomainFrom returns the domain carried by ctx, or nil.
func DomainFrom(ctx context.Context) *Domain {
	d, _ := ctx.Value(domainKey{}).(*Domain)
	return d
}

// domainLock is the domain tier, valid only for the domain it was built for.
type domainLock struct {
	domain *Domain
	sem    *semaphore.Weighted
}

// domainTier returns the tier bound to d, building a fresh one when the
// current binding belongs to another domain or to a closed one.
func (l *ActorLock) domainTier(d *Domain) *domainLock {
	l.domainMu.Lock()
	defer l.domainMu.Unlock()

	cur := l.domain
	if cur != nil && cur.domain == d && !d.Closed() {
		return cur
	}
	if cur != nil {
		l.logger.Debug("Rebinding domain tier.",
			zap.Uint64("previous_domain", cur.domain.ID()),
			zap.Bool("previous_closed", cur.domain.Closed()),
			zap.Uint64("domain", d.ID()))
		l.metrics.RecordLockRebuild()
	}
	l.domain = &domainLock{domain: d, sem: semaphore.NewWeighted(1)}
	return l.domain
}
