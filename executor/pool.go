package executor

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Mode selects how a Pool issues connections to a session (spec §4.H): a
// session-per-statement pool acquires and releases an Executor around each
// call, while a sticky pool hands out one Executor for a transaction's
// entire duration.
type Mode int

const (
	SessionPerStatement Mode = iota
	Sticky
)

// Lease is a borrowed Executor that must be released exactly once.
type Lease struct {
	Executor Executor
	release  func()
}

// Release returns the leased Executor to its Pool. Safe to call more than
// once; only the first call has effect.
func (l *Lease) Release() {
	if l.release != nil {
		l.release()
	}
}

// Pool serializes connection issuance over a fixed set of Executors,
// guaranteeing Acquire blocks rather than over-subscribing the underlying
// driver (spec §4.H/§5's "the pool serialises connection issuance").
type Pool struct {
	mode Mode

	mu        sync.Mutex
	available []Executor
	cond      *sync.Cond
	closed    bool
}

// NewPool builds a pool over a fixed set of already-opened executors.
func NewPool(mode Mode, executors []Executor) *Pool {
	p := &Pool{mode: mode, available: append([]Executor{}, executors...)}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Mode reports whether the pool was configured session-per-statement or
// sticky; the session package uses this to decide whether to Acquire a
// fresh Lease per statement or hold one for an entire transaction.
func (p *Pool) Mode() Mode { return p.mode }

// Acquire blocks until an Executor is available or ctx is cancelled. The
// release path is guaranteed to run on every exit — including
// cancellation — by always pairing Acquire with Lease.Release via defer at
// the call site.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	done := make(chan struct{})
	var ex Executor
	var err error

	go func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for len(p.available) == 0 && !p.closed {
			p.cond.Wait()
		}
		if p.closed {
			err = errTransactionNotSupported("pool is closed")
		} else {
			ex = p.available[len(p.available)-1]
			p.available = p.available[:len(p.available)-1]
		}
		close(done)
	}()

	select {
	case <-done:
		if err != nil {
			return nil, err
		}
		released := false
		return &Lease{
			Executor: ex,
			release: func() {
				if released {
					return
				}
				released = true
				p.mu.Lock()
				p.available = append(p.available, ex)
				p.mu.Unlock()
				p.cond.Signal()
			},
		}, nil
	case <-ctx.Done():
		// The waiter may still take an executor after cancellation; hand it
		// straight back so it is not lost.
		go func() {
			<-done
			if err == nil {
				p.mu.Lock()
				p.available = append(p.available, ex)
				p.mu.Unlock()
				p.cond.Signal()
			}
		}()
		return nil, errCancelled(ctx.Err().Error())
	}
}

// Warm primes every pooled executor with a no-op round trip (SELECT 1
// equivalent left to the caller via probe), bounding concurrency with
// errgroup so a large pool doesn't open every connection at once.
func (p *Pool) Warm(ctx context.Context, concurrency int, probe func(context.Context, Executor) error) error {
	p.mu.Lock()
	executors := append([]Executor{}, p.available...)
	p.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, ex := range executors {
		ex := ex
		g.Go(func() error { return probe(gctx, ex) })
	}
	return g.Wait()
}

// Close disposes every pooled executor and unblocks any pending Acquire
// with an error.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	executors := p.available
	p.available = nil
	p.mu.Unlock()
	p.cond.Broadcast()

	var firstErr error
	for _, ex := range executors {
		if err := ex.Dispose(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
