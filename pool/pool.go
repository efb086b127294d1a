// Package pool manages a bounded set of long-lived headless browser
// processes with checkout/release semantics. Launching a browser is the
// dominant cost of a cold scrape, so instances are reused across requests;
// the capacity bound protects host memory and a background reclaimer closes
// instances that sit idle.
package pool

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/page-distill/distill/config"
	"github.com/page-distill/distill/models"
)

// ErrClosed is returned by Acquire after Shutdown.
var ErrClosed = errors.New("pool: shut down")

// Factory launches one browser engine. It is injected so tests can run the
// pool without a real browser.
type Factory func() (Engine, error)

// Instance is one pooled browser process. At most one caller holds it at a
// time; the pool flips inUse on acquire and release.
type Instance struct {
	ID string

	engine       Engine
	inUse        bool
	lastReleased time.Time
}

// Engine returns the underlying browser engine handle.
func (i *Instance) Engine() Engine { return i.engine }

// Pool is the process-wide browser pool. Construct exactly one per process
// and wire Shutdown to the host's termination hooks; browsers are external
// processes and do not die with the Go runtime on their own.
type Pool struct {
	mu        sync.Mutex
	instances []*Instance
	launching int // slots reserved by in-flight launches

	capacity    int
	idleTimeout time.Duration
	factory     Factory

	released chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a pool and starts its background reclaimer.
func New(cfg config.PoolConfig, factory Factory) *Pool {
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	p := &Pool{
		capacity:    cfg.Capacity,
		idleTimeout: cfg.IdleTimeout,
		factory:     factory,
		released:    make(chan struct{}, cfg.Capacity),
		stop:        make(chan struct{}),
	}
	go p.reclaimLoop(cfg.ReclaimInterval)
	return p
}

// Acquire returns an exclusive browser instance: an idle one when available,
// a freshly launched one while the pool has spare capacity, and otherwise it
// blocks until a release frees one. A launch failure is the only error path
// besides ctx cancellation and shutdown; the failed instance is never added
// to the pool.
//
// There is no built-in wait bound. Callers that need one pass a ctx with a
// deadline.
func (p *Pool) Acquire(ctx context.Context) (*Instance, error) {
	for {
		select {
		case <-p.stop:
			return nil, ErrClosed
		default:
		}

		p.mu.Lock()
		for _, inst := range p.instances {
			if !inst.inUse {
				inst.inUse = true
				inst.lastReleased = time.Now()
				p.mu.Unlock()
				return inst, nil
			}
		}

		if len(p.instances)+p.launching < p.capacity {
			p.launching++
			p.mu.Unlock()

			eng, err := p.factory()

			p.mu.Lock()
			p.launching--
			if err != nil {
				p.mu.Unlock()
				return nil, models.NewScrapeError(models.ErrCodeLaunch,
					"failed to launch browser instance", err)
			}
			inst := &Instance{
				ID:     uuid.NewString(),
				engine: eng,
				inUse:  true,
			}
			p.instances = append(p.instances, inst)
			total := len(p.instances)
			p.mu.Unlock()

			slog.Info("pool: launched browser instance", "id", inst.ID, "total", total)
			return inst, nil
		}
		p.mu.Unlock()

		// Saturated: wait for a release. Whichever waiter wins the signal
		// re-checks the pool; there is no fairness guarantee.
		select {
		case <-p.released:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.stop:
			return nil, ErrClosed
		}
	}
}

// Release returns an instance to the pool. All pages except a blank
// placeholder are closed first so leaked tabs cannot accumulate across
// reuses; cleanup failure is non-fatal. Call exactly once per Acquire.
func (p *Pool) Release(inst *Instance) {
	if inst == nil {
		return
	}

	if err := inst.engine.CleanupPages(); err != nil {
		slog.Debug("pool: page cleanup failed", "id", inst.ID, "error", err)
	}

	p.mu.Lock()
	inst.inUse = false
	inst.lastReleased = time.Now()
	p.mu.Unlock()

	select {
	case p.released <- struct{}{}:
	default:
	}
}

// Status returns a read-only snapshot of the pool.
func (p *Pool) Status() models.PoolStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := models.PoolStatus{Total: len(p.instances)}
	for _, inst := range p.instances {
		if inst.inUse {
			s.InUse++
		}
	}
	s.Available = s.Total - s.InUse
	return s
}

// Shutdown stops the reclaimer and closes every instance, in-use or not.
// Per-instance close failures are logged and do not abort the loop. Safe to
// call more than once; only the first call does work.
func (p *Pool) Shutdown() {
	p.stopOnce.Do(func() {
		close(p.stop)

		p.mu.Lock()
		instances := p.instances
		p.instances = nil
		p.mu.Unlock()

		for _, inst := range instances {
			if err := inst.engine.Close(); err != nil {
				slog.Warn("pool: close on shutdown failed", "id", inst.ID, "error", err)
			}
		}
		slog.Info("pool: shut down", "closed", len(instances))
	})
}

func (p *Pool) reclaimLoop(interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.reclaimIdle(time.Now())
		}
	}
}

// reclaimIdle closes and removes every instance idle past the threshold.
// In-use instances are never touched. Close failures are logged and the
// instance is removed anyway so a broken close cannot leak a pool slot.
func (p *Pool) reclaimIdle(now time.Time) {
	p.mu.Lock()
	kept := p.instances[:0]
	var expired []*Instance
	for _, inst := range p.instances {
		if !inst.inUse && now.Sub(inst.lastReleased) > p.idleTimeout {
			expired = append(expired, inst)
			continue
		}
		kept = append(kept, inst)
	}
	p.instances = kept
	p.mu.Unlock()

	for _, inst := range expired {
		if err := inst.engine.Close(); err != nil {
			slog.Warn("pool: closing idle instance failed", "id", inst.ID, "error", err)
		} else {
			slog.Info("pool: reclaimed idle instance", "id", inst.ID)
		}
	}
}
