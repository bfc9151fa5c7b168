// Package coordinator serializes read-modify-write cycles on the users
// document. The store replaces the whole document on every write and has
// no compare-and-swap, so two overlapping cycles would silently drop one
// of the updates. Every mutation goes through WithTransaction; reads go
// through View and never overlap a write.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	apperrors "shineal/internal/errors"
	"shineal/internal/metrics"
	"shineal/internal/model"
	"shineal/internal/store"
)

const (
	// DefaultLockTimeout bounds how long a caller waits for the region.
	DefaultLockTimeout = 5 * time.Second

	defaultMaxReaders = 1024

	modeRead  = "read"
	modeWrite = "write"
	modeLease = "lease"
)

// Lease is a lock shared between processes, taken by writers after the
// in-process region.
type Lease interface {
	Acquire(ctx context.Context) (release func(context.Context) error, err error)
}

// Coordinator owns the critical section around the users document.
type Coordinator struct {
	store       store.Client
	sem         *semaphore.Weighted
	maxReaders  int64
	lockTimeout time.Duration
	lease       Lease
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLockTimeout overrides DefaultLockTimeout.
func WithLockTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.lockTimeout = d
		}
	}
}

// WithLease makes writers also hold l for the duration of the cycle.
func WithLease(l Lease) Option {
	return func(c *Coordinator) {
		c.lease = l
	}
}

// WithMaxReaders caps the number of concurrent View calls.
func WithMaxReaders(n int64) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxReaders = n
		}
	}
}

// WithMetrics records lock waits and transaction outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// New creates a coordinator over client.
func New(client store.Client, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:       client,
		maxReaders:  defaultMaxReaders,
		lockTimeout: DefaultLockTimeout,
		logger:      logger.With("component", "coordinator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	// A writer takes every slot, so it excludes readers and other writers.
	c.sem = semaphore.NewWeighted(c.maxReaders)
	return c
}

// WithTransaction runs fn on a freshly fetched collection while holding the
// region exclusively and writes the collection back if fn changed it.
// Nothing is written when the fetch or fn fails. Once the region is held the
// cycle runs to completion even if ctx is cancelled.
func (c *Coordinator) WithTransaction(ctx context.Context, fn func(*model.Collection) error) error {
	// The region wait and the lease wait share one lock timeout.
	deadline := time.Now().Add(c.lockTimeout)
	if err := c.acquire(ctx, modeWrite, c.maxReaders, deadline); err != nil {
		return err
	}
	defer c.sem.Release(c.maxReaders)

	ctx = context.WithoutCancel(ctx)

	if c.lease != nil {
		release, err := c.acquireLease(ctx, deadline)
		if err != nil {
			c.metrics.IncTransaction("failed")
			return err
		}
		defer func() {
			if err := release(ctx); err != nil {
				c.logger.Warn("lease release failed", "error", err)
			}
		}()
	}

	coll, err := c.store.FetchCollection(ctx)
	if err != nil {
		c.metrics.IncTransaction("failed")
		return fmt.Errorf("fetch users: %w", err)
	}

	if err := fn(&coll); err != nil {
		c.metrics.IncTransaction("aborted")
		return err
	}

	if !coll.Dirty() {
		c.metrics.IncTransaction("unchanged")
		return nil
	}

	if err := c.store.ReplaceCollection(ctx, coll); err != nil {
		c.metrics.IncTransaction("failed")
		c.logger.Error("users write failed", "error", err)
		return fmt.Errorf("replace users: %w", err)
	}

	c.metrics.IncTransaction("committed")
	return nil
}

// View runs fn on a freshly fetched collection while holding the region in
// shared mode. Views run concurrently with each other but never with a
// transaction.
func (c *Coordinator) View(ctx context.Context, fn func(model.Collection) error) error {
	if err := c.acquire(ctx, modeRead, 1, time.Now().Add(c.lockTimeout)); err != nil {
		return err
	}
	defer c.sem.Release(1)

	coll, err := c.store.FetchCollection(ctx)
	if err != nil {
		return fmt.Errorf("fetch users: %w", err)
	}
	return fn(coll)
}

func (c *Coordinator) acquire(ctx context.Context, mode string, weight int64, deadline time.Time) error {
	start := time.Now()
	waitCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	if err := c.sem.Acquire(waitCtx, weight); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("acquire %s region: %w", mode, ctx.Err())
		}
		c.metrics.IncLockBusy(mode)
		c.logger.Warn("region busy", "mode", mode, "waited_ms", time.Since(start).Milliseconds())
		return apperrors.ErrBusy
	}
	c.metrics.ObserveLockWait(mode, time.Since(start))
	return nil
}

func (c *Coordinator) acquireLease(ctx context.Context, deadline time.Time) (func(context.Context) error, error) {
	start := time.Now()
	waitCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	release, err := c.lease.Acquire(waitCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.metrics.IncLockBusy(modeLease)
			c.logger.Warn("lease busy", "waited_ms", time.Since(start).Milliseconds())
			return nil, apperrors.ErrBusy
		}
		return nil, fmt.Errorf("acquire lease: %w", err)
	}
	c.metrics.ObserveLockWait(modeLease, time.Since(start))
	return release, nil
}
