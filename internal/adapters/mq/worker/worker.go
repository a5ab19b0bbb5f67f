// Package worker drains the notification queue and hands each request to a
// Deliverer.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/vmatch/internal/adapters/mq/queue"
	"github.com/okian/vmatch/pkg/logger"
	"github.com/okian/vmatch/pkg/metrics"
)

const (
	defaultWorkerCount    = 4
	metricsUpdateInterval = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Request is what workers read off the queue.
type Request = queue.Request

// Deliverer performs the side effect for one request.
type Deliverer interface {
	Deliver(ctx context.Context, r Request) error
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, r Request) error

// Deliver calls f.
func (f DelivererFunc) Deliver(ctx context.Context, r Request) error { return f(ctx, r) }

// Queue defines how workers receive requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Request
}

// Worker processes requests until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after the request in flight, if any.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	deliverer Deliverer
	name      string
	onDone    func()

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, d Deliverer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		deliverer: d,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("worker")
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case r, ok := <-requests:
			if !ok {
				return
			}
			if err := w.process(ctx, r); err != nil {
				w.logger.Error(ctx, "delivery failed",
					logger.String("request_id", r.RequestID),
					logger.Int64("recipient_id", r.RecipientID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker and waits for the loop to exit.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, r Request) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(time.Since(start))
		if w.onDone != nil {
			w.onDone()
		}
	}()

	if err := w.deliverer.Deliver(ctx, r); err != nil {
		metrics.RecordNotificationFailure("deliver")
		metrics.RecordErrorByComponent("worker", "delivery_error")
		return fmt.Errorf("deliver %s: %w", r.RequestID, err)
	}
	metrics.RecordNotificationDelivered(string(r.Type))
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	shutdown     chan struct{}
	shutdownOnce sync.Once

	processed         atomic.Int64
	lastProcessedTime time.Time

	logger logger.Logger
}

// NewPool creates workerCount workers. Non-positive counts use a default.
func NewPool(workerCount int, q Queue, d Deliverer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	p := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		queue:             q,
		shutdown:          make(chan struct{}),
		lastProcessedTime: time.Now(),
	}

	// A throwaway worker resolves the logger option the same way workers do.
	scratch := &InMemoryWorker{}
	for _, opt := range opts {
		opt(scratch)
	}
	if scratch.logger != nil {
		p.logger = scratch.logger.Named("worker-pool")
	} else {
		p.logger = logger.Get().Named("worker-pool")
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append(append([]Option{}, opts...),
			WithName("worker-"+strconv.Itoa(i)),
			withOnDone(func() { p.processed.Add(1) }),
		)
		p.workers[i] = NewInMemoryWorker(q, d, workerOpts...)
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	metrics.UpdateWorkerMessagesPerSecond(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many requests were handled since start.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	var last int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			now := time.Now()
			total := p.processed.Load()
			if secs := now.Sub(p.lastProcessedTime).Seconds(); secs > 0 {
				metrics.UpdateWorkerMessagesPerSecond(float64(total-last) / secs)
			}
			last = total
			p.lastProcessedTime = now
		}
	}
}

// Shutdown closes the queue and lets workers drain what is left. Workers
// still busy when ctx (capped at 30s) expires are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	p.shutdownOnce.Do(func() { close(p.shutdown) })

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			w.shutdownOnce.Do(func() { close(w.shutdown) })
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	if timedOut {
		return fmt.Errorf("worker pool: %w", shutdownCtx.Err())
	}
	return nil
}
