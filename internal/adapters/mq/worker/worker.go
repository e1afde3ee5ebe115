// Package worker runs the ingest pipeline: persist a fetched posting, build
// its store-mode embedding, upsert it into the vector index and trigger
// reverse-match notifications.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/hirestorm/matchd/internal/adapters/mq/queue"
	"github.com/hirestorm/matchd/internal/domain/embedding"
	"github.com/hirestorm/matchd/internal/domain/match"
	"github.com/hirestorm/matchd/internal/domain/model"
	"github.com/hirestorm/matchd/pkg/logger"
	"github.com/hirestorm/matchd/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2
	poolShutdownTimeout     = 30 * time.Second
)

// Store persists postings for the pool.
type Store interface {
	CreatePosting(ctx context.Context, p *model.Posting) error
	PostingExists(ctx context.Context, title, company string) (bool, error)
}

// Reverse triggers notifications for a freshly indexed posting.
type Reverse interface {
	NotifyMatchingUsers(ctx context.Context, posting *model.Posting) (int, error)
}

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithWorkerCount sets the number of workers. Defaults to a small multiple
// of the CPU count; the pipeline is I/O-bound on the encoder and index.
func WithWorkerCount(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithPoolLogger sets a custom logger.
func WithPoolLogger(log logger.Logger) Option {
	return func(p *Pool) {
		if log != nil {
			p.log = log
		}
	}
}

// WithoutReverseMatching disables notification sweeps, for backfills where
// emailing users about thousands of old postings would be noise.
func WithoutReverseMatching() Option {
	return func(p *Pool) {
		p.reverse = nil
	}
}

// Pool consumes ingest tasks with a fixed set of workers.
type Pool struct {
	queue   queue.Queue
	store   Store
	builder *embedding.Builder
	index   match.Index
	reverse Reverse
	log     logger.Logger

	workers int
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

// NewPool creates a worker pool over an ingest queue.
func NewPool(q queue.Queue, store Store, builder *embedding.Builder, index match.Index, reverse Reverse, opts ...Option) *Pool {
	p := &Pool{
		queue:   q,
		store:   store,
		builder: builder,
		index:   index,
		reverse: reverse,
		workers: runtime.NumCPU() * defaultWorkerMultiplier,
		log:     logger.Get().Named("ingest"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the workers. Calling Start twice is a no-op.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	metrics.UpdateWorkerCount(p.workers)
	tasks := p.queue.Dequeue(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, strconv.Itoa(i), tasks)
	}
}

// Stop closes the queue and waits for the workers to drain it, up to a
// shutdown timeout.
func (p *Pool) Stop(ctx context.Context) error {
	_ = p.queue.Close()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timeout, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	select {
	case <-done:
		metrics.UpdateWorkerCount(0)
		return nil
	case <-timeout.Done():
		return fmt.Errorf("worker pool shutdown timed out: %w", timeout.Err())
	}
}

func (p *Pool) run(ctx context.Context, name string, tasks <-chan queue.Task) {
	defer p.wg.Done()
	log := p.log.Named(name)

	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-tasks:
			if !ok {
				return
			}
			if err := p.process(ctx, t); err != nil {
				metrics.RecordWorkerError()
				log.Error(ctx, "ingest task failed",
					logger.String("posting_id", t.Posting.ID), logger.Error(err))
			}
		}
	}
}

// process runs the ingest pipeline for one posting. Embedding and index
// failures degrade the task: the posting stays stored and gets picked up on
// the next refresh cycle.
func (p *Pool) process(ctx context.Context, t queue.Task) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	posting := t.Posting

	exists, err := p.store.PostingExists(ctx, posting.Title, posting.Company)
	if err != nil {
		return fmt.Errorf("check posting exists: %w", err)
	}
	if exists {
		metrics.RecordPostingDuplicate()
		return nil
	}

	if err := p.store.CreatePosting(ctx, &posting); err != nil {
		return fmt.Errorf("persist posting: %w", err)
	}
	metrics.RecordPostingIngested()

	vec, err := p.builder.EmbedPosting(ctx, &posting, embedding.PurposeStore)
	if err != nil {
		p.log.Warn(ctx, "posting stored without embedding",
			logger.String("posting_id", posting.ID), logger.Error(err))
		return nil
	}
	if err := p.index.Upsert(ctx, match.IndexItem{
		ID:     match.VectorID(posting.Kind, posting.ID),
		Vector: vec,
		Kind:   posting.Kind,
		Model:  p.builder.Model(),
	}); err != nil {
		p.log.Warn(ctx, "posting stored without index entry",
			logger.String("posting_id", posting.ID), logger.Error(err))
		return nil
	}

	if p.reverse != nil {
		if n, err := p.reverse.NotifyMatchingUsers(ctx, &posting); err != nil {
			p.log.Warn(ctx, "reverse matching failed",
				logger.String("posting_id", posting.ID), logger.Error(err))
		} else if n > 0 {
			p.log.Debug(ctx, "notified matching users",
				logger.String("posting_id", posting.ID), logger.Int("notified", n))
		}
	}
	return nil
}
