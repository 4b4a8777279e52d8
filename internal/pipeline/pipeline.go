// Package pipeline runs the fetch and parse worker pools that move work
// requests through retrieval, category dispatch, and follow-on discovery.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/particle-harvester/internal/crawler"
	"github.com/JakeFAU/particle-harvester/internal/id/uuid"
	"github.com/JakeFAU/particle-harvester/internal/metrics"
	"github.com/JakeFAU/particle-harvester/internal/queue/memory"
)

// ErrDraining is returned by Send once Shutdown has begun.
var ErrDraining = errors.New("pipeline is draining")

// Default pool sizes.
const (
	DefaultFetchWorkers = 10
	DefaultParseWorkers = 10
)

const (
	queueRequests  = "requests"
	queueResponses = "responses"
)

// Config sizes the worker pools and bounds retries.
type Config struct {
	FetchWorkers int
	ParseWorkers int
	// MaxAttempts caps fetches per request when CheckSuccess keeps failing.
	// Zero resubmits forever.
	MaxAttempts int
	// Tracer starts one span per parsed item. Nil uses the global provider.
	Tracer trace.Tracer
}

const tracerName = "github.com/JakeFAU/particle-harvester/internal/pipeline"

// ParserLookup resolves the parser registered for a category.
type ParserLookup interface {
	Lookup(category string) (crawler.Parser, bool)
}

// Pipeline owns the request and response queues and the two worker pools.
type Pipeline struct {
	cfg       Config
	fetcher   crawler.Fetcher
	parsers   ParserLookup
	ids       crawler.IDGenerator
	logger    *zap.Logger
	tracer    trace.Tracer
	requests  *memory.Queue[crawler.WorkRequest]
	responses *memory.Queue[crawler.FetchResult]

	outstanding atomic.Int64
	idle        chan struct{}
	draining    atomic.Bool
	stopped     chan struct{}
	stopOnce    sync.Once
	outcomes    map[Outcome]*atomic.Int64

	attemptsMu sync.Mutex
	attempts   map[string]int
}

// New constructs a Pipeline. A nil ids falls back to UUIDv7 request IDs.
func New(
	cfg Config,
	fetcher crawler.Fetcher,
	parsers ParserLookup,
	ids crawler.IDGenerator,
	logger *zap.Logger,
) *Pipeline {
	if cfg.FetchWorkers <= 0 {
		cfg.FetchWorkers = DefaultFetchWorkers
	}
	if cfg.ParseWorkers <= 0 {
		cfg.ParseWorkers = DefaultParseWorkers
	}
	if ids == nil {
		ids = uuid.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	metrics.Init()

	outcomes := make(map[Outcome]*atomic.Int64, len(allOutcomes))
	for _, o := range allOutcomes {
		outcomes[o] = new(atomic.Int64)
	}
	return &Pipeline{
		cfg:       cfg,
		fetcher:   fetcher,
		parsers:   parsers,
		ids:       ids,
		logger:    logger,
		tracer:    tracer,
		requests:  memory.NewQueue[crawler.WorkRequest](),
		responses: memory.NewQueue[crawler.FetchResult](),
		idle:      make(chan struct{}, 1),
		stopped:   make(chan struct{}),
		outcomes:  outcomes,
		attempts:  make(map[string]int),
	}
}

// Send validates req, assigns an ID when missing, and enqueues it for fetching.
// It is safe for concurrent use by seeders and parsers.
func (p *Pipeline) Send(req crawler.WorkRequest) error {
	_, err := p.Submit(req)
	return err
}

// Submit is Send that also reports the request ID it enqueued under.
func (p *Pipeline) Submit(req crawler.WorkRequest) (string, error) {
	if p.draining.Load() {
		return "", ErrDraining
	}
	return p.enqueue(req, sourceSend)
}

// Send sources, as labeled on harvester_sends_total.
const (
	sourceSend     = "send"
	sourceFollowOn = "follow_on"
	sourceRetry    = "retry"
)

// lineage is the Sender handed to Process. Its parent item is still
// outstanding while Process runs, so follow-ons are accepted during a drain
// and the drain waits for them.
type lineage struct{ p *Pipeline }

func (l lineage) Send(req crawler.WorkRequest) error {
	_, err := l.p.enqueue(req, sourceFollowOn)
	return err
}

func (p *Pipeline) enqueue(req crawler.WorkRequest, source string) (string, error) {
	req.Method = req.Method.Normalize()
	if err := req.Validate(); err != nil {
		return "", err
	}
	if req.ID == "" {
		id, err := p.ids.NewID()
		if err != nil {
			return "", fmt.Errorf("assign request id: %w", err)
		}
		req.ID = id
	}

	p.outstanding.Add(1)
	if err := p.requests.Push(req); err != nil {
		p.release()
		return "", fmt.Errorf("enqueue request: %w", err)
	}
	metrics.ObserveSend(req.Category, source)
	metrics.SetQueueDepth(queueRequests, p.requests.Len())
	p.logger.Debug("request enqueued",
		zap.String("request_id", req.ID),
		zap.String("category", req.Category),
		zap.String("url", req.URL),
		zap.String("source", source),
	)
	return req.ID, nil
}

// Run starts both worker pools and blocks until ctx ends or Shutdown completes.
func (p *Pipeline) Run(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-p.stopped:
			cancel()
		case <-runCtx.Done():
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.FetchWorkers; i++ {
		w := &fetchWorker{p: p, logger: p.logger.Named("fetch").With(zap.Int("worker", i))}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run(runCtx)
		}()
	}
	for i := 0; i < p.cfg.ParseWorkers; i++ {
		w := &parseWorker{p: p, logger: p.logger.Named("parse").With(zap.Int("worker", i))}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run(runCtx)
		}()
	}
	p.logger.Info("pipeline started",
		zap.Int("fetch_workers", p.cfg.FetchWorkers),
		zap.Int("parse_workers", p.cfg.ParseWorkers),
	)
	<-runCtx.Done()
	wg.Wait()
	p.logger.Info("pipeline stopped", zap.Int64("outstanding", p.outstanding.Load()))
}

// Shutdown stops accepting sends, waits for every queued and in-flight item to
// reach a terminal outcome, then stops the workers. Follow-ons sent by parsers
// still running are accepted and drained; retries are dropped. If ctx ends first the
// workers are stopped anyway and the context error is returned.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	p.draining.Store(true)
	p.logger.Info("pipeline draining", zap.Int64("outstanding", p.outstanding.Load()))
	defer p.stop()
	for p.outstanding.Load() > 0 {
		select {
		case <-ctx.Done():
			return fmt.Errorf("drain pipeline: %w", ctx.Err())
		case <-p.idle:
		}
	}
	return nil
}

// Draining reports whether Shutdown has begun.
func (p *Pipeline) Draining() bool {
	return p.draining.Load()
}

// Stats returns a snapshot of queue depths and outcome counters.
func (p *Pipeline) Stats() crawler.Stats {
	out := make(map[string]int64, len(p.outcomes))
	for o, c := range p.outcomes {
		out[string(o)] = c.Load()
	}
	return crawler.Stats{
		QueuedRequests:  p.requests.Len(),
		QueuedResponses: p.responses.Len(),
		Outstanding:     p.outstanding.Load(),
		Outcomes:        out,
	}
}

func (p *Pipeline) stop() {
	p.stopOnce.Do(func() {
		p.requests.Close()
		p.responses.Close()
		close(p.stopped)
	})
}

// resubmit re-enqueues req unchanged after its result failed CheckSuccess.
func (p *Pipeline) resubmit(req crawler.WorkRequest) {
	logger := p.logger.With(
		zap.String("request_id", req.ID),
		zap.String("category", req.Category),
		zap.String("url", req.URL),
	)
	if p.cfg.MaxAttempts > 0 {
		if n := p.recordAttempt(req.ID); n >= p.cfg.MaxAttempts {
			logger.Warn("retry attempts exhausted; dropping request", zap.Int("attempts", n))
			p.finish(req, OutcomeExhausted)
			return
		}
	}
	if p.draining.Load() {
		logger.Warn("pipeline draining; dropping retry")
		p.finish(req, OutcomeDropped)
		return
	}
	if err := p.requests.Push(req); err != nil {
		logger.Error("resubmit failed", zap.Error(err))
		p.finish(req, OutcomeDropped)
		return
	}
	p.count(req.Category, OutcomeRetried)
	metrics.ObserveSend(req.Category, sourceRetry)
	metrics.SetQueueDepth(queueRequests, p.requests.Len())
	logger.Debug("request resubmitted")
}

// finish records a terminal outcome and releases the item.
func (p *Pipeline) finish(req crawler.WorkRequest, outcome Outcome) {
	p.count(req.Category, outcome)
	if p.cfg.MaxAttempts > 0 {
		p.forgetAttempts(req.ID)
	}
	p.release()
}

func (p *Pipeline) count(category string, outcome Outcome) {
	p.outcomes[outcome].Add(1)
	metrics.ObserveParseOutcome(category, string(outcome))
}

func (p *Pipeline) release() {
	if p.outstanding.Add(-1) == 0 {
		select {
		case p.idle <- struct{}{}:
		default:
		}
	}
}

func (p *Pipeline) recordAttempt(id string) int {
	p.attemptsMu.Lock()
	defer p.attemptsMu.Unlock()
	p.attempts[id]++
	return p.attempts[id]
}

func (p *Pipeline) forgetAttempts(id string) {
	p.attemptsMu.Lock()
	defer p.attemptsMu.Unlock()
	delete(p.attempts, id)
}
