package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/particle-harvester/internal/crawler"
	"github.com/JakeFAU/particle-harvester/internal/metrics"
	"github.com/JakeFAU/particle-harvester/internal/queue/memory"
)

const poolFetch = "fetch"

// fetchWorker turns queued requests into fetch results.
type fetchWorker struct {
	p      *Pipeline
	logger *zap.Logger
}

// run blocks, consuming the request queue until ctx ends or the queue closes.
func (w *fetchWorker) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		req, err := w.p.requests.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, memory.ErrClosed) {
				return
			}
			w.logger.Error("request dequeue failed", zap.Error(err))
			continue
		}
		w.handle(ctx, req)
	}
}

func (w *fetchWorker) handle(ctx context.Context, req crawler.WorkRequest) {
	metrics.IncActiveWorkers(poolFetch)
	defer metrics.DecActiveWorkers(poolFetch)
	metrics.SetQueueDepth(queueRequests, w.p.requests.Len())

	result := w.fetch(ctx, req)
	metrics.ObserveFetch(req.Category, req.URL, result.StatusCode, len(result.Body), result.Duration)

	if err := w.p.responses.Push(result); err != nil {
		w.logger.Error("response enqueue failed",
			zap.String("request_id", req.ID),
			zap.String("category", req.Category),
			zap.Error(err),
		)
		w.p.finish(req, OutcomeDropped)
		return
	}
	metrics.SetQueueDepth(queueResponses, w.p.responses.Len())
}

// fetch never fails: transport errors and panics become failure results so
// the parse stage decides what to do with them.
func (w *fetchWorker) fetch(ctx context.Context, req crawler.WorkRequest) (result crawler.FetchResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("fetch panicked",
				zap.String("request_id", req.ID),
				zap.String("url", req.URL),
				zap.Any("panic", r),
			)
			result = crawler.FailedResult(req, fmt.Errorf("fetch panic: %v", r))
			result.Duration = time.Since(start)
		}
	}()

	result, err := w.p.fetcher.Fetch(ctx, req)
	if err != nil {
		w.logger.Warn("fetch failed",
			zap.String("request_id", req.ID),
			zap.String("category", req.Category),
			zap.String("url", req.URL),
			zap.Error(err),
		)
		result = crawler.FailedResult(req, err)
	}
	result.Request = req
	result.Category = req.Category
	if result.Duration == 0 {
		result.Duration = time.Since(start)
	}
	w.logger.Debug("fetch complete",
		zap.String("request_id", req.ID),
		zap.String("url", req.URL),
		zap.Int("status", result.StatusCode),
		zap.Duration("duration", result.Duration),
	)
	return result
}
