package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/particle-harvester/internal/crawler"
	"github.com/JakeFAU/particle-harvester/internal/metrics"
	"github.com/JakeFAU/particle-harvester/internal/queue/memory"
)

const poolParse = "parse"

// parseWorker routes fetch results to their category parser.
type parseWorker struct {
	p      *Pipeline
	logger *zap.Logger
}

// run blocks, consuming the response queue until ctx ends or the queue closes.
func (w *parseWorker) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		result, err := w.p.responses.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, memory.ErrClosed) {
				return
			}
			w.logger.Error("response dequeue failed", zap.Error(err))
			continue
		}
		w.handle(ctx, result)
	}
}

func (w *parseWorker) handle(ctx context.Context, result crawler.FetchResult) {
	metrics.IncActiveWorkers(poolParse)
	defer metrics.DecActiveWorkers(poolParse)
	metrics.SetQueueDepth(queueResponses, w.p.responses.Len())

	req := result.Request
	ctx, span := w.p.tracer.Start(ctx, "parse "+result.Category,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("request_id", req.ID),
			attribute.String("category", result.Category),
			attribute.String("url", req.URL),
			attribute.Int("http.status_code", result.StatusCode),
		),
	)
	defer span.End()

	logger := w.logger.With(
		zap.String("request_id", req.ID),
		zap.String("category", result.Category),
		zap.String("url", req.URL),
	)
	if sc := span.SpanContext(); sc.IsValid() {
		logger = logger.With(zap.String("trace_id", sc.TraceID().String()))
	}

	parser, ok := w.p.parsers.Lookup(result.Category)
	if !ok {
		logger.Warn("no parser registered for category; dropping result")
		w.settle(span, req, OutcomeUnroutable)
		return
	}

	accepted, err := w.dispatch(ctx, parser, result)
	switch {
	case err != nil:
		logger.Error("process failed; dropping result", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "process failed")
		w.settle(span, req, OutcomeProcessFailed)
	case !accepted:
		logger.Info("result rejected by parser; resubmitting",
			zap.Int("status", result.StatusCode),
			zap.NamedError("fetch_error", result.Err),
		)
		span.SetAttributes(attribute.String("outcome", string(OutcomeRetried)))
		w.p.resubmit(req)
	default:
		logger.Debug("result processed")
		w.settle(span, req, OutcomeProcessed)
	}
}

func (w *parseWorker) settle(span trace.Span, req crawler.WorkRequest, outcome Outcome) {
	span.SetAttributes(attribute.String("outcome", string(outcome)))
	w.p.finish(req, outcome)
}

// dispatch evaluates the success predicate and, when it holds, runs Process.
// A panic in either step is reported as an error.
func (w *parseWorker) dispatch(
	ctx context.Context,
	parser crawler.Parser,
	result crawler.FetchResult,
) (accepted bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			accepted = true
			err = fmt.Errorf("parser %s panicked: %v", parser.Category(), r)
		}
	}()
	if !parser.CheckSuccess(result) {
		return false, nil
	}
	if err := parser.Process(ctx, result, lineage{p: w.p}); err != nil {
		return true, fmt.Errorf("process %s: %w", parser.Category(), err)
	}
	return true, nil
}
