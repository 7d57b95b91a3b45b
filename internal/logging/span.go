package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span marks a logical unit of work inside a request or background job trace.
type Span struct {
	logger *slog.Logger
	start  time.Time
	err    error
}

// StartSpan derives a child span from the context, minting a trace identifier
// when none exists yet. The returned context carries a logger enriched with
// the span metadata.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)

	traceID := TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
		ctx = WithTraceID(ctx, traceID)
		logger = logger.With(slog.String("trace_id", traceID))
	}

	spanID := uuid.NewString()
	attrs := []any{
		slog.String("span_id", spanID),
		slog.String("span_name", name),
	}
	if parent := SpanIDFromContext(ctx); parent != "" {
		attrs = append(attrs, slog.String("parent_span_id", parent))
	}
	logger = logger.With(attrs...)

	ctx = WithLogger(ctx, logger)
	ctx = WithSpanID(ctx, spanID)

	return ctx, &Span{logger: logger, start: time.Now()}
}

// Fail records the error that ended the span.
func (s *Span) Fail(err error) {
	if s != nil {
		s.err = err
	}
}

// End emits the span completion entry, at warn level when the span failed.
func (s *Span) End() {
	if s == nil {
		return
	}
	elapsed := time.Since(s.start)
	if s.err != nil {
		s.logger.Warn("span failed", slog.Duration("duration", elapsed), slog.String("error", s.err.Error()))
		return
	}
	s.logger.Info("span completed", slog.Duration("duration", elapsed))
}
