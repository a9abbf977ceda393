package montecarlo

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("astroprop.montecarlo")
	meter  = otel.Meter("astroprop.montecarlo")
)

var (
	runsTotal metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		runsTotal, metricsErr = meter.Int64Counter(
			"montecarlo_runs_total",
			metric.WithDescription("Dispersed propagations by outcome"),
		)
	})
	return metricsErr
}

func startBatchSpan(ctx context.Context, runs, workers int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Coordinator.Run",
		trace.WithAttributes(
			attribute.Int("montecarlo.runs", runs),
			attribute.Int("montecarlo.workers", workers),
		),
	)
}

func finishBatchSpan(span trace.Span, b *Batch, err error) {
	span.SetAttributes(
		attribute.Int("montecarlo.executed", b.Len()),
		attribute.Int("montecarlo.failed", len(b.Failed())),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func recordRun(ctx context.Context, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	runsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}
