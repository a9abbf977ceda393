package propagator

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("astroprop.propagator")
	meter  = otel.Meter("astroprop.propagator")
)

var (
	propagateLatency metric.Float64Histogram
	stepsTotal       metric.Int64Counter
	rejectionsTotal  metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		propagateLatency, err = meter.Float64Histogram(
			"propagator_propagate_duration_seconds",
			metric.WithDescription("Wall time of one propagation"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		stepsTotal, err = meter.Int64Counter(
			"propagator_steps_total",
			metric.WithDescription("Accepted integration steps"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		rejectionsTotal, err = meter.Int64Counter(
			"propagator_rejections_total",
			metric.WithDescription("Rejected adaptive step attempts"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func startPropagateSpan(ctx context.Context, method string, span time.Duration) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Propagator.Propagate",
		trace.WithAttributes(
			attribute.String("propagator.method", method),
			attribute.Float64("propagator.span_seconds", span.Seconds()),
		),
	)
}

func finishPropagateSpan(span trace.Span, stats Stats, err error) {
	span.SetAttributes(
		attribute.Int("propagator.steps", stats.Steps),
		attribute.Int("propagator.rejections", stats.Rejections),
		attribute.Int("propagator.evaluations", stats.Evaluations),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func recordPropagateMetrics(ctx context.Context, method string, elapsed time.Duration, stats Stats, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.Bool("success", success),
	)
	propagateLatency.Record(ctx, elapsed.Seconds(), attrs)
	stepsTotal.Add(ctx, int64(stats.Steps), attrs)
	rejectionsTotal.Add(ctx, int64(stats.Rejections), attrs)
}
