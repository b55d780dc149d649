// internal/common/observability/metrics.go
package observability

import (
	"context"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"usahud-crm/internal/common/config"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	stepCounter    otelmetric.Int64Counter
}

// New wires the OpenTelemetry meter provider to the default Prometheus
// registry and, when an endpoint is configured, exports spans to Jaeger.
func New(serviceName string, tracing config.TracingConfig) (*Observability, error) {
	return newWithRegisterer(serviceName, tracing, promclient.DefaultRegisterer)
}

func newWithRegisterer(serviceName string, tracing config.TracingConfig, reg promclient.Registerer) (*Observability, error) {
	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	o := &Observability{meterProvider: provider}

	o.jobCounter, _ = meter.Int64Counter("jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"))
	o.jobDuration, _ = meter.Float64Histogram("jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"))
	o.stepCounter, _ = meter.Int64Counter("workflow.steps",
		otelmetric.WithDescription("Workflow steps executed"))

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(tracing.SampleRatio))),
	}
	if tracing.JaegerEndpoint != "" {
		jexp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(tracing.JaegerEndpoint)))
		if err != nil {
			return nil, fmt.Errorf("create jaeger exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(jexp))
	}
	o.tracerProvider = sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(o.tracerProvider)
	o.tracer = o.tracerProvider.Tracer(serviceName)

	return o, nil
}

// StartSpan opens a span named name under ctx.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return otel.Tracer("usahud-crm").Start(ctx, name, trace.WithAttributes(attrs...))
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o != nil && o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration) {
	if o != nil && o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
		))
	}
}

func (o *Observability) RecordWorkflowStep(ctx context.Context, action, status string) {
	if o != nil && o.stepCounter != nil {
		o.stepCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("action", action),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	var firstErr error
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
