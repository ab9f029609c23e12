package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider     *metric.MeterProvider
	meter             otelmetric.Meter
	requestCounter    otelmetric.Int64Counter
	requestDuration   otelmetric.Float64Histogram
	predictionCounter otelmetric.Int64Counter
	similarityCounter otelmetric.Int64Counter
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	requestCounter, _ := meter.Int64Counter(
		"requests.processed",
		otelmetric.WithDescription("Number of API requests processed"),
	)

	requestDuration, _ := meter.Float64Histogram(
		"requests.duration",
		otelmetric.WithDescription("API request handling duration"),
		otelmetric.WithUnit("ms"),
	)

	predictionCounter, _ := meter.Int64Counter(
		"predictions.processed",
		otelmetric.WithDescription("Number of waste predictions produced"),
	)

	similarityCounter, _ := meter.Int64Counter(
		"similarity.queries",
		otelmetric.WithDescription("Number of food alternative lookups"),
	)

	return &Observability{
		meterProvider:     provider,
		meter:             meter,
		requestCounter:    requestCounter,
		requestDuration:   requestDuration,
		predictionCounter: predictionCounter,
		similarityCounter: similarityCounter,
	}
}

func (o *Observability) RecordRequest(ctx context.Context, route, status string) {
	if o.requestCounter != nil {
		o.requestCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("route", route),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordRequestDuration(ctx context.Context, route string, duration time.Duration) {
	if o.requestDuration != nil {
		o.requestDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("route", route),
		))
	}
}

func (o *Observability) RecordPrediction(ctx context.Context, confidence string) {
	if o.predictionCounter != nil {
		o.predictionCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("confidence", confidence),
		))
	}
}

func (o *Observability) RecordSimilarityQuery(ctx context.Context, outcome string) {
	if o.similarityCounter != nil {
		o.similarityCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
