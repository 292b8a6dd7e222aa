package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/pagebundle"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Build metrics
	BuildDuration    metric.Float64Histogram
	BuildErrorsTotal metric.Int64Counter

	// Output metrics
	PagesRenderedTotal metric.Int64Counter
	AssetsEmittedTotal metric.Int64Counter
	AssetsInlinedTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.BuildDuration, _ = meter.Float64Histogram(
		"pagebundle.build.duration",
		metric.WithDescription("Duration of complete site builds"),
		metric.WithUnit("ms"),
	)

	m.BuildErrorsTotal, _ = meter.Int64Counter(
		"pagebundle.build.errors.total",
		metric.WithDescription("Total number of failed builds"),
		metric.WithUnit("{error}"),
	)

	m.PagesRenderedTotal, _ = meter.Int64Counter(
		"pagebundle.pages.rendered.total",
		metric.WithDescription("Total number of pages rendered"),
		metric.WithUnit("{page}"),
	)

	m.AssetsEmittedTotal, _ = meter.Int64Counter(
		"pagebundle.assets.emitted.total",
		metric.WithDescription("Total number of assets written as separate files"),
		metric.WithUnit("{asset}"),
	)

	m.AssetsInlinedTotal, _ = meter.Int64Counter(
		"pagebundle.assets.inlined.total",
		metric.WithDescription("Total number of assets embedded as data URLs"),
		metric.WithUnit("{asset}"),
	)

	return m
}
