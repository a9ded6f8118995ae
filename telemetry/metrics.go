package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/zcatalyst/catalyst-go-sdk/core"
)

// PrometheusObserver records request counts and latencies as Prometheus
// metrics. It implements core.Observer.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	obs, err := telemetry.NewPrometheusObserver(reg, "myapp")
//	cfg := transport.DefaultConfig().WithObserver(obs)
type PrometheusObserver struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

var _ core.Observer = (*PrometheusObserver)(nil)

// NewPrometheusObserver registers the request metrics with reg under namespace.
func NewPrometheusObserver(reg prometheus.Registerer, namespace string) (*PrometheusObserver, error) {
	o := &PrometheusObserver{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalyst_requests_total",
			Help:      "Total number of requests sent to the Catalyst backend",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalyst_request_duration_seconds",
			Help:      "Duration of requests sent to the Catalyst backend in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalyst_requests_in_flight",
			Help:      "Number of requests currently in flight",
		}),
	}

	for _, c := range []prometheus.Collector{o.requests, o.duration, o.inflight} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return o, nil
}

// OnRequestStart implements core.Observer
func (o *PrometheusObserver) OnRequestStart(method, path string) {
	o.inflight.Inc()
}

// OnRequestEnd implements core.Observer
func (o *PrometheusObserver) OnRequestEnd(method, path string, status int, duration time.Duration, err error) {
	o.inflight.Dec()
	route := Route(path)
	o.requests.WithLabelValues(method, route, statusLabel(status, err)).Inc()
	o.duration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// MeterObserver records request metrics through the OpenTelemetry metric
// API. It implements core.Observer.
type MeterObserver struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

var _ core.Observer = (*MeterObserver)(nil)

// NewMeterObserver creates the request instruments on meter. Pass nil to
// use the global meter provider.
func NewMeterObserver(meter metric.Meter) (*MeterObserver, error) {
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}

	requests, err := meter.Int64Counter("catalyst.requests",
		metric.WithDescription("Requests sent to the Catalyst backend"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	duration, err := meter.Float64Histogram("catalyst.request.duration",
		metric.WithDescription("Duration of requests sent to the Catalyst backend"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &MeterObserver{requests: requests, duration: duration}, nil
}

// OnRequestStart implements core.Observer
func (o *MeterObserver) OnRequestStart(method, path string) {}

// OnRequestEnd implements core.Observer
func (o *MeterObserver) OnRequestEnd(method, path string, status int, duration time.Duration, err error) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("catalyst.route", Route(path)),
		attribute.String("catalyst.status", statusLabel(status, err)),
	)
	o.requests.Add(ctx, 1, attrs)
	o.duration.Record(ctx, duration.Seconds(), attrs)
}

// InitMetrics installs a global meter provider exporting over OTLP gRPC.
// It does nothing unless cfg.EnableMetrics is set.
func InitMetrics(ctx context.Context, cfg *Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	if !cfg.EnableMetrics {
		return nil, nil
	}

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(cfg.MetricsInterval)*time.Second),
			),
		),
	)
	otel.SetMeterProvider(provider)
	return provider, nil
}

// Route collapses numeric path segments so that metric labels stay
// bounded: "/segment/2136000000007733/cache" becomes "/segment/:id/cache".
func Route(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := strconv.ParseUint(p, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

func statusLabel(status int, err error) string {
	if status == 0 {
		if err != nil {
			return "error"
		}
		return "unknown"
	}
	return strconv.Itoa(status)
}
