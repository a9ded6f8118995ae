// Package telemetry carries the SDK's logging, metrics and tracing: a
// logrus JSON logger, core.Observer implementations backed by Prometheus
// and OpenTelemetry metrics, and a tracing core.Requester decorator.
package telemetry

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var (
	providersMu    sync.Mutex
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
)

// Init initializes all telemetry components
func Init(ctx context.Context, cfg *Config) error {
	if err := InitLogger(cfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	res, err := NewResource(ctx, cfg)
	if err != nil {
		return err
	}

	mp, err := InitMetrics(ctx, cfg, res)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	tp, err := InitTracing(ctx, cfg, res)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	providersMu.Lock()
	meterProvider, tracerProvider = mp, tp
	providersMu.Unlock()

	L().WithFields(map[string]interface{}{
		"service":     cfg.ServiceName,
		"version":     cfg.ServiceVersion,
		"environment": cfg.Environment,
		"tracing":     cfg.EnableTracing,
		"metrics":     cfg.EnableMetrics,
	}).Debug("Telemetry initialized")

	return nil
}

// Shutdown flushes exporters and closes the log file, if any.
func Shutdown(ctx context.Context) error {
	providersMu.Lock()
	tp, mp := tracerProvider, meterProvider
	tracerProvider, meterProvider = nil, nil
	providersMu.Unlock()

	var result *multierror.Error
	if tp != nil {
		if err := tp.Shutdown(ctx); err != nil {
			L().WithError(err).Error("Failed to close tracing")
			result = multierror.Append(result, err)
		}
	}
	if mp != nil {
		if err := mp.Shutdown(ctx); err != nil {
			L().WithError(err).Error("Failed to close metrics")
			result = multierror.Append(result, err)
		}
	}
	if err := CloseLogger(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
