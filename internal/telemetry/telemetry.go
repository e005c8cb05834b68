// Package telemetry sets up OpenTelemetry metrics with a Prometheus exporter
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Config controls metrics export
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
}

var (
	handler   http.Handler
	handlerMu sync.RWMutex
)

// Init installs a meter provider backed by the Prometheus exporter.
// When metrics are disabled the global no-op provider stays in place.
func Init(_ context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	if cfg.ServiceName == "" {
		return nil, errors.New("telemetry service name is required")
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
		attribute.String("deployment.environment", cfg.Environment),
	)

	// Registers with the default prometheus registry served by promhttp.Handler
	exporter, err := promexporter.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(mp)

	handlerMu.Lock()
	handler = promhttp.Handler()
	handlerMu.Unlock()

	return mp.Shutdown, nil
}

// MetricsHandler returns the /metrics handler, or nil before Init enabled metrics
func MetricsHandler() http.Handler {
	handlerMu.RLock()
	defer handlerMu.RUnlock()
	return handler
}
