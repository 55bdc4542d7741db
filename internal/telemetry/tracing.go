// Package telemetry installs the global OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type Exporter string

const (
	ExporterNone   Exporter = "none"
	ExporterStdout Exporter = "stdout"
	ExporterOTLP   Exporter = "otlp"
)

func ParseExporter(s string) (Exporter, error) {
	switch e := Exporter(strings.ToLower(strings.TrimSpace(s))); e {
	case "", ExporterNone:
		return ExporterNone, nil
	case ExporterStdout, ExporterOTLP:
		return e, nil
	}
	return "", fmt.Errorf("unknown trace exporter %q", s)
}

type Config struct {
	Exporter    Exporter
	ServiceName string
	// OTLPEndpoint is host:port; empty uses the exporter's environment defaults.
	OTLPEndpoint string
	// Stdout receives spans for ExporterStdout.
	Stdout io.Writer
}

// Setup installs a tracer provider for cfg and returns its shutdown function.
// ExporterNone leaves the global no-op provider in place.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	var exp sdktrace.SpanExporter
	switch cfg.Exporter {
	case ExporterNone, "":
		return noop, nil
	case ExporterStdout:
		opts := []stdouttrace.Option{}
		if cfg.Stdout != nil {
			opts = append(opts, stdouttrace.WithWriter(cfg.Stdout))
		}
		e, err := stdouttrace.New(opts...)
		if err != nil {
			return noop, fmt.Errorf("stdout exporter: %w", err)
		}
		exp = e
	case ExporterOTLP:
		opts := []otlptracehttp.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint), otlptracehttp.WithInsecure())
		}
		e, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return noop, fmt.Errorf("otlp exporter: %w", err)
		}
		exp = e
	default:
		return noop, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}

	name := cfg.ServiceName
	if name == "" {
		name = "taskboard"
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp.Shutdown, nil
}
