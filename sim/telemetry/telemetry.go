// Package telemetry exports scheduler rounds as OpenTelemetry spans.
//
// A run becomes one span; every round becomes a child span carrying the tag
// and round statistics, and every reaction invocation becomes an event on
// its round's span.
package telemetry

import (
	"context"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName names the tracer used for scheduler spans.
const InstrumentationName = "github.com/reactor-sim/reactor-sim/sim"

var (
	providerOnce sync.Once
	providerErr  error
	provider     *sdktrace.TracerProvider
	output       io.Closer
)

// Init installs a global tracer provider exporting spans as JSON with the
// stdout exporter. An empty outputFile or "-" writes to os.Stdout. The first
// successful initialisation wins.
func Init(serviceName, serviceVersion, outputFile string) error {
	var w io.Writer = os.Stdout
	var closer io.Closer
	if outputFile != "" && outputFile != "-" {
		f, err := os.Create(outputFile)
		if err != nil {
			return err
		}
		w, closer = f, f
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return err
	}
	if err := installProvider(serviceName, serviceVersion, exporter); err != nil {
		return err
	}
	output = closer
	return nil
}

// InitWithExporter installs a global tracer provider using exporter.
func InitWithExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) error {
	return installProvider(serviceName, serviceVersion, exporter)
}

func installProvider(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) error {
	if exporter == nil {
		return nil
	}
	providerOnce.Do(func() {
		res, err := resource.New(context.Background(),
			resource.WithAttributes(
				attribute.String("service.name", serviceName),
				attribute.String("service.version", serviceVersion),
			),
		)
		if err != nil {
			providerErr = err
			return
		}
		provider = sdktrace.NewTracerProvider(
			sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(provider)
	})
	return providerErr
}

// Shutdown flushes and stops the provider installed by Init and closes its
// output file.
func Shutdown(ctx context.Context) error {
	if provider == nil {
		return nil
	}
	err := provider.Shutdown(ctx)
	if output != nil {
		if cerr := output.Close(); err == nil {
			err = cerr
		}
		output = nil
	}
	return err
}

// Tracer returns the scheduler tracer of the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}
