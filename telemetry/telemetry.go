package telemetry

import (
	"context"
	"os"
	"strings"

	"chatrelay/common"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	traceFilePrefix   = "traces-"
	traceFileSuffix   = ".json"
	maxTraceFileCount = 7
)

func GetOtelEnabled() bool {
	val := os.Getenv("CHATRELAY_OTEL_ENABLED")
	if val == "" {
		return true
	}
	lower := strings.ToLower(val)
	return lower != "false" && lower != "0"
}

func GetOtelEndpoint() string {
	return os.Getenv("CHATRELAY_OTEL_ENDPOINT")
}

func IsEnabled() bool {
	return GetOtelEnabled()
}

// InitTracer installs the global tracer provider. Spans go to the OTLP
// endpoint when one is configured, otherwise to daily trace files in the
// state directory. The returned func flushes and shuts the provider down.
func InitTracer(serviceName string) (func(context.Context) error, error) {
	if !IsEnabled() {
		return func(ctx context.Context) error { return nil }, nil
	}

	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := newExporter(ctx)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp.Shutdown, nil
}

func newExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	if endpoint := GetOtelEndpoint(); endpoint != "" {
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
	}

	stateHome, err := common.GetStateHome()
	if err != nil {
		return nil, err
	}

	rotatingWriter, err := common.NewDailyRotatingWriter(stateHome, traceFilePrefix, traceFileSuffix, maxTraceFileCount)
	if err != nil {
		return nil, err
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithPrettyPrint(),
		stdouttrace.WithWriter(rotatingWriter),
	)
	if err != nil {
		rotatingWriter.Close()
		return nil, err
	}
	return exporter, nil
}
