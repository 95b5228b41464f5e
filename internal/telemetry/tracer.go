package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

type Config struct {
	ServiceName string
	Environment string
	// OTLPEndpoint is host:port, or a URL whose scheme picks TLS
	OTLPEndpoint string
	Enabled      bool
	SamplingRate float64
}

// InitTracer installs the global tracer provider and W3C propagators.
// A disabled config returns a nil provider and no error.
func InitTracer(ctx context.Context, cfg Config) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}

	exporter, err := otlptracehttp.New(ctx, exporterOptions(cfg.OTLPEndpoint)...)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}

	tp := NewProvider(sdktrace.NewBatchSpanProcessor(exporter), res, cfg.SamplingRate)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, nil
}

func exporterOptions(endpoint string) []otlptracehttp.Option {
	if host, ok := strings.CutPrefix(endpoint, "https://"); ok {
		return []otlptracehttp.Option{otlptracehttp.WithEndpoint(strings.TrimSuffix(host, "/"))}
	}
	host := strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/")
	return []otlptracehttp.Option{otlptracehttp.WithEndpoint(host), otlptracehttp.WithInsecure()}
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

// NewProvider builds a provider around processor. res may be nil.
func NewProvider(processor sdktrace.SpanProcessor, res *resource.Resource, samplingRate float64) *sdktrace.TracerProvider {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSpanProcessor(processor),
		sdktrace.WithSampler(sampler(samplingRate)),
	}
	if res != nil {
		opts = append(opts, sdktrace.WithResource(res))
	}
	return sdktrace.NewTracerProvider(opts...)
}
