package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	documentsProcessed metric.Int64Counter
	extractionFailures metric.Int64Counter
	reviewDecisions    metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "freightaudit"
	}
	meter := provider.Meter(name)

	documentsProcessed, err := meter.Int64Counter("freightaudit_documents_processed_total")
	if err != nil {
		return nil, err
	}
	extractionFailures, err := meter.Int64Counter("freightaudit_extraction_failures_total")
	if err != nil {
		return nil, err
	}
	reviewDecisions, err := meter.Int64Counter("freightaudit_review_decisions_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		documentsProcessed: documentsProcessed,
		extractionFailures: extractionFailures,
		reviewDecisions:    reviewDecisions,
	}, nil
}

// RecordDocumentProcessed increments per-document pipeline outcomes.
func (m *Metrics) RecordDocumentProcessed(ctx context.Context, jobType, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("job_type", strings.TrimSpace(jobType)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.documentsProcessed.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordExtractionFailure increments extraction failure counts.
func (m *Metrics) RecordExtractionFailure(ctx context.Context, jobType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("job_type", strings.TrimSpace(jobType)))
	m.extractionFailures.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordReviewDecision increments review decision counts.
func (m *Metrics) RecordReviewDecision(ctx context.Context, decision string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("decision", strings.TrimSpace(decision)))
	m.reviewDecisions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"job_type":    {},
	"outcome":     {},
	"decision":    {},
	"endpoint":    {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
