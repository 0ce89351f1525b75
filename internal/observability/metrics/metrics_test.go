package metrics

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("job_type", "invoice"),
		attribute.String("file_name", "inv-001.pdf"),
		attribute.String("outcome", "matched"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "file_name" {
			t.Fatalf("expected high-cardinality file_name to be dropped")
		}
	}
}
