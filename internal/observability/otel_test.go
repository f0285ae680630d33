package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOtelHeaders(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-api-key=abc, bad, =v,k= ,tenant=codepath")
	assert.Equal(t, map[string]string{"x-api-key": "abc", "tenant": "codepath"}, otelHeaders())

	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")
	assert.Nil(t, otelHeaders())
}

func TestOtelSampleRatio(t *testing.T) {
	cases := map[string]float64{"": 0.1, "0.5": 0.5, "-1": 0, "3": 1, "lots": 0.1}
	for in, want := range cases {
		t.Setenv("OTEL_SAMPLER_RATIO", in)
		assert.Equal(t, want, otelSampleRatio(), in)
	}
}

func TestTracer_NoopWithoutInit(t *testing.T) {
	_, span := Tracer().Start(context.Background(), "x")
	defer span.End()
	assert.False(t, span.SpanContext().IsValid())
}
