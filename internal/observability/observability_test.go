package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestRecordEvent(t *testing.T) {
	before := testutil.ToFloat64(DomainEvents.WithLabelValues("article.created"))
	RecordEvent("article.created")
	RecordEvent("article.created")
	assert.Equal(t, before+2, testutil.ToFloat64(DomainEvents.WithLabelValues("article.created")))
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(CacheLookups.WithLabelValues("tags", "hit"))
	misses := testutil.ToFloat64(CacheLookups.WithLabelValues("tags", "miss"))

	RecordCacheLookup("tags", true)
	RecordCacheLookup("tags", false)
	RecordCacheLookup("tags", false)

	assert.Equal(t, hits+1, testutil.ToFloat64(CacheLookups.WithLabelValues("tags", "hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(CacheLookups.WithLabelValues("tags", "miss")))
}

func TestTrackQuery(t *testing.T) {
	done := TrackQuery("select", "articles")
	done()
	assert.Equal(t, 1, testutil.CollectAndCount(DatabaseQueryLatency, "conduit_database_query_latency_seconds"))
}

func TestInitTracing_Disabled(t *testing.T) {
	for _, cfg := range []TracingConfig{
		{ServiceName: "conduit-test"},
		{ServiceName: "conduit-test", Enabled: true, Exporter: "none"},
	} {
		shutdown, err := InitTracing(context.Background(), cfg)
		require.NoError(t, err)
		require.NoError(t, shutdown(context.Background()))
	}

	ctx, span := StartSpan(context.Background(), "ArticleService", "Create", attribute.String("slug", "x"))
	assert.NotNil(t, ctx)
	EndSpan(span, errors.New("boom"))
}

func TestInitTracing_ExporterErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TracingConfig
		wantErr string
	}{
		{"unknown exporter", TracingConfig{Enabled: true, Exporter: "zipkin"}, "unknown tracing exporter"},
		{"otlp without endpoint", TracingConfig{Enabled: true, Exporter: "otlp"}, "OTLP_ENDPOINT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InitTracing(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased{0.25}")
}
