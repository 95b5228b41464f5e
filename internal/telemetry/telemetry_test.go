package telemetry

import (
	"context"
	"testing"

	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracerDisabled(t *testing.T) {
	tp, err := InitTracer(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, tp)
}

func attr(span sdktrace.ReadOnlySpan, key string) attribute.Value {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func spansByName(recorder *tracetest.SpanRecorder) map[string]sdktrace.ReadOnlySpan {
	out := make(map[string]sdktrace.ReadOnlySpan)
	for _, span := range recorder.Ended() {
		out[span.Name()] = span
	}
	return out
}

func TestGORMTracingPluginRecordsStatements(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := NewProvider(recorder, nil, 1.0)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	db := testutil.NewTestDB(t)
	require.NoError(t, db.Use(GORMTracingPluginWith(tp)))

	ctx := context.Background()
	testutil.CreateUser(t, db.WithContext(ctx), "traced", models.RolePatient)

	var missing models.User
	require.Error(t, db.WithContext(ctx).First(&missing, "id = ?", "nope").Error)

	spans := spansByName(recorder)

	insert, ok := spans["INSERT users"]
	require.True(t, ok)
	assert.Equal(t, "sqlite", attr(insert, attrDBSystem).AsString())
	assert.Equal(t, "users", attr(insert, attrDBTable).AsString())
	assert.Equal(t, int64(1), attr(insert, attrDBRows).AsInt64())
	assert.Contains(t, attr(insert, attrDBStatement).AsString(), "INSERT INTO")

	query, ok := spans["SELECT users"]
	require.True(t, ok)
	assert.NotEqual(t, codes.Error, query.Status().Code, "not found is not a span error")
}

func TestGORMTracingPluginRecordsFailures(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := NewProvider(recorder, nil, 1.0)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	db := testutil.NewTestDB(t)
	require.NoError(t, db.Use(GORMTracingPluginWith(tp)))

	require.Error(t, db.WithContext(context.Background()).Exec("SELECT * FROM no_such_table").Error)

	span, ok := spansByName(recorder)["EXEC"]
	require.True(t, ok)
	assert.Equal(t, codes.Error, span.Status().Code)
}

func TestSamplingRateBounds(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Equal(t, "AlwaysOffSampler", sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestExporterEndpointScheme(t *testing.T) {
	assert.Len(t, exporterOptions("https://otel.example.com/"), 1)
	assert.Len(t, exporterOptions("http://localhost:4318"), 2)
	assert.Len(t, exporterOptions("localhost:4318"), 2)
}

func TestDBSystemName(t *testing.T) {
	assert.Equal(t, "postgresql", dbSystem("postgres"))
	assert.Equal(t, "sqlite", dbSystem("sqlite"))
}
