package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"keystone/internal/platform/config"
)

func TestInitWithoutEndpointInstallsPropagatorOnly(t *testing.T) {
	shutdown, err := Init(context.Background(), config.Tracing{SampleRatio: 1}, "test")
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.ElementsMatch(t, []string{"traceparent", "tracestate", "baggage"}, otel.GetTextMapPropagator().Fields())
	assert.NoError(t, shutdown(context.Background()))
}
