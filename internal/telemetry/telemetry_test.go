package telemetry

import (
	"context"
	"ctchen222/Todo-Tracker/internal/config"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitOtel_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitOtel(context.Background(), config.TelemetryConfig{ServiceName: "todo-tracker"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewResource_CarriesServiceName(t *testing.T) {
	res, err := newResource("todo-tracker")
	require.NoError(t, err)

	var name string
	for _, kv := range res.Attributes() {
		if kv.Key == "service.name" {
			name = kv.Value.AsString()
		}
	}
	assert.Equal(t, "todo-tracker", name)
}

func TestNamed_WrapsShutdownErrors(t *testing.T) {
	fn := named("MeterProvider", func(context.Context) error { return errors.New("boom") })
	assert.EqualError(t, fn(context.Background()), "failed to shutdown MeterProvider: boom")
	assert.NoError(t, named("MeterProvider", func(context.Context) error { return nil })(context.Background()))
}
