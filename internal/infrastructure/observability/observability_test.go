package observability

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/whatsapp-api/internal/config"
)

func TestSplitEndpoint(t *testing.T) {
	endpoint, insecure := splitEndpoint("https://otel.example.com:4318")
	assert.Equal(t, "otel.example.com:4318", endpoint)
	assert.False(t, insecure)

	endpoint, insecure = splitEndpoint("http://collector:4318")
	assert.Equal(t, "collector:4318", endpoint)
	assert.True(t, insecure)

	endpoint, insecure = splitEndpoint("collector:4318")
	assert.Equal(t, "collector:4318", endpoint)
	assert.True(t, insecure)
}

func TestSetupWithoutExporter(t *testing.T) {
	shutdown, err := Setup(context.Background(), &config.Config{ServiceName: "whatsapp-api", Environment: "test"}, zerolog.Nop())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
