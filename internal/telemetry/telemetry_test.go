package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"courtscrape/internal/config"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	tel, err := Setup(context.Background(), config.TelemetryConfig{Protocol: "http"})
	require.NoError(t, err)
	assert.False(t, tel.Enabled())
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestSetupUnknownProtocol(t *testing.T) {
	_, err := Setup(context.Background(), config.TelemetryConfig{
		Endpoint: "http://127.0.0.1:4318/v1/traces",
		Protocol: "carrier-pigeon",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestSetupExportsSpansOverHTTP(t *testing.T) {
	var (
		mu      sync.Mutex
		paths   []string
		apiKeys []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		apiKeys = append(apiKeys, r.Header.Get("x-api-key"))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/x-protobuf")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tel, err := Setup(context.Background(), config.TelemetryConfig{
		Endpoint:    srv.URL + "/v1/traces",
		Protocol:    "http",
		Headers:     map[string]string{"x-api-key": "secret"},
		ServiceName: "courtscrape-test",
	})
	require.NoError(t, err)
	require.True(t, tel.Enabled())
	assert.Same(t, tel.TracerProvider, otel.GetTracerProvider())

	_, span := otel.Tracer("courtscrape/test").Start(context.Background(), "Site.Run")
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, tel.Shutdown(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, paths, "spans are flushed on shutdown")
	assert.Equal(t, "/v1/traces", paths[0])
	assert.Equal(t, "secret", apiKeys[0])
}
