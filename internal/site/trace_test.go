package site

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"courtscrape/internal/fetcher"
)

// spans records every span the package's tracer ends during the test run.
var spans = func() *tracetest.SpanRecorder {
	sr := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
	return sr
}()

func runSpan(t *testing.T, courtID string) map[attribute.Key]attribute.Value {
	t.Helper()
	for _, span := range spans.Ended() {
		if span.Name() != "Site.Run" {
			continue
		}
		attrs := make(map[attribute.Key]attribute.Value, len(span.Attributes()))
		for _, kv := range span.Attributes() {
			attrs[kv.Key] = kv.Value
		}
		if attrs["court_id"].AsString() == courtID {
			attrs["status.code"] = attribute.StringValue(span.Status().Code.String())
			return attrs
		}
	}
	t.Fatalf("no Site.Run span for %s", courtID)
	return nil
}

func TestRunRecordsSpan(t *testing.T) {
	cfg := tableConfig()
	cfg.CourtID = "traced"
	dl := &stubDownloader{pages: map[string]string{"https://c.test/list?month=201609&type=opinions": tablePage}}
	s, err := New(cfg, dl, WithClock(clock))
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.NoError(t, err)

	attrs := runSpan(t, "traced")
	assert.Equal(t, "201609", attrs["key"].AsString())
	assert.Equal(t, string(fetcher.StrategyDirect), attrs["strategy"].AsString())
	assert.Equal(t, string(StateValidated), attrs["outcome"].AsString())
	assert.Equal(t, int64(2), attrs["records"].AsInt64())
	assert.Equal(t, codes.Unset.String(), attrs["status.code"].AsString())
}

func TestRunRecordsFailedSpan(t *testing.T) {
	cfg := tableConfig()
	cfg.CourtID = "traced-fatal"
	url := "https://c.test/list?month=201609&type=opinions"
	dl := &stubDownloader{errs: map[string]error{url: &fetcher.NetworkError{URL: url, Err: errors.New("reset")}}}
	s, err := New(cfg, dl, WithClock(clock))
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.Error(t, err)

	attrs := runSpan(t, "traced-fatal")
	assert.Equal(t, string(StateFailedFatal), attrs["outcome"].AsString())
	assert.Equal(t, codes.Error.String(), attrs["status.code"].AsString())
}
