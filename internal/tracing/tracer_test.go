package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.False(t, cfg.Enabled, "tracing should be disabled by default")
	require.Equal(t, "file", cfg.Exporter)
	require.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	require.Equal(t, 1.0, cfg.SampleRate)
	require.Equal(t, "mlagent", cfg.ServiceName)
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(Config{Enabled: false})
	require.NoError(t, err)
	require.False(t, provider.Enabled())

	_, span := provider.Tracer().Start(context.Background(), "noop")
	require.False(t, span.SpanContext().IsValid(), "disabled tracer records nothing")
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_FileExporter_WritesSpans(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "traces", "traces.jsonl")

	provider, err := NewProvider(Config{
		Enabled:  true,
		Exporter: "file",
		FilePath: tracePath,
	})
	require.NoError(t, err)
	require.True(t, provider.Enabled())

	ctx, span := Start(context.Background(), provider.Tracer(), SpanHandleEvent,
		AttrPackageID, "app1", AttrPackageKind, "install")
	_, child := Start(ctx, provider.Tracer(), SpanIngestKind, AttrArtifactKind, "model")
	child.End()
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))

	records := readRecords(t, tracePath)
	require.Len(t, records, 2)

	byName := map[string]SpanRecord{}
	for _, r := range records {
		byName[r.Name] = r
	}
	root := byName[SpanHandleEvent]
	require.Equal(t, "app1", root.Attributes[AttrPackageID])
	require.Equal(t, root.SpanID, byName[SpanIngestKind].ParentSpanID)
	require.Equal(t, root.TraceID, byName[SpanIngestKind].TraceID)
}

func TestNewProvider_Exporters(t *testing.T) {
	for _, exporter := range []string{"stdout", "none", ""} {
		t.Run(exporter, func(t *testing.T) {
			provider, err := NewProvider(Config{Enabled: true, Exporter: exporter})
			require.NoError(t, err)
			_, span := provider.Tracer().Start(context.Background(), "s")
			span.End()
			require.NoError(t, provider.Shutdown(context.Background()))
		})
	}
}

func TestNewProvider_Errors(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "file"})
	require.ErrorContains(t, err, "file_path required")

	_, err = NewProvider(Config{Enabled: true, Exporter: "zipkin"})
	require.ErrorContains(t, err, "unsupported exporter")
}

func TestFail_MarksSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := Start(context.Background(), tp.Tracer("test"), SpanSync)
	Fail(span, nil)
	Fail(span, errors.New("boom"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	require.Equal(t, "boom", ended[0].Status().Description)
	require.Contains(t, ended[0].Attributes(), attribute.String(AttrErrorMessage, "boom"))
}

func TestOrNoop(t *testing.T) {
	require.NotNil(t, OrNoop(nil))
	_, span := Start(context.Background(), nil, "odd", "key")
	span.End()
}

func readRecords(t *testing.T, path string) []SpanRecord {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []SpanRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r SpanRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		records = append(records, r)
	}
	require.NoError(t, sc.Err())
	return records
}
