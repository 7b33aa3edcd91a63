package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Span attribute keys.
const (
	AttrPackageID    = "package.id"
	AttrPackageKind  = "package.event.kind"
	AttrPackagePhase = "package.event.phase"
	AttrEventID      = "package.event.id"
	AttrArtifactKind = "artifact.kind"
	AttrArtifactName = "artifact.name"
	AttrModelVersion = "model.version"
	AttrDescriptor   = "descriptor.path"
	AttrRecordCount  = "descriptor.records"
	AttrRegistered   = "registry.registered"
	AttrSkipped      = "registry.skipped"
	AttrFailed       = "registry.failed"
	AttrErrorMessage = "error.message"
)

// Span names.
const (
	SpanHandleEvent = "pkgmgr.handle"
	SpanIngestKind  = "registry.ingest"
	SpanSync        = "registry.sync"
	SpanInvalidate  = "registry.invalidate"
)

// Event names.
const (
	EventDescriptorMissing = "descriptor.missing"
	EventParseFailed       = "descriptor.parse_failed"
	EventRecordSkipped     = "record.skipped"
	EventClearFailed       = "clear_previous.failed"
)

// OrNoop returns t, or a no-op tracer when t is nil.
func OrNoop(t trace.Tracer) trace.Tracer {
	if t == nil {
		return noop.NewTracerProvider().Tracer(defaultServiceName)
	}
	return t
}

// Start begins a span with string attributes given as key, value pairs.
func Start(ctx context.Context, t trace.Tracer, name string, kv ...string) (context.Context, trace.Span) {
	attrs := make([]attribute.KeyValue, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		attrs = append(attrs, attribute.String(kv[i], kv[i+1]))
	}
	return OrNoop(t).Start(ctx, name, trace.WithAttributes(attrs...))
}

// Fail marks span as errored.
func Fail(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
}
