package application

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/mlagent/internal/descriptor"
	"github.com/zjrosen/mlagent/internal/log"
	"github.com/zjrosen/mlagent/internal/registry/domain"
	"github.com/zjrosen/mlagent/internal/tracing"
)

// KindReport summarizes the ingestion of one descriptor file.
type KindReport struct {
	Kind       descriptor.Kind
	Path       string
	Found      bool
	ParseErr   error
	Registered int
	Skipped    int   // records rejected by validation
	Failed     int   // records the registry refused
	Versions   []int // model versions assigned, in record order
}

// Report summarizes one ingestion pass over a package resource root.
type Report struct {
	Root    string
	AppInfo domain.AppInfo
	Kinds   []KindReport
}

// Registered returns the number of artifacts registered across all kinds.
func (r Report) Registered() int {
	n := 0
	for _, k := range r.Kinds {
		n += k.Registered
	}
	return n
}

// Kind returns the report for kind, if it was ingested.
func (r Report) Kind(kind descriptor.Kind) (KindReport, bool) {
	for _, k := range r.Kinds {
		if k.Kind == kind {
			return k, true
		}
	}
	return KindReport{}, false
}

// Ingester runs locate, parse, map and sync for the descriptors under a root.
type Ingester struct {
	sync   *Synchronizer
	tracer trace.Tracer
}

// NewIngester creates an ingester applying entries through sync.
func NewIngester(sync *Synchronizer, tracer trace.Tracer) *Ingester {
	return &Ingester{sync: sync, tracer: tracing.OrNoop(tracer)}
}

// IngestAll ingests every kind in processing order. A problem with one kind
// never prevents the next.
func (i *Ingester) IngestAll(ctx context.Context, root string, info domain.AppInfo) Report {
	report := Report{Root: root, AppInfo: info}
	for _, kind := range descriptor.Kinds() {
		report.Kinds = append(report.Kinds, i.IngestKind(ctx, root, kind, info))
	}
	log.Info(log.CatRegistry, "Ingested package resources",
		"root", root, "app_id", info.AppID, "registered", report.Registered())
	return report
}

// IngestKind ingests the descriptor of one kind under root.
func (i *Ingester) IngestKind(ctx context.Context, root string, kind descriptor.Kind, info domain.AppInfo) KindReport {
	ctx, span := tracing.Start(ctx, i.tracer, tracing.SpanIngestKind, tracing.AttrArtifactKind, string(kind))
	defer span.End()

	report := KindReport{Kind: kind}

	path, found := descriptor.Locate(root, kind)
	report.Path = path
	report.Found = found
	span.SetAttributes(attribute.String(tracing.AttrDescriptor, path))
	if !found {
		span.AddEvent(tracing.EventDescriptorMissing)
		return report
	}

	records, err := descriptor.Parse(path)
	if err != nil {
		log.ErrorErr(log.CatDescriptor, "Failed to parse descriptor", err, "path", path)
		span.AddEvent(tracing.EventParseFailed)
		tracing.Fail(span, err)
		report.ParseErr = err
		return report
	}
	span.SetAttributes(attribute.Int(tracing.AttrRecordCount, len(records)))

	for idx, rec := range records {
		entry, err := descriptor.Map(kind, rec, info)
		if err != nil {
			var ve *descriptor.ValidationError
			if errors.As(err, &ve) {
				ve.Index = idx
			}
			log.ErrorErr(log.CatDescriptor, "Skipping descriptor record", err, "path", path, "index", idx)
			span.AddEvent(tracing.EventRecordSkipped, trace.WithAttributes(attribute.Int("index", idx)))
			report.Skipped++
			continue
		}

		version, err := i.sync.Apply(ctx, entry)
		if err != nil {
			report.Failed++
			continue
		}
		report.Registered++
		if kind == descriptor.KindModel {
			report.Versions = append(report.Versions, version)
		}
	}

	span.SetAttributes(
		attribute.Int(tracing.AttrRegistered, report.Registered),
		attribute.Int(tracing.AttrSkipped, report.Skipped),
		attribute.Int(tracing.AttrFailed, report.Failed),
	)
	return report
}
