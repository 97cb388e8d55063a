package telemetry

import (
	"context"

	"github.com/travetto/travetto-sub016/internal/core/ports"
)

// Discard is a tracer that records nothing. It stands in for the otel tracer
// wherever compile batches run without progress output.
var Discard ports.Tracer = discardTracer{}

type discardTracer struct{}

func (discardTracer) Start(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
	return ctx, discardSpan{}
}

func (discardTracer) EmitPlan(context.Context, []string) {}

type discardSpan struct{}

func (discardSpan) End()                        {}
func (discardSpan) RecordError(error)           {}
func (discardSpan) SetAttribute(string, any)    {}
func (discardSpan) Write(p []byte) (int, error) { return len(p), nil }
