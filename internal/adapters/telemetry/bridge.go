package telemetry

import (
	"context"
	"errors"

	"github.com/travetto/travetto-sub016/internal/core/ports"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Bridge implements sdktrace.SpanProcessor to bridge per-file spans to a Renderer.
// Spans without a file attribute, such as the batch span, are ignored.
type Bridge struct {
	renderer ports.Renderer
}

// NewBridge returns a new Bridge.
func NewBridge(renderer ports.Renderer) *Bridge {
	return &Bridge{
		renderer: renderer,
	}
}

// OnStart is called when a span starts.
func (b *Bridge) OnStart(_ context.Context, s sdktrace.ReadWriteSpan) {
	if b.renderer == nil || !s.SpanContext().IsValid() {
		return
	}
	if _, ok := lookup(s.Attributes(), ports.AttrFile); !ok {
		return
	}
	b.renderer.OnUnitStart(s.SpanContext().SpanID().String(), s.Name(), s.StartTime())
}

// OnEnd is called when a span ends.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.renderer == nil || !s.SpanContext().IsValid() {
		return
	}
	attrs := s.Attributes()
	if _, ok := lookup(attrs, ports.AttrFile); !ok {
		return
	}

	var err error
	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "compile failed"
		}
		err = errors.New(desc)
	}
	cached, _ := lookup(attrs, ports.AttrCached)

	b.renderer.OnUnitComplete(s.SpanContext().SpanID().String(), s.EndTime(), cached.AsBool(), err)
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}

func lookup(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}
