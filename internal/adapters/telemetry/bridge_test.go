package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/travetto/travetto-sub016/internal/adapters/telemetry"
	"github.com/travetto/travetto-sub016/internal/core/ports"
	"github.com/travetto/travetto-sub016/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestBridge_FileSpans(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)
	tp := telemetry.NewProvider(renderer)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	tracer := telemetry.NewOTelTracer(tp, renderer)

	var started string
	gomock.InOrder(
		renderer.EXPECT().OnUnitStart(gomock.Any(), "example.com/app/a.go", gomock.Any()).
			Do(func(id, _ string, _ any) { started = id }),
		renderer.EXPECT().OnUnitComplete(gomock.Any(), gomock.Any(), true, nil).
			Do(func(id string, _, _, _ any) { assert.Equal(t, started, id) }),
	)

	ctx, batch := tracer.Start(context.Background(), "compile", ports.WithAttribute(ports.AttrBatch, int64(1)))
	_, span := tracer.Start(ctx, "example.com/app/a.go", ports.WithAttribute(ports.AttrFile, "/w/a.go"))
	span.SetAttribute(ports.AttrCached, true)
	span.End()
	batch.End()
}

func TestBridge_FailedSpan(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)
	tp := telemetry.NewProvider(renderer)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	tracer := telemetry.NewOTelTracer(tp, renderer)

	renderer.EXPECT().OnUnitStart(gomock.Any(), "b", gomock.Any())
	renderer.EXPECT().OnUnitComplete(gomock.Any(), gomock.Any(), false, gomock.Any()).
		Do(func(_ string, _ any, _ bool, err error) {
			assert.EqualError(t, err, "transform failed")
		})

	_, span := tracer.Start(context.Background(), "b", ports.WithAttribute(ports.AttrFile, "/w/b.go"))
	span.RecordError(errors.New("transform failed"))
	span.End()
}

func TestBridge_NilRenderer(t *testing.T) {
	tp := telemetry.NewProvider(nil)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	tracer := telemetry.NewOTelTracer(tp, nil)

	_, span := tracer.Start(context.Background(), "a", ports.WithAttribute(ports.AttrFile, "/w/a.go"))
	span.End()

	bridge := telemetry.NewBridge(nil)
	assert.NoError(t, bridge.ForceFlush(context.Background()))
	assert.NoError(t, bridge.Shutdown(context.Background()))
}
