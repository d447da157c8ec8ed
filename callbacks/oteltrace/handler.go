// Package oteltrace 为每次运行打开一个 OpenTelemetry span，子运行的 span 自动挂在父 span 下。
package oteltrace

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/eurora-labs/eurora-sub002/callbacks"
)

// DefaultTracerName 未指定 TracerProvider 时使用的 tracer 名称。
const DefaultTracerName = "eurora/runnables"

// Handler OpenTelemetry 回调处理器。
type Handler struct {
	tracer trace.Tracer
}

var _ callbacks.Handler = (*Handler)(nil)

// NewHandler 使用给定 TracerProvider 创建处理器，tp 为 nil 时使用全局 provider。
func NewHandler(tp trace.TracerProvider) *Handler {
	if tp == nil {
		return &Handler{tracer: otel.Tracer(DefaultTracerName)}
	}
	return &Handler{tracer: tp.Tracer(DefaultTracerName)}
}

func (h *Handler) OnStart(ctx context.Context, info *callbacks.RunInfo, _ callbacks.CallbackInput) context.Context {
	attrs := []attribute.KeyValue{
		attribute.String("runnable.type", info.Type),
		attribute.String("runnable.run_id", info.RunID.String()),
	}
	if len(info.Tags) > 0 {
		attrs = append(attrs, attribute.StringSlice("runnable.tags", info.Tags))
	}
	for k, v := range info.Metadata {
		attrs = append(attrs, attribute.String("runnable.metadata."+k, fmt.Sprint(v)))
	}

	ctx, _ = h.tracer.Start(ctx, info.Name, trace.WithAttributes(attrs...))
	return ctx
}

func (h *Handler) OnEnd(ctx context.Context, _ *callbacks.RunInfo, _ callbacks.CallbackOutput) context.Context {
	span := trace.SpanFromContext(ctx)
	span.SetStatus(codes.Ok, "")
	span.End()
	return ctx
}

func (h *Handler) OnError(ctx context.Context, _ *callbacks.RunInfo, err error) context.Context {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.End()
	return ctx
}
