// Package zaplog 把运行生命周期写成 zap 结构化日志。
package zaplog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eurora-labs/eurora-sub002/callbacks"
)

type startKey struct{}

// Option 配置 Handler。
type Option func(*Handler)

// WithLevel 设置开始/结束日志的级别，默认 Debug。错误总是以 Error 级别输出。
func WithLevel(level zapcore.Level) Option {
	return func(h *Handler) { h.level = level }
}

// WithPayloads 同时记录输入输出，默认关闭。
func WithPayloads(enabled bool) Option {
	return func(h *Handler) { h.payloads = enabled }
}

// Handler zap 回调处理器。
type Handler struct {
	logger   *zap.Logger
	level    zapcore.Level
	payloads bool
}

var _ callbacks.Handler = (*Handler)(nil)

// NewHandler 创建处理器，logger 为 nil 时使用 zap.NewNop()。
func NewHandler(logger *zap.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{logger: logger, level: zapcore.DebugLevel}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) fields(info *callbacks.RunInfo) []zap.Field {
	fields := []zap.Field{
		zap.String("name", info.Name),
		zap.String("type", info.Type),
		zap.String("run_id", info.RunID.String()),
	}
	if info.ParentRunID != uuid.Nil {
		fields = append(fields, zap.String("parent_run_id", info.ParentRunID.String()))
	}
	if len(info.Tags) > 0 {
		fields = append(fields, zap.Strings("tags", info.Tags))
	}
	return fields
}

func (h *Handler) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	fields := h.fields(info)
	if h.payloads {
		fields = append(fields, zap.Any("input", input))
	}
	h.logger.Log(h.level, "chain start", fields...)
	return context.WithValue(ctx, startKey{}, time.Now())
}

func (h *Handler) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	fields := h.fields(info)
	if start, ok := ctx.Value(startKey{}).(time.Time); ok {
		fields = append(fields, zap.Duration("elapsed", time.Since(start)))
	}
	if h.payloads {
		fields = append(fields, zap.Any("output", output))
	}
	h.logger.Log(h.level, "chain end", fields...)
	return ctx
}

func (h *Handler) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	fields := append(h.fields(info), zap.Error(err))
	if start, ok := ctx.Value(startKey{}).(time.Time); ok {
		fields = append(fields, zap.Duration("elapsed", time.Since(start)))
	}
	h.logger.Error("chain error", fields...)
	return ctx
}
