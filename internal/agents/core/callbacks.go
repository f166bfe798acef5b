package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/cloudwego/eino/callbacks"
)

type startKey struct{}

// LogHandler returns an eino callback handler that logs each graph node of
// the named chain at debug level, and failures at warn level.
func LogHandler(chain string) callbacks.Handler {
	return callbacks.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *callbacks.RunInfo, _ callbacks.CallbackInput) context.Context {
			slog.Debug("chain node start", "chain", chain, "node", nodeName(info))
			return context.WithValue(ctx, startKey{}, time.Now())
		}).
		OnEndFn(func(ctx context.Context, info *callbacks.RunInfo, _ callbacks.CallbackOutput) context.Context {
			slog.Debug("chain node done", "chain", chain, "node", nodeName(info), "duration", elapsed(ctx))
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
			slog.Warn("chain node failed", "chain", chain, "node", nodeName(info), "duration", elapsed(ctx), "error", err)
			return ctx
		}).
		Build()
}

func nodeName(info *callbacks.RunInfo) string {
	if info == nil {
		return "unknown"
	}
	if info.Name != "" {
		return info.Name
	}
	return string(info.Component)
}

func elapsed(ctx context.Context) time.Duration {
	if start, ok := ctx.Value(startKey{}).(time.Time); ok {
		return time.Since(start).Round(time.Millisecond)
	}
	return 0
}
