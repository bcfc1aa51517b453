package context

import (
	"context"

	"github.com/google/uuid"
)

// Origins of a trace.
const (
	OriginHTTP   = "http"
	OriginWorker = "worker"
	OriginAdmin  = "admin"
)

// TraceContext ties together the log lines and journal activity of one API
// request, one reconciler batch or one admin command.
type TraceContext struct {
	TraceID   string
	RequestID string
	Origin    string
}

type traceContextKey struct{}

// WithTrace attaches trace to ctx.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns the trace carried by ctx, or nil.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetRequestID returns the request id carried by ctx, or "".
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// StartTrace gives ctx a fresh trace of the given origin unless it already has one.
// The trace and request ids are equal outside HTTP.
func StartTrace(ctx context.Context, origin string) context.Context {
	if GetTrace(ctx) != nil {
		return ctx
	}
	id := uuid.NewString()
	return WithTrace(ctx, &TraceContext{TraceID: id, RequestID: id, Origin: origin})
}
