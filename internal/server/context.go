package server

import "context"

type ctxKey int

const requestIDKey ctxKey = iota

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestIDFrom returns the id assigned by the [RequestID] middleware, or "".
func RequestIDFrom(ctx context.Context) string {
	return requestID(ctx)
}
