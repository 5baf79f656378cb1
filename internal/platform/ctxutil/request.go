package ctxutil

import "context"

type requestDataKey struct{}

// RequestData is the per-request identity resolved by the owner middleware.
// EngineKey is a caller-supplied generative backend key that overrides the
// configured one for this request only.
type RequestData struct {
	OwnerID   string
	EngineKey string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

func OwnerID(ctx context.Context) string {
	if rd := GetRequestData(ctx); rd != nil {
		return rd.OwnerID
	}
	return ""
}

func EngineKey(ctx context.Context) string {
	if rd := GetRequestData(ctx); rd != nil {
		return rd.EngineKey
	}
	return ""
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
