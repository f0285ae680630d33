package ctxutil

import "context"

type requestDataKey struct{}

// RequestData carries the caller identity established by auth middleware.
type RequestData struct {
	LearnerID string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// LearnerID returns "" when no identity is attached.
func LearnerID(ctx context.Context) string {
	if rd := GetRequestData(ctx); rd != nil {
		return rd.LearnerID
	}
	return ""
}
