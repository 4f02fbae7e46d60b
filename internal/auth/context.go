package auth

import (
	"context"

	"github.com/jswork01-cmyk/trainning1/internal/domain"
)

type contextKey int

const (
	actorKey contextKey = iota
	sessionKey
	requestMetaKey
)

// RequestMeta 请求元数据，用于审计
type RequestMeta struct {
	RequestID string
	IP        string
	UserAgent string
}

// WithActor 将操作者写入 context
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext 从 context 读取操作者
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	return actor, ok
}

// WithSession 将会话 ID 写入 context
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey, sessionID)
}

// SessionFromContext 从 context 读取会话 ID
func SessionFromContext(ctx context.Context) string {
	s, _ := ctx.Value(sessionKey).(string)
	return s
}

// WithRequestMeta 将请求元数据写入 context
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey, meta)
}

// RequestMetaFromContext 从 context 读取请求元数据
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey).(RequestMeta)
	return meta
}
