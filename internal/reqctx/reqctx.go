// Package reqctx carries per-turn identity (agent, user, sender) through a
// context.Context so tool implementations and storage interceptors can scope
// their reads/writes without every function signature growing three extra
// parameters.
package reqctx

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey int

const (
	agentIDKey ctxKey = iota
	userIDKey
	agentTypeKey
	senderIDKey
)

func WithAgentID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, agentIDKey, id)
}

func AgentIDFromContext(ctx context.Context) uuid.UUID {
	if v, ok := ctx.Value(agentIDKey).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

func WithAgentType(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, agentTypeKey, t)
}

func AgentTypeFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(agentTypeKey).(string); ok {
		return v
	}
	return ""
}

func WithSenderID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, senderIDKey, id)
}

func SenderIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(senderIDKey).(string); ok {
		return v
	}
	return ""
}
