package middleware

import (
	"context"
)

type contextKey string

const (
	ContextKeyOperator contextKey = "operator"
	ContextKeyRole     contextKey = "role"
)

func OperatorFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyOperator).(string)
	return v, ok
}

func RoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyRole).(string)
	return v, ok
}
