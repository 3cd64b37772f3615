package httpapi

import (
	"context"

	"github.com/climbing-section/backoffice/internal/domain"
)

type adminKey struct{}

func WithAdmin(ctx context.Context, a domain.Admin) context.Context {
	return context.WithValue(ctx, adminKey{}, a)
}

func AdminFromContext(ctx context.Context) (domain.Admin, bool) {
	v, ok := ctx.Value(adminKey{}).(domain.Admin)
	return v, ok && v.ID != ""
}
