package httpapi

import (
	"context"

	"github.com/agrilink/agrilink/internal/models"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyUser
	ctxKeyTokenID
)

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

func withUser(ctx context.Context, u *models.User, tokenID string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUser, u)
	return context.WithValue(ctx, ctxKeyTokenID, tokenID)
}

// userFrom returns the authenticated account, or nil on public routes.
func userFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(ctxKeyUser).(*models.User)
	return u
}

func tokenIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyTokenID).(string)
	return id
}
