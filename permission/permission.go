package permission

import (
	"context"
	"net/http"

	"github.com/bolao-jogos/bolao/he"
	"github.com/bolao-jogos/bolao/model"
)

type contextKeyType struct{}

var contextKeyTypeValue = contextKeyType{}

func IsAdmin(context context.Context) bool {
	u := UserFromContext(context)
	if u == nil {
		return false
	}
	return u.IsAdmin
}

func IsOperator(context context.Context) bool {
	u := UserFromContext(context)
	if u == nil {
		return false
	}
	return u.IsOperator
}

func UserIdentityInContext(ctx context.Context, a *model.UserIdentity) context.Context {
	return context.WithValue(ctx, contextKeyType{}, a)
}

func UserFromContext(ctx context.Context) *model.UserIdentity {
	v := ctx.Value(contextKeyTypeValue)
	if a, ok := v.(*model.UserIdentity); ok {
		return a
	} else {
		return nil
	}
}

// CheckWriteAccessToPool allows operators and the pool's own admin.
func CheckWriteAccessToPool(ctx context.Context, adminUserID int64) error {
	if IsOperator(ctx) {
		return nil
	}
	if u := UserFromContext(ctx); u != nil && u.UserID == adminUserID {
		return nil
	}
	return he.HTTPCodedErrorf(http.StatusUnauthorized, "permission denied")
}

func CheckAdminAccess(ctx context.Context) error {
	if !IsAdmin(ctx) {
		return he.HTTPCodedErrorf(http.StatusUnauthorized, "permission denied")
	}
	return nil
}
