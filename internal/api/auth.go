package api

import (
	"context"

	"github.com/nao1215/acme/internal/auth"
	"github.com/nao1215/acme/internal/rpc"
)

// AuthRouter は認証状態を問い合わせるルーターを返す。
func AuthRouter() rpc.Router {
	return rpc.Router{
		"getSession": rpc.Query(func(ctx context.Context, _ rpc.Void) (*auth.Session, error) {
			return auth.GetSession(ctx)
		}),
		"getSecretMessage": protected(rpc.Query(func(_ context.Context, _ rpc.Void) (string, error) {
			return "you can see this secret message!", nil
		})),
	}
}
