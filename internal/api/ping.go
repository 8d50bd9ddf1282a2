package api

import (
	"context"

	"github.com/nao1215/acme/internal/rpc"
)

// PingRouter は疎通確認用のルーターを返す。
// pingは入力を取らず、常に "pong" を返す。セッションや外部サービスには触れない。
func PingRouter() rpc.Router {
	return rpc.Router{
		"ping": rpc.Query(func(_ context.Context, _ rpc.Void) (string, error) {
			return "pong", nil
		}),
	}
}
