package api

import (
	"fmt"

	"github.com/nao1215/acme/internal/rpc"
)

// 呼び出しパス。クライアントとテストはこれらを使ってプロシージャを参照する。
const (
	PathAuthGetSession       = "auth.getSession"
	PathAuthGetSecretMessage = "auth.getSecretMessage"
	PathPingPing             = "ping.ping"
	PathPostAll              = "post.all"
	PathPostByID             = "post.byId"
	PathPostCreate           = "post.create"
	PathPostDelete           = "post.delete"
)

// Paths は公開している全呼び出しパス。
var Paths = []string{
	PathAuthGetSession,
	PathAuthGetSecretMessage,
	PathPingPing,
	PathPostAll,
	PathPostByID,
	PathPostCreate,
	PathPostDelete,
}

// NewAppRouter はauth・ping・postを束ねたアプリケーションのルーターを構築する。
func NewAppRouter(posts *PostStore) (*rpc.AppRouter, error) {
	app, err := rpc.CreateRouter(
		rpc.Entry{Key: "auth", Router: AuthRouter()},
		rpc.Entry{Key: "ping", Router: PingRouter()},
		rpc.Entry{Key: "post", Router: PostRouter(posts)},
	)
	if err != nil {
		return nil, fmt.Errorf("ルーターの構築に失敗: %w", err)
	}
	return app, nil
}
