package api

import (
	"context"

	"github.com/nao1215/acme/internal/auth"
	"github.com/nao1215/acme/internal/rpc"
)

// requireSession はセッションのない呼び出しをUNAUTHORIZEDで拒否するミドルウェア。
// セッション解決の障害はそのまま返し、未認証として扱わない。
func requireSession(ctx context.Context, next rpc.Handler) (any, error) {
	sess, err := auth.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, rpc.NewError(rpc.CodeUnauthorized, "you must be signed in")
	}
	return next(ctx)
}

// protected はセッション必須のプロシージャにする。
func protected(p rpc.Procedure) rpc.Procedure {
	return p.Use("requireSession", requireSession)
}

// currentSession は認証済みプロシージャ内でセッションを取得する。
// requireSessionで解決済みのため、下位のセッション解決は再実行されない。
func currentSession(ctx context.Context) (*auth.Session, error) {
	sess, err := auth.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, rpc.NewError(rpc.CodeUnauthorized, "you must be signed in")
	}
	return sess, nil
}
