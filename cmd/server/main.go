// acme APIサービスのエントリポイント。
// 設定の解決、データベースの初期化、認証サービスとRPCルーターの構築を行い、HTTPサーバーを起動する。
// 必須の設定が欠けている場合は起動せずに終了する。
package main

import (
	"context"
	"log"

	"github.com/nao1215/acme/internal/api"
	"github.com/nao1215/acme/internal/auth"
	"github.com/nao1215/acme/internal/config"
	"github.com/nao1215/acme/internal/database"
	"github.com/nao1215/acme/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	db, err := database.Open(context.Background(), cfg.DatabasePath)
	if err != nil {
		log.Fatalf("データベースの初期化に失敗: %v", err)
	}
	defer db.Close()

	svc, err := auth.Init(auth.Options{
		BaseURL:            cfg.BaseURL,
		ProductionURL:      cfg.ProductionURL,
		Secret:             cfg.Secret,
		GitHubClientID:     cfg.GitHubClientID,
		GitHubClientSecret: cfg.GitHubClientSecret,
		ExtraPlugins:       []auth.Plugin{auth.Cookies(auth.CookieOptions{})},
		DB:                 db,
		TrustedOrigins:     cfg.TrustedOrigins,
	})
	if err != nil {
		log.Fatalf("認証サービスの初期化に失敗: %v", err)
	}

	app, err := api.NewAppRouter(api.NewPostStore(db))
	if err != nil {
		log.Fatalf("ルーターの構築に失敗: %v", err)
	}

	srv := server.New(cfg, svc, app)
	log.Printf("acmeサービスを起動します: :%s (deployment=%s, base_url=%s)", cfg.Port, cfg.Deployment, cfg.BaseURL)
	if err := srv.Run(); err != nil {
		log.Fatalf("acmeサービスの起動に失敗: %v", err)
	}
}
