package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/acme/internal/auth"
	"github.com/nao1215/acme/internal/config"
	"github.com/nao1215/acme/internal/rpc"
	"github.com/nao1215/acme/pkg/middleware"
)

// serviceName はヘルスチェックで返すサービス名。
const serviceName = "acme"

// Server はacme APIサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// auth は認証サービス。
	auth *auth.Service
	// app はRPCプロシージャのルーター。
	app *rpc.AppRouter
}

// New は新しいサーバーを生成する。
// 依存は全て呼び出し側で構築済みのものを受け取る。
func New(cfg config.Config, svc *auth.Service, app *rpc.AppRouter) *Server {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(cfg.TrustedOrigins))
	router.Use(auth.SessionScope(svc))

	s := &Server{
		router: router,
		port:   cfg.Port,
		auth:   svc,
		app:    app,
	}
	s.setupRoutes()

	return s
}

// Handler はサーバーのhttp.Handlerを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はルーティングを設定する。
func (s *Server) setupRoutes() {
	// 認証エンドポイント
	s.auth.RegisterRoutes(s.router.Group("/api/auth"))

	// RPCエンドポイント
	s.app.Mount(s.router.Group("/api/trpc"))

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})
}
