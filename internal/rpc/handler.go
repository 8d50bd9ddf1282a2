package rpc

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// maxBodyBytes はmutationのリクエストボディの上限。
const maxBodyBytes = 1 << 20

// Mount はAppRouterをルーターグループに登録する。
//
//	GET  <group>          プロシージャ一覧
//	GET  <group>/<path>   query（入力は ?input=<json>）
//	POST <group>/<path>   mutation（入力はJSONボディ）
func (r *AppRouter) Mount(group *gin.RouterGroup) {
	group.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"procedures": r.Describe()})
	})
	group.GET("/:path", r.handle(KindQuery))
	group.POST("/:path", r.handle(KindMutation))
}

// handle はHTTPリクエストをプロシージャ呼び出しに変換するハンドラを返す。
func (r *AppRouter) handle(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Param("path")

		var raw json.RawMessage
		switch kind {
		case KindQuery:
			if input := c.Query("input"); input != "" {
				raw = json.RawMessage(input)
			}
		case KindMutation:
			body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
			if err != nil {
				writeError(c, path, &Error{Code: CodeBadRequest, Message: "failed to read body", Cause: err})
				return
			}
			raw = body
		}

		start := time.Now()
		out, err := r.Call(c.Request.Context(), path, kind, c.Request.Header, raw)
		log.Printf("[RPC] %s %s took %dms", kind, path, time.Since(start).Milliseconds())
		if err != nil {
			writeError(c, path, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": gin.H{"data": out}})
	}
}

// errorBody はエラーレスポンスの本体。
type errorBody struct {
	Code       Code   `json:"code"`
	Message    string `json:"message"`
	Path       string `json:"path"`
	HTTPStatus int    `json:"httpStatus"`
}

func writeError(c *gin.Context, path string, err error) {
	rpcErr := AsError(err)
	status := rpcErr.Code.HTTPStatus()
	if rpcErr.Code == CodeInternal {
		log.Printf("[RPC] %s でエラーが発生: %v", path, err)
	}
	c.JSON(status, gin.H{"error": errorBody{
		Code:       rpcErr.Code,
		Message:    rpcErr.Message,
		Path:       path,
		HTTPStatus: status,
	}})
}
