package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// ErrNoRequestScope はコンテキストにリクエストスコープが設定されていないことを表す。
// SessionScopeミドルウェアを通さずにGetSessionを呼んだ場合に返る。
var ErrNoRequestScope = errors.New("auth: no request scope in context")

// SessionLookup はリクエストヘッダーからセッションを解決する。*Serviceが実装する。
type SessionLookup interface {
	GetSession(ctx context.Context, headers http.Header) (*Session, error)
}

// requestScopeKey はコンテキストにリクエストスコープを格納するためのキー。
type requestScopeKey struct{}

// requestScope は1リクエスト分のセッション解決結果を保持する。
// 状態は未解決から解決済みへ一度だけ遷移する。
type requestScope struct {
	lookup  SessionLookup
	headers http.Header

	once    sync.Once
	session *Session
	err     error
}

// WithRequestScope はリクエストヘッダーに紐づくセッションキャッシュをコンテキストに設定する。
// ヘッダーは複製して保持する。
func WithRequestScope(ctx context.Context, lookup SessionLookup, headers http.Header) context.Context {
	return context.WithValue(ctx, requestScopeKey{}, &requestScope{
		lookup:  lookup,
		headers: headers.Clone(),
	})
}

// GetSession は現在のリクエストのセッションを返す。
// 同じリクエスト内では何度呼んでも下位のセッション解決は一度だけ行われ、
// 2回目以降は最初の結果（エラーを含む）をそのまま返す。
// セッションがない場合は (nil, nil) を返す。
func GetSession(ctx context.Context) (*Session, error) {
	scope, ok := ctx.Value(requestScopeKey{}).(*requestScope)
	if !ok {
		return nil, ErrNoRequestScope
	}
	scope.once.Do(func() {
		scope.session, scope.err = scope.lookup.GetSession(ctx, scope.headers)
	})
	return scope.session, scope.err
}

// SessionScope はリクエストごとにセッションキャッシュを作成するGinミドルウェアを返す。
// キャッシュはリクエストのコンテキストとともに破棄される。
func SessionScope(lookup SessionLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(WithRequestScope(c.Request.Context(), lookup, c.Request.Header))
		c.Next()
	}
}
