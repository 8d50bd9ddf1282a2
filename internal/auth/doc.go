// Package auth はGitHub OAuthによるログインとセッション管理を提供する。
//
// Initで設定から認証サービスを構築し、GetSessionでリクエストヘッダーから
// 現在のセッションを解決する。セッションはSQLiteに保存し、クライアントには
// 署名付きJWTのセッショントークンを渡す。Cookieの読み書きはプラグインとして
// 差し込み、リクエスト単位のセッションキャッシュはSessionScopeミドルウェアと
// パッケージ関数GetSessionが担う。
package auth
