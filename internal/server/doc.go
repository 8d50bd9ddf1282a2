// Package server はacme APIサービスのHTTPサーバーを組み立てる。
//
// 認証エンドポイント（/api/auth）、RPCエンドポイント（/api/trpc）、
// ヘルスチェック（/health）を1つのGinエンジンに登録する。
// 全てのリクエストはセッションスコープを持ち、1リクエスト内のセッション参照は高々1回に抑えられる。
package server
