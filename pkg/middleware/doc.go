// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// パニックリカバリとCORS設定を含む。セッションの解決は auth.SessionScope が担う。
package middleware
