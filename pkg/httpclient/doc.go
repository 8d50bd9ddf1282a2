// Package httpclient は外部APIとJSONでやり取りするHTTPクライアントを提供する。
//
// 認証サービスがOAuthプロバイダ（GitHub）のREST APIからユーザー情報を
// 取得する際に使用する。タイムアウト、ヘッダー付与、ステータスコード検査の
// パターンを統一する。
package httpclient
