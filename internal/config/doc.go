// Package config はプロセス起動時に環境変数から読み込む設定を提供する。
//
// デプロイ環境（production / preview / local）に応じてベースURLと
// 本番URLを導出し、認証サービスやHTTPサーバーに渡す不変の設定値を構築する。
// 設定はグローバル変数には保持せず、mainで一度だけ生成して各コンポーネントへ渡す。
package config
