// Package rpc は名前付きプロシージャをまとめたルーターと、そのHTTPディスパッチを提供する。
//
// 各プロシージャは種別（query / mutation）、入力型、出力型、ハンドラを持つ。
// トップレベルのキーごとにルーターを束ねたAppRouterは構築時にキーの一意性を
// 検証し、以後は不変のディスパッチテーブルとして "<key>.<name>" の完全一致で
// 呼び出しを振り分ける。Describeで全プロシージャの形を事前に取得できる。
package rpc
