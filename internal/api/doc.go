// Package api はアプリケーションのRPCルーターを定義する。
//
// auth・ping・postの3つのルーターをトップレベルキーで束ねたAppRouterが、
// すべての遠隔呼び出しの唯一の入口になる。クライアントはPath定数で
// 呼び出しパスを参照する。
package api
