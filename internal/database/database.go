// Package database はアプリケーション共通のSQLiteデータベースを開き、
// 埋め込みマイグレーションを適用する。
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/nao1215/acme/pkg/migration"
)

//go:embed migrations/*.up.sql
var migrations embed.FS

// Open はSQLiteデータベースを開き、未適用のマイグレーションを適用する。
// pathに ":memory:" を指定するとインメモリDBになる（テスト用）。
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	if path == ":memory:" {
		dsn = ":memory:?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if path == ":memory:" {
		// インメモリDBは接続ごとに別のDBになるため1接続に固定する
		db.SetMaxOpenConns(1)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate は埋め込みマイグレーションを適用する。
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := migration.Run(ctx, db, migrations, "migrations"); err != nil {
		return fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return nil
}
