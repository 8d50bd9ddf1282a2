package database

import (
	"context"
	"testing"
)

// TestOpen はデータベースのオープンとマイグレーション適用を検証する。
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("インメモリDBにすべてのテーブルが作成されること", func(t *testing.T) {
		t.Parallel()

		db, err := Open(context.Background(), ":memory:")
		if err != nil {
			t.Fatalf("Open()でエラーが発生: %v", err)
		}
		t.Cleanup(func() { db.Close() })

		for _, table := range []string{"users", "accounts", "sessions", "verifications", "posts"} {
			var name string
			err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
			if err != nil {
				t.Errorf("テーブル %s が存在しない: %v", table, err)
			}
		}
	})

	t.Run("Migrateを再実行してもエラーにならないこと", func(t *testing.T) {
		t.Parallel()

		db, err := Open(context.Background(), ":memory:")
		if err != nil {
			t.Fatalf("Open()でエラーが発生: %v", err)
		}
		t.Cleanup(func() { db.Close() })

		if err := Migrate(context.Background(), db); err != nil {
			t.Fatalf("Migrate()でエラーが発生: %v", err)
		}
	})
}
