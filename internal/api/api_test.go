package api

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/nao1215/acme/internal/auth"
	"github.com/nao1215/acme/internal/database"
	"github.com/nao1215/acme/internal/rpc"
)

// fakeLookup はテスト用のSessionLookup。X-Test-Userヘッダーの値をユーザーIDとして扱う。
type fakeLookup struct {
	calls atomic.Int32
	err   error
}

func (l *fakeLookup) GetSession(_ context.Context, headers http.Header) (*auth.Session, error) {
	l.calls.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	userID := headers.Get("X-Test-User")
	if userID == "" {
		return nil, nil
	}
	return &auth.Session{User: auth.User{ID: userID}}, nil
}

// newTestApp はインメモリDBを使うAppRouterを生成する。
func newTestApp(t *testing.T) *rpc.AppRouter {
	t.Helper()

	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("インメモリDBの作成に失敗: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	app, err := NewAppRouter(NewPostStore(db))
	if err != nil {
		t.Fatalf("NewAppRouter()でエラーが発生: %v", err)
	}
	return app
}

// requestCtx は1リクエスト分のセッションスコープを持つコンテキストを返す。
func requestCtx(lookup auth.SessionLookup, userID string) context.Context {
	headers := http.Header{}
	if userID != "" {
		headers.Set("X-Test-User", userID)
	}
	return auth.WithRequestScope(context.Background(), lookup, headers)
}

// TestNewAppRouter はルーター構成を検証する。
func TestNewAppRouter(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	t.Run("トップレベルキーがauth・ping・postであること", func(t *testing.T) {
		t.Parallel()

		if got, want := app.Keys(), []string{"auth", "ping", "post"}; !reflect.DeepEqual(got, want) {
			t.Errorf("Keys() = %v, want %v", got, want)
		}
	})

	t.Run("すべてのPath定数がプロシージャに解決されること", func(t *testing.T) {
		t.Parallel()

		for _, path := range Paths {
			if _, ok := app.Lookup(path); !ok {
				t.Errorf("Lookup(%q) が見つからない", path)
			}
		}
		if got := len(app.Describe()); got != len(Paths) {
			t.Errorf("プロシージャ数 = %d, want %d", got, len(Paths))
		}
	})

	t.Run("既存のキーと重複するルーターは合成できないこと", func(t *testing.T) {
		t.Parallel()

		_, err := rpc.CreateRouter(
			rpc.Entry{Key: "auth", Router: AuthRouter()},
			rpc.Entry{Key: "ping", Router: PingRouter()},
			rpc.Entry{Key: "ping", Router: PingRouter()},
		)
		if !errors.Is(err, rpc.ErrDuplicateKey) {
			t.Errorf("err = %v, want %v", err, rpc.ErrDuplicateKey)
		}
	})
}

// TestPing は疎通確認プロシージャを検証する。
func TestPing(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	t.Run("入力なしでpongが返ること", func(t *testing.T) {
		t.Parallel()

		got, err := rpc.Invoke[string](context.Background(), app, PathPingPing, nil)
		if err != nil {
			t.Fatalf("Invoke()でエラーが発生: %v", err)
		}
		if got != "pong" {
			t.Errorf("ping.ping = %q, want %q", got, "pong")
		}
	})

	t.Run("セッション解決が失敗する場合でもpongが返りセッションに触れないこと", func(t *testing.T) {
		t.Parallel()

		lookup := &fakeLookup{err: errors.New("auth backend down")}
		got, err := rpc.Invoke[string](requestCtx(lookup, "user-1"), app, PathPingPing, nil)
		if err != nil {
			t.Fatalf("Invoke()でエラーが発生: %v", err)
		}
		if got != "pong" {
			t.Errorf("ping.ping = %q, want %q", got, "pong")
		}
		if n := lookup.calls.Load(); n != 0 {
			t.Errorf("セッション解決回数 = %d, want 0", n)
		}
	})
}

// TestAuthRouter は認証ルーターを検証する。
func TestAuthRouter(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	t.Run("getSessionはセッションがなければnilを返すこと", func(t *testing.T) {
		t.Parallel()

		sess, err := rpc.Invoke[*auth.Session](requestCtx(&fakeLookup{}, ""), app, PathAuthGetSession, nil)
		if err != nil {
			t.Fatalf("Invoke()でエラーが発生: %v", err)
		}
		if sess != nil {
			t.Errorf("session = %+v, want nil", sess)
		}
	})

	t.Run("getSessionはセッションを返すこと", func(t *testing.T) {
		t.Parallel()

		sess, err := rpc.Invoke[*auth.Session](requestCtx(&fakeLookup{}, "user-1"), app, PathAuthGetSession, nil)
		if err != nil {
			t.Fatalf("Invoke()でエラーが発生: %v", err)
		}
		if sess == nil || sess.User.ID != "user-1" {
			t.Errorf("session = %+v, want user-1", sess)
		}
	})

	t.Run("getSecretMessageは未認証ならUNAUTHORIZEDになること", func(t *testing.T) {
		t.Parallel()

		_, err := rpc.Invoke[string](requestCtx(&fakeLookup{}, ""), app, PathAuthGetSecretMessage, nil)
		if got := rpc.AsError(err).Code; got != rpc.CodeUnauthorized {
			t.Errorf("Code = %q, want %q", got, rpc.CodeUnauthorized)
		}
	})

	t.Run("getSecretMessageは認証済みならメッセージを返すこと", func(t *testing.T) {
		t.Parallel()

		got, err := rpc.Invoke[string](requestCtx(&fakeLookup{}, "user-1"), app, PathAuthGetSecretMessage, nil)
		if err != nil {
			t.Fatalf("Invoke()でエラーが発生: %v", err)
		}
		if got != "you can see this secret message!" {
			t.Errorf("message = %q", got)
		}
	})

	t.Run("セッション解決の障害は未認証ではなく内部エラーになること", func(t *testing.T) {
		t.Parallel()

		backendErr := errors.New("auth backend down")
		_, err := rpc.Invoke[string](requestCtx(&fakeLookup{err: backendErr}, "user-1"), app, PathAuthGetSecretMessage, nil)
		if got := rpc.AsError(err).Code; got != rpc.CodeInternal {
			t.Errorf("Code = %q, want %q", got, rpc.CodeInternal)
		}
		if !errors.Is(err, backendErr) {
			t.Errorf("err = %v, want wrapping %v", err, backendErr)
		}
	})
}

// TestPostRouter は投稿ルーターを検証する。
func TestPostRouter(t *testing.T) {
	t.Parallel()

	t.Run("作成した投稿を一覧とID指定で取得できること", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		lookup := &fakeLookup{}
		ctx := requestCtx(lookup, "author-1")

		created, err := rpc.Invoke[Post](ctx, app, PathPostCreate, CreatePostInput{Title: "hello", Content: "world"})
		if err != nil {
			t.Fatalf("post.createでエラーが発生: %v", err)
		}
		if created.AuthorID != "author-1" {
			t.Errorf("AuthorID = %q, want %q", created.AuthorID, "author-1")
		}
		if n := lookup.calls.Load(); n != 1 {
			t.Errorf("1リクエスト内のセッション解決回数 = %d, want 1", n)
		}

		all, err := rpc.Invoke[[]Post](context.Background(), app, PathPostAll, nil)
		if err != nil {
			t.Fatalf("post.allでエラーが発生: %v", err)
		}
		if len(all) != 1 || all[0].ID != created.ID {
			t.Errorf("post.all = %+v, want [%s]", all, created.ID)
		}

		got, err := rpc.Invoke[*Post](context.Background(), app, PathPostByID, PostByIDInput{ID: created.ID})
		if err != nil {
			t.Fatalf("post.byIdでエラーが発生: %v", err)
		}
		if got == nil || got.Title != "hello" || got.Content != "world" {
			t.Errorf("post.byId = %+v", got)
		}
	})

	t.Run("post.allは最大10件を新しい順に返すこと", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		ctx := requestCtx(&fakeLookup{}, "author-1")
		var last Post
		for i := range 12 {
			p, err := rpc.Invoke[Post](ctx, app, PathPostCreate, CreatePostInput{Title: "t", Content: string(rune('a' + i))})
			if err != nil {
				t.Fatalf("post.createでエラーが発生: %v", err)
			}
			last = p
		}

		all, err := rpc.Invoke[[]Post](context.Background(), app, PathPostAll, nil)
		if err != nil {
			t.Fatalf("post.allでエラーが発生: %v", err)
		}
		if len(all) != 10 {
			t.Fatalf("件数 = %d, want 10", len(all))
		}
		if all[0].CreatedAt.Before(all[9].CreatedAt) {
			t.Error("新しい順に並んでいない")
		}
		if all[0].CreatedAt.Before(last.CreatedAt) {
			t.Errorf("先頭の投稿 = %+v, 最後に作成した投稿より古い", all[0])
		}
	})

	t.Run("存在しないIDではnilが返ること", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		got, err := rpc.Invoke[*Post](context.Background(), app, PathPostByID, PostByIDInput{ID: "missing"})
		if err != nil {
			t.Fatalf("post.byIdでエラーが発生: %v", err)
		}
		if got != nil {
			t.Errorf("post.byId = %+v, want nil", got)
		}
	})

	t.Run("未認証ではcreateとdeleteがUNAUTHORIZEDになること", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		ctx := requestCtx(&fakeLookup{}, "")
		if _, err := rpc.Invoke[Post](ctx, app, PathPostCreate, CreatePostInput{Title: "a", Content: "b"}); rpc.AsError(err).Code != rpc.CodeUnauthorized {
			t.Errorf("post.create err = %v, want UNAUTHORIZED", err)
		}
		if _, err := rpc.Invoke[DeletePostOutput](ctx, app, PathPostDelete, "x"); rpc.AsError(err).Code != rpc.CodeUnauthorized {
			t.Errorf("post.delete err = %v, want UNAUTHORIZED", err)
		}
	})

	t.Run("不正な入力はBAD_REQUESTになること", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		ctx := requestCtx(&fakeLookup{}, "author-1")
		long := make([]rune, 257)
		for i := range long {
			long[i] = 'あ'
		}
		inputs := []CreatePostInput{
			{Title: "", Content: "b"},
			{Title: "a", Content: ""},
			{Title: string(long), Content: "b"},
		}
		for _, in := range inputs {
			if _, err := rpc.Invoke[Post](ctx, app, PathPostCreate, in); rpc.AsError(err).Code != rpc.CodeBadRequest {
				t.Errorf("post.create(%d文字) err = %v, want BAD_REQUEST", len([]rune(in.Title)), err)
			}
		}
	})

	t.Run("削除した投稿は取得できなくなること", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		ctx := requestCtx(&fakeLookup{}, "author-1")
		created, err := rpc.Invoke[Post](ctx, app, PathPostCreate, CreatePostInput{Title: "a", Content: "b"})
		if err != nil {
			t.Fatalf("post.createでエラーが発生: %v", err)
		}

		out, err := rpc.Invoke[DeletePostOutput](ctx, app, PathPostDelete, created.ID)
		if err != nil {
			t.Fatalf("post.deleteでエラーが発生: %v", err)
		}
		if !out.Deleted {
			t.Error("Deleted = false, want true")
		}

		again, err := rpc.Invoke[DeletePostOutput](ctx, app, PathPostDelete, created.ID)
		if err != nil {
			t.Fatalf("post.deleteでエラーが発生: %v", err)
		}
		if again.Deleted {
			t.Error("2回目のDeleted = true, want false")
		}

		got, err := rpc.Invoke[*Post](context.Background(), app, PathPostByID, PostByIDInput{ID: created.ID})
		if err != nil {
			t.Fatalf("post.byIdでエラーが発生: %v", err)
		}
		if got != nil {
			t.Errorf("削除後のpost.byId = %+v, want nil", got)
		}
	})
}
