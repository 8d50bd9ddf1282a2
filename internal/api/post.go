package api

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/nao1215/acme/internal/rpc"
)

const (
	// listLimit はpost.allが返す最大件数。
	listLimit = 10
	// maxFieldLength はタイトルと本文の最大文字数。
	maxFieldLength = 256
)

// PostByIDInput はpost.byIdの入力。
type PostByIDInput struct {
	ID string `json:"id"`
}

// Validate は入力を検証する。
func (in PostByIDInput) Validate() error {
	if in.ID == "" {
		return errors.New("id is required")
	}
	return nil
}

// CreatePostInput はpost.createの入力。
type CreatePostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Validate はタイトルと本文が1〜256文字であることを検証する。
func (in CreatePostInput) Validate() error {
	if n := utf8.RuneCountInString(in.Title); n < 1 || n > maxFieldLength {
		return errors.New("title must be between 1 and 256 characters")
	}
	if n := utf8.RuneCountInString(in.Content); n < 1 || n > maxFieldLength {
		return errors.New("content must be between 1 and 256 characters")
	}
	return nil
}

// DeletePostOutput はpost.deleteの出力。
type DeletePostOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// PostRouter は投稿のルーターを返す。
func PostRouter(store *PostStore) rpc.Router {
	return rpc.Router{
		"all": rpc.Query(func(ctx context.Context, _ rpc.Void) ([]Post, error) {
			return store.List(ctx, listLimit)
		}),
		"byId": rpc.Query(func(ctx context.Context, in PostByIDInput) (*Post, error) {
			return store.Get(ctx, in.ID)
		}),
		"create": protected(rpc.Mutation(func(ctx context.Context, in CreatePostInput) (Post, error) {
			sess, err := currentSession(ctx)
			if err != nil {
				return Post{}, err
			}
			return store.Create(ctx, in.Title, in.Content, sess.User.ID)
		})),
		"delete": protected(rpc.Mutation(func(ctx context.Context, id string) (DeletePostOutput, error) {
			if id == "" {
				return DeletePostOutput{}, rpc.NewError(rpc.CodeBadRequest, "id is required")
			}
			deleted, err := store.Delete(ctx, id)
			if err != nil {
				return DeletePostOutput{}, err
			}
			return DeletePostOutput{ID: id, Deleted: deleted}, nil
		})),
	}
}
