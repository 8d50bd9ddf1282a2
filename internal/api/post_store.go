package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Post は投稿。
type Post struct {
	// ID は投稿の一意識別子（UUID）。
	ID string `json:"id"`
	// Title はタイトル。
	Title string `json:"title"`
	// Content は本文。
	Content string `json:"content"`
	// AuthorID は投稿者のユーザーID。
	AuthorID string `json:"authorId"`
	// CreatedAt は作成日時。
	CreatedAt time.Time `json:"createdAt"`
}

// PostStore は投稿をSQLiteに保存する。
type PostStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostStore は投稿ストアを生成する。dbはマイグレーション済みであること。
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db, now: time.Now}
}

// List は新しい順に最大limit件の投稿を返す。
func (s *PostStore) List(ctx context.Context, limit int) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, author_id, created_at
		FROM posts ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("投稿の読み取りに失敗: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// Get はIDで投稿を取得する。存在しない場合は (nil, nil)。
func (s *PostStore) Get(ctx context.Context, id string) (*Post, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, title, content, author_id, created_at FROM posts WHERE id = ?", id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗: %w", err)
	}
	return &p, nil
}

// Create は投稿を保存する。
func (s *PostStore) Create(ctx context.Context, title, content, authorID string) (Post, error) {
	p := Post{
		ID:        uuid.New().String(),
		Title:     title,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO posts (id, title, content, author_id, created_at) VALUES (?, ?, ?, ?, ?)",
		p.ID, p.Title, p.Content, p.AuthorID, p.CreatedAt.UnixMilli())
	if err != nil {
		return Post{}, fmt.Errorf("投稿の保存に失敗: %w", err)
	}
	return p, nil
}

// Delete は投稿を削除し、削除したかどうかを返す。
func (s *PostStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("投稿の削除に失敗: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	return n > 0, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通部分。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(r rowScanner) (Post, error) {
	var (
		p         Post
		createdAt int64
	)
	if err := r.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &createdAt); err != nil {
		return Post{}, err
	}
	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	return p, nil
}
