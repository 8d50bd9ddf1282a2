package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// errNotFound は対象レコードが存在しないことを表す。
var errNotFound = errors.New("auth: record not found")

// store はユーザー・アカウント・セッション・検証値の永続化を担う。
type store struct {
	db *sql.DB
}

// findSession はセッションIDからセッションと所有ユーザーを取得する。
func (s *store) findSession(ctx context.Context, id string) (*Session, error) {
	var (
		sess                 Session
		expiresAt, createdAt int64
		userCreated, userUpd int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.user_id, s.expires_at, s.ip_address, s.user_agent, s.created_at,
		       u.id, u.name, u.email, u.image, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ?`, id,
	).Scan(
		&sess.Session.ID, &sess.Session.UserID, &expiresAt, &sess.Session.IPAddress, &sess.Session.UserAgent, &createdAt,
		&sess.User.ID, &sess.User.Name, &sess.User.Email, &sess.User.Image, &userCreated, &userUpd,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, err
	}

	sess.Session.ExpiresAt = fromMillis(expiresAt)
	sess.Session.CreatedAt = fromMillis(createdAt)
	sess.User.CreatedAt = fromMillis(userCreated)
	sess.User.UpdatedAt = fromMillis(userUpd)
	return &sess, nil
}

// createSession は新しいセッションを保存する。
func (s *store) createSession(ctx context.Context, userID string, now, expiresAt time.Time, ip, userAgent string) (SessionInfo, error) {
	info := SessionInfo{
		ID:        uuid.New().String(),
		UserID:    userID,
		ExpiresAt: expiresAt,
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: now,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, expires_at, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		info.ID, info.UserID, toMillis(info.ExpiresAt), info.IPAddress, info.UserAgent, toMillis(info.CreatedAt),
	)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("セッションの保存に失敗: %w", err)
	}
	return info, nil
}

// deleteSession はセッションを削除する。存在しない場合も成功とする。
func (s *store) deleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("セッションの削除に失敗: %w", err)
	}
	return nil
}

// upsertGitHubUser はGitHubアカウントに紐づくユーザーを作成または更新する。
// 既存アカウントがなく同じメールアドレスのユーザーがいる場合はそのユーザーに紐づける。
func (s *store) upsertGitHubUser(ctx context.Context, profile githubProfile, email, accessToken, scope string, now time.Time) (User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return User{}, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	name := profile.Name
	if name == "" {
		name = profile.Login
	}
	accountID := strconv.FormatInt(profile.ID, 10)

	var userID string
	err = tx.QueryRowContext(ctx,
		"SELECT user_id FROM accounts WHERE provider = 'github' AND provider_account_id = ?", accountID,
	).Scan(&userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = tx.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ?", email).Scan(&userID)
		if errors.Is(err, sql.ErrNoRows) {
			userID = uuid.New().String()
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO users (id, name, email, image, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				userID, name, email, profile.AvatarURL, toMillis(now), toMillis(now),
			); err != nil {
				return User{}, fmt.Errorf("ユーザーの作成に失敗: %w", err)
			}
		} else if err != nil {
			return User{}, fmt.Errorf("ユーザーの検索に失敗: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (id, user_id, provider, provider_account_id, access_token, scope, created_at, updated_at)
			VALUES (?, ?, 'github', ?, ?, ?, ?, ?)`,
			uuid.New().String(), userID, accountID, accessToken, scope, toMillis(now), toMillis(now),
		); err != nil {
			return User{}, fmt.Errorf("アカウントの作成に失敗: %w", err)
		}
	case err != nil:
		return User{}, fmt.Errorf("アカウントの検索に失敗: %w", err)
	default:
		if _, err := tx.ExecContext(ctx, `
			UPDATE accounts SET access_token = ?, scope = ?, updated_at = ?
			WHERE provider = 'github' AND provider_account_id = ?`,
			accessToken, scope, toMillis(now), accountID,
		); err != nil {
			return User{}, fmt.Errorf("アカウントの更新に失敗: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET name = ?, image = ?, updated_at = ? WHERE id = ?",
		name, profile.AvatarURL, toMillis(now), userID,
	); err != nil {
		return User{}, fmt.Errorf("ユーザーの更新に失敗: %w", err)
	}

	var (
		user                 User
		createdAt, updatedAt int64
	)
	if err := tx.QueryRowContext(ctx,
		"SELECT id, name, email, image, created_at, updated_at FROM users WHERE id = ?", userID,
	).Scan(&user.ID, &user.Name, &user.Email, &user.Image, &createdAt, &updatedAt); err != nil {
		return User{}, fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}
	user.CreatedAt = fromMillis(createdAt)
	user.UpdatedAt = fromMillis(updatedAt)

	if err := tx.Commit(); err != nil {
		return User{}, fmt.Errorf("コミットに失敗: %w", err)
	}
	return user, nil
}

// putVerification は一時的な検証値（OAuth state等）を保存する。
func (s *store) putVerification(ctx context.Context, identifier, value string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verifications (identifier, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(identifier) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		identifier, value, toMillis(expiresAt),
	)
	if err != nil {
		return fmt.Errorf("検証値の保存に失敗: %w", err)
	}
	return nil
}

// consumeVerification は検証値を取り出して削除する。期限切れや未登録はerrNotFound。
func (s *store) consumeVerification(ctx context.Context, identifier string, now time.Time) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var (
		value     string
		expiresAt int64
	)
	err = tx.QueryRowContext(ctx,
		"SELECT value, expires_at FROM verifications WHERE identifier = ?", identifier,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errNotFound
	}
	if err != nil {
		return "", fmt.Errorf("検証値の取得に失敗: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM verifications WHERE identifier = ?", identifier); err != nil {
		return "", fmt.Errorf("検証値の削除に失敗: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("コミットに失敗: %w", err)
	}

	if !now.Before(fromMillis(expiresAt)) {
		return "", errNotFound
	}
	return value, nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
