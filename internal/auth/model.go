package auth

import "time"

// User は認証済みユーザー。
type User struct {
	// ID はユーザーの一意識別子（UUID）。
	ID string `json:"id"`
	// Name は表示名。
	Name string `json:"name"`
	// Email はメールアドレス。
	Email string `json:"email"`
	// Image はアバター画像のURL。
	Image string `json:"image"`
	// CreatedAt は作成日時。
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt は更新日時。
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionInfo はセッションレコード。
type SessionInfo struct {
	// ID はセッションの一意識別子（UUID）。
	ID string `json:"id"`
	// UserID はセッションの所有者。
	UserID string `json:"userId"`
	// ExpiresAt は有効期限。
	ExpiresAt time.Time `json:"expiresAt"`
	// IPAddress はセッション作成時のクライアントIP。
	IPAddress string `json:"ipAddress"`
	// UserAgent はセッション作成時のUser-Agent。
	UserAgent string `json:"userAgent"`
	// CreatedAt は作成日時。
	CreatedAt time.Time `json:"createdAt"`
}

// Session は解決済みのセッションとその所有ユーザー。
// 呼び出し側はフィールドを変更せずに受け渡すだけにすること。
type Session struct {
	// Session はセッションレコード。
	Session SessionInfo `json:"session"`
	// User はセッションの所有ユーザー。
	User User `json:"user"`
}

// githubProfile はGitHubの /user レスポンスのうち使用するフィールド。
type githubProfile struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// githubEmail はGitHubの /user/emails レスポンスの要素。
type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}
