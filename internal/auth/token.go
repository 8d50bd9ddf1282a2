package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionCookieName はセッショントークンを保持するCookie名。
	SessionCookieName = "acme.session_token"
	// SecureSessionCookieName はhttps環境で使うCookie名。
	SecureSessionCookieName = "__Secure-" + SessionCookieName
	// tokenIssuer はセッショントークンの発行者。
	tokenIssuer = "acme-auth"
)

// sessionClaims はセッショントークンのクレーム。
type sessionClaims struct {
	jwt.RegisteredClaims
	// SessionID はsessionsテーブルの主キー。
	SessionID string `json:"sid"`
}

// signSessionToken はセッションIDとユーザーIDからHS256署名のトークンを生成する。
func signSessionToken(secret []byte, sess SessionInfo, issuedAt time.Time) (string, error) {
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.UserID,
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Issuer:    tokenIssuer,
		},
		SessionID: sess.ID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("セッショントークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// parseSessionToken はトークンの署名・有効期限・発行者を検証してクレームを返す。
func parseSessionToken(secret []byte, token string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.SessionID == "" {
		return nil, errors.New("セッショントークンが無効です")
	}
	return claims, nil
}

// tokenFromHeaders はAuthorizationヘッダーまたはCookieからセッショントークンを取り出す。
// Bearerトークンを優先する。
func tokenFromHeaders(headers http.Header) string {
	if token, ok := strings.CutPrefix(headers.Get("Authorization"), "Bearer "); ok && token != "" {
		return strings.TrimSpace(token)
	}

	req := http.Request{Header: headers}
	for _, name := range []string{SecureSessionCookieName, SessionCookieName} {
		if c, err := req.Cookie(name); err == nil && c.Value != "" {
			return c.Value
		}
	}
	return ""
}
