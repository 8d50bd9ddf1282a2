package auth

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes は認証エンドポイントをルーターグループに登録する。
// groupは /api/auth を想定する。
func (s *Service) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/signin/github", s.handleSignIn())
	group.GET("/callback/github", s.handleCallback())
	group.POST("/signout", s.handleSignOut())
	group.GET("/session", s.handleGetSession())
}

// handleSignIn はGitHub OAuthログインを開始するハンドラを返す。
func (s *Service) handleSignIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		callbackURL := c.Query("callbackURL")
		if callbackURL != "" && !s.allowedRedirect(callbackURL) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "callbackURLが許可されていません"})
			return
		}

		state := uuid.New().String()
		expiresAt := s.now().Add(stateTTL)
		if err := s.store.putVerification(c.Request.Context(), stateIdentifier(state), callbackURL, expiresAt); err != nil {
			log.Printf("[Auth] state保存エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ログインを開始できませんでした"})
			return
		}

		c.Redirect(http.StatusFound, s.oauth.AuthCodeURL(state))
	}
}

// handleCallback はGitHub OAuthコールバックを処理するハンドラを返す。
func (s *Service) handleCallback() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if reason := c.Query("error"); reason != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "GitHubで認可が拒否されました: " + reason})
			return
		}
		code := c.Query("code")
		state := c.Query("state")
		if code == "" || state == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "codeとstateが必要です"})
			return
		}

		callbackURL, err := s.store.consumeVerification(ctx, stateIdentifier(state), s.now())
		if errors.Is(err, errNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "stateが無効または期限切れです"})
			return
		}
		if err != nil {
			log.Printf("[Auth] state取得エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ログインを完了できませんでした"})
			return
		}

		login, err := s.exchangeGitHubCode(ctx, code)
		if err != nil {
			log.Printf("[Auth] GitHub認証エラー: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "GitHubとの認証に失敗しました"})
			return
		}

		user, err := s.store.upsertGitHubUser(ctx, login.profile, login.email, login.accessToken, login.scope, s.now())
		if err != nil {
			log.Printf("[Auth] ユーザー保存エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの保存に失敗しました"})
			return
		}

		sess, token, err := s.issueSession(c, user)
		if err != nil {
			log.Printf("[Auth] セッション発行エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "セッションの発行に失敗しました"})
			return
		}
		log.Printf("[Auth] ログイン: user_id=%s session_id=%s", user.ID, sess.Session.ID)

		if callbackURL == "" {
			c.JSON(http.StatusOK, gin.H{"token": token, "session": sess})
			return
		}
		c.Redirect(http.StatusFound, s.resolveRedirect(callbackURL))
	}
}

// handleSignOut は現在のセッションを失効させるハンドラを返す。
func (s *Service) handleSignOut() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := tokenFromHeaders(c.Request.Header); token != "" {
			if claims, err := parseSessionToken(s.secret, token); err == nil {
				if err := s.store.deleteSession(c.Request.Context(), claims.SessionID); err != nil {
					log.Printf("[Auth] セッション削除エラー: %v", err)
					c.JSON(http.StatusInternalServerError, gin.H{"error": "ログアウトに失敗しました"})
					return
				}
			}
		}

		e := Event{Writer: c.Writer, Request: c.Request, Secure: s.Secure()}
		for _, p := range s.plugins {
			p.SessionRevoked(e)
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// handleGetSession はリクエストスコープのセッションを返すハンドラを返す。
// セッションがない場合はnullを返す。
func (s *Service) handleGetSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := GetSession(c.Request.Context())
		if err != nil {
			log.Printf("[Auth] セッション解決エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "セッションの取得に失敗しました"})
			return
		}
		c.JSON(http.StatusOK, sess)
	}
}

// issueSession はユーザーのセッションを作成し、トークンを署名してプラグインに通知する。
func (s *Service) issueSession(c *gin.Context, user User) (*Session, string, error) {
	now := s.now()
	info, err := s.store.createSession(c.Request.Context(), user.ID, now, now.Add(s.sessionTTL), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		return nil, "", err
	}
	token, err := signSessionToken(s.secret, info, now)
	if err != nil {
		return nil, "", err
	}

	e := Event{Writer: c.Writer, Request: c.Request, Token: token, ExpiresAt: info.ExpiresAt, Secure: s.Secure()}
	for _, p := range s.plugins {
		p.SessionIssued(e)
	}
	return &Session{Session: info, User: user}, token, nil
}

// allowedRedirect はリダイレクト先が相対パスか信頼済みオリジンかを判定する。
func (s *Service) allowedRedirect(raw string) bool {
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") && !strings.HasPrefix(raw, "/\\") {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	origin, err := parseOrigin(u.Scheme + "://" + u.Host)
	if err != nil {
		return false
	}
	_, ok := s.trusted[origin.String()]
	return ok
}

// resolveRedirect は相対パスをベースURL上の絶対URLに変換する。
func (s *Service) resolveRedirect(raw string) string {
	if strings.HasPrefix(raw, "/") {
		return s.baseURL.String() + raw
	}
	return raw
}
