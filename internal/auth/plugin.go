package auth

import (
	"net/http"
	"time"
)

// Event はプラグインに通知されるセッションの発行・失効イベント。
type Event struct {
	// Writer はレスポンスの書き込み先。
	Writer http.ResponseWriter
	// Request は処理中のリクエスト。
	Request *http.Request
	// Token は発行されたセッショントークン。失効時は空。
	Token string
	// ExpiresAt はトークンの有効期限。失効時はゼロ値。
	ExpiresAt time.Time
	// Secure はベースURLがhttpsかどうか。
	Secure bool
}

// Plugin はセッションの発行・失効をHTTPレスポンスに反映する拡張。
type Plugin interface {
	// ID はプラグインの識別子。
	ID() string
	// SessionIssued はセッション発行後に呼び出される。
	SessionIssued(e Event)
	// SessionRevoked はセッション失効後に呼び出される。
	SessionRevoked(e Event)
}

// CookieOptions はCookieプラグインの設定。
type CookieOptions struct {
	// Domain はCookieのDomain属性。空なら発行元ホストのみ。
	Domain string
	// Path はCookieのPath属性。空なら "/"。
	Path string
	// SameSite はCookieのSameSite属性。ゼロ値ならLax。
	SameSite http.SameSite
}

// CookiePlugin はセッショントークンをHttpOnly Cookieとして読み書きするプラグイン。
type CookiePlugin struct {
	opts CookieOptions
}

// Cookies はCookieプラグインを生成する。
// このプラグインを登録しない場合、トークンはレスポンスボディでのみ返される。
func Cookies(opts CookieOptions) *CookiePlugin {
	if opts.Path == "" {
		opts.Path = "/"
	}
	if opts.SameSite == 0 {
		opts.SameSite = http.SameSiteLaxMode
	}
	return &CookiePlugin{opts: opts}
}

// ID はプラグインの識別子を返す。
func (p *CookiePlugin) ID() string {
	return "cookies"
}

// SessionIssued はセッションCookieを設定する。
func (p *CookiePlugin) SessionIssued(e Event) {
	http.SetCookie(e.Writer, p.cookie(e, e.Token, e.ExpiresAt, int(time.Until(e.ExpiresAt).Seconds())))
}

// SessionRevoked はセッションCookieを削除する。
func (p *CookiePlugin) SessionRevoked(e Event) {
	http.SetCookie(e.Writer, p.cookie(e, "", time.Unix(0, 0), -1))
}

func (p *CookiePlugin) cookie(e Event, value string, expires time.Time, maxAge int) *http.Cookie {
	name := SessionCookieName
	if e.Secure {
		name = SecureSessionCookieName
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     p.opts.Path,
		Domain:   p.opts.Domain,
		Expires:  expires,
		MaxAge:   maxAge,
		Secure:   e.Secure,
		HttpOnly: true,
		SameSite: p.opts.SameSite,
	}
}
