package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestCookiePlugin はCookieプラグインの属性を検証する。
func TestCookiePlugin(t *testing.T) {
	t.Parallel()

	t.Run("https環境では__Secure-接頭辞とSecure属性が付くこと", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		p := Cookies(CookieOptions{Domain: "example.com"})
		p.SessionIssued(Event{Writer: w, Token: "tok", ExpiresAt: time.Now().Add(time.Hour), Secure: true})

		cookies := w.Result().Cookies()
		if len(cookies) != 1 {
			t.Fatalf("Cookie数 = %d, want 1", len(cookies))
		}
		c := cookies[0]
		if c.Name != SecureSessionCookieName {
			t.Errorf("Name = %q, want %q", c.Name, SecureSessionCookieName)
		}
		if !c.Secure || !c.HttpOnly {
			t.Errorf("Secure=%v HttpOnly=%v, want both true", c.Secure, c.HttpOnly)
		}
		if c.Domain != "example.com" {
			t.Errorf("Domain = %q, want %q", c.Domain, "example.com")
		}
		if c.Path != "/" {
			t.Errorf("Path = %q, want %q", c.Path, "/")
		}
		if c.SameSite != http.SameSiteLaxMode {
			t.Errorf("SameSite = %v, want %v", c.SameSite, http.SameSiteLaxMode)
		}
		if c.Value != "tok" {
			t.Errorf("Value = %q, want %q", c.Value, "tok")
		}
	})

	t.Run("失効時はCookieが削除されること", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		Cookies(CookieOptions{}).SessionRevoked(Event{Writer: w})

		cookies := w.Result().Cookies()
		if len(cookies) != 1 {
			t.Fatalf("Cookie数 = %d, want 1", len(cookies))
		}
		if cookies[0].Name != SessionCookieName || cookies[0].MaxAge >= 0 {
			t.Errorf("cookie = %+v, want deleted %s", cookies[0], SessionCookieName)
		}
	})

	t.Run("IDがcookiesであること", func(t *testing.T) {
		t.Parallel()

		if got := Cookies(CookieOptions{}).ID(); got != "cookies" {
			t.Errorf("ID() = %q, want %q", got, "cookies")
		}
	})
}
