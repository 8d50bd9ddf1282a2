package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/nao1215/acme/pkg/httpclient"
)

var (
	// ErrMissingSecret はセッショントークン署名用の秘密鍵が未設定であることを表す。
	ErrMissingSecret = errors.New("auth: secret is required")
	// ErrMissingGitHubCredentials はGitHub OAuthのクライアント情報が未設定であることを表す。
	ErrMissingGitHubCredentials = errors.New("auth: github client id and secret are required")
	// ErrMissingDB はデータベース接続が渡されていないことを表す。
	ErrMissingDB = errors.New("auth: database is required")
)

const (
	// DefaultSessionTTL はセッションのデフォルト有効期間。
	DefaultSessionTTL = 7 * 24 * time.Hour
	// defaultGitHubAPIURL はGitHub REST APIのベースURL。
	defaultGitHubAPIURL = "https://api.github.com"
	// callbackPath はOAuthコールバックのパス。
	callbackPath = "/api/auth/callback/github"
)

// Options は認証サービスの構築パラメータ。
type Options struct {
	// BaseURL は公開ベースURL。Cookieのsecure属性とリダイレクト先の解決に使う。
	BaseURL string
	// ProductionURL はOAuthコールバックを受ける本番URL。
	ProductionURL string
	// Secret はセッショントークン署名用の秘密鍵。
	Secret string
	// GitHubClientID はGitHub OAuthアプリのクライアントID。
	GitHubClientID string
	// GitHubClientSecret はGitHub OAuthアプリのクライアントシークレット。
	GitHubClientSecret string
	// ExtraPlugins はセッション発行・失効時に呼び出すプラグイン。
	ExtraPlugins []Plugin
	// DB はユーザーとセッションを保存するデータベース。
	DB *sql.DB
	// TrustedOrigins はコールバックURLとして許可する追加オリジン。
	TrustedOrigins []string
	// SessionTTL はセッションの有効期間。ゼロならDefaultSessionTTL。
	SessionTTL time.Duration
	// HTTPClient はGitHubとの通信に使うHTTPクライアント。nilならデフォルト。
	HTTPClient *http.Client
	// GitHubEndpoint はOAuthエンドポイント。ゼロ値ならgithub.Endpoint。
	GitHubEndpoint oauth2.Endpoint
	// GitHubAPIURL はGitHub REST APIのベースURL。空ならapi.github.com。
	GitHubAPIURL string
}

// Service は認証サービス。構築後は読み取り専用で、複数リクエストから並行に使用できる。
type Service struct {
	baseURL       *url.URL
	productionURL string
	secret        []byte
	oauth         *oauth2.Config
	github        *httpclient.Client
	httpClient    *http.Client
	store         *store
	plugins       []Plugin
	sessionTTL    time.Duration
	trusted       map[string]struct{}
	now           func() time.Time
}

// Init は設定から認証サービスを構築する。
// 必須の設定が欠けている場合はエラーを返し、呼び出し側は起動を中止する。
func Init(opts Options) (*Service, error) {
	if opts.Secret == "" {
		return nil, ErrMissingSecret
	}
	if opts.GitHubClientID == "" || opts.GitHubClientSecret == "" {
		return nil, ErrMissingGitHubCredentials
	}
	if opts.DB == nil {
		return nil, ErrMissingDB
	}

	baseURL, err := parseOrigin(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("auth: invalid base url: %w", err)
	}
	productionURL, err := parseOrigin(opts.ProductionURL)
	if err != nil {
		return nil, fmt.Errorf("auth: invalid production url: %w", err)
	}

	endpoint := opts.GitHubEndpoint
	if endpoint.AuthURL == "" || endpoint.TokenURL == "" {
		endpoint = github.Endpoint
	}
	apiURL := opts.GitHubAPIURL
	if apiURL == "" {
		apiURL = defaultGitHubAPIURL
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	trusted := make(map[string]struct{})
	for _, o := range append([]string{baseURL.String(), productionURL.String()}, opts.TrustedOrigins...) {
		if u, err := parseOrigin(o); err == nil {
			trusted[u.String()] = struct{}{}
		}
	}

	return &Service{
		baseURL:       baseURL,
		productionURL: productionURL.String(),
		secret:        []byte(opts.Secret),
		oauth: &oauth2.Config{
			ClientID:     opts.GitHubClientID,
			ClientSecret: opts.GitHubClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  productionURL.String() + callbackPath,
			Scopes:       []string{"read:user", "user:email"},
		},
		github: httpclient.New(apiURL,
			httpclient.WithHTTPClient(opts.HTTPClient),
			httpclient.WithUserAgent("acme-auth"),
		),
		httpClient: opts.HTTPClient,
		store:      &store{db: opts.DB},
		plugins:    append([]Plugin(nil), opts.ExtraPlugins...),
		sessionTTL: ttl,
		trusted:    trusted,
		now:        time.Now,
	}, nil
}

// GetSession はリクエストヘッダーのセッショントークンからセッションを解決する。
// 有効な資格情報がない場合は (nil, nil) を返し、データベース障害はエラーとして返す。
func (s *Service) GetSession(ctx context.Context, headers http.Header) (*Session, error) {
	token := tokenFromHeaders(headers)
	if token == "" {
		return nil, nil
	}

	claims, err := parseSessionToken(s.secret, token)
	if err != nil {
		return nil, nil
	}

	sess, err := s.store.findSession(ctx, claims.SessionID)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("セッションの取得に失敗: %w", err)
	}
	if sess.User.ID != claims.Subject || !s.now().Before(sess.Session.ExpiresAt) {
		return nil, nil
	}
	return sess, nil
}

// Secure はベースURLがhttpsかどうかを返す。Cookieのsecure属性に使う。
func (s *Service) Secure() bool {
	return s.baseURL.Scheme == "https"
}

// RedirectURL はGitHubに登録するOAuthコールバックURLを返す。
func (s *Service) RedirectURL() string {
	return s.oauth.RedirectURL
}

// parseOrigin はURLを検証し、スキームとホストだけのオリジンに正規化する。
func parseOrigin(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("host is empty")
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host}, nil
}
