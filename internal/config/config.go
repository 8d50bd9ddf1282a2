package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Deployment はプロセスが稼働しているデプロイ環境を表す。
type Deployment string

const (
	// DeploymentProduction は本番環境を表す。
	DeploymentProduction Deployment = "production"
	// DeploymentPreview はプレビュー環境を表す。
	DeploymentPreview Deployment = "preview"
	// DeploymentLocal はローカル開発環境を表す。production / preview 以外の値はすべてこれになる。
	DeploymentLocal Deployment = "local"
)

// localURL はローカル開発時のループバックURL。
const localURL = "http://localhost:3000"

// ParseDeployment はデプロイ環境の文字列をDeploymentに変換する。
// 未知の値や空文字列はDeploymentLocalとして扱う。
func ParseDeployment(s string) Deployment {
	switch Deployment(s) {
	case DeploymentProduction:
		return DeploymentProduction
	case DeploymentPreview:
		return DeploymentPreview
	default:
		return DeploymentLocal
	}
}

// ResolveBaseURL は公開ベースURLを導出する。
// production は本番プロジェクトURL、preview はデプロイメントURLをhttpsで参照し、
// それ以外はローカルのループバックURLを返す。
func ResolveBaseURL(d Deployment, productionHost, deploymentHost string) string {
	switch d {
	case DeploymentProduction:
		return "https://" + productionHost
	case DeploymentPreview:
		return "https://" + deploymentHost
	default:
		return localURL
	}
}

// ResolveProductionURL はOAuthコールバックに使用する本番URLを導出する。
// ベースURLとは異なり常にhttpスキームを使う。この非対称性は既存のデプロイと
// 互換性を保つためそのまま維持している。
func ResolveProductionURL(productionHost string) string {
	if productionHost == "" {
		return localURL
	}
	return "http://" + productionHost
}

// Env は環境変数の生の値を保持する。
type Env struct {
	// DeployEnv はデプロイ環境の識別子。
	DeployEnv string `env:"DEPLOY_ENV"`
	// ProductionHost は本番プロジェクトのホスト名。
	ProductionHost string `env:"PROJECT_PRODUCTION_URL"`
	// DeploymentHost は個々のデプロイメントのホスト名。
	DeploymentHost string `env:"DEPLOYMENT_URL"`
	// AuthSecret はセッショントークン署名用の秘密鍵。
	AuthSecret string `env:"AUTH_SECRET"`
	// GitHubClientID はGitHub OAuthアプリのクライアントID。
	GitHubClientID string `env:"AUTH_GITHUB_ID"`
	// GitHubClientSecret はGitHub OAuthアプリのクライアントシークレット。
	GitHubClientSecret string `env:"AUTH_GITHUB_SECRET"`
	// Port はHTTPサーバーのリッスンポート。
	Port string `env:"PORT" envDefault:"3000"`
	// DatabasePath はSQLiteデータベースファイルのパス。
	DatabasePath string `env:"DATABASE_PATH" envDefault:"/data/acme.db"`
	// ExtraOrigins はCORSで追加許可するオリジン（カンマ区切り）。
	ExtraOrigins []string `env:"CORS_EXTRA_ORIGINS" envSeparator:","`
}

// Config はプロセス起動時に一度だけ構築される不変の設定。
type Config struct {
	// Deployment はデプロイ環境。
	Deployment Deployment
	// BaseURL は公開ベースURL。
	BaseURL string
	// ProductionURL はOAuthコールバック用の本番URL。
	ProductionURL string
	// Secret はセッショントークン署名用の秘密鍵。
	Secret string
	// GitHubClientID はGitHub OAuthアプリのクライアントID。
	GitHubClientID string
	// GitHubClientSecret はGitHub OAuthアプリのクライアントシークレット。
	GitHubClientSecret string
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// DatabasePath はSQLiteデータベースファイルのパス。
	DatabasePath string
	// TrustedOrigins はCORSとコールバックリダイレクトで信頼するオリジン。
	TrustedOrigins []string
}

// Load はプロセスの環境変数から設定を構築する。
func Load() (Config, error) {
	var raw Env
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("環境変数の解析に失敗: %w", err)
	}
	return FromEnv(raw), nil
}

// LoadFrom は指定された環境変数マップから設定を構築する。テストで使用する。
func LoadFrom(environ map[string]string) (Config, error) {
	var raw Env
	if err := env.ParseWithOptions(&raw, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("環境変数の解析に失敗: %w", err)
	}
	return FromEnv(raw), nil
}

// FromEnv は生の環境変数値から設定を導出する。
func FromEnv(raw Env) Config {
	d := ParseDeployment(raw.DeployEnv)
	baseURL := ResolveBaseURL(d, raw.ProductionHost, raw.DeploymentHost)
	productionURL := ResolveProductionURL(raw.ProductionHost)

	return Config{
		Deployment:         d,
		BaseURL:            baseURL,
		ProductionURL:      productionURL,
		Secret:             raw.AuthSecret,
		GitHubClientID:     raw.GitHubClientID,
		GitHubClientSecret: raw.GitHubClientSecret,
		Port:               raw.Port,
		DatabasePath:       raw.DatabasePath,
		TrustedOrigins:     trustedOrigins(baseURL, productionURL, raw.ExtraOrigins),
	}
}

// trustedOrigins はベースURL・本番URL・追加オリジンを重複なく並べる。
func trustedOrigins(baseURL, productionURL string, extra []string) []string {
	seen := make(map[string]struct{})
	origins := make([]string, 0, 2+len(extra))
	for _, o := range append([]string{baseURL, productionURL}, extra...) {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		origins = append(origins, o)
	}
	return origins
}
