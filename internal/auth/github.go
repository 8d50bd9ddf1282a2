package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/nao1215/acme/pkg/httpclient"
)

// stateTTL はOAuth stateの有効期間。
const stateTTL = 10 * time.Minute

// stateIdentifier はverificationsテーブル上のOAuth stateのキー。
func stateIdentifier(state string) string {
	return "oauth-state:github:" + state
}

// githubLogin はGitHubから取得したログイン情報。
type githubLogin struct {
	profile     githubProfile
	email       string
	accessToken string
	scope       string
}

// exchangeGitHubCode は認可コードをアクセストークンに交換し、プロフィールとメールアドレスを取得する。
func (s *Service) exchangeGitHubCode(ctx context.Context, code string) (*githubLogin, error) {
	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}

	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("認可コードの交換に失敗: %w", err)
	}

	bearer := httpclient.WithBearerToken(tok.AccessToken)
	apiVersion := httpclient.WithHeader("X-GitHub-Api-Version", "2022-11-28")

	var profile githubProfile
	if err := s.github.GetJSON(ctx, "/user", &profile, bearer, apiVersion); err != nil {
		return nil, fmt.Errorf("GitHubプロフィールの取得に失敗: %w", err)
	}

	email := profile.Email
	if email == "" {
		var emails []githubEmail
		if err := s.github.GetJSON(ctx, "/user/emails", &emails, bearer, apiVersion); err != nil {
			return nil, fmt.Errorf("GitHubメールアドレスの取得に失敗: %w", err)
		}
		email = pickEmail(emails)
	}
	if email == "" {
		return nil, errors.New("検証済みのメールアドレスがありません")
	}

	scope, _ := tok.Extra("scope").(string)
	return &githubLogin{
		profile:     profile,
		email:       email,
		accessToken: tok.AccessToken,
		scope:       scope,
	}, nil
}

// pickEmail は検証済みのプライマリアドレスを優先し、なければ最初の検証済みアドレスを返す。
func pickEmail(emails []githubEmail) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email
		}
	}
	return ""
}
