package github

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	ghoauth "golang.org/x/oauth2/github"

	"github.com/NordCoder/ghbridge/internal/obs"
)

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	// AuthURL and TokenURL override the github.com endpoints (GitHub Enterprise).
	AuthURL  string
	TokenURL string
	Timeout  time.Duration
}

// Token is what a successful code exchange yields.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

type Exchanger struct {
	conf    *oauth2.Config
	client  *http.Client
	timeout time.Duration
}

func NewExchanger(cfg OAuthConfig) *Exchanger {
	ep := ghoauth.Endpoint
	if cfg.AuthURL != "" {
		ep.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		ep.TokenURL = cfg.TokenURL
	}
	ep.AuthStyle = oauth2.AuthStyleInParams
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Exchanger{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     ep,
		},
		client:  &http.Client{Transport: obs.HTTPTransport(nil), Timeout: timeout},
		timeout: timeout,
	}
}

// Exchange trades an authorization code for an access token.
func (e *Exchanger) Exchange(ctx context.Context, code string) (Token, error) {
	if code == "" {
		return Token{}, errors.New("github: empty authorization code")
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.client)

	tok, err := e.conf.Exchange(ctx, code)
	if err != nil {
		return Token{}, err
	}
	scope, _ := tok.Extra("scope").(string)
	return Token{AccessToken: tok.AccessToken, TokenType: tok.TokenType, Scope: scope}, nil
}
