package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/franciscosanchezn/insight-hub-api/internal/config"
)

// maxUpstreamBody caps how much of a provider error body is kept for logs
const maxUpstreamBody = 2048

// TokenSet is the provider answer to a code exchange
type TokenSet struct {
	AccessToken  string
	RefreshToken string // empty when the provider did not grant offline access
	IDToken      string // empty when the provider returned no identity token
}

// TokenExchanger trades codes and refresh tokens with the identity provider
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenSet, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, bool)
}

// UserInfo is the provider userinfo document. Google v2 reports the subject as "id",
// the OpenID endpoint as "sub".
type UserInfo struct {
	Sub     string `json:"sub"`
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// UserInfoFetcher reads the userinfo document for an access token
type UserInfoFetcher interface {
	FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error)
}

// GoogleTokenClient talks to Google's token and userinfo endpoints
type GoogleTokenClient struct {
	oauth       *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewGoogleTokenClient builds a client from the registration. A nil httpClient uses http.DefaultClient.
func NewGoogleTokenClient(conf config.OAuthClientConfig, httpClient *http.Client) *GoogleTokenClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GoogleTokenClient{
		oauth:       newOAuth2Config(conf),
		userInfoURL: conf.UserInfoURL,
		httpClient:  httpClient,
	}
}

func newOAuth2Config(conf config.OAuthClientConfig) *oauth2.Config {
	endpoint := google.Endpoint
	if conf.AuthURL != "" {
		endpoint.AuthURL = conf.AuthURL
	}
	if conf.TokenURL != "" {
		endpoint.TokenURL = conf.TokenURL
	}
	// Credentials go in the form body, so a failed exchange is never retried with basic auth
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	return &oauth2.Config{
		ClientID:     conf.ClientID,
		ClientSecret: conf.ClientSecret,
		RedirectURL:  conf.RedirectURI,
		Scopes:       conf.Scopes,
		Endpoint:     endpoint,
	}
}

func (c *GoogleTokenClient) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// ExchangeCode trades an authorization code for tokens. Any provider refusal is a KindUpstreamAuth error.
func (c *GoogleTokenClient) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenSet, error) {
	var opts []oauth2.AuthCodeOption
	if redirectURI != "" && redirectURI != c.oauth.RedirectURL {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", redirectURI))
	}

	token, err := c.oauth.Exchange(c.withClient(ctx), code, opts...)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			status := 0
			if retrieveErr.Response != nil {
				status = retrieveErr.Response.StatusCode
			}
			return nil, upstreamError(status, truncateBody(retrieveErr.Body), err)
		}
		return nil, upstreamError(0, "", err)
	}

	set := &TokenSet{AccessToken: token.AccessToken, RefreshToken: token.RefreshToken}
	if idToken, ok := token.Extra("id_token").(string); ok {
		set.IDToken = idToken
	}
	return set, nil
}

// RefreshAccessToken obtains a fresh access token. Failures are logged and reported as false.
func (c *GoogleTokenClient) RefreshAccessToken(ctx context.Context, refreshToken string) (string, bool) {
	if refreshToken == "" {
		return "", false
	}
	source := c.oauth.TokenSource(c.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		log.WithError(err).Warn("Failed to refresh provider access token")
		return "", false
	}
	return token.AccessToken, true
}

// FetchUserInfo reads the userinfo document with the given access token
func (c *GoogleTokenClient) FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	client := oauth2.NewClient(c.withClient(ctx), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return nil, upstreamError(0, "", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, upstreamError(0, "", fmt.Errorf("userinfo request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
		return nil, upstreamError(resp.StatusCode, string(body), fmt.Errorf("userinfo returned %d", resp.StatusCode))
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, upstreamError(resp.StatusCode, "", fmt.Errorf("decode userinfo: %w", err))
	}
	return &info, nil
}

func truncateBody(body []byte) string {
	if len(body) > maxUpstreamBody {
		body = body[:maxUpstreamBody]
	}
	return string(body)
}
