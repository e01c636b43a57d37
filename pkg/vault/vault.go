// Package vault obtains short-lived bearer tokens for protected Databus
// downloads. A long-lived refresh token is exchanged at a Keycloak token
// endpoint in two steps: first for a regular access token, then for an
// audience-scoped vault token valid only for one download host.
package vault

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/dbpedia/databusclient/internal/logger"
	"github.com/dbpedia/databusclient/pkg/errors"
)

// RefreshTokenEnv overrides the token file contents when set.
const RefreshTokenEnv = "REFRESH_TOKEN"

const (
	grantRefreshToken  = "refresh_token"
	grantTokenExchange = "urn:ietf:params:oauth:grant-type:token-exchange"

	// minRefreshTokenLen is a sanity bound; real refresh tokens are much
	// longer, so anything shorter hints at a truncated token file.
	minRefreshTokenLen = 80
)

// TokenSource exchanges a refresh token for audience-scoped vault tokens.
// Tokens are not cached: every call performs both grant steps so a token
// can never outlive its server-side expiry.
type TokenSource struct {
	AuthURL   string
	ClientID  string
	TokenFile string

	client *http.Client
}

// New creates a TokenSource against the given Keycloak token endpoint.
func New(authURL, clientID, tokenFile string, timeout time.Duration) *TokenSource {
	return &TokenSource{
		AuthURL:   authURL,
		ClientID:  clientID,
		TokenFile: tokenFile,
		client:    &http.Client{Timeout: timeout},
	}
}

// Available reports whether a refresh token is configured at all, either
// through the environment override or an existing token file. It does not
// validate the token.
func (s *TokenSource) Available() bool {
	if os.Getenv(RefreshTokenEnv) != "" {
		return true
	}
	if s.TokenFile == "" {
		return false
	}
	_, err := os.Stat(s.TokenFile)
	return err == nil
}

// Token returns a vault bearer token scoped to the host of downloadURL.
func (s *TokenSource) Token(ctx context.Context, downloadURL string) (string, error) {
	refreshToken, err := s.refreshToken()
	if err != nil {
		return "", err
	}

	accessToken, err := s.grant(ctx, url.Values{
		"client_id":     {s.ClientID},
		"grant_type":    {grantRefreshToken},
		"refresh_token": {refreshToken},
	})
	if err != nil {
		return "", errors.Wrap(err, "refresh token grant")
	}

	audience := Audience(downloadURL)
	vaultToken, err := s.grant(ctx, url.Values{
		"client_id":     {s.ClientID},
		"grant_type":    {grantTokenExchange},
		"subject_token": {accessToken},
		"audience":      {audience},
	})
	if err != nil {
		return "", errors.Wrapf(err, "token exchange for audience %s", audience)
	}

	logger.Infof("Using vault access token for %s", downloadURL)
	return vaultToken, nil
}

// Audience derives the bare hostname a token is scoped to: the scheme is
// stripped and everything before the first slash is kept.
func Audience(downloadURL string) string {
	s := strings.TrimPrefix(downloadURL, "https://")
	s = strings.TrimPrefix(s, "http://")
	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// refreshToken loads the refresh token, preferring the environment
// override. A missing token file is fatal when no override exists.
func (s *TokenSource) refreshToken() (string, error) {
	if env := os.Getenv(RefreshTokenEnv); env != "" {
		return env, nil
	}

	data, err := os.ReadFile(s.TokenFile)
	if err != nil {
		return "", errors.Wrapf(err, "vault token file %s", s.TokenFile)
	}

	token := strings.TrimSpace(string(data))
	if len(token) < minRefreshTokenLen {
		logger.Warnf("token from %s is short (<%d chars)", s.TokenFile, minRefreshTokenLen)
	}
	return token, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// grant posts one form-encoded grant request and extracts the access token.
func (s *TokenSource) grant(ctx context.Context, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "creating token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	logger.HTTPRequest(http.MethodPost, s.AuthURL, req.Header)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "posting to token endpoint")
	}
	defer func() { _ = resp.Body.Close() }()
	logger.HTTPResponse(http.MethodPost, s.AuthURL, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.Wrapf(errors.ErrTokenExchange, "token endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "reading token response")
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errors.Wrap(errors.ErrTokenExchange, err.Error())
	}
	if parsed.AccessToken == "" {
		return "", errors.Wrap(errors.ErrTokenExchange, "no access_token in response")
	}
	return parsed.AccessToken, nil
}
