package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxTokenResponse bounds how much of a token endpoint response is read.
const maxTokenResponse = 1 << 20

// BasicCredentials returns base64(client_id:client_secret) as sent in the token request Authorization header.
func BasicCredentials(clientID, clientSecret string) string {
	return base64.StdEncoding.EncodeToString([]byte(clientID + ":" + clientSecret))
}

// ExchangeCode trades the pending authorization code for a token set and overwrites all five fields of the session tokens.
//
// The pending code is consumed whether or not the exchange succeeds.
func (f *Flow) ExchangeCode(ctx context.Context) (TokenSet, error) {
	code := f.session.takeCode()
	if code == "" {
		return TokenSet{}, fmt.Errorf("%w: no authorization code pending", ErrTokenExchangeFailed)
	}

	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {f.config.RedirectURL},
	}

	tokens, err := f.requestToken(ctx, form)
	if err != nil {
		return TokenSet{}, err
	}

	return f.session.replaceTokens(tokens), nil
}

// RefreshToken trades the session's refresh token for a new access token.
//
// Without a refresh token it is a no-op that returns the current tokens and false.
// On success the access token, type, scope and lifetime are replaced. The refresh token is
// never touched, even when the response carries a new one.
func (f *Flow) RefreshToken(ctx context.Context) (TokenSet, bool, error) {
	current := f.session.Tokens()
	if !current.HasRefreshToken() {
		return current, false, nil
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {*current.RefreshToken},
	}

	tokens, err := f.requestToken(ctx, form)
	if err != nil {
		return current, false, err
	}

	return f.session.refreshTokens(tokens), true, nil
}

// requestToken posts form to the token endpoint with client Basic auth and decodes the response.
func (f *Flow) requestToken(ctx context.Context, form url.Values) (TokenSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.config.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return TokenSet{}, fmt.Errorf("%w: failed to create request: %v", ErrTokenExchangeFailed, err)
	}

	req.Header.Set("Authorization", "Basic "+BasicCredentials(f.config.ClientID, f.config.ClientSecret))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return TokenSet{}, fmt.Errorf("%w: request failed: %v", ErrTokenExchangeFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponse))
	if err != nil {
		return TokenSet{}, fmt.Errorf("%w: failed to read response: %v", ErrTokenExchangeFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return TokenSet{}, fmt.Errorf("%w: status %d%s", ErrTokenExchangeFailed, resp.StatusCode, providerError(body))
	}

	tokens, err := decodeTokenSet(body)
	if err != nil {
		return TokenSet{}, fmt.Errorf("%w: %v", ErrTokenExchangeFailed, err)
	}

	if !tokens.HasAccessToken() {
		return TokenSet{}, fmt.Errorf("%w: response carried no access_token", ErrTokenExchangeFailed)
	}

	return tokens, nil
}

// decodeTokenSet reads the five token fields from a JSON object.
//
// Strings are taken as-is, numbers keep their literal text, null and missing fields stay nil.
func decodeTokenSet(body []byte) (TokenSet, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return TokenSet{}, fmt.Errorf("failed to decode response: %w", err)
	}

	var t TokenSet
	for name, dst := range map[string]**string{
		"access_token":  &t.AccessToken,
		"token_type":    &t.TokenType,
		"scope":         &t.Scope,
		"expires_in":    &t.ExpiresIn,
		"refresh_token": &t.RefreshToken,
	} {
		v, err := optionalString(fields[name])
		if err != nil {
			return TokenSet{}, fmt.Errorf("field %s: %w", name, err)
		}
		*dst = v
	}

	return t, nil
}

func optionalString(raw json.RawMessage) (*string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return &s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("expected string or number, got %s", raw)
	}
	s := n.String()
	return &s, nil
}

// providerError extracts the OAuth error fields from an error response body, if any.
func providerError(body []byte) string {
	var e struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &e); err != nil || e.Error == "" {
		return ""
	}
	if e.Description == "" {
		return ": " + e.Error
	}
	return ": " + e.Error + " (" + e.Description + ")"
}
